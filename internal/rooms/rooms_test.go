package rooms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	data  map[string][]byte
	fail  bool
	saves int
}

func (m *memStore) Load(_ context.Context, bucket string) ([]byte, bool, error) {
	if m.fail {
		return nil, false, errors.New("offline")
	}
	b, ok := m.data[bucket]
	return b, ok, nil
}

func (m *memStore) Save(_ context.Context, bucket string, payload []byte) error {
	if m.fail {
		return errors.New("offline")
	}
	m.saves++
	m.data[bucket] = payload
	return nil
}

func (m *memStore) Close() error { return nil }

func TestServicePersistsRooms(t *testing.T) {
	ctx := context.Background()
	store := &memStore{data: map[string][]byte{}}
	svc := NewService(ctx, store, nil)
	require.NotNil(t, svc.List(ctx))
	assert.Empty(t, svc.List(ctx))

	room, err := svc.Create(ctx, Input{RoomName: "  Sample Room ", Area: 100})
	require.NoError(t, err)
	assert.Equal(t, "Sample Room", room.RoomName)
	assert.NotEmpty(t, room.ID)
	assert.Equal(t, 1, store.saves)

	reloaded := NewService(ctx, store, nil)
	require.Len(t, reloaded.List(ctx), 1)
	assert.Equal(t, room.ID, reloaded.List(ctx)[0].ID)
}

func TestServiceValidatesAndSwallowsStoreErrors(t *testing.T) {
	ctx := context.Background()
	svc := NewService(ctx, &memStore{data: map[string][]byte{}, fail: true}, nil)
	_, err := svc.Create(ctx, Input{RoomName: " "})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = svc.Create(ctx, Input{RoomName: "x", Area: -1})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = svc.Create(ctx, Input{RoomName: "Kept", Area: 5})
	require.NoError(t, err)
	assert.Len(t, svc.List(ctx), 1)
}

func TestServiceDiscardsCorruptList(t *testing.T) {
	store := &memStore{data: map[string][]byte{StateKey: []byte("{")}}
	assert.Empty(t, NewService(context.Background(), store, nil).List(context.Background()))
}

func TestServiceEmptyListEncodesAsArray(t *testing.T) {
	ctx := context.Background()
	for name, store := range map[string]*memStore{
		"fresh":   {data: map[string][]byte{}},
		"null":    {data: map[string][]byte{StateKey: []byte("null")}},
		"corrupt": {data: map[string][]byte{StateKey: []byte("[")}},
	} {
		t.Run(name, func(t *testing.T) {
			b, err := json.Marshal(NewService(ctx, store, nil).List(ctx))
			require.NoError(t, err)
			assert.JSONEq(t, `[]`, string(b))
		})
	}
}

func newMockClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	t.Helper()
	mt := httpmock.NewMockTransport()
	c, err := NewClient("https://rooms.example.test/", &http.Client{Transport: mt})
	require.NoError(t, err)
	return c, mt
}

func TestClientList(t *testing.T) {
	c, mt := newMockClient(t)
	mt.RegisterResponder(http.MethodGet, "https://rooms.example.test/api/v1/rooms",
		httpmock.NewStringResponder(http.StatusOK, `[{"id":"r1","roomName":"Lab","area":56,"createdAt":"2024-01-01T00:00:00Z"}]`))

	rooms, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "Lab", rooms[0].RoomName)
	assert.InDelta(t, 56.0, rooms[0].Area, 0.0001)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), rooms[0].CreatedAt)
	assert.Equal(t, 1, mt.GetTotalCallCount())
}

func TestClientCreate(t *testing.T) {
	c, mt := newMockClient(t)
	mt.RegisterResponder(http.MethodPost, "https://rooms.example.test/api/v1/rooms",
		func(req *http.Request) (*http.Response, error) {
			var in Input
			if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, err.Error()), nil
			}
			return httpmock.NewJsonResponse(http.StatusCreated, Room{ID: "r2", RoomName: in.RoomName, Area: in.Area})
		})

	room, err := c.Create(context.Background(), Input{RoomName: "Sample Room", Area: 100})
	require.NoError(t, err)
	assert.Equal(t, "r2", room.ID)
	assert.Equal(t, "Sample Room", room.RoomName)

	_, err = c.Create(context.Background(), Input{})
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, 1, mt.GetTotalCallCount())
}

func TestClientUnexpectedStatus(t *testing.T) {
	c, mt := newMockClient(t)
	mt.RegisterResponder(http.MethodGet, "https://rooms.example.test/api/v1/rooms",
		httpmock.NewStringResponder(http.StatusBadGateway, "upstream down"))
	_, err := c.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")

	_, err = NewClient(" ", nil)
	assert.Error(t, err)
}
