// Package rooms keeps a small list of named rooms that clients can sync with.
// It is independent of the occupancy engine.
package rooms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"occucalc/internal/platform/logger"
	"occucalc/pkg/domain"
)

// StateKey is the state store bucket holding the room list.
const StateKey = "occuCalc.rooms.v1"

// Room is one stored room.
type Room struct {
	ID        string    `json:"id"`
	RoomName  string    `json:"roomName"`
	Area      float64   `json:"area"`
	CreatedAt time.Time `json:"createdAt"`
}

// Input is a create request.
type Input struct {
	RoomName string  `json:"roomName"`
	Area     float64 `json:"area"`
}

// ErrInvalid reports a create request that cannot be stored.
var ErrInvalid = errors.New("invalid room")

// Validate trims the name and checks the area.
func (in Input) Validate() (Input, error) {
	in.RoomName = strings.TrimSpace(in.RoomName)
	if in.RoomName == "" {
		return in, fmt.Errorf("%w: roomName required", ErrInvalid)
	}
	if math.IsNaN(in.Area) || math.IsInf(in.Area, 0) || in.Area < 0 {
		return in, fmt.Errorf("%w: area must be a non-negative number", ErrInvalid)
	}
	return in, nil
}

// Service stores rooms in a state store bucket. The list is loaded once and
// rewritten on every create; write failures are logged and swallowed.
type Service struct {
	mu    sync.Mutex
	store domain.StateStore
	log   *logger.Logger
	rooms []Room
	now   func() time.Time
}

// NewService loads the stored list. An unreadable list starts empty.
func NewService(ctx context.Context, store domain.StateStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Service{store: store, log: log, rooms: []Room{}, now: func() time.Time { return time.Now().UTC() }}
	if store == nil {
		return s
	}
	data, ok, err := store.Load(ctx, StateKey)
	switch {
	case err != nil:
		log.Warn("rooms load failed", "key", StateKey, "error", err)
	case ok:
		var rooms []Room
		if err := json.Unmarshal(data, &rooms); err != nil {
			log.Warn("discarding stored rooms", "key", StateKey, "error", err)
		} else if rooms != nil {
			s.rooms = rooms
		}
	}
	return s
}

// List returns the rooms in creation order.
func (s *Service) List(context.Context) []Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Room, len(s.rooms))
	copy(out, s.rooms)
	return out
}

// Create validates and appends a room.
func (s *Service) Create(ctx context.Context, in Input) (Room, error) {
	in, err := in.Validate()
	if err != nil {
		return Room{}, err
	}
	room := Room{ID: uuid.NewString(), RoomName: in.RoomName, Area: in.Area, CreatedAt: s.now()}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = append(s.rooms, room)
	if s.store != nil {
		data, err := json.Marshal(s.rooms)
		if err == nil {
			err = s.store.Save(ctx, StateKey, data)
		}
		if err != nil {
			s.log.Warn("rooms write failed", "key", StateKey, "error", err)
		}
	}
	return room, nil
}
