package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"occucalc/internal/adapters/httpapi"
	"occucalc/internal/adapters/sheets"
	"occucalc/internal/core"
	"occucalc/internal/infra/persistence/memory"
	"occucalc/internal/rooms"
)

type env struct {
	dir    string
	config string
}

func newEnv(t *testing.T, extra string) env {
	t.Helper()
	dir := t.TempDir()
	body := fmt.Sprintf(`storage:
  driver: sqlite
  sqlite:
    path: %s
blob:
  driver: fs
  fs:
    root: %s
log:
  mode: production
server:
  addr: "127.0.0.1:0"
%s`, filepath.Join(dir, "state.db"), filepath.Join(dir, "blobs"), extra)
	path := filepath.Join(dir, "occucalc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return env{dir: dir, config: path}
}

func (e env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return e.runContext(t, context.Background(), args...)
}

func (e env) runContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", e.config}, args...))
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func (e env) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, "occucalc %s\n%s", strings.Join(args, " "), out)
	return out
}

func TestCodesMarksActive(t *testing.T) {
	e := newEnv(t, "")
	out := e.mustRun(t, "codes")
	assert.Contains(t, out, "*  "+core.DefaultCodeID)
	assert.Contains(t, out, core.CodeGeneric)

	out = e.mustRun(t, "use", core.CodeGeneric)
	assert.Contains(t, out, "Generic (edit as needed)")

	out = e.mustRun(t, "codes")
	assert.Contains(t, out, "*  "+core.CodeGeneric)

	_, err := e.run(t, "use", "NOPE")
	require.Error(t, err)
}

func TestRowsPersistAcrossRuns(t *testing.T) {
	e := newEnv(t, "")
	e.mustRun(t, "use", core.CodeGeneric)
	e.mustRun(t, "rows", "add", "-n", "1")
	e.mustRun(t, "rows", "set", "1", "area", "28")
	out := e.mustRun(t, "rows", "set", "2", "type", "Restaurant")
	assert.Contains(t, out, "load 0")
	out = e.mustRun(t, "rows", "set", "2", "area", "14")
	assert.Contains(t, out, "load 10")

	out = e.mustRun(t, "totals")
	assert.Contains(t, out, "Retail")
	assert.Contains(t, out, "Grand Total  20")

	out = e.mustRun(t, "rows", "list", "--sort", "load", "--desc")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "1 ") || strings.HasPrefix(lines[1], "2 "))

	out = e.mustRun(t, "rows", "list", "--search", "SPACE 2")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)

	_, err := e.run(t, "rows", "set", "9", "area", "1")
	require.Error(t, err)
	_, err = e.run(t, "rows", "set", "1", "colour", "red")
	require.Error(t, err)
	_, err = e.run(t, "rows", "list", "--sort", "colour")
	require.Error(t, err)
}

func TestSelectionCommands(t *testing.T) {
	e := newEnv(t, "")
	e.mustRun(t, "use", core.CodeGeneric)
	e.mustRun(t, "rows", "add", "-n", "2")

	out := e.mustRun(t, "rows", "select", "1", "2")
	assert.Contains(t, out, "selected: 2")
	e.mustRun(t, "rows", "apply-type", "Mechanical")
	e.mustRun(t, "rows", "duplicate")
	out = e.mustRun(t, "rows", "list")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 6)

	out = e.mustRun(t, "rows", "delete-selected")
	assert.Contains(t, out, "rows: 3")

	out = e.mustRun(t, "rows", "select", "--all")
	assert.Contains(t, out, "selected: 3")
	out = e.mustRun(t, "rows", "select", "--none")
	assert.Contains(t, out, "selected: 0")

	_, err := e.run(t, "rows", "select")
	require.Error(t, err)
	_, err = e.run(t, "rows", "select", "--all", "--none")
	require.Error(t, err)

	e.mustRun(t, "rows", "remove", "3")
	out = e.mustRun(t, "rows", "clear")
	assert.Contains(t, out, "rows: 1")
}

func TestFactorCommands(t *testing.T) {
	e := newEnv(t, "")
	e.mustRun(t, "use", core.CodeGeneric)
	e.mustRun(t, "factors", "set", "Retail", "4")
	e.mustRun(t, "factors", "add", "Kiosk")

	var fl factorList
	require.NoError(t, json.Unmarshal([]byte(e.mustRun(t, "factors", "list", "-o", "json")), &fl))
	assert.Equal(t, core.CodeGeneric, fl.CodeID)
	values := map[string]factorEntry{}
	for _, f := range fl.Factors {
		values[f.Type] = f
	}
	assert.Equal(t, 4.0, values["Retail"].Value)
	assert.True(t, values["Kiosk"].Custom)

	var yl factorList
	require.NoError(t, yaml.Unmarshal([]byte(e.mustRun(t, "factors", "list", "-o", "yaml")), &yl))
	assert.Equal(t, fl, yl)

	out := e.mustRun(t, "factors", "list")
	assert.Contains(t, out, "# Generic (edit as needed)")

	_, err := e.run(t, "factors", "set", "Retail", "-2")
	require.Error(t, err)
	_, err = e.run(t, "factors", "set", "Nope", "2")
	require.Error(t, err)
	_, err = e.run(t, "factors", "list", "-o", "xml")
	require.Error(t, err)

	e.mustRun(t, "factors", "delete", "Kiosk")
	e.mustRun(t, "factors", "reset")
	require.NoError(t, json.Unmarshal([]byte(e.mustRun(t, "factors", "list", "-o", "json")), &fl))
	assert.Equal(t, 2.8, fl.Factors[0].Value)
}

func TestImportAndExport(t *testing.T) {
	e := newEnv(t, "")
	tpl := filepath.Join(e.dir, sheets.FileTemplate)
	e.mustRun(t, "export", "template", "-o", tpl)

	out := e.mustRun(t, "import", tpl)
	assert.Contains(t, out, "imported 3 rows, grand total 83")
	out = e.mustRun(t, "mode", "manual")
	assert.Contains(t, out, "mode: manual")
	e.mustRun(t, "mode", "upload")

	csvPath := filepath.Join(e.dir, "rows.csv")
	e.mustRun(t, "export", "csv", "-o", csvPath)
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Laboratory")

	pdfPath := filepath.Join(e.dir, "summary.pdf")
	e.mustRun(t, "export", "summary", "-o", pdfPath)
	data, err = os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	_, err = e.run(t, "export", "docx")
	require.Error(t, err)

	bad := filepath.Join(e.dir, "plan.txt")
	require.NoError(t, os.WriteFile(bad, []byte("x"), 0o600))
	_, err = e.run(t, "import", bad)
	require.Error(t, err)
}

func TestRoomsAgainstServer(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ws := core.Open(ctx, core.Options{Store: store})
	api := httptest.NewServer(httpapi.New(httpapi.Options{Workspace: ws, Rooms: rooms.NewService(ctx, store, nil)}).Handler())
	defer api.Close()

	e := newEnv(t, "rooms:\n  base_url: "+api.URL+"\n")
	out := e.mustRun(t, "rooms", "create", "--name", "Lobby", "--area", "42")
	assert.Contains(t, out, "created room ")

	out = e.mustRun(t, "rooms", "list")
	assert.Contains(t, out, "Lobby")
	assert.Contains(t, out, "42")

	_, err := e.run(t, "rooms", "create", "--name", " ")
	require.Error(t, err)
}

func TestRoomsRequireBaseURL(t *testing.T) {
	e := newEnv(t, "")
	_, err := e.run(t, "rooms", "list")
	require.ErrorContains(t, err, "base url")
}

func TestServeStopsOnCancel(t *testing.T) {
	e := newEnv(t, "")
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_, err := e.runContext(t, ctx, "serve")
	require.NoError(t, err)
}

func TestStorageDriverFlag(t *testing.T) {
	e := newEnv(t, "")
	e.mustRun(t, "--storage-driver", "memory", "use", core.CodeGeneric)
	out := e.mustRun(t, "codes")
	assert.Contains(t, out, "*  "+core.DefaultCodeID)

	_, err := e.run(t, "--storage-driver", "mongo", "codes")
	require.Error(t, err)
}
