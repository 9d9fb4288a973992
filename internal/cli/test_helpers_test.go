package cli

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/tsifsaropt1/microplastics-analyzer/internal/config"
	"github.com/tsifsaropt1/microplastics-analyzer/internal/logging"
	"github.com/tsifsaropt1/microplastics-analyzer/internal/storage"
)

// Sunday noon UTC. Seeded scans land on Sun, Sat, Fri, Thu and Wed.
var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// openTestDB creates a migrated in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	require.NoError(t, storage.NewMigrationRunner(db, "").Run())
	return db
}

// newTestApp wires an app over a fresh in-memory database with a fixed
// clock. The manager is already initialized, so the sample data is present.
func newTestApp(t *testing.T, mutate ...func(*config.Config)) *app {
	t.Helper()
	db := openTestDB(t)
	store, err := storage.NewSQLiteStore(db)
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Display.Timezone = "UTC"
	for _, fn := range mutate {
		fn(cfg)
	}

	a, err := assemble(context.Background(), cfg, logging.NewNop(), store, fixedClock{testNow})
	require.NoError(t, err)
	a.db = db
	t.Cleanup(a.Close)
	return a
}

// withBackend points the app config at a test server running h.
func withBackend(t *testing.T, h http.HandlerFunc) func(*config.Config) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return func(cfg *config.Config) {
		cfg.Backend.Enabled = true
		cfg.Backend.URL = srv.URL
		cfg.Backend.RequestsPerSecond = 0
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// run executes fn against a and returns what it printed.
func run(t *testing.T, fn func(context.Context, *app) error, a *app) (string, error) {
	t.Helper()
	var err error
	out := captureOutput(t, func() {
		err = fn(context.Background(), a)
	})
	return out, err
}
