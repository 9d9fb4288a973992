package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tsifsaropt1/microplastics-analyzer/internal/backend"
	"github.com/tsifsaropt1/microplastics-analyzer/internal/config"
	"github.com/tsifsaropt1/microplastics-analyzer/internal/exposure"
	"github.com/tsifsaropt1/microplastics-analyzer/internal/logging"
	"github.com/tsifsaropt1/microplastics-analyzer/internal/metrics"
	"github.com/tsifsaropt1/microplastics-analyzer/internal/storage"
)

// app is everything one command invocation needs. It is built once per
// run, hydrated from the store, and closed when the command returns.
type app struct {
	cfg     *config.Config
	log     *logging.Logger
	metrics *metrics.Metrics
	store   storage.Store
	db      *sql.DB // nil for stores without a database
	manager *exposure.Manager
	backend *backend.Client // nil when the backend is disabled
	clock   exposure.Clock
}

// newApp loads config, opens the store and initializes the data manager.
func newApp(ctx context.Context, globals *GlobalFlags) (*app, error) {
	configPath := config.DefaultConfigPath
	if globals != nil && globals.Config != "" {
		configPath = globals.Config
	}

	cfg, err := config.LoadOrCreateAt(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	config.ApplyEnv(cfg)
	if globals != nil && globals.Verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	dbPath, err := cfg.DBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve db path: %w", err)
	}
	store, db, err := storage.Open(dbPath, cfg.Storage.JournalMode)
	if err != nil {
		return nil, err
	}
	log.Debugw("opened store", "path", dbPath)

	a, err := assemble(ctx, cfg, log, store, exposure.SystemClock{})
	if err != nil {
		store.Close()
		db.Close()
		return nil, err
	}
	a.db = db
	return a, nil
}

// assemble wires the manager and backend client over an open store.
func assemble(ctx context.Context, cfg *config.Config, log *logging.Logger, store storage.Store, clock exposure.Clock) (*app, error) {
	loc, err := cfg.Display.Location()
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	records := storage.NewRecords(store, log, m)
	manager := exposure.NewManager(records,
		exposure.WithClock(clock),
		exposure.WithLocation(loc),
		exposure.WithLogger(log),
		exposure.WithMetrics(m),
	)
	manager.Initialize(ctx)

	a := &app{
		cfg:     cfg,
		log:     log,
		metrics: m,
		store:   store,
		manager: manager,
		clock:   clock,
	}
	if cfg.Backend.Enabled {
		a.backend = backend.New(cfg.Backend, log, m)
	}
	return a, nil
}

// Close releases the backend connections, the store and the database.
func (a *app) Close() {
	if a.backend != nil {
		a.backend.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	a.log.Sync()
}

// requireBackend returns the backend client or explains how to enable it.
func (a *app) requireBackend() (*backend.Client, error) {
	if a.backend == nil {
		return nil, fmt.Errorf("backend is disabled: set backend.enabled and backend.url in the config, or %s", config.EnvBackendURL)
	}
	return a.backend, nil
}

// withApp builds the app, runs fn and closes the app.
func withApp(globals *GlobalFlags, fn func(ctx context.Context, a *app) error) error {
	ctx := context.Background()
	a, err := newApp(ctx, globals)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func jsonOutput(globals *GlobalFlags) bool {
	return globals != nil && globals.JSON
}

// parseDuration parses a human-friendly duration string like "30d", "7d", "24h", "2w".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty string")
	}

	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]

	n, err := strconv.Atoi(numStr)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	default:
		return 0, fmt.Errorf("invalid duration: %q (use d, h, w, or m suffix)", s)
	}
}

// formatTimeAgo renders an epoch-millisecond timestamp relative to now.
func formatTimeAgo(now time.Time, ts int64) string {
	diff := now.UnixMilli() - ts
	minutes := diff / 60000
	hours := diff / 3600000
	days := diff / 86400000

	switch {
	case minutes < 1:
		return "Just now"
	case minutes < 60:
		return fmt.Sprintf("%dm ago", minutes)
	case hours < 24:
		return fmt.Sprintf("%dh ago", hours)
	default:
		return fmt.Sprintf("%dd ago", days)
	}
}

// formatCategory capitalizes a category for display ("low" -> "Low").
func formatCategory(c exposure.Category) string {
	s := string(c)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// formatLevel renders a level with one decimal and the unit.
func formatLevel(level float64) string {
	return fmt.Sprintf("%.1f ppm", level)
}

// formatDate renders an epoch-millisecond timestamp as a local date and time.
func formatDate(ts int64, loc *time.Location) string {
	return time.UnixMilli(ts).In(loc).Format("2006-01-02 15:04")
}

// truncate shortens s to n runes with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
