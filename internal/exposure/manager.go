package exposure

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tsifsaropt1/microplastics-analyzer/internal/logging"
	"github.com/tsifsaropt1/microplastics-analyzer/internal/metrics"
	"github.com/tsifsaropt1/microplastics-analyzer/internal/storage"
)

// RecordStore is the persistence boundary the manager hydrates from and
// writes through. Read reports absence with false; Write and Delete never
// fail. *storage.Records implements it.
type RecordStore interface {
	Read(ctx context.Context, key string, v any) bool
	Write(ctx context.Context, key string, v any)
	Delete(ctx context.Context, key string)
}

// Manager owns the in-memory scans, challenges and settings for one
// session. Each mutation persists the affected record immediately. Records
// are written independently, so a crash between two writes can leave
// challenges out of step with scans until the next sync.
type Manager struct {
	mu sync.Mutex

	records  RecordStore
	clock    Clock
	sampler  Sampler
	location *time.Location
	log      *logging.Logger
	metrics  *metrics.Metrics
	validate *validator.Validate

	scans      []ScanRecord
	challenges []Challenge
	settings   Settings
}

// Option configures a Manager.
type Option func(*Manager)

func WithClock(c Clock) Option { return func(m *Manager) { m.clock = c } }

func WithSampler(s Sampler) Option { return func(m *Manager) { m.sampler = s } }

// WithLocation sets the zone used to bucket scans by weekday.
func WithLocation(loc *time.Location) Option { return func(m *Manager) { m.location = loc } }

func WithLogger(l *logging.Logger) Option { return func(m *Manager) { m.log = l } }

func WithMetrics(mt *metrics.Metrics) Option { return func(m *Manager) { m.metrics = mt } }

// NewManager creates a manager over records. Call Initialize before use.
func NewManager(records RecordStore, opts ...Option) *Manager {
	m := &Manager{
		records:  records,
		clock:    SystemClock{},
		location: time.Local,
		validate: validator.New(),
		settings: DefaultSettings(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.sampler == nil {
		m.sampler = NewWeightedSampler(rand.NewSource(m.clock.Now().UnixNano()))
	}
	if m.log == nil {
		m.log = logging.NewNop()
	}
	if m.metrics == nil {
		m.metrics = metrics.New()
	}
	m.log = m.log.WithComponent("exposure")
	return m
}

// Initialize hydrates all three records. Missing or empty scans and
// challenges are seeded and written back. Stored settings are laid over
// DefaultSettings; missing or invalid ones fall back to the defaults without
// a write. An empty store is not an error.
func (m *Manager) Initialize(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()

	var scans []ScanRecord
	if m.records.Read(ctx, storage.KeyScans, &scans) && len(scans) > 0 {
		for i := range scans {
			scans[i].Category = Categorize(scans[i].Level)
		}
		m.scans = scans
	} else {
		m.scans = SeedScans(now)
		m.records.Write(ctx, storage.KeyScans, m.scans)
		m.log.Infow("seeded sample scans", "count", len(m.scans))
	}

	var challenges []Challenge
	if m.records.Read(ctx, storage.KeyChallenges, &challenges) && len(challenges) > 0 {
		m.challenges = challenges
	} else {
		m.challenges = SeedChallenges(now)
		m.recomputeChallenges()
		m.records.Write(ctx, storage.KeyChallenges, m.challenges)
		m.log.Infow("seeded default challenges", "count", len(m.challenges))
	}

	m.settings = DefaultSettings()
	var stored settingsRecord
	if m.records.Read(ctx, storage.KeySettings, &stored) {
		settings := stored.over(DefaultSettings())
		if err := m.validate.Struct(settings); err != nil {
			m.log.Warnw("stored settings are invalid, using defaults", "error", err)
		} else {
			m.settings = settings
		}
	}
}

// AddScan records a new scan at the head of the history, persists it and
// resynchronizes challenges. A store write failure is logged by the store
// and does not fail the call.
func (m *Manager) AddScan(ctx context.Context, in ScanInput) (ScanRecord, error) {
	if err := m.validate.Struct(in); err != nil {
		m.log.Debugw("rejected scan input", "error", err)
		return ScanRecord{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	level, err := m.resolveLevel(in.Level)
	if err != nil {
		m.log.Debugw("rejected scan level", "level", in.Level)
		return ScanRecord{}, err
	}

	var confidence int
	if in.Confidence != nil {
		confidence = *in.Confidence
	} else {
		confidence = m.sampler.Confidence()
	}

	now := m.clock.Now()
	scan := ScanRecord{
		ID:         m.nextID(now),
		Name:       orDefault(in.Name, DefaultScanName),
		Type:       orDefault(in.Type, DefaultScanType),
		Level:      level,
		Category:   Categorize(level),
		Timestamp:  now.UnixMilli(),
		Location:   orDefault(in.Location, DefaultScanLocation),
		Confidence: confidence,
		Notes:      strings.TrimSpace(in.Notes),
	}

	m.scans = append([]ScanRecord{scan}, m.scans...)
	m.records.Write(ctx, storage.KeyScans, m.scans)
	m.metrics.ScansAdded.WithLabelValues(string(scan.Category)).Inc()
	m.log.Debugw("scan added", "id", scan.ID, "level", scan.Level, "category", scan.Category)

	m.syncChallenges(ctx)
	return scan, nil
}

// resolveLevel parses a caller-supplied level, or draws one when raw is blank.
func (m *Manager) resolveLevel(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return m.sampler.Level(), nil
	}

	level, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(level) || math.IsInf(level, 0) || level < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, raw)
	}
	return level, nil
}

// nextID derives the id from the clock, bumped past the largest existing id
// so ids stay unique even when two scans land in the same millisecond.
func (m *Manager) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	for _, s := range m.scans {
		if s.ID >= id {
			id = s.ID + 1
		}
	}
	return id
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

// SyncChallenges recomputes derived challenge progress and persists the
// full challenge list.
func (m *Manager) SyncChallenges(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncChallenges(ctx)
}

func (m *Manager) syncChallenges(ctx context.Context) {
	m.recomputeChallenges()
	m.records.Write(ctx, storage.KeyChallenges, m.challenges)
}

// recomputeChallenges updates scan_count and average_level challenges.
// Other kinds are advanced elsewhere and left alone.
func (m *Manager) recomputeChallenges() {
	avg := averageLevel(m.scans)
	for i := range m.challenges {
		c := &m.challenges[i]
		switch c.Kind {
		case KindScanCount:
			c.Progress = float64(len(m.scans))
			c.Status = statusFor(c.Progress >= c.Goal)
		case KindAverageLevel:
			c.Progress = avg
			c.Status = statusFor(c.Progress <= c.Goal)
		}
	}
}

func statusFor(done bool) ChallengeStatus {
	if done {
		return StatusCompleted
	}
	return StatusActive
}

// ReplaceSettings validates s and replaces the stored settings wholesale.
func (m *Manager) ReplaceSettings(ctx context.Context, s Settings) error {
	if err := m.validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings = s
	m.records.Write(ctx, storage.KeySettings, m.settings)
	return nil
}

// ResetSettings drops the saved settings. DefaultSettings applies until the
// next ReplaceSettings.
func (m *Manager) ResetSettings(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings = DefaultSettings()
	m.records.Delete(ctx, storage.KeySettings)
}

// Scans returns a copy of the history, most recent first.
func (m *Manager) Scans() []ScanRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ScanRecord(nil), m.scans...)
}

// Scan looks up a single scan by id.
func (m *Manager) Scan(id int64) (ScanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.scans {
		if s.ID == id {
			return s, nil
		}
	}
	return ScanRecord{}, fmt.Errorf("%w: %d", ErrScanNotFound, id)
}

// Challenges returns a copy of the challenges in creation order.
func (m *Manager) Challenges() []Challenge {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Challenge(nil), m.challenges...)
}

func (m *Manager) Settings() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}
