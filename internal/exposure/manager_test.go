package exposure

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsifsaropt1/microplastics-analyzer/internal/metrics"
	"github.com/tsifsaropt1/microplastics-analyzer/internal/storage"
)

// Sunday.
var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type stubClock struct{ now time.Time }

func (c *stubClock) Now() time.Time { return c.now }

func (c *stubClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type stubSampler struct {
	level      float64
	confidence int
}

func (s stubSampler) Level() float64  { return s.level }
func (s stubSampler) Confidence() int { return s.confidence }

type fixture struct {
	m     *Manager
	mem   *storage.MemoryStore
	rec   *storage.Records
	clock *stubClock
	mt    *metrics.Metrics
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		mem:   storage.NewMemoryStore(),
		clock: &stubClock{now: baseTime},
		mt:    metrics.New(),
	}
	f.rec = storage.NewRecords(f.mem, nil, f.mt)
	base := []Option{
		WithClock(f.clock),
		WithSampler(stubSampler{level: 12.5, confidence: 90}),
		WithLocation(time.UTC),
		WithMetrics(f.mt),
	}
	f.m = NewManager(f.rec, append(base, opts...)...)
	return f
}

// newBareFixture skips Initialize so the history starts empty.
func newBareFixture(t *testing.T, challenges ...Challenge) *fixture {
	t.Helper()
	f := newFixture(t)
	f.m.challenges = challenges
	return f
}

func (f *fixture) add(t *testing.T, level string) ScanRecord {
	t.Helper()
	s, err := f.m.AddScan(context.Background(), ScanInput{Name: "item", Level: level})
	require.NoError(t, err)
	return s
}

func (f *fixture) storedScans(t *testing.T) []ScanRecord {
	t.Helper()
	var scans []ScanRecord
	require.True(t, f.rec.Read(context.Background(), storage.KeyScans, &scans))
	return scans
}

func (f *fixture) storedChallenges(t *testing.T) []Challenge {
	t.Helper()
	var challenges []Challenge
	require.True(t, f.rec.Read(context.Background(), storage.KeyChallenges, &challenges))
	return challenges
}

// --- Initialize ---

func TestInitialize_SeedsEmptyStore(t *testing.T) {
	f := newFixture(t)
	f.m.Initialize(context.Background())

	scans := f.m.Scans()
	require.Len(t, scans, 5)
	assert.Equal(t, "Water Bottle Analysis", scans[0].Name)
	assert.Equal(t, baseTime.Add(-2*time.Hour).UnixMilli(), scans[0].Timestamp)
	assert.Equal(t, CategoryHigh, scans[2].Category)

	challenges := f.m.Challenges()
	require.Len(t, challenges, 3)
	assert.Equal(t, 5.0, challenges[1].Progress)
	assert.Equal(t, StatusActive, challenges[1].Status)
	assert.InDelta(t, 17.22, challenges[2].Progress, 1e-9)
	assert.Equal(t, StatusActive, challenges[2].Status)
	assert.Equal(t, 3.0, challenges[0].Progress, "daily progress is kept as seeded")

	assert.Equal(t, DefaultSettings(), f.m.Settings())

	if diff := cmp.Diff(scans, f.storedScans(t)); diff != "" {
		t.Errorf("seeded scans not persisted (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(challenges, f.storedChallenges(t)); diff != "" {
		t.Errorf("seeded challenges not persisted (-want +got):\n%s", diff)
	}

	keys, err := f.mem.Keys(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, keys, storage.KeySettings, "default settings are not written back")
}

func TestInitialize_HydratesExisting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stored := []ScanRecord{{ID: 42, Name: "Cup", Level: 31, Category: CategoryLow, Timestamp: baseTime.UnixMilli(), Confidence: 88}}
	f.rec.Write(ctx, storage.KeyScans, stored)
	f.rec.Write(ctx, storage.KeyChallenges, []Challenge{{ID: 9, Title: "Mine", Kind: KindScanCount, Goal: 1, Status: StatusActive}})
	f.rec.Write(ctx, storage.KeySettings, Settings{Units: "ppb", DarkMode: true})

	f.m.Initialize(ctx)

	scans := f.m.Scans()
	require.Len(t, scans, 1)
	assert.Equal(t, int64(42), scans[0].ID)
	assert.Equal(t, CategoryHigh, scans[0].Category, "category is recomputed from level on load")

	challenges := f.m.Challenges()
	require.Len(t, challenges, 1)
	assert.Equal(t, "Mine", challenges[0].Title)

	assert.Equal(t, Settings{Units: "ppb", DarkMode: true}, f.m.Settings())
}

func TestInitialize_EmptySequencesAreReseeded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.rec.Write(ctx, storage.KeyScans, []ScanRecord{})
	f.rec.Write(ctx, storage.KeyChallenges, []Challenge{})

	f.m.Initialize(ctx)

	assert.Len(t, f.m.Scans(), 5)
	assert.Len(t, f.m.Challenges(), 3)
}

func TestInitialize_CorruptRecordsFallBackToSeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.mem.Put(ctx, storage.KeyScans, "{not json"))
	require.NoError(t, f.mem.Put(ctx, storage.KeySettings, "[]"))

	f.m.Initialize(ctx)

	assert.Len(t, f.m.Scans(), 5)
	assert.Equal(t, DefaultSettings(), f.m.Settings())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.mt.StoreReads.WithLabelValues(storage.KeyScans, "error")))
}

func TestInitialize_UnreadableStore(t *testing.T) {
	f := newFixture(t)
	f.mem.FailReads(errors.New("io error"))
	f.mem.FailWrites(errors.New("io error"))

	assert.NotPanics(t, func() { f.m.Initialize(context.Background()) })
	assert.Len(t, f.m.Scans(), 5)
	assert.Len(t, f.m.Challenges(), 3)
}

// --- AddScan ---

func TestAddScan_CategoryBoundaries(t *testing.T) {
	tests := []struct {
		level string
		want  Category
	}{
		{"0", CategoryLow},
		{"10.0", CategoryLow},
		{"10", CategoryLow},
		{"10.01", CategoryMedium},
		{"30.0", CategoryMedium},
		{"30.01", CategoryHigh},
		{"99.9", CategoryHigh},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			f := newBareFixture(t)
			s := f.add(t, tt.level)
			assert.Equal(t, tt.want, s.Category)
		})
	}
}

func TestAddScan_PrependsWithUniqueID(t *testing.T) {
	f := newFixture(t)
	f.m.Initialize(context.Background())

	seen := map[int64]bool{}
	for _, s := range f.m.Scans() {
		seen[s.ID] = true
	}

	for i := 0; i < 3; i++ {
		// Same millisecond every time.
		s := f.add(t, "5")
		assert.False(t, seen[s.ID], "id %d reused", s.ID)
		seen[s.ID] = true

		scans := f.m.Scans()
		assert.Equal(t, s, scans[0])
	}

	assert.Equal(t, baseTime.UnixMilli()+2, f.m.Scans()[0].ID)
	if diff := cmp.Diff(f.m.Scans(), f.storedScans(t)); diff != "" {
		t.Errorf("persisted scans differ (-want +got):\n%s", diff)
	}
}

func TestAddScan_Defaults(t *testing.T) {
	f := newBareFixture(t)

	s, err := f.m.AddScan(context.Background(), ScanInput{Level: "  4.5 "})
	require.NoError(t, err)

	assert.Equal(t, ScanRecord{
		ID:         baseTime.UnixMilli(),
		Name:       DefaultScanName,
		Type:       DefaultScanType,
		Level:      4.5,
		Category:   CategoryLow,
		Timestamp:  baseTime.UnixMilli(),
		Location:   DefaultScanLocation,
		Confidence: 90,
	}, s)
}

func TestAddScan_SampledLevel(t *testing.T) {
	f := newBareFixture(t)

	s, err := f.m.AddScan(context.Background(), ScanInput{Name: "Lunchbox"})
	require.NoError(t, err)
	assert.Equal(t, 12.5, s.Level)
	assert.Equal(t, CategoryMedium, s.Category)
}

func TestAddScan_ExplicitConfidence(t *testing.T) {
	f := newBareFixture(t)
	zero := 0

	s, err := f.m.AddScan(context.Background(), ScanInput{Level: "1", Confidence: &zero})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Confidence)
}

func TestAddScan_RejectsMalformedLevel(t *testing.T) {
	for _, raw := range []string{"abc", "NaN", "Inf", "-1", "1e400", "12ppm"} {
		t.Run(raw, func(t *testing.T) {
			f := newBareFixture(t)
			_, err := f.m.AddScan(context.Background(), ScanInput{Level: raw})
			assert.ErrorIs(t, err, ErrInvalidLevel)
			assert.Empty(t, f.m.Scans())
		})
	}
}

func TestAddScan_RejectsOutOfRangeConfidence(t *testing.T) {
	f := newBareFixture(t)
	c := 101

	_, err := f.m.AddScan(context.Background(), ScanInput{Level: "1", Confidence: &c})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, f.m.Scans())
}

func TestAddScan_SurvivesWriteFailure(t *testing.T) {
	f := newFixture(t)
	f.m.Initialize(context.Background())
	f.mem.FailWrites(errors.New("quota exceeded"))

	s := f.add(t, "3")
	assert.Equal(t, s, f.m.Scans()[0])
	assert.Len(t, f.m.Scans(), 6)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.mt.StoreWrites.WithLabelValues(storage.KeyScans, "error"))+
		testutil.ToFloat64(f.mt.StoreWrites.WithLabelValues(storage.KeyChallenges, "error")))

	f.mem.FailWrites(nil)
	assert.Len(t, f.storedScans(t), 5, "store keeps the last successful write")
}

func TestAddScan_CountsByCategory(t *testing.T) {
	f := newBareFixture(t)
	f.add(t, "50")
	f.add(t, "51")
	f.add(t, "1")

	assert.Equal(t, 2.0, testutil.ToFloat64(f.mt.ScansAdded.WithLabelValues("high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.mt.ScansAdded.WithLabelValues("low")))
}

// --- Challenge synchronization ---

func TestSync_ScanCountCompletesAtGoal(t *testing.T) {
	f := newBareFixture(t, Challenge{ID: 2, Kind: KindScanCount, Goal: 20, Status: StatusActive})

	for i := 0; i < 19; i++ {
		f.add(t, "1")
	}
	c := f.m.Challenges()[0]
	assert.Equal(t, 19.0, c.Progress)
	assert.Equal(t, StatusActive, c.Status)

	f.add(t, "1")
	c = f.m.Challenges()[0]
	assert.Equal(t, 20.0, c.Progress)
	assert.Equal(t, StatusCompleted, c.Status)
	assert.Equal(t, c, f.storedChallenges(t)[0])
}

func TestSync_AverageLevelCeiling(t *testing.T) {
	tests := []struct {
		name   string
		levels []string
		mean   float64
		want   ChallengeStatus
	}{
		{"under ceiling", []string{"5", "8"}, 6.5, StatusCompleted},
		{"over ceiling", []string{"20", "25"}, 22.5, StatusActive},
		{"exactly at ceiling", []string{"10", "20"}, 15, StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBareFixture(t, Challenge{ID: 3, Kind: KindAverageLevel, Goal: 15, Status: StatusActive})
			for _, l := range tt.levels {
				f.add(t, l)
			}
			c := f.m.Challenges()[0]
			assert.InDelta(t, tt.mean, c.Progress, 1e-9)
			assert.Equal(t, tt.want, c.Status)
		})
	}
}

func TestSync_LeavesOtherKindsAlone(t *testing.T) {
	daily := Challenge{ID: 1, Kind: KindDaily, Goal: 7, Progress: 3, Status: StatusActive}
	custom := Challenge{ID: 4, Kind: "streak", Goal: 2, Progress: 1, Status: StatusActive}
	f := newBareFixture(t, daily, custom)

	f.add(t, "1")
	assert.Equal(t, []Challenge{daily, custom}, f.m.Challenges())
}

func TestSyncChallenges_PersistsUnconditionally(t *testing.T) {
	f := newBareFixture(t, Challenge{ID: 1, Kind: KindDaily, Goal: 7})
	ctx := context.Background()

	f.m.SyncChallenges(ctx)
	f.m.SyncChallenges(ctx)

	assert.Equal(t, 2.0, testutil.ToFloat64(f.mt.StoreWrites.WithLabelValues(storage.KeyChallenges, "ok")))
}

// --- Settings ---

func TestReplaceSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.m.Initialize(ctx)

	want := Settings{Notifications: false, DarkMode: true, Units: "ppb", WeeklyReports: true}
	require.NoError(t, f.m.ReplaceSettings(ctx, want))
	assert.Equal(t, want, f.m.Settings())

	reloaded := NewManager(f.rec, WithClock(f.clock))
	reloaded.Initialize(ctx)
	assert.Equal(t, want, reloaded.Settings())
}

func TestReplaceSettings_RejectsUnknownUnits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.m.Initialize(ctx)

	s := DefaultSettings()
	s.Units = "furlongs"
	err := f.m.ReplaceSettings(ctx, s)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, DefaultSettings(), f.m.Settings())
}

func TestInitialize_PartialSettingsKeepDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.mem.Put(ctx, storage.KeySettings, `{"darkMode":true,"units":"ppb"}`))

	f.m.Initialize(ctx)

	want := DefaultSettings()
	want.DarkMode = true
	want.Units = "ppb"
	assert.Equal(t, want, f.m.Settings())
}

func TestInitialize_InvalidSettingsFallBackToDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.mem.Put(ctx, storage.KeySettings, `{"units":"mg","darkMode":true}`))

	f.m.Initialize(ctx)

	assert.Equal(t, DefaultSettings(), f.m.Settings())
}

func TestResetSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.m.Initialize(ctx)

	s := DefaultSettings()
	s.Units = "ppb"
	require.NoError(t, f.m.ReplaceSettings(ctx, s))

	f.m.ResetSettings(ctx)
	assert.Equal(t, DefaultSettings(), f.m.Settings())

	_, err := f.mem.Get(ctx, storage.KeySettings)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Resetting again with nothing stored is fine.
	f.m.ResetSettings(ctx)
	assert.Equal(t, DefaultSettings(), f.m.Settings())
}

// --- Lookup ---

func TestScan_Lookup(t *testing.T) {
	f := newFixture(t)
	f.m.Initialize(context.Background())

	s, err := f.m.Scan(3)
	require.NoError(t, err)
	assert.Equal(t, "Packaging Assessment", s.Name)

	_, err = f.m.Scan(999)
	assert.ErrorIs(t, err, ErrScanNotFound)
}

func TestScans_ReturnsCopy(t *testing.T) {
	f := newFixture(t)
	f.m.Initialize(context.Background())

	scans := f.m.Scans()
	scans[0].Name = "mutated"
	assert.Equal(t, "Water Bottle Analysis", f.m.Scans()[0].Name)
}

// --- Round trip through SQLite ---

func TestRoundTrip_SQLite(t *testing.T) {
	store, db, err := storage.Open(t.TempDir()+"/rt.db", "wal")
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
		db.Close()
	})
	ctx := context.Background()
	rec := storage.NewRecords(store, nil, nil)

	m := NewManager(rec, WithClock(&stubClock{now: baseTime}), WithSampler(NewWeightedSampler(rand.NewSource(7))))
	m.Initialize(ctx)
	_, err = m.AddScan(ctx, ScanInput{Name: "Straw", Type: "utensil", Level: "33.3", Location: "Cafe", Notes: "paper?"})
	require.NoError(t, err)

	again := NewManager(rec, WithClock(&stubClock{now: baseTime}))
	again.Initialize(ctx)

	if diff := cmp.Diff(m.Scans(), again.Scans()); diff != "" {
		t.Errorf("scans round trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(m.Challenges(), again.Challenges()); diff != "" {
		t.Errorf("challenges round trip (-want +got):\n%s", diff)
	}
}
