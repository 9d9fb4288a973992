package storage

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"

	"github.com/tsifsaropt1/microplastics-analyzer/internal/logging"
	"github.com/tsifsaropt1/microplastics-analyzer/internal/metrics"
)

// Records is the typed JSON boundary over a Store. Read and Write never
// return errors: a medium or serialization failure is logged, counted, and
// degrades to "absent" on read and to a no-op on write.
type Records struct {
	store   Store
	log     *logging.Logger
	metrics *metrics.Metrics
}

// NewRecords wraps store. log and m may be nil.
func NewRecords(store Store, log *logging.Logger, m *metrics.Metrics) *Records {
	if log == nil {
		log = logging.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Records{store: store, log: log.WithComponent("storage"), metrics: m}
}

// Read decodes the value stored under key into v and reports whether a
// value was present and decodable. v is left untouched when Read returns false.
func (r *Records) Read(ctx context.Context, key string, v any) bool {
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			r.metrics.StoreReads.WithLabelValues(key, "miss").Inc()
			return false
		}
		r.metrics.StoreReads.WithLabelValues(key, "error").Inc()
		r.log.Warnw("error loading record from storage", "key", key, "error", err)
		return false
	}

	if raw == "null" {
		r.metrics.StoreReads.WithLabelValues(key, "miss").Inc()
		return false
	}

	// Decode into a scratch value first so a corrupt record can't leave v
	// half-populated.
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		r.log.Warnw("record target must be a non-nil pointer", "key", key)
		return false
	}
	scratch := reflect.New(rv.Elem().Type())
	if err := json.Unmarshal([]byte(raw), scratch.Interface()); err != nil {
		r.metrics.StoreReads.WithLabelValues(key, "error").Inc()
		r.log.Warnw("error decoding record from storage", "key", key, "error", err)
		return false
	}
	rv.Elem().Set(scratch.Elem())

	r.metrics.StoreReads.WithLabelValues(key, "hit").Inc()
	return true
}

// Write encodes v and stores it under key, overwriting any prior value.
func (r *Records) Write(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		r.metrics.StoreWrites.WithLabelValues(key, "error").Inc()
		r.log.Warnw("error encoding record for storage", "key", key, "error", err)
		return
	}

	if err := r.store.Put(ctx, key, string(data)); err != nil {
		r.metrics.StoreWrites.WithLabelValues(key, "error").Inc()
		r.log.Warnw("error saving record to storage", "key", key, "error", err)
		return
	}

	r.metrics.StoreWrites.WithLabelValues(key, "ok").Inc()
	r.log.Debugw("record saved", "key", key, "bytes", len(data))
}

// Delete removes key. A key that was never written counts as deleted.
func (r *Records) Delete(ctx context.Context, key string) {
	if err := r.store.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		r.metrics.StoreWrites.WithLabelValues(key, "error").Inc()
		r.log.Warnw("error deleting record from storage", "key", key, "error", err)
		return
	}
	r.metrics.StoreWrites.WithLabelValues(key, "ok").Inc()
	r.log.Debugw("record deleted", "key", key)
}
