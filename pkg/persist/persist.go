package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultKey is the storage key used when none is configured.
const DefaultKey = "vibe-bar-state"

// DefaultTTL is the age beyond which a persisted snapshot is treated as
// nonexistent.
const DefaultTTL = 24 * time.Hour

const (
	envelopeTimestampKey  = "timestamp"
	envelopeSnapshotIDKey = "snapshotId"
)

var ErrNilBackend = errors.New("persist: backend is required")

// Meta is adapter-owned metadata attached to every stored snapshot.
type Meta struct {
	SnapshotID string
	SavedAt    time.Time
}

// Event describes one adapter operation for logging.
type Event struct {
	Op         string
	Key        string
	SnapshotID string
	Err        error
}

// Logger records adapter events.
type Logger interface {
	LogPersistence(Event)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(Event)

// LogPersistence implements Logger.
func (f LoggerFunc) LogPersistence(event Event) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogPersistence(Event) {}

// PreDecodeHook lets callers normalise a stored payload before it is decoded
// into the snapshot type, typically to migrate renamed fields from older
// application versions.
type PreDecodeHook func(map[string]any) (map[string]any, error)

// Option configures an Adapter.
type Option func(*config)

type config struct {
	key       string
	ttl       time.Duration
	now       func() time.Time
	newID     func() string
	logger    Logger
	preDecode []PreDecodeHook
}

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(cfg *config) {
		if key != "" {
			cfg.key = key
		}
	}
}

// WithTTL overrides the snapshot time-to-live. Zero or negative disables
// expiry.
func WithTTL(ttl time.Duration) Option {
	return func(cfg *config) {
		cfg.ttl = ttl
	}
}

// WithNow injects the clock used for timestamps and expiry checks.
func WithNow(now func() time.Time) Option {
	return func(cfg *config) {
		if now != nil {
			cfg.now = now
		}
	}
}

// WithSnapshotIDs injects the snapshot id generator.
func WithSnapshotIDs(newID func() string) Option {
	return func(cfg *config) {
		if newID != nil {
			cfg.newID = newID
		}
	}
}

// WithLogger attaches an event logger.
func WithLogger(logger Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithPreDecodeHook appends a payload normalisation hook applied on load.
func WithPreDecodeHook(hook PreDecodeHook) Option {
	return func(cfg *config) {
		if hook != nil {
			cfg.preDecode = append(cfg.preDecode, hook)
		}
	}
}

// Adapter persists one snapshot of type T through a Backend.
type Adapter[T any] struct {
	backend Backend
	cfg     config
}

// New constructs an Adapter over backend.
func New[T any](backend Backend, opts ...Option) (*Adapter[T], error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	cfg := config{
		key:    DefaultKey,
		ttl:    DefaultTTL,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: noopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Adapter[T]{backend: backend, cfg: cfg}, nil
}

// Key returns the storage key the adapter writes under.
func (a *Adapter[T]) Key() string {
	return a.cfg.key
}

// Save writes value with a fresh timestamp and snapshot id. Failures are
// logged and reported through ok=false, never raised: losing a snapshot must
// not disturb the application.
func (a *Adapter[T]) Save(ctx context.Context, value T) (Meta, bool) {
	meta := Meta{
		SnapshotID: a.cfg.newID(),
		SavedAt:    a.cfg.now(),
	}
	payload, err := a.encode(value, meta)
	if err != nil {
		a.log(Event{Op: "save", Key: a.cfg.key, Err: err})
		return Meta{}, false
	}
	if err := a.backend.Put(ctx, a.cfg.key, payload); err != nil {
		a.log(Event{Op: "save", Key: a.cfg.key, SnapshotID: meta.SnapshotID, Err: err})
		return Meta{}, false
	}
	a.log(Event{Op: "save", Key: a.cfg.key, SnapshotID: meta.SnapshotID})
	return meta, true
}

// Load reads the stored snapshot. It reports ok=false when the snapshot is
// missing, unreadable, undecodable, or older than the TTL; undecodable and
// expired payloads are deleted as a side effect so the next read is clean.
func (a *Adapter[T]) Load(ctx context.Context) (T, Meta, bool) {
	var zero T
	payload, ok, err := a.backend.Get(ctx, a.cfg.key)
	if err != nil {
		a.log(Event{Op: "load", Key: a.cfg.key, Err: err})
		return zero, Meta{}, false
	}
	if !ok {
		return zero, Meta{}, false
	}

	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		a.purge(ctx, fmt.Errorf("persist: decode envelope: %w", err))
		return zero, Meta{}, false
	}

	meta := a.extractMeta(raw)
	if a.expired(meta) {
		a.purge(ctx, fmt.Errorf("persist: snapshot from %s exceeded ttl %s", meta.SavedAt.Format(time.RFC3339), a.cfg.ttl))
		return zero, Meta{}, false
	}

	for _, hook := range a.cfg.preDecode {
		next, err := hook(raw)
		if err != nil {
			a.purge(ctx, fmt.Errorf("persist: pre-decode hook: %w", err))
			return zero, Meta{}, false
		}
		if next != nil {
			raw = next
		}
	}

	value, err := decodeSnapshot[T](raw)
	if err != nil {
		a.purge(ctx, err)
		return zero, Meta{}, false
	}
	a.log(Event{Op: "load", Key: a.cfg.key, SnapshotID: meta.SnapshotID})
	return value, meta, true
}

// Purge deletes the stored snapshot.
func (a *Adapter[T]) Purge(ctx context.Context) error {
	if err := a.backend.Delete(ctx, a.cfg.key); err != nil {
		return fmt.Errorf("persist: delete %q: %w", a.cfg.key, err)
	}
	return nil
}

func (a *Adapter[T]) encode(value T, meta Meta) ([]byte, error) {
	body, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("persist: marshal snapshot: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("persist: snapshot must serialise to an object: %w", err)
	}
	raw[envelopeTimestampKey] = meta.SavedAt.UnixMilli()
	raw[envelopeSnapshotIDKey] = meta.SnapshotID
	payload, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("persist: marshal envelope: %w", err)
	}
	return payload, nil
}

func (a *Adapter[T]) extractMeta(raw map[string]any) Meta {
	var meta Meta
	if id, ok := raw[envelopeSnapshotIDKey].(string); ok {
		meta.SnapshotID = id
	}
	if ts, ok := raw[envelopeTimestampKey].(float64); ok {
		meta.SavedAt = time.UnixMilli(int64(ts))
	}
	return meta
}

func (a *Adapter[T]) expired(meta Meta) bool {
	if a.cfg.ttl <= 0 {
		return false
	}
	if meta.SavedAt.IsZero() {
		// No timestamp means a foreign or hand-edited payload; treat it as
		// stale rather than trusting it indefinitely.
		return true
	}
	return a.cfg.now().Sub(meta.SavedAt) > a.cfg.ttl
}

func (a *Adapter[T]) purge(ctx context.Context, cause error) {
	err := a.backend.Delete(ctx, a.cfg.key)
	if err != nil {
		cause = errors.Join(cause, err)
	}
	a.log(Event{Op: "purge", Key: a.cfg.key, Err: cause})
}

func (a *Adapter[T]) log(event Event) {
	a.cfg.logger.LogPersistence(event)
}

func decodeSnapshot[T any](raw map[string]any) (T, error) {
	var value T
	body, err := json.Marshal(raw)
	if err != nil {
		return value, fmt.Errorf("persist: marshal normalised payload: %w", err)
	}
	if err := json.Unmarshal(body, &value); err != nil {
		return value, fmt.Errorf("persist: decode snapshot: %w", err)
	}
	return value, nil
}
