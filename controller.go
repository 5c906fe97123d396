package statesync

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/vibebar/statesync/pkg/activity"
	"github.com/vibebar/statesync/pkg/persist"
	"github.com/vibebar/statesync/pkg/urlstate"
)

// DefaultSaveDebounce is the quiet period before a burst of mutations is
// persisted once.
const DefaultSaveDebounce = 500 * time.Millisecond

// DefaultGuardWindow is how long the guard stays raised after an outbound
// URL write. It must outlive a synchronous write but stay well under human
// reaction time so a legitimate next action is never swallowed.
const DefaultGuardWindow = 150 * time.Millisecond

var (
	ErrNilStore   = errors.New("statesync: store is required")
	ErrNilAdapter = errors.New("statesync: persistence adapter is required")
	ErrNilHistory = errors.New("statesync: history is required")
	// ErrNoClipboard reports a share attempt on a host without any clipboard.
	ErrNoClipboard = errors.New("statesync: clipboard not configured")
)

// Phase is the controller lifecycle position.
type Phase int32

const (
	PhaseUninitialized Phase = iota
	PhaseHydrating
	PhaseSynced
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseHydrating:
		return "hydrating"
	case PhaseSynced:
		return "synced"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

// Controller orchestrates the store, the address bar, and durable storage.
// On Initialize it hydrates the store from whichever source is authoritative
// (URL over storage), then runs two independent loops: outbound store
// changes are mirrored to the URL (guarded) and to storage (debounced), and
// inbound navigation events are folded back into the store, where a
// user-initiated navigation always wins.
type Controller struct {
	store     *Store
	adapter   *persist.Adapter[StoredState]
	history   History
	clipboard Clipboard
	clock     Clock
	logger    SyncLogger
	hooks     activity.Hooks

	guard *writeGuard
	saves *debouncer

	mu              sync.Mutex
	phase           Phase
	lastTrace       Trace
	started         bool
	closed          bool
	done            chan struct{}
	unsubscribeURL  func()
	unsubscribeSave func()
}

// ControllerOption configures a Controller.
type ControllerOption func(*controllerConfig)

type controllerConfig struct {
	clipboard    Clipboard
	clock        Clock
	logger       SyncLogger
	hooks        activity.Hooks
	guardWindow  time.Duration
	saveDebounce time.Duration
}

// WithClipboard replaces the system clipboard used by share actions.
func WithClipboard(clipboard Clipboard) ControllerOption {
	return func(cfg *controllerConfig) {
		cfg.clipboard = clipboard
	}
}

// WithClock injects the clock driving guard and debounce timers.
func WithClock(clock Clock) ControllerOption {
	return func(cfg *controllerConfig) {
		if clock != nil {
			cfg.clock = clock
		}
	}
}

// WithLogger attaches an engine logger.
func WithLogger(logger SyncLogger) ControllerOption {
	return func(cfg *controllerConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithActivityHooks attaches lifecycle hooks notified on hydration, URL
// writes, saves, navigations, and shares.
func WithActivityHooks(hooks activity.Hooks) ControllerOption {
	return func(cfg *controllerConfig) {
		cfg.hooks = hooks
	}
}

// WithGuardWindow overrides the loop-suppression window.
func WithGuardWindow(window time.Duration) ControllerOption {
	return func(cfg *controllerConfig) {
		if window > 0 {
			cfg.guardWindow = window
		}
	}
}

// WithSaveDebounce overrides the persistence quiet period.
func WithSaveDebounce(delay time.Duration) ControllerOption {
	return func(cfg *controllerConfig) {
		if delay > 0 {
			cfg.saveDebounce = delay
		}
	}
}

// NewController wires a controller over its three replicas. Nothing runs
// until Initialize.
func NewController(store *Store, adapter *persist.Adapter[StoredState], history History, opts ...ControllerOption) (*Controller, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if adapter == nil {
		return nil, ErrNilAdapter
	}
	if history == nil {
		return nil, ErrNilHistory
	}
	cfg := controllerConfig{
		clipboard:    SystemClipboard{},
		clock:        SystemClock(),
		logger:       noopSyncLogger{},
		guardWindow:  DefaultGuardWindow,
		saveDebounce: DefaultSaveDebounce,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Controller{
		store:     store,
		adapter:   adapter,
		history:   history,
		clipboard: cfg.clipboard,
		clock:     cfg.clock,
		logger:    cfg.logger,
		hooks:     cfg.hooks,
		guard:     newWriteGuard(cfg.clock, cfg.guardWindow),
		saves:     newDebouncer(cfg.clock, cfg.saveDebounce),
		done:      make(chan struct{}),
	}, nil
}

// Phase returns the current lifecycle position.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Initialize performs the one-time hydration and installs both listener
// loops. It is idempotent: a second call is a no-op, so hosts that wire the
// controller from more than one place cannot double-install listeners.
func (c *Controller) Initialize(ctx context.Context) error {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.phase = PhaseHydrating
	c.mu.Unlock()

	c.hydrate(ctx)

	c.mu.Lock()
	c.phase = PhaseSynced
	c.unsubscribeURL = c.store.Subscribe(
		func(s State) any { return s.URLParams() },
		c.onURLRelevantChange,
		nil,
	)
	c.unsubscribeSave = c.store.Subscribe(
		func(s State) any { return s.Stored() },
		c.onPersistedChange,
		nil,
	)
	c.mu.Unlock()

	go c.consumeNavigations()
	return nil
}

// Close tears the controller down: the inbound loop stops, both
// subscriptions are removed, and a pending debounced save is flushed so a
// burst right before teardown is not lost. Close is idempotent.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	started := c.started
	unsubURL := c.unsubscribeURL
	unsubSave := c.unsubscribeSave
	close(c.done)
	c.mu.Unlock()

	if unsubURL != nil {
		unsubURL()
	}
	if unsubSave != nil {
		unsubSave()
	}
	if started {
		c.saves.Flush()
	} else {
		c.saves.Stop()
	}
	return nil
}

// ShareableURL renders the current URL-relevant state as an absolute URL.
// It reads the store and the address bar but mutates neither.
func (c *Controller) ShareableURL() string {
	base := c.history.Location()
	return urlstate.ShareURL(base, c.store.Get().URLParams())
}

// CopyShareableURL places the shareable URL on the clipboard. Failures are
// reported in the result, never raised: a denied clipboard must not disturb
// the sync loops.
func (c *Controller) CopyShareableURL(ctx context.Context) ShareResult {
	shareURL := c.ShareableURL()
	if c.clipboard == nil {
		c.logger.LogSync(SyncLogEvent{Op: OpShare, Detail: shareURL, Err: ErrNoClipboard})
		return ShareResult{URL: shareURL, Err: ErrNoClipboard}
	}
	if err := c.clipboard.WriteText(ctx, shareURL); err != nil {
		wrapped := fmt.Errorf("statesync: copy share url: %w", err)
		c.logger.LogSync(SyncLogEvent{Op: OpShare, Detail: shareURL, Err: wrapped})
		return ShareResult{URL: shareURL, Err: wrapped}
	}
	c.logger.LogSync(SyncLogEvent{Op: OpShare, Detail: shareURL})
	c.emit(ctx, activity.BuildShareCopiedEvent(activity.SyncEventInput{URL: shareURL}))
	return ShareResult{Success: true, URL: shareURL}
}

// hydrate decides the authoritative source once: a URL carrying any
// non-default state wins, otherwise a fresh persisted snapshot, otherwise
// defaults. The restoration marker is raised whenever anything was adopted.
func (c *Controller) hydrate(ctx context.Context) {
	start := c.clock.Now()
	params := urlstate.Decode(c.history.Location())
	if carriesState(params) {
		patch := PatchFromParams(params)
		restored := true
		patch.FormRestored = &restored
		c.store.BulkUpdate(patch)
		c.recordTrace(hydrationTrace("url", patch, c.store.Get()))
		c.guard.Remember(urlstate.Canonical(params))
		c.logger.LogSync(SyncLogEvent{Op: OpHydrate, Detail: "url", Duration: c.clock.Now().Sub(start)})
		c.emit(ctx, activity.BuildStateHydratedEvent(activity.SyncEventInput{
			Source: "url",
			Query:  urlstate.Canonical(params),
		}))
		return
	}

	if stored, meta, ok := c.adapter.Load(ctx); ok {
		patch := stored.Patch()
		restored := true
		patch.FormRestored = &restored
		c.store.BulkUpdate(patch)
		c.recordTrace(hydrationTrace("storage", patch, c.store.Get()))
		c.logger.LogSync(SyncLogEvent{Op: OpHydrate, Detail: "storage", Duration: c.clock.Now().Sub(start)})
		c.emit(ctx, activity.BuildStateHydratedEvent(activity.SyncEventInput{
			Source:     "storage",
			SnapshotID: meta.SnapshotID,
		}))
		return
	}

	c.recordTrace(hydrationTrace("default", Patch{}, c.store.Get()))
	c.logger.LogSync(SyncLogEvent{Op: OpHydrate, Detail: "defaults", Duration: c.clock.Now().Sub(start)})
}

func (c *Controller) recordTrace(trace Trace) {
	c.mu.Lock()
	c.lastTrace = trace
	c.mu.Unlock()
}

// HydrationTrace returns the provenance record of the last hydration pass.
func (c *Controller) HydrationTrace() Trace {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastTrace
}

// onURLRelevantChange mirrors a genuine store change into the address bar.
// The time guard is armed only while an inbound navigation is being applied,
// so an active guard here means this notification is the echo of that apply
// and must not be written back. Direct user edits pass straight through.
func (c *Controller) onURLRelevantChange(selected any) {
	params, ok := selected.(urlstate.Params)
	if !ok {
		return
	}
	if c.guard.Active() {
		c.logger.LogSync(SyncLogEvent{Op: OpEchoDropped, Detail: urlstate.Canonical(params)})
		return
	}
	canonical := urlstate.Canonical(params)
	c.guard.Remember(canonical)
	target := urlstate.Apply(c.history.Location(), params)
	if err := c.history.Replace(target); err != nil {
		// Mirroring can break without taking the store down with it.
		c.logger.LogSync(SyncLogEvent{Op: OpURLWrite, Detail: canonical, Err: fmt.Errorf("statesync: replace url: %w", err)})
		return
	}
	c.logger.LogSync(SyncLogEvent{Op: OpURLWrite, Detail: canonical})
	c.emit(context.Background(), activity.BuildURLReplacedEvent(activity.SyncEventInput{Query: canonical, URL: target.String()}))
}

// onPersistedChange schedules a debounced save. The save path deliberately
// ignores the guard: persistence must not be skipped just because a URL
// write is in flight. The snapshot is taken when the timer fires, so a burst
// persists its final state exactly once.
func (c *Controller) onPersistedChange(any) {
	c.saves.Trigger(func() {
		state := c.store.Get()
		meta, ok := c.adapter.Save(context.Background(), state.Stored())
		if !ok {
			c.logger.LogSync(SyncLogEvent{Op: OpSave, Err: errors.New("statesync: snapshot save failed")})
			return
		}
		c.logger.LogSync(SyncLogEvent{Op: OpSave, Detail: meta.SnapshotID})
		c.emit(context.Background(), activity.BuildSnapshotSavedEvent(activity.SyncEventInput{
			Source:     "storage",
			SnapshotID: meta.SnapshotID,
		}))
	})
}

func (c *Controller) consumeNavigations() {
	for {
		select {
		case <-c.done:
			return
		case u, ok := <-c.history.Navigations():
			if !ok {
				return
			}
			if u == nil {
				continue
			}
			c.applyNavigation(u)
		}
	}
}

// applyNavigation folds an inbound navigation into the store. Suppression is
// content-based: only an event whose canonical query matches the last
// self-written URL is dropped as an echo. Anything else is applied even while
// the time guard is up, because a user-initiated navigation always wins.
func (c *Controller) applyNavigation(u *url.URL) {
	params := urlstate.Decode(u)
	canonical := urlstate.Canonical(params)
	if c.guard.Echo(canonical) {
		c.logger.LogSync(SyncLogEvent{Op: OpEchoDropped, Detail: canonical})
		return
	}
	c.guard.Arm()
	c.guard.Remember(canonical)
	c.store.BulkUpdate(PatchFromParams(params))
	c.logger.LogSync(SyncLogEvent{Op: OpNavigation, Detail: canonical})
	c.emit(context.Background(), activity.BuildNavigationAppliedEvent(activity.SyncEventInput{Query: canonical, URL: u.String()}))
}

func (c *Controller) emit(ctx context.Context, event activity.Event) {
	if !c.hooks.Enabled() {
		return
	}
	if err := c.hooks.Notify(ctx, event); err != nil {
		c.logger.LogSync(SyncLogEvent{Op: OpActivity, Detail: event.Verb, Err: err})
	}
}
