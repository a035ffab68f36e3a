package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quickspell/core/catalog"
	"github.com/quickspell/core/command"
	"github.com/quickspell/core/errors"
	"github.com/quickspell/core/fuzzy"
	"github.com/quickspell/core/logging"
	"github.com/quickspell/core/pkg/profiling"
	"github.com/quickspell/core/provider"
	"github.com/quickspell/core/spell"
)

// DefaultTopN is the size of the visible item window in snapshots.
const DefaultTopN = 20

// subscriberBuffer bounds each subscriber channel. A subscriber that falls
// behind loses intermediate snapshots, never the session.
const subscriberBuffer = 16

// Recorder receives successful action dispatches. Implemented by the
// history store; nil disables recording.
type Recorder interface {
	Record(spellID, actionLabel string)
}

// Options configures a Session. Registry, Runner, and Launcher are required.
type Options struct {
	Registry *spell.Registry
	Runner   *provider.Runner
	Launcher *command.Launcher

	// RootSpellID names the spell whose identity anchors the root frame.
	// The root frame is fed by every enabled spell in the main category.
	RootSpellID string

	// TopN caps the item window in snapshots. Defaults to DefaultTopN.
	TopN int

	// OnHide is invoked when escape is pressed on the root frame. The host
	// uses it to dismiss the palette without tearing the session down.
	OnHide func()

	// History records action dispatches, or nil.
	History Recorder
}

// Session is the palette state machine. All methods are safe for concurrent
// use; mutation happens under one mutex and observers receive immutable
// snapshots through Subscribe.
type Session struct {
	mu sync.Mutex

	registry *spell.Registry
	runner   *provider.Runner
	launcher *command.Launcher
	history  Recorder

	rootID string
	topN   int
	onHide func()

	status    Status
	stack     []*Frame
	filtering bool
	lastErr   string

	// loadGen invalidates in-flight provider loads. Bumped on frame
	// push/pop, reset, and registry swap; a load commits only into the
	// frame context it was dispatched for. Query edits do not bump it, so
	// typing while a provider runs never loses the provider's output.
	loadGen uint64

	// queryGen invalidates in-flight background ranks. Bumped on query
	// edits, on every context change that bumps loadGen, and whenever a
	// load lands new items, since a rank over the old item slice is then
	// stale.
	queryGen uint64

	subscribers map[chan Snapshot]struct{}
	logger      *logrus.Entry
}

// New builds a session. It does not touch providers; call Start.
func New(opts Options) *Session {
	topN := opts.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	rootID := opts.RootSpellID
	if rootID == "" {
		rootID = "main"
	}
	return &Session{
		registry:    opts.Registry,
		runner:      opts.Runner,
		launcher:    opts.Launcher,
		history:     opts.History,
		rootID:      rootID,
		topN:        topN,
		onHide:      opts.OnHide,
		status:      StatusNotStarted,
		subscribers: make(map[chan Snapshot]struct{}),
		logger:      logging.NewLogger("session"),
	}
}

// Start boots the session: pushes the root frame and kicks off the merged
// main-category providers in the background. Calling Start twice is an
// error; use Reset to reload.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.status != StatusNotStarted {
		s.mu.Unlock()
		return errors.SessionState("session already started")
	}
	s.status = StatusBooting
	s.broadcastLocked()
	spells := s.registry.MainProviders()
	s.status = StatusLoading
	s.stack = []*Frame{{SpellID: s.rootID}}
	s.loadGen++
	s.queryGen++
	gen := s.loadGen
	s.broadcastLocked()
	s.mu.Unlock()

	go s.loadRoot(ctx, gen, spells)
	return nil
}

// Reset drops every pushed frame, clears the query, and re-runs the root
// providers. The session must have been started.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	if s.status == StatusNotStarted {
		s.mu.Unlock()
		return errors.SessionState("session not started")
	}
	s.stack = []*Frame{{SpellID: s.rootID}}
	s.filtering = false
	s.lastErr = ""
	s.status = StatusLoading
	s.loadGen++
	s.queryGen++
	gen := s.loadGen
	spells := s.registry.MainProviders()
	s.broadcastLocked()
	s.mu.Unlock()

	go s.loadRoot(ctx, gen, spells)
	return nil
}

// ReplaceRegistry swaps in a freshly loaded registry, e.g. after spell
// files changed on disk. A started session drops back to the root frame and
// reloads; an unstarted one just picks up the new registry.
func (s *Session) ReplaceRegistry(ctx context.Context, reg *spell.Registry) {
	s.mu.Lock()
	s.registry = reg
	if s.status == StatusNotStarted {
		s.mu.Unlock()
		return
	}
	s.stack = []*Frame{{SpellID: s.rootID}}
	s.filtering = false
	s.lastErr = ""
	s.status = StatusLoading
	s.loadGen++
	s.queryGen++
	gen := s.loadGen
	spells := reg.MainProviders()
	s.broadcastLocked()
	s.mu.Unlock()

	go s.loadRoot(ctx, gen, spells)
}

// loadRoot runs every enabled main-category provider concurrently and
// installs the interleaved result into the root frame.
func (s *Session) loadRoot(ctx context.Context, gen uint64, spells []*spell.Spell) {
	started := time.Now()
	result, err := s.runner.RunMain(ctx, spells)
	s.logger.WithFields(logrus.Fields{
		"providers": len(spells),
		"items":     len(result.Items),
		"elapsed":   time.Since(started).Round(time.Millisecond).String(),
	}).Debug("Root providers finished")

	s.commitLoad(gen, result, err)
}

// loadSpell runs a single spell's provider for a pushed frame. Streaming
// spells surface batches incrementally; the frame becomes ready when the
// provider exits.
func (s *Session) loadSpell(ctx context.Context, sp *spell.Spell, gen uint64) {
	if sp.Streaming {
		skipped, err := s.runner.Stream(ctx, sp, func(batch []catalog.Item) {
			s.appendBatch(gen, batch)
		})
		s.commitLoad(gen, provider.Result{Skipped: skipped}, err)
		return
	}
	result, err := s.runner.Run(ctx, sp)
	s.commitLoad(gen, result, err)
}

// appendBatch folds one streaming batch into the current frame and
// re-ranks against the live query. Batches for a frame the user has left
// are dropped; query edits do not invalidate a batch.
func (s *Session) appendBatch(gen uint64, batch []catalog.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.loadGen {
		return
	}
	frame := s.current()
	frame.Items = append(frame.Items, batch...)
	frame.Ranked = fuzzy.Rank(frame.Items, frame.Query)
	frame.clampSelection()
	// The item slice changed; any rank in flight over the old slice must
	// not land on top of this one.
	s.queryGen++
	s.filtering = false
	s.broadcastLocked()
}

// commitLoad installs a completed provider run into the frame it was
// dispatched for. A result arriving after the user navigated away or reset
// is discarded whole. A query typed during the load is honored: the result
// lands and is ranked against the frame's current query.
func (s *Session) commitLoad(gen uint64, result provider.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.loadGen {
		s.logger.Debug("Discarding stale provider result")
		return
	}

	frame := s.current()
	if err != nil {
		if errors.GetCode(err) == errors.ErrCodeProcessLaunch {
			// The provider never produced output; nothing to show.
			s.status = StatusError
			s.lastErr = err.Error()
			s.broadcastLocked()
			return
		}
		// Non-zero exit: keep whatever lines arrived and stay usable.
		s.lastErr = err.Error()
	}

	if result.Items != nil {
		frame.Items = result.Items
	}
	frame.Skipped += result.Skipped
	frame.Ranked = fuzzy.Rank(frame.Items, frame.Query)
	frame.clampSelection()
	// Ranked now reflects the current query over the final items; an
	// earlier rank still in flight would be over the pre-load slice.
	s.queryGen++
	s.filtering = false
	s.status = StatusReady
	s.broadcastLocked()
}

// SetQuery records the new query and emits an optimistic snapshot
// immediately; the actual re-rank runs in the background so a fast typist
// never blocks on filtering. Out-of-order results are discarded at commit.
func (s *Session) SetQuery(query string) {
	s.mu.Lock()
	if s.status == StatusNotStarted {
		s.mu.Unlock()
		return
	}
	frame := s.current()
	frame.Query = query
	frame.Selected = 0
	s.filtering = true
	s.queryGen++
	gen := s.queryGen
	items := frame.Items
	s.broadcastLocked()
	s.mu.Unlock()

	go s.rank(gen, items, query)
}

// rank filters off the lock and commits only if no newer edit happened.
func (s *Session) rank(gen uint64, items []catalog.Item, query string) {
	defer profiling.Start("session.rank").Stop()
	started := time.Now()
	ranked := fuzzy.Rank(items, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.queryGen {
		return
	}
	frame := s.current()
	frame.Ranked = ranked
	frame.clampSelection()
	s.filtering = false
	s.logger.WithFields(logrus.Fields{
		"query":   query,
		"total":   len(items),
		"matched": len(ranked),
		"elapsed": time.Since(started).Round(time.Microsecond).String(),
	}).Debug("Filtered items")
	s.broadcastLocked()
}

// SetSelectionDelta moves the selection by delta, clamped to the filtered
// list. The selection never wraps; repeated moves past either edge are
// no-ops and emit nothing.
func (s *Session) SetSelectionDelta(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusNotStarted || len(s.stack) == 0 {
		return
	}
	frame := s.current()
	next := frame.Selected + delta
	if next < 0 {
		next = 0
	}
	if max := len(frame.Ranked) - 1; next > max {
		next = max
	}
	if next < 0 {
		next = 0
	}
	if next == frame.Selected {
		return
	}
	frame.Selected = next
	s.broadcastLocked()
}

// InvokeAction dispatches the named action of the current spell against the
// selected item. An empty label means the main action. CMD actions launch
// fire-and-forget; SPELL actions push a new frame and load its provider.
func (s *Session) InvokeAction(ctx context.Context, label string) error {
	if label == "" {
		label = spell.MainLabel
	}

	s.mu.Lock()
	if s.status == StatusNotStarted || len(s.stack) == 0 {
		s.mu.Unlock()
		return errors.SessionState("session not started")
	}
	frame := s.current()
	sp, ok := s.registry.Resolve(frame.SpellID)
	if !ok {
		s.mu.Unlock()
		return errors.SpellNotFound(frame.SpellID)
	}
	selected := frame.selection()
	if selected == nil {
		s.mu.Unlock()
		return errors.NothingSelected()
	}

	tctx := s.templateContextLocked()
	action := s.resolveActionLocked(sp, label, tctx)
	if action == nil {
		s.mu.Unlock()
		return errors.ActionNotFound(label, sp.ID)
	}

	switch action.Kind {
	case spell.ActionCmd:
		argv, err := spell.RenderArgv(action.Cmd, tctx)
		s.mu.Unlock()
		if err != nil {
			s.recordFailure(err)
			return err
		}
		report := s.launcher.Launch(argv)
		if report.Err != nil {
			s.recordFailure(report.Err)
			return report.Err
		}
		if s.history != nil {
			s.history.Record(sp.ID, action.Label)
		}
		return nil

	case spell.ActionSpell:
		target, ok := s.registry.Resolve(action.Target)
		if !ok {
			s.mu.Unlock()
			err := errors.SpellNotFound(action.Target)
			s.recordFailure(err)
			return err
		}
		s.stack = append(s.stack, &Frame{SpellID: target.ID})
		s.status = StatusLoading
		s.loadGen++
		s.queryGen++
		gen := s.loadGen
		s.broadcastLocked()
		s.mu.Unlock()

		if s.history != nil {
			s.history.Record(sp.ID, action.Label)
		}
		go s.loadSpell(ctx, target, gen)
		return nil
	}

	s.mu.Unlock()
	return errors.ActionNotFound(label, sp.ID)
}

// resolveActionLocked finds the action with the given label whose condition
// passes against the current context. A label whose condition fails is
// treated as absent.
func (s *Session) resolveActionLocked(sp *spell.Spell, label string, tctx map[string]spell.FrameContext) *spell.Action {
	action := sp.FindAction(label)
	if action == nil {
		return nil
	}
	if action.If != "" {
		ok, err := spell.EvalCondition(action.If, tctx)
		if err != nil {
			s.logger.WithError(err).WithField("action", action.Label).Warn("Condition evaluation failed")
			return nil
		}
		if !ok {
			return nil
		}
	}
	return action
}

// recordFailure surfaces a dispatch error through the snapshot stream while
// keeping the session interactive.
func (s *Session) recordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err.Error()
	s.broadcastLocked()
}

// HandleEscape pops one frame, restoring the parent's query and selection
// exactly as they were. On the root frame it invokes the hide callback
// instead; the stack is never emptied.
func (s *Session) HandleEscape() {
	s.mu.Lock()
	if s.status == StatusNotStarted || len(s.stack) == 0 {
		s.mu.Unlock()
		return
	}
	if len(s.stack) == 1 {
		onHide := s.onHide
		s.mu.Unlock()
		if onHide != nil {
			onHide()
		}
		return
	}
	s.stack = s.stack[:len(s.stack)-1]
	s.status = StatusReady
	s.filtering = false
	s.loadGen++
	s.queryGen++
	s.broadcastLocked()
	s.mu.Unlock()
}

// Subscribe registers a buffered snapshot channel and primes it with the
// current state. Slow subscribers drop snapshots rather than blocking the
// session.
func (s *Session) Subscribe() chan Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Snapshot, subscriberBuffer)
	s.subscribers[ch] = struct{}{}
	select {
	case ch <- s.snapshotLocked():
	default:
	}
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (s *Session) Unsubscribe(ch chan Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[ch]; ok {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// Snapshot returns the current state as an immutable copy.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) broadcastLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			s.logger.Debug("Subscriber channel full, dropping snapshot")
		}
	}
}

// snapshotLocked copies the observable state out of the current frame.
func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Status:    s.status,
		Filtering: s.filtering,
		Err:       s.lastErr,
	}
	if len(s.stack) == 0 {
		return snap
	}

	snap.SpellNames = make([]string, 0, len(s.stack))
	for _, f := range s.stack {
		snap.SpellNames = append(snap.SpellNames, s.spellNameLocked(f.SpellID))
	}

	frame := s.current()
	snap.Query = frame.Query
	snap.TotalItems = len(frame.Ranked)
	snap.SkippedLines = frame.Skipped
	snap.SelectedIndex = frame.Selected

	n := len(frame.Ranked)
	if n > s.topN {
		n = s.topN
	}
	snap.Items = make([]catalog.Item, n)
	for i := 0; i < n; i++ {
		snap.Items[i] = frame.Ranked[i].Item
	}

	if sel := frame.selection(); sel != nil {
		snap.Selected = sel
		if sp, ok := s.registry.Resolve(frame.SpellID); ok {
			tctx := s.templateContextLocked()
			for _, a := range sp.Actions {
				if s.conditionPassesLocked(a, tctx) {
					snap.Actions = append(snap.Actions, a.Label)
				}
			}
		}
	}
	return snap
}

func (s *Session) conditionPassesLocked(a spell.Action, tctx map[string]spell.FrameContext) bool {
	if a.If == "" {
		return true
	}
	ok, err := spell.EvalCondition(a.If, tctx)
	return err == nil && ok
}

// templateContextLocked exposes each frame's query and selection to action
// templates, keyed by spell id. Deeper frames see the selections their
// parents were pushed from.
func (s *Session) templateContextLocked() map[string]spell.FrameContext {
	ctx := make(map[string]spell.FrameContext, len(s.stack))
	for _, f := range s.stack {
		fc := spell.FrameContext{Query: f.Query, SpellID: f.SpellID}
		if sel := f.selection(); sel != nil {
			fc.Selection = spell.SelectionContext{
				Kind:  sel.Kind,
				Label: sel.Display,
				Data:  sel.Payload,
			}
		}
		ctx[f.SpellID] = fc
	}
	return ctx
}

func (s *Session) spellNameLocked(id string) string {
	if sp, ok := s.registry.Resolve(id); ok {
		return sp.Name
	}
	return id
}

func (s *Session) current() *Frame {
	return s.stack[len(s.stack)-1]
}

// Status returns the lifecycle state without building a snapshot.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}
