package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickspell/core/command"
	"github.com/quickspell/core/errors"
	"github.com/quickspell/core/provider"
	"github.com/quickspell/core/spell"
)

// fakeRecorder captures history calls.
type fakeRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *fakeRecorder) Record(spellID, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, spellID+"/"+label)
}

func (r *fakeRecorder) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func writeSpell(t *testing.T, dir, name, doc string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(doc), 0644))
}

// loadRegistry writes the given spell documents into a temp dir and loads
// them the same way the daemon does.
func loadRegistry(t *testing.T, docs map[string]string) *spell.Registry {
	t.Helper()
	dir := t.TempDir()
	for name, doc := range docs {
		writeSpell(t, dir, name, doc)
	}
	reg, err := spell.LoadDir(dir)
	require.NoError(t, err)
	require.Empty(t, reg.Errors())
	return reg
}

func newTestSession(t *testing.T, reg *spell.Registry, opts func(*Options)) *Session {
	t.Helper()
	exec := &command.RealExecutor{}
	o := Options{
		Registry:    reg,
		Runner:      provider.NewRunner(exec, ""),
		Launcher:    command.NewLauncher(exec, ""),
		RootSpellID: "main",
	}
	if opts != nil {
		opts(&o)
	}
	return New(o)
}

func waitReady(t *testing.T, s *Session) Snapshot {
	t.Helper()
	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return snap.Status == StatusReady && !snap.Filtering
	}, 3*time.Second, 5*time.Millisecond)
	return s.Snapshot()
}

const twoProviderSpells = `
id: alpha
name: Alpha
enabled: true
category: main
provider:
  command: sh
  args: ["-c", "printf 'APP\talpha-one\ta1\nAPP\talpha-two\ta2\n'"]
actions:
  - type: CMD
    cmd: ["true"]
`

const betaSpell = `
id: beta
name: Beta
enabled: true
category: main
provider:
  command: sh
  args: ["-c", "printf 'FILE\tbeta-one\tb1\n'"]
actions:
  - type: CMD
    cmd: ["true"]
`

func TestStartMergesMainProviders(t *testing.T) {
	reg := loadRegistry(t, map[string]string{
		"alpha.yml": twoProviderSpells,
		"beta.yml":  betaSpell,
	})
	s := newTestSession(t, reg, nil)
	require.NoError(t, s.Start(context.Background()))

	snap := waitReady(t, s)
	require.Len(t, snap.Items, 3)
	// Round-robin merge: one item from each provider before any second item.
	assert.Equal(t, "a1", snap.Items[0].Payload)
	assert.Equal(t, "b1", snap.Items[1].Payload)
	assert.Equal(t, "a2", snap.Items[2].Payload)
	assert.Equal(t, []string{"main"}, snap.SpellNames)
	assert.Equal(t, 0, snap.SelectedIndex)
	assert.Empty(t, snap.Err)
}

func TestStartTwiceFails(t *testing.T) {
	reg := loadRegistry(t, map[string]string{"alpha.yml": twoProviderSpells})
	s := newTestSession(t, reg, nil)
	require.NoError(t, s.Start(context.Background()))
	waitReady(t, s)

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSessionState, errors.GetCode(err))
}

func TestSetQueryFiltersAndResetsSelection(t *testing.T) {
	reg := loadRegistry(t, map[string]string{
		"alpha.yml": twoProviderSpells,
		"beta.yml":  betaSpell,
	})
	s := newTestSession(t, reg, nil)
	require.NoError(t, s.Start(context.Background()))
	waitReady(t, s)

	s.SetSelectionDelta(2)
	require.Equal(t, 2, s.Snapshot().SelectedIndex)

	s.SetQuery("beta")
	snap := waitReady(t, s)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "beta-one", snap.Items[0].Display)
	assert.Equal(t, 0, snap.SelectedIndex)
	assert.Equal(t, "beta", snap.Query)
}

func TestRapidQueriesConvergeToLatest(t *testing.T) {
	reg := loadRegistry(t, map[string]string{
		"alpha.yml": twoProviderSpells,
		"beta.yml":  betaSpell,
	})
	s := newTestSession(t, reg, nil)
	require.NoError(t, s.Start(context.Background()))
	waitReady(t, s)

	for _, q := range []string{"a", "al", "alp", "alpha-t"} {
		s.SetQuery(q)
	}
	snap := waitReady(t, s)
	assert.Equal(t, "alpha-t", snap.Query)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "alpha-two", snap.Items[0].Display)
}

func TestSelectionClampsAtBothEdges(t *testing.T) {
	reg := loadRegistry(t, map[string]string{
		"alpha.yml": twoProviderSpells,
		"beta.yml":  betaSpell,
	})
	s := newTestSession(t, reg, nil)
	require.NoError(t, s.Start(context.Background()))
	waitReady(t, s)

	s.SetSelectionDelta(10)
	assert.Equal(t, 2, s.Snapshot().SelectedIndex)
	s.SetSelectionDelta(1)
	assert.Equal(t, 2, s.Snapshot().SelectedIndex)
	s.SetSelectionDelta(-10)
	assert.Equal(t, 0, s.Snapshot().SelectedIndex)
	s.SetSelectionDelta(-1)
	assert.Equal(t, 0, s.Snapshot().SelectedIndex)
}

func TestInvokeActionCmdRendersSelection(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "launched")
	reg := loadRegistry(t, map[string]string{
		"files.yml": `
id: files
name: Files
enabled: true
category: main
provider:
  command: sh
  args: ["-c", "printf 'FILE\tmarker\t` + marker + `\n'"]
actions:
  - type: CMD
    cmd: ["touch", "{{.Context.files.Selection.Data}}"]
`,
	})
	rec := &fakeRecorder{}
	s := newTestSession(t, reg, func(o *Options) {
		o.RootSpellID = "files"
		o.History = rec
	})
	require.NoError(t, s.Start(context.Background()))
	waitReady(t, s)

	require.NoError(t, s.InvokeAction(context.Background(), ""))
	require.Eventually(t, func() bool {
		_, err := os.Stat(marker)
		return err == nil
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"files/MAIN"}, rec.recorded())
}

func TestInvokeActionSpellPushesAndEscapeRestores(t *testing.T) {
	reg := loadRegistry(t, map[string]string{
		"alpha.yml": twoProviderSpells,
		"beta.yml":  betaSpell,
		"nested.yml": `
id: nested
name: Nested
enabled: true
provider:
  command: sh
  args: ["-c", "printf 'TEXT\tchild\tc1\n'"]
actions:
  - type: CMD
    cmd: ["true"]
`,
		"root.yml": `
id: main
name: Main
enabled: false
provider: "true"
actions:
  - type: SPELL
    spell: nested
`,
	})
	s := newTestSession(t, reg, nil)
	require.NoError(t, s.Start(context.Background()))
	waitReady(t, s)

	s.SetQuery("alpha")
	waitReady(t, s)
	s.SetSelectionDelta(1)
	parent := s.Snapshot()
	require.Equal(t, 1, parent.SelectedIndex)

	require.NoError(t, s.InvokeAction(context.Background(), ""))
	snap := waitReady(t, s)
	assert.Equal(t, []string{"Main", "Nested"}, snap.SpellNames)
	assert.Equal(t, "Main > Nested", snap.Breadcrumb())
	assert.Equal(t, "", snap.Query)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "child", snap.Items[0].Display)

	s.HandleEscape()
	restored := s.Snapshot()
	assert.Equal(t, []string{"Main"}, restored.SpellNames)
	assert.Equal(t, "alpha", restored.Query)
	assert.Equal(t, 1, restored.SelectedIndex)
	assert.Equal(t, StatusReady, restored.Status)
}

func TestEscapeOnRootInvokesHide(t *testing.T) {
	reg := loadRegistry(t, map[string]string{"alpha.yml": twoProviderSpells})
	hidden := make(chan struct{}, 1)
	s := newTestSession(t, reg, func(o *Options) {
		o.OnHide = func() { hidden <- struct{}{} }
	})
	require.NoError(t, s.Start(context.Background()))
	waitReady(t, s)

	s.HandleEscape()
	select {
	case <-hidden:
	case <-time.After(time.Second):
		t.Fatal("hide callback not invoked")
	}
	// The root frame is never popped.
	assert.Equal(t, []string{"main"}, s.Snapshot().SpellNames)
}

func TestInvokeWithEmptyListReportsNothingSelected(t *testing.T) {
	reg := loadRegistry(t, map[string]string{"alpha.yml": twoProviderSpells})
	s := newTestSession(t, reg, func(o *Options) { o.RootSpellID = "alpha" })
	require.NoError(t, s.Start(context.Background()))
	waitReady(t, s)

	s.SetQuery("zzzzzz")
	waitReady(t, s)

	err := s.InvokeAction(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNothingSelected, errors.GetCode(err))
	// A benign report, not a state change.
	assert.Equal(t, StatusReady, s.Snapshot().Status)
}

func TestInvokeUnknownLabel(t *testing.T) {
	reg := loadRegistry(t, map[string]string{"alpha.yml": twoProviderSpells})
	s := newTestSession(t, reg, func(o *Options) { o.RootSpellID = "alpha" })
	require.NoError(t, s.Start(context.Background()))
	waitReady(t, s)

	err := s.InvokeAction(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeActionNotFound, errors.GetCode(err))
}

func TestProviderNonZeroExitKeepsPartialOutput(t *testing.T) {
	reg := loadRegistry(t, map[string]string{
		"flaky.yml": `
id: flaky
name: Flaky
enabled: true
category: main
provider:
  command: sh
  args: ["-c", "printf 'APP\tpartial\tp1\n'; exit 3"]
actions:
  - type: CMD
    cmd: ["true"]
`,
	})
	s := newTestSession(t, reg, nil)
	require.NoError(t, s.Start(context.Background()))

	snap := waitReady(t, s)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "partial", snap.Items[0].Display)
	assert.NotEmpty(t, snap.Err)
}

func TestResetReturnsToRoot(t *testing.T) {
	reg := loadRegistry(t, map[string]string{
		"alpha.yml": twoProviderSpells,
		"nested.yml": `
id: nested
name: Nested
enabled: true
provider:
  command: sh
  args: ["-c", "printf 'TEXT\tchild\tc1\n'"]
actions:
  - type: CMD
    cmd: ["true"]
`,
		"root.yml": `
id: main
name: Main
enabled: false
provider: "true"
actions:
  - type: SPELL
    spell: nested
`,
	})
	s := newTestSession(t, reg, nil)
	require.NoError(t, s.Start(context.Background()))
	waitReady(t, s)

	s.SetQuery("alpha")
	waitReady(t, s)
	require.NoError(t, s.InvokeAction(context.Background(), ""))
	waitReady(t, s)

	require.NoError(t, s.Reset(context.Background()))
	snap := waitReady(t, s)
	assert.Equal(t, []string{"main"}, snap.SpellNames)
	assert.Equal(t, "", snap.Query)
	assert.Equal(t, 0, snap.SelectedIndex)
	require.Len(t, snap.Items, 2)
}

func TestResetBeforeStartFails(t *testing.T) {
	reg := loadRegistry(t, map[string]string{"alpha.yml": twoProviderSpells})
	s := newTestSession(t, reg, nil)
	err := s.Reset(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSessionState, errors.GetCode(err))
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	reg := loadRegistry(t, map[string]string{"alpha.yml": twoProviderSpells})
	s := newTestSession(t, reg, nil)

	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	// The channel is primed with the current state.
	first := <-ch
	assert.Equal(t, StatusNotStarted, first.Status)

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool {
		select {
		case snap := <-ch:
			return snap.Status == StatusReady && len(snap.Items) == 2
		default:
			return false
		}
	}, 3*time.Second, 5*time.Millisecond)
}

func TestConditionGatesAction(t *testing.T) {
	reg := loadRegistry(t, map[string]string{
		"typed.yml": `
id: typed
name: Typed
enabled: true
category: main
provider:
  command: sh
  args: ["-c", "printf 'FILE\tdoc\t/tmp/doc\nDIR\tfolder\t/tmp/folder\n'"]
actions:
  - type: CMD
    cmd: ["true"]
  - type: CMD
    name: OPEN_FILE
    if: "{{.Context.typed.Selection.Kind}} == FILE"
    cmd: ["true"]
`,
	})
	s := newTestSession(t, reg, func(o *Options) { o.RootSpellID = "typed" })
	require.NoError(t, s.Start(context.Background()))
	snap := waitReady(t, s)

	// FILE row selected: both actions available.
	assert.Equal(t, []string{"MAIN", "OPEN_FILE"}, snap.Actions)

	s.SetSelectionDelta(1)
	snap = s.Snapshot()
	assert.Equal(t, []string{"MAIN"}, snap.Actions)

	err := s.InvokeAction(context.Background(), "OPEN_FILE")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeActionNotFound, errors.GetCode(err))
}

func TestTopNWindow(t *testing.T) {
	reg := loadRegistry(t, map[string]string{
		"many.yml": `
id: many
name: Many
enabled: true
category: main
provider:
  command: sh
  args: ["-c", "for i in 1 2 3 4 5; do printf 'APP\titem-%s\tp%s\n' $i $i; done"]
actions:
  - type: CMD
    cmd: ["true"]
`,
	})
	s := newTestSession(t, reg, func(o *Options) { o.TopN = 3 })
	require.NoError(t, s.Start(context.Background()))

	snap := waitReady(t, s)
	assert.Len(t, snap.Items, 3)
	assert.Equal(t, 5, snap.TotalItems)
}

const slowProviderSpell = `
id: slow
name: Slow
enabled: true
category: main
provider:
  command: sh
  args: ["-c", "sleep 0.4; printf 'APP\tslow-one\ts1\nAPP\tslow-two\ts2\n'"]
actions:
  - type: CMD
    cmd: ["true"]
`

func TestQueryDuringLoadKeepsProviderResult(t *testing.T) {
	reg := loadRegistry(t, map[string]string{"slow.yml": slowProviderSpell})
	s := newTestSession(t, reg, nil)
	require.NoError(t, s.Start(context.Background()))

	// Type while the provider is still running.
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, StatusLoading, s.Status())
	s.SetQuery("one")

	snap := waitReady(t, s)
	assert.Equal(t, "one", snap.Query)
	require.Len(t, snap.Items, 1, "the load result must land and be ranked against the typed query")
	assert.Equal(t, "s1", snap.Items[0].Payload)
}

func TestQueryDuringStreamKeepsBatches(t *testing.T) {
	reg := loadRegistry(t, map[string]string{
		"alpha.yml": twoProviderSpells,
		"stream.yml": `
id: stream
name: Stream
enabled: true
streaming: true
provider:
  command: sh
  args: ["-c", "printf 'APP\tstream-one\ts1\n'; sleep 0.6; printf 'APP\tstream-two\ts2\n'"]
actions:
  - type: CMD
    cmd: ["true"]
`,
		"root.yml": `
id: main
name: Main
enabled: false
provider: "true"
actions:
  - type: SPELL
    spell: stream
`,
	})
	s := newTestSession(t, reg, nil)
	require.NoError(t, s.Start(context.Background()))
	waitReady(t, s)

	require.NoError(t, s.InvokeAction(context.Background(), ""))
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, StatusLoading, s.Status())
	s.SetQuery("two")

	snap := waitReady(t, s)
	assert.Equal(t, []string{"Main", "Stream"}, snap.SpellNames)
	require.Len(t, snap.Items, 1, "streamed batches must survive a query typed mid-stream")
	assert.Equal(t, "s2", snap.Items[0].Payload)
}

func TestStartPassesThroughBooting(t *testing.T) {
	reg := loadRegistry(t, map[string]string{"alpha.yml": twoProviderSpells})
	s := newTestSession(t, reg, nil)
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	assert.Equal(t, StatusNotStarted, (<-ch).Status)
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, StatusBooting, (<-ch).Status)
	assert.Equal(t, StatusLoading, (<-ch).Status)
	waitReady(t, s)
}
