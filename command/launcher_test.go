package command

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickspell/core/errors"
)

func TestLaunchReportsStartFailure(t *testing.T) {
	l := NewLauncher(&RealExecutor{}, t.TempDir())

	report := l.Launch([]string{"/nonexistent/definitely-not-a-binary"})
	require.Error(t, report.Err)
	assert.True(t, errors.Is(report.Err, errors.ErrCodeProcessLaunch))
	assert.NotEmpty(t, report.ID)
}

func TestLaunchEmptyArgv(t *testing.T) {
	l := NewLauncher(nil, t.TempDir())

	report := l.Launch(nil)
	require.Error(t, report.Err)
	assert.True(t, errors.Is(report.Err, errors.ErrCodeProcessLaunch))

	report = l.Launch([]string{"   "})
	require.Error(t, report.Err)
}

func TestLaunchFireAndForget(t *testing.T) {
	l := NewLauncher(&RealExecutor{}, t.TempDir())

	var mu sync.Mutex
	exited := make(map[string]error)
	done := make(chan struct{})
	l.OnExit = func(id string, err error) {
		mu.Lock()
		exited[id] = err
		mu.Unlock()
		close(done)
	}

	start := time.Now()
	report := l.Launch([]string{"sleep", "0.2"})
	require.NoError(t, report.Err)
	// Launch must return before the child exits.
	assert.Less(t, time.Since(start), 150*time.Millisecond)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("OnExit was never called")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.NoError(t, exited[report.ID])
}

func TestValidateArgv(t *testing.T) {
	assert.Error(t, ValidateArgv(nil))
	assert.Error(t, ValidateArgv([]string{""}))
	assert.NoError(t, ValidateArgv([]string{"echo", "hi"}))
}
