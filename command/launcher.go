// Package command executes external processes for quickspell: providers are
// run to completion elsewhere via the Executor abstraction, while actions are
// launched fire-and-forget through the Launcher.
//
// All execution is argument-vector based. Provider-sourced payloads reach a
// command only as individual argv elements, never as shell text.
package command

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quickspell/core/errors"
	"github.com/quickspell/core/logging"
)

// LaunchReport describes the outcome of one action dispatch. Launches are
// asynchronous: Err covers only the failure to start the process, and Exited
// reports the eventual exit outcome when the process has been waited on.
type LaunchReport struct {
	ID      string // dispatch id, unique per launch
	Command string // argv joined for display only
	Err     error
}

// Launcher spawns action commands without blocking the caller. A nil OnExit
// means exit statuses are only logged.
type Launcher struct {
	executor Executor
	dir      string
	logger   *logrus.Entry

	// OnExit, when set, receives the dispatch id and wait error after the
	// spawned process terminates.
	OnExit func(id string, err error)
}

// NewLauncher creates a Launcher running commands in dir (the resources
// directory providers and actions resolve relative paths against).
func NewLauncher(executor Executor, dir string) *Launcher {
	if executor == nil {
		executor = &RealExecutor{}
	}
	return &Launcher{
		executor: executor,
		dir:      dir,
		logger:   logging.NewLogger("launcher"),
	}
}

// Launch starts argv as a detached process. It returns a report carrying the
// dispatch id; a non-nil report Err means the process never started. The
// caller is never blocked on the child's exit.
func (l *Launcher) Launch(argv []string) LaunchReport {
	report := LaunchReport{
		ID:      uuid.NewString(),
		Command: strings.Join(argv, " "),
	}

	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		report.Err = errors.New(errors.ErrCodeProcessLaunch, "resolved command is empty")
		return report
	}

	cmd := l.executor.Command(argv[0], argv[1:]...)
	cmd.Dir = l.dir

	if err := cmd.Start(); err != nil {
		report.Err = errors.ProcessLaunch(report.Command, err)
		return report
	}

	l.logger.WithFields(logrus.Fields{
		"dispatch": report.ID,
		"command":  argv[0],
		"pid":      cmd.Process.Pid,
	}).Debug("Launched action command")

	go l.reap(report.ID, cmd)
	return report
}

// reap waits for the child so it never zombies, and reports the exit.
func (l *Launcher) reap(id string, cmd *exec.Cmd) {
	err := cmd.Wait()
	if err != nil {
		l.logger.WithField("dispatch", id).WithError(err).Debug("Action command exited with error")
	}
	if l.OnExit != nil {
		l.OnExit(id, err)
	}
}

// ValidateArgv rejects argv shapes that could only arise from a broken
// template: an empty vector or an empty command name.
func ValidateArgv(argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("empty command")
	}
	if strings.TrimSpace(argv[0]) == "" {
		return fmt.Errorf("empty command name")
	}
	return nil
}
