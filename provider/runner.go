// Package provider invokes spell providers: external executables producing
// tab-delimited item lines on stdout.
//
// Provider failure is partial: lines parsed before a non-zero exit are
// kept, and a bad line never poisons the batch.
package provider

import (
	"bufio"
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/quickspell/core/catalog"
	"github.com/quickspell/core/command"
	"github.com/quickspell/core/errors"
	"github.com/quickspell/core/logging"
	"github.com/quickspell/core/pkg/profiling"
	"github.com/quickspell/core/spell"
)

// BatchInterval is the throttle for streaming providers: parsed items are
// delivered at most this often while the provider is still running.
const BatchInterval = 500 * time.Millisecond

// Result holds one provider invocation's output.
type Result struct {
	Items   []catalog.Item
	Skipped int
}

// Runner executes providers through an Executor, relative to the resources
// directory.
type Runner struct {
	executor command.Executor
	dir      string
	logger   *logrus.Entry
}

// NewRunner creates a Runner. A nil executor means real process execution.
func NewRunner(executor command.Executor, dir string) *Runner {
	if executor == nil {
		executor = &command.RealExecutor{}
	}
	return &Runner{
		executor: executor,
		dir:      dir,
		logger:   logging.NewLogger("provider"),
	}
}

// Run executes the spell's provider to completion and parses its output.
//
// Error semantics: a PROCESS_LAUNCH error means the provider never started
// and the result is empty. A PROVIDER_FAILED error means the provider exited
// non-zero; lines parsed before that are kept in the result.
func (r *Runner) Run(ctx context.Context, sp *spell.Spell) (Result, error) {
	cmd := r.executor.CommandContext(ctx, sp.Provider.Command, sp.Provider.Args...)
	cmd.Dir = r.dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, errors.ProcessLaunch(sp.Provider.Command, err)
	}
	if err := cmd.Start(); err != nil {
		return Result{}, errors.ProcessLaunch(sp.Provider.Command, err)
	}

	parsed, parseErr := catalog.Parse(stdout)
	waitErr := cmd.Wait()

	res := Result{Items: parsed.Items, Skipped: parsed.Skipped}
	res.Items, res.Skipped = r.applyExcludes(sp, res.Items, res.Skipped)

	if res.Skipped > 0 {
		r.logger.WithFields(logrus.Fields{
			"spell":   sp.ID,
			"skipped": res.Skipped,
		}).Warn("Provider emitted malformed or excluded lines")
	}

	if waitErr != nil {
		return res, errors.ProviderFailed(sp.ID, waitErr)
	}
	if parseErr != nil {
		return res, errors.ProviderFailed(sp.ID, parseErr)
	}

	return res, nil
}

// Stream executes the provider and delivers parsed items in throttled
// batches through emit, called from this goroutine. The final result repeats
// nothing: each item is emitted exactly once. Used for slow providers so the
// first screenful shows up before the walk finishes.
func (r *Runner) Stream(ctx context.Context, sp *spell.Spell, emit func([]catalog.Item)) (int, error) {
	cmd := r.executor.CommandContext(ctx, sp.Provider.Command, sp.Provider.Args...)
	cmd.Dir = r.dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, errors.ProcessLaunch(sp.Provider.Command, err)
	}
	if err := cmd.Start(); err != nil {
		return 0, errors.ProcessLaunch(sp.Provider.Command, err)
	}

	matcher, _ := sp.ExcludeMatcher()

	skipped := 0
	var batch []catalog.Item
	lastEmit := time.Now()

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		item, ok := catalog.ParseLine(scanner.Text())
		if !ok {
			skipped++
			continue
		}
		if matcher != nil {
			if m, merr := matcher.MatchesOrParentMatches(item.Payload); merr == nil && m {
				skipped++
				continue
			}
		}
		batch = append(batch, item)

		if time.Since(lastEmit) >= BatchInterval {
			emit(batch)
			batch = nil
			lastEmit = time.Now()
		}
	}
	if len(batch) > 0 {
		emit(batch)
	}

	waitErr := cmd.Wait()
	if waitErr != nil {
		return skipped, errors.ProviderFailed(sp.ID, waitErr)
	}
	if err := scanner.Err(); err != nil {
		return skipped, errors.ProviderFailed(sp.ID, err)
	}

	return skipped, nil
}

// RunMain invokes every main-category provider concurrently and merges their
// outputs into one mixed catalog, interleaving round-robin across providers
// in the given order. A provider that fails contributes its partial output;
// RunMain fails only when every provider failed to produce anything.
func (r *Runner) RunMain(ctx context.Context, spells []*spell.Spell) (Result, error) {
	defer profiling.Start("provider.run_main").Stop()
	if len(spells) == 0 {
		return Result{}, nil
	}

	results := make([]Result, len(spells))
	errs := make([]error, len(spells))

	g, gctx := errgroup.WithContext(ctx)
	for i, sp := range spells {
		g.Go(func() error {
			results[i], errs[i] = r.Run(gctx, sp)
			// Partial failure stays local to one provider.
			return nil
		})
	}
	_ = g.Wait()

	merged := interleave(results)

	failed := 0
	var firstErr error
	for i, err := range errs {
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			r.logger.WithField("spell", spells[i].ID).WithError(err).Warn("Main provider failed")
		}
	}
	if failed == len(spells) && len(merged.Items) == 0 {
		return merged, firstErr
	}

	return merged, nil
}

// interleave merges per-provider results round-robin so the mixed root
// catalog alternates between sources instead of concatenating blocks.
func interleave(results []Result) Result {
	var merged Result
	total := 0
	for _, res := range results {
		total += len(res.Items)
		merged.Skipped += res.Skipped
	}
	merged.Items = make([]catalog.Item, 0, total)

	for idx := 0; len(merged.Items) < total; idx++ {
		for _, res := range results {
			if idx < len(res.Items) {
				merged.Items = append(merged.Items, res.Items[idx])
			}
		}
	}

	return merged
}

// applyExcludes drops items whose payload matches the spell's exclude
// patterns, folding them into the skipped count.
func (r *Runner) applyExcludes(sp *spell.Spell, items []catalog.Item, skipped int) ([]catalog.Item, int) {
	matcher, err := sp.ExcludeMatcher()
	if err != nil {
		r.logger.WithField("spell", sp.ID).WithError(err).Warn("Ignoring bad exclude patterns")
		return items, skipped
	}
	if matcher == nil {
		return items, skipped
	}

	kept := items[:0]
	for _, item := range items {
		if m, merr := matcher.MatchesOrParentMatches(item.Payload); merr == nil && m {
			skipped++
			continue
		}
		kept = append(kept, item)
	}
	return kept, skipped
}
