// Package batch runs a per-symbol operation over a symbol list, isolating
// failures and pacing requests.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/newthinker/klineprompt/internal/core"
	"go.uber.org/zap"
)

// Outcome is what a successful operation produced.
type Outcome struct {
	// Path is the file written for the symbol.
	Path string
	// Rows is the number of records written, when meaningful.
	Rows int
}

// Op processes one symbol.
type Op func(ctx context.Context, symbol core.Symbol) (Outcome, error)

// Result is one symbol's outcome: exactly one of Outcome or Err is set.
type Result struct {
	Symbol  core.Symbol
	Outcome Outcome
	Err     error
}

// OK reports whether the symbol succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Report summarizes one run.
type Report struct {
	Kind    core.DatasetKind
	Results []Result
	Elapsed time.Duration
}

// Total returns the number of symbols in the run.
func (r Report) Total() int {
	return len(r.Results)
}

// Succeeded returns the number of successful symbols.
func (r Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

// Failures returns the failed results in run order.
func (r Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// Recorder receives per-symbol and per-run observations.
type Recorder interface {
	ObserveSymbol(kind core.DatasetKind, ok bool, rows int, elapsed time.Duration)
	ObserveBatch(kind core.DatasetKind, total, failed int)
}

// Runner executes batches sequentially.
type Runner struct {
	// Delay is the pause between two symbols. No pause follows the last one.
	Delay time.Duration
	// Out receives human-readable progress lines. Defaults to stdout.
	Out io.Writer
	// Logger receives structured events.
	Logger *zap.Logger
	// Metrics is optional.
	Metrics Recorder
	// Sleep replaces the context-aware timer, for tests.
	Sleep func(time.Duration)
}

// Run invokes op once per symbol, in order. A failing or panicking symbol is
// recorded and the batch continues. Cancellation is observed between symbols
// only; symbols not yet attempted are recorded as failed with the context
// error. The summary is always printed.
func (r *Runner) Run(ctx context.Context, kind core.DatasetKind, symbols []core.Symbol, op Op) Report {
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	out := r.Out
	if out == nil {
		out = os.Stdout
	}
	p := printer{w: out, kind: kind}

	started := time.Now()
	report := Report{Kind: kind, Results: make([]Result, 0, len(symbols))}
	p.header(len(symbols))

	for i, sym := range symbols {
		if err := ctx.Err(); err != nil {
			for _, rest := range symbols[i:] {
				report.Results = append(report.Results, Result{Symbol: rest, Err: err})
			}
			log.Warn("batch interrupted", zap.String("dataset", string(kind)), zap.Int("remaining", len(symbols)-i), zap.Error(err))
			break
		}

		p.progress(i+1, len(symbols), sym)
		t0 := time.Now()
		outcome, err := call(ctx, op, sym, log)
		elapsed := time.Since(t0)

		res := Result{Symbol: sym, Outcome: outcome, Err: err}
		report.Results = append(report.Results, res)
		if r.Metrics != nil {
			r.Metrics.ObserveSymbol(kind, err == nil, outcome.Rows, elapsed)
		}

		if err != nil {
			p.failure(sym, err)
			log.Warn("symbol failed",
				zap.String("dataset", string(kind)),
				zap.String("symbol", string(sym)),
				zap.Duration("elapsed", elapsed),
				zap.Error(err))
		} else {
			p.success(sym, outcome.Path)
			log.Info("symbol done",
				zap.String("dataset", string(kind)),
				zap.String("symbol", string(sym)),
				zap.String("path", outcome.Path),
				zap.Int("rows", outcome.Rows),
				zap.Duration("elapsed", elapsed))
		}

		if i < len(symbols)-1 && r.Delay > 0 {
			r.pause(ctx)
		}
	}

	report.Elapsed = time.Since(started)
	p.summary(report)
	if r.Metrics != nil {
		r.Metrics.ObserveBatch(kind, report.Total(), report.Total()-report.Succeeded())
	}
	log.Info("batch finished",
		zap.String("dataset", string(kind)),
		zap.Int("total", report.Total()),
		zap.Int("succeeded", report.Succeeded()),
		zap.Duration("elapsed", report.Elapsed))
	return report
}

// call runs op, turning a panic into an error for that symbol alone.
func call(ctx context.Context, op Op, sym core.Symbol, log *zap.Logger) (outcome Outcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("symbol panicked",
				zap.String("symbol", string(sym)),
				zap.Any("panic", rec),
				zap.Stack("stack"))
			outcome, err = Outcome{}, fmt.Errorf("panic: %v", rec)
		}
	}()
	return op(ctx, sym)
}

func (r *Runner) pause(ctx context.Context) {
	if r.Sleep != nil {
		r.Sleep(r.Delay)
		return
	}
	t := time.NewTimer(r.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Reason returns the message shown to users for err: the cause carried by
// the outermost coded error, or the error text itself.
func Reason(err error) string {
	var ce *core.Error
	if errors.As(err, &ce) {
		if ce.Cause != nil {
			return ce.Cause.Error()
		}
		return ce.Message
	}
	return err.Error()
}
