// Package prompt renders per-symbol prompts from stored datasets and a
// stage template.
package prompt

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/newthinker/klineprompt/internal/batch"
	"github.com/newthinker/klineprompt/internal/core"
	"github.com/newthinker/klineprompt/internal/dataset"
	"github.com/newthinker/klineprompt/internal/storage/record"
	"go.uber.org/zap"
)

// Template placeholders.
const (
	TokenStockCode = "{STOCK_CODE}"
	TokenKlineData = "{KLINE_DATA}"
	TokenOrderData = "{ORDER_DATA}"
	TokenGTData    = "{GT_DATA}"
)

// DefaultStage is the template used when none is given.
const DefaultStage = "stg02"

// TemplateStore returns the template text of a stage.
type TemplateStore interface {
	Template(stage string) (string, error)
}

// DirTemplates reads <Dir>/<stage>.txt.
type DirTemplates struct {
	Dir string
}

// Template loads the stage template. Stage names are plain file stems.
func (d DirTemplates) Template(stage string) (string, error) {
	if stage == "" || stage != filepath.Base(stage) || strings.ContainsAny(stage, `/\`) {
		return "", core.WrapError(core.ErrConfigInvalid, fmt.Errorf("invalid stage name %q", stage))
	}
	return record.Load(filepath.Join(d.Dir, stage+".txt"))
}

// Archiver mirrors a written file.
type Archiver interface {
	Copy(ctx context.Context, path string) error
}

// Assembler builds prompt files.
type Assembler struct {
	Resolver  dataset.Resolver
	Templates TemplateStore
	// Archive is optional.
	Archive Archiver
	Logger  *zap.Logger
	// Now selects which day's bars and month's orders are read. Defaults to
	// time.Now.
	Now func() time.Time
}

// Render substitutes the placeholders in a single pass, so text injected for
// one placeholder is never scanned for another.
func Render(template string, symbol core.Symbol, klines, orders, groundTruth string) string {
	return strings.NewReplacer(
		TokenStockCode, string(symbol),
		TokenKlineData, klines,
		TokenOrderData, orders,
		TokenGTData, groundTruth,
	).Replace(template)
}

// Build renders the prompt of symbol for stage and writes it to the prompts
// directory. Every input is read before anything is written; if any is
// missing no file is produced.
func (a *Assembler) Build(ctx context.Context, symbol core.Symbol, stage string) (string, error) {
	now := time.Now()
	if a.Now != nil {
		now = a.Now()
	}

	klines, err := record.Load(a.Resolver.Resolve(symbol, core.KindBars, now))
	if err != nil {
		return "", err
	}
	orders, err := record.Load(a.Resolver.Resolve(symbol, core.KindOrders, now))
	if err != nil {
		return "", err
	}
	gt, err := record.Load(a.Resolver.Resolve(symbol, core.KindGroundTruth, now))
	if err != nil {
		return "", err
	}
	tmpl, err := a.Templates.Template(stage)
	if err != nil {
		return "", err
	}

	path := a.Resolver.Resolve(symbol, core.KindPrompt, now)
	if err := record.WriteText(path, Render(tmpl, symbol, klines, orders, gt)); err != nil {
		return "", err
	}

	if a.Archive != nil {
		if err := a.Archive.Copy(ctx, path); err != nil && a.Logger != nil {
			a.Logger.Warn("prompt kept locally only", zap.String("path", path), zap.Error(err))
		}
	}
	return path, nil
}

// Op adapts Build to the batch runner.
func (a *Assembler) Op(stage string) batch.Op {
	return func(ctx context.Context, symbol core.Symbol) (batch.Outcome, error) {
		path, err := a.Build(ctx, symbol, stage)
		if err != nil {
			return batch.Outcome{}, err
		}
		return batch.Outcome{Path: path}, nil
	}
}

// BuildAll builds every symbol's prompt without pacing. Failures are reported
// per symbol and do not stop the batch.
func (a *Assembler) BuildAll(ctx context.Context, r batch.Runner, symbols []core.Symbol, stage string) batch.Report {
	r.Delay = 0
	return r.Run(ctx, core.KindPrompt, symbols, a.Op(stage))
}
