// Package dataset maps (symbol, dataset kind, time) to file locations.
package dataset

import (
	"path/filepath"
	"time"

	"github.com/newthinker/klineprompt/internal/core"
)

const (
	monthLayout = "200601"
	dayLayout   = "060102"
)

// Resolver holds the base directory of every dataset family.
type Resolver struct {
	KlinesDir  string
	OrdersDir  string
	GroundDir  string
	PromptsDir string
}

// DefaultResolver returns the layout rooted at the working directory.
func DefaultResolver() Resolver {
	return Resolver{
		KlinesDir:  "./datasets/klines",
		OrdersDir:  "./datasets/orders",
		GroundDir:  "./datasets/ground",
		PromptsDir: "./prompts",
	}
}

// Resolve returns the file path for a symbol's dataset. Bars and orders are
// partitioned by market and by the month of now, never by the data's own
// timestamps.
func (r Resolver) Resolve(symbol core.Symbol, kind core.DatasetKind, now time.Time) string {
	switch kind {
	case core.KindBars:
		return filepath.Join(r.partition(r.KlinesDir, symbol, now), string(symbol)+"_"+now.Format(dayLayout)+".jsonl")
	case core.KindOrders:
		return filepath.Join(r.partition(r.OrdersDir, symbol, now), string(symbol)+"_order.jsonl")
	case core.KindGroundTruth:
		return filepath.Join(r.GroundDir, string(symbol)+"_gt.jsonl")
	case core.KindReply:
		return filepath.Join(r.PromptsDir, string(symbol)+"_reply.txt")
	default:
		return filepath.Join(r.PromptsDir, string(symbol)+"_prompt.txt")
	}
}

// Partition returns the directory holding a symbol's bars or orders for the
// month of now.
func (r Resolver) Partition(symbol core.Symbol, kind core.DatasetKind, now time.Time) string {
	if kind == core.KindOrders {
		return r.partition(r.OrdersDir, symbol, now)
	}
	return r.partition(r.KlinesDir, symbol, now)
}

func (r Resolver) partition(base string, symbol core.Symbol, now time.Time) string {
	return filepath.Join(base, string(symbol.Market()), now.Format(monthLayout))
}
