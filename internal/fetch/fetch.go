// Package fetch implements the per-symbol acquisition steps that pull bars
// and orders from the gateway and persist them as datasets.
package fetch

import (
	"context"
	"time"

	"github.com/newthinker/klineprompt/internal/batch"
	"github.com/newthinker/klineprompt/internal/broker"
	"github.com/newthinker/klineprompt/internal/core"
	"github.com/newthinker/klineprompt/internal/dataset"
	"github.com/newthinker/klineprompt/internal/storage/record"
	"go.uber.org/zap"
)

// OrderKeepColumns is the persisted order schema.
var OrderKeepColumns = []string{"create_time", "code", "trd_side", "price", "qty", "order_status"}

// Archiver mirrors a written file. Failures must not fail the symbol.
type Archiver interface {
	Copy(ctx context.Context, path string) error
}

// KlineParams selects which bars are requested.
type KlineParams struct {
	Count  int
	Type   broker.KLType
	AuType broker.AuType
}

// OrderParams selects which orders are requested.
type OrderParams struct {
	// Days is the lookback window ending now.
	Days   int
	Filter broker.TradeFilter
}

// Fetcher builds batch operations over a gateway dialer.
type Fetcher struct {
	Dialer   broker.Dialer
	Resolver dataset.Resolver
	// Archive is optional.
	Archive Archiver
	Logger  *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

func (f *Fetcher) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *Fetcher) logger() *zap.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return zap.NewNop()
}

// Klines returns the operation fetching the latest bars of one symbol.
func (f *Fetcher) Klines(p KlineParams) batch.Op {
	return func(ctx context.Context, symbol core.Symbol) (batch.Outcome, error) {
		return f.klines(ctx, symbol, p)
	}
}

func (f *Fetcher) klines(ctx context.Context, symbol core.Symbol, p KlineParams) (batch.Outcome, error) {
	sess, err := f.Dialer.OpenQuote(ctx)
	if err != nil {
		return batch.Outcome{}, broker.OpenError(err)
	}
	defer sess.Close()

	sub, err := sess.Subscribe(ctx, []core.Symbol{symbol},
		[]broker.SubType{broker.SubTypeFor(p.Type)},
		broker.SubscribeOptions{Push: false, Session: broker.SessionAll})
	if _, err := broker.Expect(sub, err, "订阅失败"); err != nil {
		return batch.Outcome{}, err
	}

	reply, err := sess.CurrentKlines(ctx, symbol, p.Count, p.Type, p.AuType)
	bars, err := broker.Expect(reply, err, "获取K线数据失败")
	if err != nil {
		return batch.Outcome{}, err
	}

	path := f.Resolver.Resolve(symbol, core.KindBars, f.now())
	if err := record.Persist(bars, path, record.PersistOptions{}); err != nil {
		return batch.Outcome{}, err
	}
	f.mirror(ctx, path)
	return batch.Outcome{Path: path, Rows: bars.Len()}, nil
}

// Orders returns the operation fetching one symbol's order history.
func (f *Fetcher) Orders(p OrderParams) batch.Op {
	return func(ctx context.Context, symbol core.Symbol) (batch.Outcome, error) {
		return f.orders(ctx, symbol, p)
	}
}

func (f *Fetcher) orders(ctx context.Context, symbol core.Symbol, p OrderParams) (batch.Outcome, error) {
	now := f.now()
	start, end := broker.DateRange(now, p.Days)

	sess, err := f.Dialer.OpenTrade(ctx, p.Filter)
	if err != nil {
		return batch.Outcome{}, broker.OpenError(err)
	}
	defer sess.Close()

	reply, err := sess.HistoryOrders(ctx, symbol, start, end)
	orders, err := broker.Expect(reply, err, "获取订单数据失败")
	if err != nil {
		return batch.Outcome{}, err
	}

	path := f.Resolver.Resolve(symbol, core.KindOrders, now)
	err = record.Persist(orders, path, record.PersistOptions{
		KeepColumns: OrderKeepColumns,
		DateColumns: []string{"create_time"},
	})
	if err != nil {
		return batch.Outcome{}, err
	}
	f.mirror(ctx, path)
	return batch.Outcome{Path: path, Rows: orders.Len()}, nil
}

func (f *Fetcher) mirror(ctx context.Context, path string) {
	if f.Archive == nil {
		return
	}
	if err := f.Archive.Copy(ctx, path); err != nil {
		f.logger().Warn("dataset kept locally only", zap.String("path", path), zap.Error(err))
	}
}
