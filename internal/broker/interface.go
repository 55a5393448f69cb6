package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newthinker/klineprompt/internal/core"
	"github.com/newthinker/klineprompt/internal/storage/record"
)

// QuoteSession is a read-only market data connection.
type QuoteSession interface {
	// Subscribe must precede bar queries for a symbol.
	Subscribe(ctx context.Context, symbols []core.Symbol, subTypes []SubType, opts SubscribeOptions) (Reply[struct{}], error)
	// CurrentKlines returns the latest count bars for symbol.
	CurrentKlines(ctx context.Context, symbol core.Symbol, count int, kt KLType, au AuType) (Reply[*record.Table], error)
	// Close releases the connection slot on the gateway.
	Close() error
}

// TradeSession is an account-scoped connection for order history.
type TradeSession interface {
	// HistoryOrders returns the orders for symbol created between start and end.
	HistoryOrders(ctx context.Context, symbol core.Symbol, start, end time.Time) (Reply[*record.Table], error)
	// Close releases the connection slot on the gateway.
	Close() error
}

// Dialer opens sessions. Every opened session is owned by the caller, who
// must Close it on every exit path.
type Dialer interface {
	Name() string
	OpenQuote(ctx context.Context) (QuoteSession, error)
	OpenTrade(ctx context.Context, filter TradeFilter) (TradeSession, error)
}

// Expect converts a gateway call result into a Go error. A transport error
// becomes core.ErrTransport and a failed status becomes core.ErrBusiness
// prefixed with what.
func Expect[T any](reply Reply[T], err error, what string) (T, error) {
	var zero T
	if err != nil {
		return zero, core.WrapError(core.ErrTransport, fmt.Errorf("请求异常: %w", err))
	}
	if reply.Ret != RetOK {
		return zero, core.WrapError(core.ErrBusiness, fmt.Errorf("%s: %s", what, reply.Msg))
	}
	return reply.Data, nil
}

// OpenError classifies a failure to open a session. Errors that already carry
// a core code are returned unchanged; everything else is a transport error.
func OpenError(err error) error {
	var ce *core.Error
	if errors.As(err, &ce) {
		return err
	}
	return core.WrapError(core.ErrTransport, fmt.Errorf("请求异常: %w", err))
}
