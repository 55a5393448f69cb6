// internal/broker/mock/mock.go
package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"github.com/newthinker/klineprompt/internal/broker"
	"github.com/newthinker/klineprompt/internal/core"
	"github.com/newthinker/klineprompt/internal/storage/record"
)

// Fault scripts a failure for one symbol.
type Fault struct {
	// Subscribe is returned as a business error by Subscribe.
	Subscribe string
	// Query is returned as a business error by the data query.
	Query string
	// Transport is returned as a transport error by the data query.
	Transport error
}

// Dialer implements broker.Dialer in memory. Data not set explicitly is
// generated deterministically from the symbol.
type Dialer struct {
	mu      sync.Mutex
	bars    map[core.Symbol]*record.Table
	orders  map[core.Symbol]*record.Table
	faults  map[core.Symbol]Fault
	dialErr error
	opened  int
	closed  int
	calls   []string
	now     func() time.Time
}

// New creates a mock dialer.
func New() *Dialer {
	return &Dialer{
		bars:   make(map[core.Symbol]*record.Table),
		orders: make(map[core.Symbol]*record.Table),
		faults: make(map[core.Symbol]Fault),
		now:    time.Now,
	}
}

// Name returns the dialer name.
func (d *Dialer) Name() string {
	return "mock"
}

// SetBars scripts the bars returned for symbol.
func (d *Dialer) SetBars(symbol core.Symbol, t *record.Table) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bars[symbol] = t
}

// SetOrders scripts the orders returned for symbol.
func (d *Dialer) SetOrders(symbol core.Symbol, t *record.Table) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.orders[symbol] = t
}

// SetFault scripts a failure for symbol.
func (d *Dialer) SetFault(symbol core.Symbol, f Fault) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.faults[symbol] = f
}

// SetDialError makes every Open call fail.
func (d *Dialer) SetDialError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dialErr = err
}

// Opened returns the number of sessions opened so far.
func (d *Dialer) Opened() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened
}

// Live returns the number of sessions opened but not closed.
func (d *Dialer) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened - d.closed
}

// Calls returns the recorded operation log, e.g. "subscribe HK.00700".
func (d *Dialer) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *Dialer) open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dialErr != nil {
		return d.dialErr
	}
	d.opened++
	return nil
}

func (d *Dialer) record(call string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)
}

func (d *Dialer) fault(symbol core.Symbol) Fault {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.faults[symbol]
}

// OpenQuote opens a quote session.
func (d *Dialer) OpenQuote(ctx context.Context) (broker.QuoteSession, error) {
	if err := d.open(); err != nil {
		return nil, err
	}
	return &session{d: d}, nil
}

// OpenTrade opens a trade session.
func (d *Dialer) OpenTrade(ctx context.Context, filter broker.TradeFilter) (broker.TradeSession, error) {
	if err := d.open(); err != nil {
		return nil, err
	}
	return &session{d: d, filter: filter}, nil
}

type session struct {
	d          *Dialer
	filter     broker.TradeFilter
	subscribed map[core.Symbol]bool
	closed     bool
}

func (s *session) Subscribe(ctx context.Context, symbols []core.Symbol, subTypes []broker.SubType, opts broker.SubscribeOptions) (broker.Reply[struct{}], error) {
	for _, sym := range symbols {
		s.d.record("subscribe " + string(sym))
		if f := s.d.fault(sym); f.Subscribe != "" {
			return broker.Fail[struct{}](f.Subscribe), nil
		}
	}
	if s.subscribed == nil {
		s.subscribed = make(map[core.Symbol]bool)
	}
	for _, sym := range symbols {
		s.subscribed[sym] = true
	}
	return broker.OK(struct{}{}), nil
}

func (s *session) CurrentKlines(ctx context.Context, symbol core.Symbol, count int, kt broker.KLType, au broker.AuType) (broker.Reply[*record.Table], error) {
	s.d.record("klines " + string(symbol))
	f := s.d.fault(symbol)
	if f.Transport != nil {
		return broker.Reply[*record.Table]{}, f.Transport
	}
	if f.Query != "" {
		return broker.Fail[*record.Table](f.Query), nil
	}
	if !s.subscribed[symbol] {
		return broker.Fail[*record.Table]("请先订阅" + string(symbol)), nil
	}

	s.d.mu.Lock()
	t, ok := s.d.bars[symbol]
	now := s.d.now()
	s.d.mu.Unlock()
	if !ok {
		t = sampleBars(symbol, count, now)
	}
	return broker.OK(t), nil
}

func (s *session) HistoryOrders(ctx context.Context, symbol core.Symbol, start, end time.Time) (broker.Reply[*record.Table], error) {
	s.d.record("orders " + string(symbol))
	f := s.d.fault(symbol)
	if f.Transport != nil {
		return broker.Reply[*record.Table]{}, f.Transport
	}
	if f.Query != "" {
		return broker.Fail[*record.Table](f.Query), nil
	}

	s.d.mu.Lock()
	t, ok := s.d.orders[symbol]
	s.d.mu.Unlock()
	if !ok {
		t = sampleOrders(symbol, end)
	}
	return broker.OK(t), nil
}

func (s *session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.closed++
	return nil
}

func seed(symbol core.Symbol) float64 {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return 50 + float64(h.Sum32()%400)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func sampleBars(symbol core.Symbol, count int, now time.Time) *record.Table {
	t := record.NewTable(broker.KlineColumns...)
	base := seed(symbol)
	prev := base
	for i := count - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		open := round2(base + math.Sin(float64(i)/3)*5)
		closing := round2(open + math.Cos(float64(i)/2)*2)
		high := round2(math.Max(open, closing) + 1.5)
		low := round2(math.Min(open, closing) - 1.5)
		vol := int64(1000000 + i*1000)
		t.Append(string(symbol), "", day.Format("2006-01-02")+" 00:00:00",
			open, closing, high, low, vol, round2(float64(vol)*closing), 0.0, 0.0,
			prev, round2((closing-prev)/prev*100))
		prev = closing
	}
	return t
}

func sampleOrders(symbol core.Symbol, end time.Time) *record.Table {
	t := record.NewTable(broker.OrderColumns...)
	price := round2(seed(symbol))
	t.Append(string(symbol), "", "BUY", "NORMAL", "FILLED_ALL", "1001",
		100.0, price, end.AddDate(0, 0, -3).Format("2006-01-02 15:04:05"),
		end.AddDate(0, 0, -3).Format("2006-01-02 15:04:05"), 100.0, price)
	t.Append(string(symbol), "", "SELL", "NORMAL", "CANCELLED_ALL", "1002",
		100.0, round2(price*1.05), end.AddDate(0, 0, -1).Format("2006-01-02 15:04:05"),
		end.AddDate(0, 0, -1).Format("2006-01-02 15:04:05"), 0.0, 0.0)
	return t
}
