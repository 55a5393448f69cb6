package futu

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/newthinker/klineprompt/internal/broker"
	"github.com/newthinker/klineprompt/internal/core"
	"github.com/newthinker/klineprompt/internal/storage/record"
)

const trdCategorySecurity = 1

type tradeSession struct {
	c      *conn
	market core.Market
	header trdHeader
}

func newTradeSession(ctx context.Context, c *conn, filter broker.TradeFilter) (*tradeSession, error) {
	market, ok := trdMarkets[filter.Market]
	if !ok {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unsupported trade market %q", filter.Market))
	}
	env := filter.Env
	if env == "" {
		env = broker.TrdEnvReal
	}
	firm := filter.Firm
	if firm == "" {
		firm = broker.FirmFutuSecurities
	}

	var s2c trdGetAccListS2C
	reply, err := c.call(ctx, protoTrdGetAccList, trdGetAccListC2S{
		TrdCategory:           trdCategorySecurity,
		NeedGeneralSecAccount: true,
	}, &s2c)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	if reply.Ret != broker.RetOK {
		return nil, core.WrapError(core.ErrBusiness, fmt.Errorf("listing accounts: %s", reply.Msg))
	}

	for _, acc := range s2c.AccList {
		if acc.TrdEnv != trdEnvs[env] {
			continue
		}
		// Simulated accounts carry no firm.
		if env == broker.TrdEnvReal && acc.SecurityFirm != firms[firm] {
			continue
		}
		if !slices.Contains(acc.TrdMarketAuthList, market) {
			continue
		}
		return &tradeSession{
			c:      c,
			market: filter.Market,
			header: trdHeader{TrdEnv: acc.TrdEnv, AccID: uint64(acc.AccID), TrdMarket: market},
		}, nil
	}
	return nil, core.WrapError(core.ErrBusiness,
		fmt.Errorf("no %s account for market %s at %s", env, filter.Market, firm))
}

func (t *tradeSession) HistoryOrders(ctx context.Context, symbol core.Symbol, start, end time.Time) (broker.Reply[*record.Table], error) {
	req := trdGetHistoryOrderListC2S{
		Header: t.header,
		FilterConditions: filterConditions{
			BeginTime: start.Format("2006-01-02") + " 00:00:00",
			EndTime:   end.Format("2006-01-02") + " 23:59:59",
		},
	}
	if symbol != "" {
		req.FilterConditions.CodeList = []string{symbol.Code()}
	}

	var s2c trdGetHistoryOrderListS2C
	reply, err := t.c.call(ctx, protoTrdGetHistoryOrders, req, &s2c)
	if err != nil || reply.Ret != broker.RetOK {
		return broker.Reply[*record.Table]{Ret: reply.Ret, Msg: reply.Msg}, err
	}

	tbl := record.NewTable(broker.OrderColumns...)
	for _, o := range s2c.OrderList {
		tbl.Append(string(t.orderMarket(o))+"."+o.Code, o.Name,
			enumName(trdSideNames, o.TrdSide),
			enumName(orderTypeNames, o.OrderType),
			enumName(orderStatusNames, o.OrderStatus),
			strconv.FormatInt(int64(o.OrderID), 10),
			o.Qty, o.Price, o.CreateTime, o.UpdateTime, o.FillQty, o.FillAvgPrice)
	}
	return broker.OK(tbl), nil
}

// orderMarket prefers the order's own security market. A CN account covers
// both SH and SZ, so the session market alone is ambiguous.
func (t *tradeSession) orderMarket(o order) core.Market {
	if m, ok := secMarketNames[o.SecMarket]; ok {
		return m
	}
	return t.market
}

func (t *tradeSession) Close() error {
	return t.c.close()
}
