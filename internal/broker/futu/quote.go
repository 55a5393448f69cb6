package futu

import (
	"context"
	"fmt"

	"github.com/newthinker/klineprompt/internal/broker"
	"github.com/newthinker/klineprompt/internal/core"
	"github.com/newthinker/klineprompt/internal/storage/record"
)

type quoteSession struct {
	c *conn
}

func toSecurity(symbol core.Symbol) (security, bool) {
	m, ok := qotMarkets[symbol.Market()]
	if !ok {
		return security{}, false
	}
	return security{Market: m, Code: symbol.Code()}, true
}

func (q *quoteSession) Subscribe(ctx context.Context, symbols []core.Symbol, types []broker.SubType, opts broker.SubscribeOptions) (broker.Reply[struct{}], error) {
	req := qotSubC2S{
		IsSubOrUnSub:     true,
		IsRegOrUnRegPush: opts.Push,
	}
	for _, sym := range symbols {
		sec, ok := toSecurity(sym)
		if !ok {
			return broker.Fail[struct{}](fmt.Sprintf("unsupported market for %s", sym)), nil
		}
		req.SecurityList = append(req.SecurityList, sec)
	}
	for _, st := range types {
		v, ok := subTypes[st]
		if !ok {
			return broker.Fail[struct{}](fmt.Sprintf("unsupported subscription type %s", st)), nil
		}
		req.SubTypeList = append(req.SubTypeList, v)
	}

	session := opts.Session
	if session == "" {
		session = broker.SessionAll
	}
	req.Session = sessions[session]

	return q.c.call(ctx, protoQotSub, req, nil)
}

func (q *quoteSession) CurrentKlines(ctx context.Context, symbol core.Symbol, count int, kt broker.KLType, au broker.AuType) (broker.Reply[*record.Table], error) {
	sec, ok := toSecurity(symbol)
	if !ok {
		return broker.Fail[*record.Table](fmt.Sprintf("unsupported market for %s", symbol)), nil
	}
	klType, ok := klTypes[kt]
	if !ok {
		return broker.Fail[*record.Table](fmt.Sprintf("unsupported kline type %s", kt)), nil
	}
	rehab, ok := rehabTypes[au]
	if !ok {
		return broker.Fail[*record.Table](fmt.Sprintf("unsupported adjustment type %s", au)), nil
	}

	var s2c qotGetKLS2C
	reply, err := q.c.call(ctx, protoQotGetKL, qotGetKLC2S{
		RehabType: rehab,
		KLType:    klType,
		Security:  sec,
		ReqNum:    int32(count),
	}, &s2c)
	if err != nil || reply.Ret != broker.RetOK {
		return broker.Reply[*record.Table]{Ret: reply.Ret, Msg: reply.Msg}, err
	}

	t := record.NewTable(broker.KlineColumns...)
	for _, k := range s2c.KLList {
		if k.IsBlank {
			continue
		}
		t.Append(string(symbol), s2c.Name, k.Time,
			k.OpenPrice, k.ClosePrice, k.HighPrice, k.LowPrice,
			int64(k.Volume), k.Turnover, k.PE, k.TurnoverRate,
			k.LastClosePrice, k.ChangeRate)
	}
	return broker.OK(t), nil
}

func (q *quoteSession) Close() error {
	return q.c.close()
}
