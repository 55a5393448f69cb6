package core

import "strings"

// Market represents a trading market prefix as used in Futu symbols.
type Market string

const (
	MarketHK Market = "HK"
	MarketUS Market = "US"
	MarketSH Market = "SH"
	MarketSZ Market = "SZ"
)

// Symbol is a market-qualified security code such as "HK.00700".
type Symbol string

// Market returns the prefix before the first '.'. A symbol without a
// separator is returned whole.
func (s Symbol) Market() Market {
	m, _, _ := strings.Cut(string(s), ".")
	return Market(m)
}

// Code returns the security code after the market prefix.
func (s Symbol) Code() string {
	_, code, ok := strings.Cut(string(s), ".")
	if !ok {
		return string(s)
	}
	return code
}

func (s Symbol) String() string {
	return string(s)
}

// Symbols converts plain strings into symbols, dropping blanks.
func Symbols(raw []string) []Symbol {
	out := make([]Symbol, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, Symbol(r))
	}
	return out
}

// DatasetKind identifies one of the persisted artifact families.
type DatasetKind string

const (
	KindBars        DatasetKind = "klines"
	KindOrders      DatasetKind = "orders"
	KindGroundTruth DatasetKind = "ground"
	KindPrompt      DatasetKind = "prompts"
	KindReply       DatasetKind = "replies"
)

// Label returns the human-readable dataset name used in progress output.
func (k DatasetKind) Label() string {
	switch k {
	case KindBars:
		return "K线数据"
	case KindOrders:
		return "订单数据"
	case KindGroundTruth:
		return "真实交易数据"
	case KindPrompt:
		return "提示语"
	case KindReply:
		return "模型回复"
	default:
		return "数据"
	}
}
