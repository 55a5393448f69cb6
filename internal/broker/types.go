// Package broker defines the capability-typed sessions used to talk to the
// quoting and trading gateway.
package broker

import (
	"time"

	"github.com/newthinker/klineprompt/internal/core"
)

// Ret is the two-valued status every gateway call reports.
type Ret int

const (
	// RetOK indicates the call succeeded and Reply.Data is valid.
	RetOK Ret = 0
	// RetError indicates a business-level failure described by Reply.Msg.
	RetError Ret = -1
)

// Reply pairs a status with either a payload or an error message.
type Reply[T any] struct {
	// Ret is the status discriminator.
	Ret Ret
	// Data is the payload, valid only when Ret is RetOK.
	Data T
	// Msg is the gateway's error message when Ret is RetError.
	Msg string
}

// OK builds a successful reply.
func OK[T any](data T) Reply[T] {
	return Reply[T]{Ret: RetOK, Data: data}
}

// Fail builds a business-failure reply.
func Fail[T any](msg string) Reply[T] {
	return Reply[T]{Ret: RetError, Msg: msg}
}

// KLType is the bar interval.
type KLType string

const (
	KL1Min  KLType = "K_1M"
	KL5Min  KLType = "K_5M"
	KL15Min KLType = "K_15M"
	KL30Min KLType = "K_30M"
	KL60Min KLType = "K_60M"
	KLDay   KLType = "K_DAY"
	KLWeek  KLType = "K_WEEK"
	KLMonth KLType = "K_MON"
)

// AuType is the price adjustment applied to historical bars.
type AuType string

const (
	// AuForward adjusts history forward (前复权).
	AuForward AuType = "qfq"
	// AuBackward adjusts history backward (后复权).
	AuBackward AuType = "hfq"
	// AuNone leaves prices unadjusted.
	AuNone AuType = "none"
)

// SubType is a quote subscription type. Bar subscriptions share their
// names with KLType.
type SubType string

// SubTypeFor returns the subscription required before querying bars of kt.
func SubTypeFor(kt KLType) SubType {
	return SubType(kt)
}

// Session selects which trading sessions a subscription covers.
type Session string

const (
	SessionAll       Session = "ALL"
	SessionRTH       Session = "RTH"
	SessionETH       Session = "ETH"
	SessionOvernight Session = "OVERNIGHT"
)

// SubscribeOptions tune a quote subscription.
type SubscribeOptions struct {
	// Push enables server push for the subscribed symbols.
	Push bool
	// Session defaults to SessionAll.
	Session Session
}

// TrdEnv selects real or paper trading accounts.
type TrdEnv string

const (
	TrdEnvReal     TrdEnv = "REAL"
	TrdEnvSimulate TrdEnv = "SIMULATE"
)

// SecurityFirm identifies the broker entity holding the account.
type SecurityFirm string

const (
	FirmFutuSecurities SecurityFirm = "FUTUSECURITIES"
	FirmFutuInc        SecurityFirm = "FUTUINC"
	FirmFutuSG         SecurityFirm = "FUTUSG"
	FirmFutuAU         SecurityFirm = "FUTUAU"
)

// TradeFilter scopes a trade session to one market and broker identity.
type TradeFilter struct {
	// Market is the trading market the account must be authorized for.
	Market core.Market
	// Firm is the broker entity holding the account.
	Firm SecurityFirm
	// Env selects real or simulated accounts.
	Env TrdEnv
}

// DateRange returns the [start, end] window covering the last days days,
// both ends at day granularity.
func DateRange(now time.Time, days int) (start, end time.Time) {
	end = now
	start = now.AddDate(0, 0, -days)
	return start, end
}

// Column sets produced by the gateway sessions.
var (
	KlineColumns = []string{
		"code", "name", "time_key", "open", "close", "high", "low",
		"volume", "turnover", "pe_ratio", "turnover_rate", "last_close", "change_rate",
	}
	OrderColumns = []string{
		"code", "stock_name", "trd_side", "order_type", "order_status", "order_id",
		"qty", "price", "create_time", "updated_time", "dealt_qty", "dealt_avg_price",
	}
)
