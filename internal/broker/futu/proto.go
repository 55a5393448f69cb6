package futu

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/newthinker/klineprompt/internal/broker"
	"github.com/newthinker/klineprompt/internal/core"
)

// Protocol ids used by this client.
const (
	protoInitConnect         uint32 = 1001
	protoTrdGetAccList       uint32 = 2001
	protoTrdGetHistoryOrders uint32 = 2221
	protoQotSub              uint32 = 3001
	protoQotGetKL            uint32 = 3006
)

// int64 fields arrive as JSON strings; accept numbers as well.
type flexInt int64

func (n *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(string(b), 64)
		if ferr != nil {
			return err
		}
		v = int64(f)
	}
	*n = flexInt(v)
	return nil
}

type request struct {
	C2S any `json:"c2s"`
}

type response struct {
	RetType int32           `json:"retType"`
	RetMsg  string          `json:"retMsg"`
	ErrCode int32           `json:"errCode"`
	S2C     json.RawMessage `json:"s2c"`
}

type initConnectC2S struct {
	ClientVer           int32  `json:"clientVer"`
	ClientID            string `json:"clientID"`
	RecvNotify          bool   `json:"recvNotify"`
	PacketEncAlgo       int32  `json:"packetEncAlgo"`
	PushProtoFmt        int32  `json:"pushProtoFmt"`
	ProgrammingLanguage string `json:"programmingLanguage"`
}

type initConnectS2C struct {
	ServerVer         int32   `json:"serverVer"`
	LoginUserID       flexInt `json:"loginUserID"`
	ConnID            flexInt `json:"connID"`
	KeepAliveInterval int32   `json:"keepAliveInterval"`
}

type security struct {
	Market int32  `json:"market"`
	Code   string `json:"code"`
}

type qotSubC2S struct {
	SecurityList     []security `json:"securityList"`
	SubTypeList      []int32    `json:"subTypeList"`
	IsSubOrUnSub     bool       `json:"isSubOrUnSub"`
	IsRegOrUnRegPush bool       `json:"isRegOrUnRegPush"`
	Session          int32      `json:"session,omitempty"`
}

type qotGetKLC2S struct {
	RehabType int32    `json:"rehabType"`
	KLType    int32    `json:"klType"`
	Security  security `json:"security"`
	ReqNum    int32    `json:"reqNum"`
}

type kline struct {
	Time           string  `json:"time"`
	IsBlank        bool    `json:"isBlank"`
	HighPrice      float64 `json:"highPrice"`
	OpenPrice      float64 `json:"openPrice"`
	LowPrice       float64 `json:"lowPrice"`
	ClosePrice     float64 `json:"closePrice"`
	LastClosePrice float64 `json:"lastClosePrice"`
	Volume         flexInt `json:"volume"`
	Turnover       float64 `json:"turnover"`
	TurnoverRate   float64 `json:"turnoverRate"`
	PE             float64 `json:"pe"`
	ChangeRate     float64 `json:"changeRate"`
}

type qotGetKLS2C struct {
	Security security `json:"security"`
	Name     string   `json:"name"`
	KLList   []kline  `json:"klList"`
}

type trdHeader struct {
	TrdEnv    int32  `json:"trdEnv"`
	AccID     uint64 `json:"accID,string"`
	TrdMarket int32  `json:"trdMarket"`
}

type trdAcc struct {
	TrdEnv            int32   `json:"trdEnv"`
	AccID             flexInt `json:"accID"`
	TrdMarketAuthList []int32 `json:"trdMarketAuthList"`
	SecurityFirm      int32   `json:"securityFirm"`
	AccStatus         int32   `json:"accStatus"`
}

type trdGetAccListC2S struct {
	UserID                uint64 `json:"userID,string"`
	TrdCategory           int32  `json:"trdCategory"`
	NeedGeneralSecAccount bool   `json:"needGeneralSecAccount"`
}

type trdGetAccListS2C struct {
	AccList []trdAcc `json:"accList"`
}

type filterConditions struct {
	CodeList  []string `json:"codeList,omitempty"`
	BeginTime string   `json:"beginTime,omitempty"`
	EndTime   string   `json:"endTime,omitempty"`
}

type trdGetHistoryOrderListC2S struct {
	Header           trdHeader        `json:"header"`
	FilterConditions filterConditions `json:"filterConditions"`
}

type order struct {
	TrdSide      int32   `json:"trdSide"`
	OrderType    int32   `json:"orderType"`
	OrderStatus  int32   `json:"orderStatus"`
	OrderID      flexInt `json:"orderID"`
	SecMarket    int32   `json:"secMarket"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Qty          float64 `json:"qty"`
	Price        float64 `json:"price"`
	CreateTime   string  `json:"createTime"`
	UpdateTime   string  `json:"updateTime"`
	FillQty      float64 `json:"fillQty"`
	FillAvgPrice float64 `json:"fillAvgPrice"`
}

type trdGetHistoryOrderListS2C struct {
	OrderList []order `json:"orderList"`
}

var qotMarkets = map[core.Market]int32{
	core.MarketHK: 1,
	core.MarketUS: 11,
	core.MarketSH: 21,
	core.MarketSZ: 22,
}

// secMarketNames maps Trd_Common.TrdSecMarket to symbol prefixes.
var secMarketNames = map[int32]core.Market{
	1:  core.MarketHK,
	2:  core.MarketUS,
	31: core.MarketSH,
	32: core.MarketSZ,
}

var trdMarkets = map[core.Market]int32{
	core.MarketHK: 1,
	core.MarketUS: 2,
	core.MarketSH: 3,
	core.MarketSZ: 3,
}

var klTypes = map[broker.KLType]int32{
	broker.KL1Min:  1,
	broker.KLDay:   2,
	broker.KLWeek:  3,
	broker.KLMonth: 4,
	broker.KL5Min:  6,
	broker.KL15Min: 7,
	broker.KL30Min: 8,
	broker.KL60Min: 9,
}

var subTypes = map[broker.SubType]int32{
	broker.SubType(broker.KLDay):   6,
	broker.SubType(broker.KL5Min):  7,
	broker.SubType(broker.KL15Min): 8,
	broker.SubType(broker.KL30Min): 9,
	broker.SubType(broker.KL60Min): 10,
	broker.SubType(broker.KL1Min):  11,
	broker.SubType(broker.KLWeek):  12,
	broker.SubType(broker.KLMonth): 13,
}

var rehabTypes = map[broker.AuType]int32{
	broker.AuNone:     0,
	broker.AuForward:  1,
	broker.AuBackward: 2,
}

var sessions = map[broker.Session]int32{
	broker.SessionRTH:       1,
	broker.SessionETH:       2,
	broker.SessionAll:       3,
	broker.SessionOvernight: 4,
}

var trdEnvs = map[broker.TrdEnv]int32{
	broker.TrdEnvSimulate: 0,
	broker.TrdEnvReal:     1,
}

var firms = map[broker.SecurityFirm]int32{
	broker.FirmFutuSecurities: 1,
	broker.FirmFutuInc:        2,
	broker.FirmFutuSG:         3,
	broker.FirmFutuAU:         4,
}

var trdSideNames = map[int32]string{
	1: "BUY",
	2: "SELL",
	3: "SELL_SHORT",
	4: "BUY_BACK",
}

var orderTypeNames = map[int32]string{
	1: "NORMAL",
	2: "MARKET",
	5: "ABSOLUTE_LIMIT",
	6: "AUCTION",
	7: "AUCTION_LIMIT",
	8: "SPECIAL_LIMIT",
	9: "SPECIAL_LIMIT_ALL",
}

var orderStatusNames = map[int32]string{
	-1: "UNKNOWN",
	0:  "UNSUBMITTED",
	1:  "WAITING_SUBMIT",
	2:  "SUBMITTING",
	3:  "SUBMIT_FAILED",
	4:  "TIMEOUT",
	5:  "SUBMITTED",
	10: "FILLED_PART",
	11: "FILLED_ALL",
	12: "CANCELLING_PART",
	13: "CANCELLING_ALL",
	14: "CANCELLED_PART",
	15: "CANCELLED_ALL",
	21: "FAILED",
	22: "DISABLED",
	23: "DELETED",
	24: "FILL_CANCELLED",
}

func enumName(names map[int32]string, v int32) string {
	if n, ok := names[v]; ok {
		return n
	}
	return "UNKNOWN"
}
