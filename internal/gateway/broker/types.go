package broker

import (
	"errors"
	"fmt"
	"time"
)

// OrderType is the concrete broker order type derived from an intent.
type OrderType string

const (
	OrderTypeMarketBuy  OrderType = "MARKET_BUY"
	OrderTypeMarketSell OrderType = "MARKET_SELL"
	OrderTypeBuyLimit   OrderType = "BUY_LIMIT"
	OrderTypeBuyStop    OrderType = "BUY_STOP"
	OrderTypeSellLimit  OrderType = "SELL_LIMIT"
	OrderTypeSellStop   OrderType = "SELL_STOP"
)

// Pending reports whether the order activates at a price level instead of
// executing immediately.
func (t OrderType) Pending() bool {
	switch t {
	case OrderTypeBuyLimit, OrderTypeBuyStop, OrderTypeSellLimit, OrderTypeSellStop:
		return true
	default:
		return false
	}
}

// Credentials identify the broker account a session is opened for.
type Credentials struct {
	Login    int64
	Password string
	Server   string
}

// Quote is a bid/ask snapshot captured at submission time. It is never
// persisted on its own.
type Quote struct {
	Symbol     string
	Bid        float64
	Ask        float64
	CapturedAt time.Time
}

// OrderRequest is the fully derived order handed to the broker. Built
// fresh per intent and never mutated after submission.
type OrderRequest struct {
	Symbol      string
	Side        string // "BUY" or "SELL"
	Type        OrderType
	Price       float64
	Volume      float64
	TakeProfit  float64 // 0 = no bracket
	StopLoss    float64 // 0 = no bracket
	Comment     string
	Magic       int64
	TimeInForce string
	FillPolicy  string
}

// SubmitResult mirrors what the broker reports back for a placed order.
type SubmitResult struct {
	Ticket         int64
	ExecutedPrice  float64
	ExecutedVolume float64
	ExecutedTP     float64
	ExecutedSL     float64
	ReturnCode     int
	Comment        string
}

// CloseResult reports the outcome of closing an existing position.
type CloseResult struct {
	Ticket       int64
	ClosingPrice float64
	Profit       float64
	ReturnCode   int
	Comment      string
}

// ErrNoQuote is returned when the broker has no current price for a symbol.
var ErrNoQuote = errors.New("broker: no quote available")

// Error is a definitive broker rejection: connect refused or an order
// turned down with a return code. Terminal for the current message. Err
// carries the transport cause when there is one, so a context deadline
// inside the gateway stays visible to errors.Is through the wrapper.
type Error struct {
	Op         string
	ReturnCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.ReturnCode != 0 {
		return fmt.Sprintf("broker %s failed: retcode=%d %s", e.Op, e.ReturnCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("broker %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("broker %s failed: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsBrokerError reports whether err is a definitive broker rejection.
func IsBrokerError(err error) bool {
	var be *Error
	return errors.As(err, &be)
}
