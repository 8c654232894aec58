// Package intent models the producer-supplied order intent delivered over
// the queue. An intent is immutable once decoded; all derivation happens
// downstream in orderbuild.
package intent

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Side string

const (
	ActionBuy   Side = "BUY"
	ActionSell  Side = "SELL"
	ActionClose Side = "CLOSE"
)

type OrderKind string

const (
	KindMarket OrderKind = "MARKET"
	KindIFOCO  OrderKind = "IFOCO"
)

// Intent is the inbound queue message body. Optional price fields use
// zero as "not supplied"; the ingress requires the keys to be present but
// producers send 0 to opt out of a bracket.
type Intent struct {
	Symbol     string    `json:"symbol"`
	Action     Side      `json:"order_action"`
	Kind       OrderKind `json:"order_type"`
	LotSize    float64   `json:"lot_size"`
	EntryPrice float64   `json:"entry_price,omitempty"`
	TPPrice    float64   `json:"tp_price"`
	SLPrice    float64   `json:"sl_price"`
	Comment    string    `json:"comment,omitempty"`
	Ticket     int64     `json:"mt5_ticket,omitempty"`

	// Position-management flags. All optional; absent means disabled.
	Scenario              bool    `json:"scenario,omitempty"`
	ScenarioActivatePrice float64 `json:"scenario_activate_price,omitempty"`
	ScenarioCancelPrice   float64 `json:"scenario_cancel_price,omitempty"`
	BreakevenEnabled      bool    `json:"breakeven,omitempty"`
	TrailingStopEnabled   bool    `json:"trailing_stop,omitempty"`
	AddPositionLevels     int     `json:"add_position_levels,omitempty"`
}

// ValidationError marks a per-message, terminal failure: the message is
// acknowledged, never redelivered.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "intent validation failed: " + e.Reason
}

func Invalidf(format string, v ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, v...)}
}

// Decode parses and validates a raw queue message body. A JSON decode
// failure or a missing required field both come back as *ValidationError
// so the dispatcher treats the message as poison.
func Decode(body []byte) (*Intent, error) {
	var in Intent
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, Invalidf("malformed payload: %v", err)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &in, nil
}

// Validate enforces the required-field contract of the queue message.
func (in *Intent) Validate() error {
	if strings.TrimSpace(in.Symbol) == "" {
		return Invalidf("symbol is required")
	}
	switch in.Action {
	case ActionBuy, ActionSell, ActionClose:
	default:
		return Invalidf("order_action %q not one of BUY/SELL/CLOSE", in.Action)
	}
	switch in.Kind {
	case KindMarket, KindIFOCO:
	default:
		return Invalidf("order_type %q not one of MARKET/IFOCO", in.Kind)
	}
	if in.LotSize <= 0 {
		return Invalidf("lot_size must be positive, got %v", in.LotSize)
	}
	if in.Action == ActionClose && in.Ticket <= 0 {
		return Invalidf("mt5_ticket is required for CLOSE")
	}
	return nil
}

func (in *Intent) HasTP() bool { return in.TPPrice > 0 }
func (in *Intent) HasSL() bool { return in.SLPrice > 0 }
