// Package orderbuild turns a validated intent plus a live quote into a
// concrete broker order request. It is a pure decision procedure: no
// broker call happens here, and any failure aborts before submission.
package orderbuild

import (
	"strconv"

	"tss/internal/gateway/broker"
	"tss/internal/intent"
)

const (
	defaultTimeInForce = "GTC"
	defaultFillPolicy  = "IOC"
)

type Builder struct {
	validator TPSLValidator
	magic     int64
}

// NewBuilder wires the TP/SL validator and the client tag (magic number)
// stamped on every derived request.
func NewBuilder(validator TPSLValidator, magic int64) *Builder {
	return &Builder{validator: validator, magic: magic}
}

// Build derives the broker order request for an open intent. CLOSE
// intents never reach here; the dispatcher routes them straight to the
// gateway.
func (b *Builder) Build(in *intent.Intent, quote *broker.Quote, creds broker.Credentials) (*broker.OrderRequest, error) {
	if in == nil {
		return nil, intent.Invalidf("intent is nil")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Action == intent.ActionClose {
		return nil, intent.Invalidf("CLOSE intents are not derivable into order requests")
	}

	req := &broker.OrderRequest{
		Symbol:      in.Symbol,
		Side:        string(in.Action),
		Volume:      in.LotSize,
		Comment:     deriveComment(in.Comment, strconv.FormatInt(creds.Login, 10)),
		Magic:       b.magic,
		TimeInForce: defaultTimeInForce,
		FillPolicy:  defaultFillPolicy,
	}

	switch in.Kind {
	case intent.KindMarket:
		if err := b.buildMarket(in, quote, req); err != nil {
			return nil, err
		}
	case intent.KindIFOCO:
		if err := b.buildPending(in, quote, req); err != nil {
			return nil, err
		}
	default:
		return nil, intent.Invalidf("order_type %q not derivable", in.Kind)
	}
	return req, nil
}

// buildMarket resolves immediate execution: BUY fills at ask, SELL at
// bid. With neither TP nor SL supplied the order goes out unbracketed
// (TP=SL=0); if either is present both pass through the validator
// against the execution price.
func (b *Builder) buildMarket(in *intent.Intent, quote *broker.Quote, req *broker.OrderRequest) error {
	if quote == nil {
		return intent.Invalidf("market order requires a live quote for %s", in.Symbol)
	}
	switch in.Action {
	case intent.ActionBuy:
		if quote.Ask <= 0 {
			return intent.Invalidf("no ask price available for %s", in.Symbol)
		}
		req.Type = broker.OrderTypeMarketBuy
		req.Price = quote.Ask
	case intent.ActionSell:
		if quote.Bid <= 0 {
			return intent.Invalidf("no bid price available for %s", in.Symbol)
		}
		req.Type = broker.OrderTypeMarketSell
		req.Price = quote.Bid
	}
	if !in.HasTP() && !in.HasSL() {
		req.TakeProfit = 0
		req.StopLoss = 0
		return nil
	}
	if err := b.validator.Validate(in.Action, req.Price, in.TPPrice, in.SLPrice); err != nil {
		return err
	}
	req.TakeProfit = in.TPPrice
	req.StopLoss = in.SLPrice
	return nil
}

// buildPending resolves the IFOCO sub-type from the requested entry
// against the current market. The tie-break is deliberate: an entry
// sitting exactly on the market resolves to a STOP order, never a LIMIT.
func (b *Builder) buildPending(in *intent.Intent, quote *broker.Quote, req *broker.OrderRequest) error {
	if in.EntryPrice <= 0 {
		return intent.Invalidf("IFOCO order requires entry_price")
	}
	if !in.HasTP() || !in.HasSL() {
		return intent.Invalidf("IFOCO order requires both tp_price and sl_price")
	}
	if quote == nil {
		return intent.Invalidf("IFOCO order requires a live quote for %s", in.Symbol)
	}

	switch in.Action {
	case intent.ActionBuy:
		if quote.Ask <= 0 {
			return intent.Invalidf("no ask price available for %s", in.Symbol)
		}
		if decimalLT(in.EntryPrice, quote.Ask) {
			req.Type = broker.OrderTypeBuyLimit
		} else {
			req.Type = broker.OrderTypeBuyStop
		}
	case intent.ActionSell:
		if quote.Bid <= 0 {
			return intent.Invalidf("no bid price available for %s", in.Symbol)
		}
		if decimalGT(in.EntryPrice, quote.Bid) {
			req.Type = broker.OrderTypeSellLimit
		} else {
			req.Type = broker.OrderTypeSellStop
		}
	}
	req.Price = in.EntryPrice
	if err := b.validator.Validate(in.Action, in.EntryPrice, in.TPPrice, in.SLPrice); err != nil {
		return err
	}
	req.TakeProfit = in.TPPrice
	req.StopLoss = in.SLPrice
	return nil
}
