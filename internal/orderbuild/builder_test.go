package orderbuild

import (
	"testing"

	"tss/internal/gateway/broker"
	"tss/internal/intent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBuilder() *Builder {
	return NewBuilder(NewSideRuleValidator(), 775001)
}

func testCreds() broker.Credentials {
	return broker.Credentials{Login: 123456}
}

func usdjpyQuote() *broker.Quote {
	return &broker.Quote{Symbol: "USDJPY", Bid: 149.995, Ask: 150.000}
}

func TestBuild_MarketOrders(t *testing.T) {
	b := testBuilder()

	t.Run("buy fills at ask with no bracket", func(t *testing.T) {
		in := &intent.Intent{Symbol: "USDJPY", Action: intent.ActionBuy, Kind: intent.KindMarket, LotSize: 0.1}
		req, err := b.Build(in, usdjpyQuote(), testCreds())
		require.NoError(t, err)
		assert.Equal(t, broker.OrderTypeMarketBuy, req.Type)
		assert.Equal(t, 150.000, req.Price)
		assert.Equal(t, 0.0, req.TakeProfit)
		assert.Equal(t, 0.0, req.StopLoss)
		assert.Equal(t, 0.1, req.Volume)
	})

	t.Run("sell fills at bid", func(t *testing.T) {
		in := &intent.Intent{Symbol: "USDJPY", Action: intent.ActionSell, Kind: intent.KindMarket, LotSize: 0.5}
		req, err := b.Build(in, usdjpyQuote(), testCreds())
		require.NoError(t, err)
		assert.Equal(t, broker.OrderTypeMarketSell, req.Type)
		assert.Equal(t, 149.995, req.Price)
	})

	t.Run("missing quote fails", func(t *testing.T) {
		in := &intent.Intent{Symbol: "USDJPY", Action: intent.ActionBuy, Kind: intent.KindMarket, LotSize: 0.1}
		_, err := b.Build(in, nil, testCreds())
		var ve *intent.ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("zero ask fails a buy", func(t *testing.T) {
		in := &intent.Intent{Symbol: "USDJPY", Action: intent.ActionBuy, Kind: intent.KindMarket, LotSize: 0.1}
		_, err := b.Build(in, &broker.Quote{Symbol: "USDJPY", Bid: 149.995}, testCreds())
		var ve *intent.ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("supplied bracket passes through the validator", func(t *testing.T) {
		in := &intent.Intent{
			Symbol: "USDJPY", Action: intent.ActionBuy, Kind: intent.KindMarket,
			LotSize: 0.1, TPPrice: 151.0, SLPrice: 149.0,
		}
		req, err := b.Build(in, usdjpyQuote(), testCreds())
		require.NoError(t, err)
		assert.Equal(t, 151.0, req.TakeProfit)
		assert.Equal(t, 149.0, req.StopLoss)
	})

	t.Run("bad bracket placement aborts the build", func(t *testing.T) {
		in := &intent.Intent{
			Symbol: "USDJPY", Action: intent.ActionBuy, Kind: intent.KindMarket,
			LotSize: 0.1, TPPrice: 149.0, SLPrice: 151.0, // inverted for a BUY
		}
		_, err := b.Build(in, usdjpyQuote(), testCreds())
		var ve *intent.ValidationError
		require.ErrorAs(t, err, &ve)
	})
}

func TestBuild_PendingOrders(t *testing.T) {
	b := testBuilder()

	newIFOCO := func(action intent.Side, entry, tp, sl float64) *intent.Intent {
		return &intent.Intent{
			Symbol: "USDJPY", Action: action, Kind: intent.KindIFOCO,
			LotSize: 0.1, EntryPrice: entry, TPPrice: tp, SLPrice: sl,
		}
	}

	t.Run("buy below ask is a limit", func(t *testing.T) {
		req, err := b.Build(newIFOCO(intent.ActionBuy, 149.500, 150.500, 149.000), usdjpyQuote(), testCreds())
		require.NoError(t, err)
		assert.Equal(t, broker.OrderTypeBuyLimit, req.Type)
		assert.Equal(t, 149.500, req.Price)
	})

	t.Run("buy above ask is a stop", func(t *testing.T) {
		req, err := b.Build(newIFOCO(intent.ActionBuy, 150.500, 151.500, 150.000), usdjpyQuote(), testCreds())
		require.NoError(t, err)
		assert.Equal(t, broker.OrderTypeBuyStop, req.Type)
	})

	t.Run("buy exactly at ask resolves to a stop", func(t *testing.T) {
		req, err := b.Build(newIFOCO(intent.ActionBuy, 150.000, 151.000, 149.500), usdjpyQuote(), testCreds())
		require.NoError(t, err)
		assert.Equal(t, broker.OrderTypeBuyStop, req.Type)
	})

	t.Run("sell above bid is a limit", func(t *testing.T) {
		req, err := b.Build(newIFOCO(intent.ActionSell, 150.500, 149.500, 151.000), usdjpyQuote(), testCreds())
		require.NoError(t, err)
		assert.Equal(t, broker.OrderTypeSellLimit, req.Type)
	})

	t.Run("sell below bid is a stop", func(t *testing.T) {
		req, err := b.Build(newIFOCO(intent.ActionSell, 149.500, 148.500, 150.000), usdjpyQuote(), testCreds())
		require.NoError(t, err)
		assert.Equal(t, broker.OrderTypeSellStop, req.Type)
	})

	t.Run("sell exactly at bid resolves to a stop", func(t *testing.T) {
		req, err := b.Build(newIFOCO(intent.ActionSell, 149.995, 148.995, 150.995), usdjpyQuote(), testCreds())
		require.NoError(t, err)
		assert.Equal(t, broker.OrderTypeSellStop, req.Type)
	})

	t.Run("missing entry, tp or sl is a hard failure", func(t *testing.T) {
		cases := map[string]*intent.Intent{
			"no entry": newIFOCO(intent.ActionBuy, 0, 151.0, 149.0),
			"no tp":    newIFOCO(intent.ActionBuy, 149.5, 0, 149.0),
			"no sl":    newIFOCO(intent.ActionBuy, 149.5, 151.0, 0),
		}
		for name, in := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := b.Build(in, usdjpyQuote(), testCreds())
				var ve *intent.ValidationError
				require.ErrorAs(t, err, &ve)
			})
		}
	})

	t.Run("tp and sl are always validated", func(t *testing.T) {
		// TP below entry on a BUY.
		_, err := b.Build(newIFOCO(intent.ActionBuy, 149.500, 149.000, 148.000), usdjpyQuote(), testCreds())
		var ve *intent.ValidationError
		require.ErrorAs(t, err, &ve)
	})
}

func TestBuild_RejectsNonDerivable(t *testing.T) {
	b := testBuilder()

	t.Run("close intents never derive", func(t *testing.T) {
		in := &intent.Intent{
			Symbol: "USDJPY", Action: intent.ActionClose, Kind: intent.KindMarket,
			LotSize: 0.1, Ticket: 555111,
		}
		_, err := b.Build(in, usdjpyQuote(), testCreds())
		var ve *intent.ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("invalid intent fields fail before anything else", func(t *testing.T) {
		in := &intent.Intent{Symbol: "", Action: intent.ActionBuy, Kind: intent.KindMarket, LotSize: 0.1}
		_, err := b.Build(in, usdjpyQuote(), testCreds())
		var ve *intent.ValidationError
		require.ErrorAs(t, err, &ve)
	})
}
