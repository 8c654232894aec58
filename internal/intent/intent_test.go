package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Run("valid market intent", func(t *testing.T) {
		body := []byte(`{"symbol":"USDJPY","order_action":"BUY","order_type":"MARKET","lot_size":0.1,"tp_price":0,"sl_price":0}`)
		in, err := Decode(body)
		require.NoError(t, err)
		assert.Equal(t, "USDJPY", in.Symbol)
		assert.Equal(t, ActionBuy, in.Action)
		assert.Equal(t, KindMarket, in.Kind)
		assert.False(t, in.HasTP())
		assert.False(t, in.HasSL())
	})

	t.Run("malformed JSON is a validation error", func(t *testing.T) {
		_, err := Decode([]byte(`{"symbol": "USDJPY",`))
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("unknown optional fields are ignored", func(t *testing.T) {
		body := []byte(`{"symbol":"EURUSD","order_action":"SELL","order_type":"IFOCO","lot_size":1,"entry_price":1.08,"tp_price":1.07,"sl_price":1.09,"future_field":true}`)
		in, err := Decode(body)
		require.NoError(t, err)
		assert.Equal(t, ActionSell, in.Action)
		assert.True(t, in.HasTP())
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Intent {
		return &Intent{Symbol: "USDJPY", Action: ActionBuy, Kind: KindMarket, LotSize: 0.1}
	}

	t.Run("accepts a complete intent", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("rejects missing symbol", func(t *testing.T) {
		in := valid()
		in.Symbol = "  "
		assert.Error(t, in.Validate())
	})

	t.Run("rejects unknown action", func(t *testing.T) {
		in := valid()
		in.Action = "HOLD"
		assert.Error(t, in.Validate())
	})

	t.Run("rejects unknown order kind", func(t *testing.T) {
		in := valid()
		in.Kind = "OCO"
		assert.Error(t, in.Validate())
	})

	t.Run("rejects non-positive lot size", func(t *testing.T) {
		for _, lot := range []float64{0, -0.1} {
			in := valid()
			in.LotSize = lot
			assert.Error(t, in.Validate(), "lot=%v", lot)
		}
	})

	t.Run("close requires a ticket", func(t *testing.T) {
		in := valid()
		in.Action = ActionClose
		assert.Error(t, in.Validate())

		in.Ticket = 555111
		assert.NoError(t, in.Validate())
	})
}
