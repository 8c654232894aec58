package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"tss/internal/config"
	"tss/internal/gateway/broker"
	"tss/internal/notifier"
	"tss/internal/orderbuild"
	"tss/internal/safety"
	"tss/internal/store/records"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Full pipeline against a real record store and kill switch, with only
// the broker mocked: a market BUY for USDJPY lands as an OPEN record
// keyed by the broker ticket.
func TestRoundTrip_MarketBuy(t *testing.T) {
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	st, err := records.NewStoreFromDB(db)
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.SetKillSwitch(ctx, "OFF"))

	gw := new(MockGateway)
	gw.On("Connect", mock.Anything, mock.Anything).Return(nil)
	gw.On("GetQuote", mock.Anything, "USDJPY").Return(&broker.Quote{Symbol: "USDJPY", Bid: 149.995, Ask: 150.000}, nil)
	gw.On("SubmitOrder", mock.Anything, mock.MatchedBy(func(req broker.OrderRequest) bool {
		return req.Type == broker.OrderTypeMarketBuy &&
			req.Price == 150.000 && req.TakeProfit == 0 && req.StopLoss == 0
	})).Return(&broker.SubmitResult{Ticket: 555111, ExecutedPrice: 150.000, ExecutedVolume: 0.1, ReturnCode: 10009}, nil)
	gw.On("Disconnect", mock.Anything).Return()

	builder := orderbuild.NewBuilder(orderbuild.NewSideRuleValidator(), 775001)
	gate := safety.NewGate(st)
	creds := broker.Credentials{Login: 123456}
	cfg := config.DispatcherConfig{MessageTimeoutSeconds: 5, CooldownSeconds: 1}
	d := New(nil, gate, builder, gw, st, notifier.Noop{}, creds, cfg)

	outcome := d.Process(ctx, []byte(marketBuyBody))
	require.Equal(t, OutcomeAck, outcome)

	rec, err := st.GetOrder(ctx, 555111)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "ORDER#555111", rec.PK)
	assert.Equal(t, records.StatusOpen, rec.Doc["order_status"])
	price, ok := rec.Doc["executed_entry_price"].(json.Number)
	require.True(t, ok, "executed_entry_price absent or non-numeric")
	executed, err := price.Float64()
	require.NoError(t, err)
	assert.Equal(t, 150.000, executed)

	// Flip the switch back on: the same message is now skipped, not
	// submitted again.
	require.NoError(t, st.SetKillSwitch(ctx, "ON"))
	outcome = d.Process(ctx, []byte(marketBuyBody))
	assert.Equal(t, OutcomeAck, outcome)
	gw.AssertNumberOfCalls(t, "SubmitOrder", 1)
}
