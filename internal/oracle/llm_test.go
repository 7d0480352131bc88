package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/kjannette/bullionaire-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatModel struct {
	reply string
	err   error
	seen  []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.seen = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func TestLLMOracle_Decide(t *testing.T) {
	cm := &fakeChatModel{reply: "```json\n" +
		`{"decision":"OPEN_SELL","reasoning":"Bearish cross.","tradeDetails":{"volume":0.1,"confidenceLevel":"Medium","stopLoss":1955,"takeProfit":1940}}` +
		"\n```"}
	o := NewLLMOracleWithModel(cm)

	in := baseInput()
	res, err := o.Decide(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionOpenSell, res.Decision)
	assert.Equal(t, "Bearish cross.", res.Reasoning)
	require.True(t, res.TradeDetails.Complete())
	assert.Equal(t, 1955.0, *res.TradeDetails.StopLoss)

	require.Len(t, cm.seen, 2)
	assert.Equal(t, schema.System, cm.seen[0].Role)
	assert.Contains(t, cm.seen[1].Content, "daily profit target of $1000.00")
	assert.Contains(t, cm.seen[1].Content, "Open Trade: None")
}

func TestLLMOracle_ModelError(t *testing.T) {
	o := NewLLMOracleWithModel(&fakeChatModel{err: errors.New("rate limited")})
	_, err := o.Decide(context.Background(), baseInput())
	assert.ErrorContains(t, err, "rate limited")
}

func TestLLMOracle_EmptyReply(t *testing.T) {
	o := NewLLMOracleWithModel(&fakeChatModel{reply: "  "})
	_, err := o.Decide(context.Background(), baseInput())
	assert.Error(t, err)
}

func TestBuildPrompt_OpenTradeAndSynthetic(t *testing.T) {
	in := baseInput()
	in.Market.Synthetic = true
	in.OpenPosition = &models.OpenPositionContext{
		Position:        models.Position{Direction: models.DirectionBuy, EntryPrice: 1948.5},
		UnrealizedPnL:   15,
		DurationMinutes: 7,
	}

	p := BuildPrompt(in)
	assert.Contains(t, p, "A BUY trade opened at $1948.50 running for 7 minutes. Current unrealized P/L is $15.00.")
	assert.Contains(t, p, "synthetic")
}
