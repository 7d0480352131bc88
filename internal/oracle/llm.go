package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/kjannette/bullionaire-backend/internal/models"
)

// ChatModel is the part of an eino chat model the oracle needs.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

type LLMOptions struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
}

// LLMOracle asks a chat model for the decision and validates its JSON answer.
type LLMOracle struct {
	cm ChatModel
}

func NewLLMOracle(ctx context.Context, opts LLMOptions) (*LLMOracle, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:   opts.BaseURL,
		APIKey:    opts.APIKey,
		Model:     opts.Model,
		MaxTokens: &maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return &LLMOracle{cm: cm}, nil
}

// NewLLMOracleWithModel wraps an existing chat model.
func NewLLMOracleWithModel(cm ChatModel) *LLMOracle {
	return &LLMOracle{cm: cm}
}

func (o *LLMOracle) Decide(ctx context.Context, in models.OracleInput) (models.DecisionResult, error) {
	msgs := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(BuildPrompt(in)),
	}
	resp, err := o.cm.Generate(ctx, msgs)
	if err != nil {
		return models.DecisionResult{}, fmt.Errorf("generate: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return models.DecisionResult{}, fmt.Errorf("empty oracle response")
	}
	return ParseDecision(resp.Content)
}

const systemPrompt = `You are an expert AI trading bot for Gold (XAUUSD). You manage one trade at a time.
Answer with a single JSON object and nothing else:
{"decision":"OPEN_BUY|OPEN_SELL|CLOSE|WAIT","reasoning":"...","tradeDetails":{"volume":0.1,"confidenceLevel":"High|Medium|Low","stopLoss":0,"takeProfit":0}}
tradeDetails is required for OPEN_BUY and OPEN_SELL and must be omitted otherwise.`

// BuildPrompt renders the cycle context for the chat model.
func BuildPrompt(in models.OracleInput) string {
	var b strings.Builder
	m := in.Market

	fmt.Fprintf(&b, "It is currently %s.\n\n", in.CurrentTime.UTC().Format("15:04:05 MST"))
	fmt.Fprintf(&b, "Your goal is to hit a daily profit target of $%.2f while not exceeding a daily risk limit of $%.2f. ",
		in.Limits.DailyProfitTarget, in.Limits.DailyRiskLimit)
	fmt.Fprintf(&b, "Never open more than %.2f lots.\n\n", in.Limits.MaxPositionSize)

	b.WriteString("## Current Market Data\n")
	fmt.Fprintf(&b, "- Price: $%.2f\n", m.Price)
	fmt.Fprintf(&b, "- Trend: %s\n", m.Trend)
	fmt.Fprintf(&b, "- EMA9: %.2f, EMA21: %.2f\n", m.EMA9, m.EMA21)
	fmt.Fprintf(&b, "- RSI(14): %.1f, ATR(14): %.2f\n", m.RSI, m.ATR)
	if m.Synthetic {
		b.WriteString("- WARNING: live data is unavailable and these values are synthetic.\n")
	}

	b.WriteString("\n## Current Account State\n")
	fmt.Fprintf(&b, "- Balance: $%.2f\n", in.Limits.CurrentBalance)
	fmt.Fprintf(&b, "- Today's P/L: $%.2f\n", in.TodaysRealizedPnL)
	if p := in.OpenPosition; p != nil {
		fmt.Fprintf(&b, "- Open Trade: A %s trade opened at $%.2f running for %d minutes. Current unrealized P/L is $%.2f.\n",
			p.Direction, p.EntryPrice, p.DurationMinutes, p.UnrealizedPnL)
	} else {
		b.WriteString("- Open Trade: None\n")
	}

	b.WriteString("\n## Your Task\n")
	b.WriteString("Decide the SINGLE best action to take RIGHT NOW:\n")
	b.WriteString("1. OPEN_BUY: no open trade and a clear bullish setup.\n")
	b.WriteString("2. OPEN_SELL: no open trade and a clear bearish setup.\n")
	b.WriteString("3. CLOSE: the open trade should be closed to take profit or cut losses.\n")
	b.WriteString("4. WAIT: no clear opportunity, or holding the current position is better.\n")
	b.WriteString("If opening a trade you MUST give volume, confidenceLevel, stopLoss and takeProfit.\n")
	return b.String()
}
