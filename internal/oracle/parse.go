package oracle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kjannette/bullionaire-backend/internal/models"
	"github.com/tidwall/gjson"
)

var ErrInvalidDecision = errors.New("invalid oracle decision")

// ParseDecision extracts the decision object from a model reply. Code fences
// and surrounding prose are tolerated. Missing trade details are left nil so
// the caller can apply its incomplete-details policy.
func ParseDecision(raw string) (models.DecisionResult, error) {
	body := extractJSON(raw)
	if !gjson.Valid(body) {
		return models.DecisionResult{}, fmt.Errorf("%w: reply is not JSON", ErrInvalidDecision)
	}
	root := gjson.Parse(body)

	decision := models.Decision(strings.ToUpper(strings.TrimSpace(root.Get("decision").String())))
	if !decision.Valid() {
		return models.DecisionResult{}, fmt.Errorf("%w: unknown decision %q", ErrInvalidDecision, root.Get("decision").String())
	}

	out := models.DecisionResult{
		Decision:  decision,
		Reasoning: strings.TrimSpace(root.Get("reasoning").String()),
	}

	td := root.Get("tradeDetails")
	if td.Exists() && td.IsObject() {
		out.TradeDetails = &models.TradeDetails{
			Symbol:          td.Get("symbol").String(),
			Volume:          number(td.Get("volume")),
			ConfidenceLevel: td.Get("confidenceLevel").String(),
			StopLoss:        number(td.Get("stopLoss")),
			TakeProfit:      number(td.Get("takeProfit")),
		}
	}
	return out, nil
}

func number(r gjson.Result) *float64 {
	switch r.Type {
	case gjson.Number:
		v := r.Float()
		return &v
	case gjson.String:
		if !gjson.Valid(r.Str) {
			return nil
		}
		parsed := gjson.Parse(r.Str)
		if parsed.Type != gjson.Number {
			return nil
		}
		v := parsed.Float()
		return &v
	}
	return nil
}

func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}
