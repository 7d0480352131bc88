package market

import (
	"fmt"
	"math"

	"github.com/kjannette/bullionaire-backend/internal/models"
	"github.com/markcheno/go-talib"
)

const (
	fastEMAPeriod = 9
	slowEMAPeriod = 21
	rsiPeriod     = 14
	atrPeriod     = 14

	// MinCandles is the shortest history every indicator is defined on.
	MinCandles = slowEMAPeriod + 1
)

// Indicators are the last values of each series computed over a candle window.
type Indicators struct {
	EMA9  float64
	EMA21 float64
	RSI   float64
	ATR   float64
}

// Compute derives the indicators from candles ordered oldest first.
func Compute(candles []models.Candle) (Indicators, error) {
	if len(candles) < MinCandles {
		return Indicators{}, fmt.Errorf("need at least %d candles, got %d", MinCandles, len(candles))
	}

	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	closes := make([]float64, len(candles))
	for i, c := range candles {
		highs[i], lows[i], closes[i] = c.High, c.Low, c.Close
	}

	ind := Indicators{
		EMA9:  last(talib.Ema(closes, fastEMAPeriod)),
		EMA21: last(talib.Ema(closes, slowEMAPeriod)),
		RSI:   last(talib.Rsi(closes, rsiPeriod)),
		ATR:   last(talib.Atr(highs, lows, closes, atrPeriod)),
	}
	for name, v := range map[string]float64{"ema9": ind.EMA9, "ema21": ind.EMA21, "rsi": ind.RSI, "atr": ind.ATR} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Indicators{}, fmt.Errorf("%s is not finite", name)
		}
	}
	return ind, nil
}

// Classify maps price and the EMA pair onto a trend. Both the cross and the
// price position must agree, otherwise the market is SIDEWAYS.
func Classify(price float64, ind Indicators) models.Trend {
	switch {
	case ind.EMA9 > ind.EMA21 && price >= ind.EMA9:
		return models.TrendUp
	case ind.EMA9 < ind.EMA21 && price <= ind.EMA9:
		return models.TrendDown
	default:
		return models.TrendSideways
	}
}

func last(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}
