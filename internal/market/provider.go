// Package market builds the snapshot each decision cycle reasons over.
package market

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/kjannette/bullionaire-backend/internal/logger"
	"github.com/kjannette/bullionaire-backend/internal/models"
	"go.uber.org/zap"
)

// Fallback snapshot parameters.
const (
	FallbackPrice  = 1950.0
	FallbackJitter = 10.0
	FallbackRSI    = 50.0
)

var errNoSource = errors.New("no candle source configured")

type CandleSource interface {
	GetCandles(ctx context.Context, symbol string, count int) ([]models.Candle, error)
}

type Provider struct {
	source CandleSource
	symbol string
	count  int
	now    func() time.Time
	jitter func() float64
	log    *zap.SugaredLogger
}

func NewProvider(source CandleSource, symbol string, count int) *Provider {
	if count < MinCandles {
		count = MinCandles
	}
	return &Provider{
		source: source,
		symbol: symbol,
		count:  count,
		now:    time.Now,
		jitter: func() float64 { return rand.Float64()*2 - 1 },
		log:    logger.Named("MARKET"),
	}
}

// Snapshot never fails. When candles cannot be fetched or are too short it
// returns a fallback snapshot with Synthetic set.
func (p *Provider) Snapshot(ctx context.Context) models.MarketSnapshot {
	snap, err := p.live(ctx)
	if err != nil {
		p.log.Warnw("Market data unavailable, using synthetic fallback", "symbol", p.symbol, "error", err)
		return p.Fallback()
	}
	return snap
}

func (p *Provider) live(ctx context.Context) (models.MarketSnapshot, error) {
	if p.source == nil {
		return models.MarketSnapshot{}, errNoSource
	}
	candles, err := p.source.GetCandles(ctx, p.symbol, p.count)
	if err != nil {
		return models.MarketSnapshot{}, err
	}
	ind, err := Compute(candles)
	if err != nil {
		return models.MarketSnapshot{}, err
	}

	latest := candles[len(candles)-1]
	return models.MarketSnapshot{
		Symbol:    p.symbol,
		Price:     latest.Close,
		EMA9:      ind.EMA9,
		EMA21:     ind.EMA21,
		RSI:       ind.RSI,
		ATR:       ind.ATR,
		Trend:     Classify(latest.Close, ind),
		Source:    "fxapi",
		Timestamp: latest.Time,
	}, nil
}

// Fallback fabricates a SIDEWAYS snapshot priced within FallbackJitter of
// FallbackPrice.
func (p *Provider) Fallback() models.MarketSnapshot {
	price := FallbackPrice + p.jitter()*FallbackJitter
	return models.MarketSnapshot{
		Symbol:    p.symbol,
		Price:     price,
		EMA9:      price,
		EMA21:     price,
		RSI:       FallbackRSI,
		ATR:       0,
		Trend:     models.TrendSideways,
		Source:    models.SourceFallback,
		Synthetic: true,
		Timestamp: p.now().UTC(),
	}
}
