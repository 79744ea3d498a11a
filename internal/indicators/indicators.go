package indicators

import (
	"fmt"

	"github.com/cinar/indicator"

	"github.com/selivandex/newsdesk/pkg/models"
)

const (
	TrendUp       = "uptrend"
	TrendDown     = "downtrend"
	TrendSideways = "sideways"
	TrendUnknown  = "unknown"

	smaPeriod       = 20
	fastEMAPeriod   = 5
	slowEMAPeriod   = 20
	minRSIDataCount = 15
)

// Calculator calculates technical indicators from daily closes
type Calculator struct{}

// NewCalculator creates new indicator calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Annotate attaches SMA-20, RSI-14 and trend to a quote when history allows.
// Quotes with short history are left untouched.
func (c *Calculator) Annotate(q *models.Quote) {
	if q == nil {
		return
	}
	closes := q.Closes()

	if sma, err := c.CalculateSMA(closes, smaPeriod); err == nil {
		q.SMA20 = models.DecimalPtr(sma)
	}

	if rsi, err := c.CalculateRSI(closes); err == nil {
		q.RSI14 = models.DecimalPtr(rsi)
	}

	trend, err := c.DetectTrend(closes)
	if err != nil {
		trend = TrendUnknown
	}
	q.Trend = trend
}

// CalculateSMA calculates Simple Moving Average
func (c *Calculator) CalculateSMA(closes []float64, period int) (float64, error) {
	if period < 1 || len(closes) < period {
		return 0, fmt.Errorf("insufficient closes for SMA calculation")
	}

	sma := indicator.Sma(period, closes)
	if len(sma) == 0 {
		return 0, fmt.Errorf("SMA calculation failed")
	}
	return sma[len(sma)-1], nil
}

// CalculateEMA calculates Exponential Moving Average
func (c *Calculator) CalculateEMA(closes []float64, period int) (float64, error) {
	if period < 1 || len(closes) < period {
		return 0, fmt.Errorf("insufficient closes for EMA calculation")
	}

	ema := indicator.Ema(period, closes)
	if len(ema) == 0 {
		return 0, fmt.Errorf("EMA calculation failed")
	}
	return ema[len(ema)-1], nil
}

// CalculateRSI calculates the 14 period Relative Strength Index
func (c *Calculator) CalculateRSI(closes []float64) (float64, error) {
	if len(closes) < minRSIDataCount {
		return 0, fmt.Errorf("insufficient closes for RSI calculation")
	}

	_, rsi := indicator.Rsi(closes)
	if len(rsi) == 0 {
		return 0, fmt.Errorf("RSI returned no data")
	}
	return rsi[len(rsi)-1], nil
}

// DetectTrend compares the last close with fast and slow moving averages
func (c *Calculator) DetectTrend(closes []float64) (string, error) {
	if len(closes) < slowEMAPeriod {
		return TrendUnknown, fmt.Errorf("insufficient data for trend detection")
	}

	fast, err := c.CalculateEMA(closes, fastEMAPeriod)
	if err != nil {
		return TrendUnknown, err
	}

	slow, err := c.CalculateEMA(closes, slowEMAPeriod)
	if err != nil {
		return TrendUnknown, err
	}

	current := closes[len(closes)-1]

	if current > fast && fast > slow {
		return TrendUp, nil
	} else if current < fast && fast < slow {
		return TrendDown, nil
	}

	return TrendSideways, nil
}
