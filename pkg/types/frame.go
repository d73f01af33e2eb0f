// Package types provides shared type definitions for the market analysis engine.
package types

import (
	"fmt"
	"math"
	"time"

	"github.com/marketpulse/engine/pkg/errs"
)

// Interval is a candle duration.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval2h  Interval = "2h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
	Interval1wk Interval = "1wk"
	Interval1mo Interval = "1mo"
)

// Period is a fetch window accepted by the DataProvider.
type Period string

const (
	Period1d  Period = "1d"
	Period5d  Period = "5d"
	Period7d  Period = "7d"
	Period1wk Period = "1wk"
	Period1mo Period = "1mo"
	Period3mo Period = "3mo"
	Period6mo Period = "6mo"
	Period1y  Period = "1y"
	Period2y  Period = "2y"
	Period5y  Period = "5y"
	PeriodMax Period = "max"
)

// AssetClass categorizes the tradable instrument.
type AssetClass string

const (
	AssetForex   AssetClass = "forex"
	AssetStocks  AssetClass = "stocks"
	AssetCrypto  AssetClass = "crypto"
	AssetIndices AssetClass = "indices"
	AssetFutures AssetClass = "futures"
)

// Bar is a single OHLCV candle.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Frame is an append-only, column-oriented window of bars for a single
// (symbol, interval) pair. It is immutable once constructed.
type Frame struct {
	symbol   string
	interval Interval

	timestamp []time.Time
	open      []float64
	high      []float64
	low       []float64
	close     []float64
	volume    []float64
}

// NewFrame validates bars and builds an immutable Frame.
//
// Invariants enforced: low[i] <= open[i], close[i] <= high[i], low[i] <= high[i],
// volume[i] >= 0, timestamps strictly increasing (duplicates are rejected).
func NewFrame(symbol string, interval Interval, bars []Bar) (*Frame, error) {
	f := &Frame{
		symbol:    symbol,
		interval:  interval,
		timestamp: make([]time.Time, len(bars)),
		open:      make([]float64, len(bars)),
		high:      make([]float64, len(bars)),
		low:       make([]float64, len(bars)),
		close:     make([]float64, len(bars)),
		volume:    make([]float64, len(bars)),
	}

	var prev time.Time
	for i, b := range bars {
		if i > 0 && !b.Timestamp.After(prev) {
			return nil, errs.New(errs.KindInvalidFrame, fmt.Sprintf("duplicate or non-increasing timestamp at index %d", i))
		}
		if b.Low > b.Open || b.Low > b.Close || b.Low > b.High || b.Open > b.High || b.Close > b.High {
			return nil, errs.New(errs.KindInvalidFrame, fmt.Sprintf("OHLC invariant violated at index %d (o=%v h=%v l=%v c=%v)", i, b.Open, b.High, b.Low, b.Close))
		}
		if b.Volume < 0 {
			return nil, errs.New(errs.KindInvalidFrame, fmt.Sprintf("negative volume at index %d", i))
		}
		f.timestamp[i] = b.Timestamp
		f.open[i] = b.Open
		f.high[i] = b.High
		f.low[i] = b.Low
		f.close[i] = b.Close
		f.volume[i] = b.Volume
		prev = b.Timestamp
	}

	return f, nil
}

// Symbol returns the instrument identifier this frame was fetched for.
func (f *Frame) Symbol() string { return f.symbol }

// Interval returns the candle duration of this frame.
func (f *Frame) Interval() Interval { return f.interval }

// Len returns the number of bars in the frame.
func (f *Frame) Len() int { return len(f.timestamp) }

// Columns returns references to the raw column slices. Callers must not mutate them.
func (f *Frame) Columns() (timestamp []time.Time, open, high, low, close, volume []float64) {
	return f.timestamp, f.open, f.high, f.low, f.close, f.volume
}

// Close returns the close column.
func (f *Frame) Close() []float64 { return f.close }

// Open returns the open column.
func (f *Frame) Open() []float64 { return f.open }

// High returns the high column.
func (f *Frame) High() []float64 { return f.high }

// Low returns the low column.
func (f *Frame) Low() []float64 { return f.low }

// Volume returns the volume column.
func (f *Frame) Volume() []float64 { return f.volume }

// Timestamps returns the timestamp column.
func (f *Frame) Timestamps() []time.Time { return f.timestamp }

// IsSufficientFor reports whether the frame has at least minBars bars.
func (f *Frame) IsSufficientFor(minBars int) bool { return f.Len() >= minBars }

// Slice returns a view of the last n bars. If n >= Len(), the whole frame is returned.
func (f *Frame) Slice(n int) *Frame {
	if n >= f.Len() || n < 0 {
		return f
	}
	start := f.Len() - n
	return &Frame{
		symbol:    f.symbol,
		interval:  f.interval,
		timestamp: f.timestamp[start:],
		open:      f.open[start:],
		high:      f.high[start:],
		low:       f.low[start:],
		close:     f.close[start:],
		volume:    f.volume[start:],
	}
}

// LastClose returns the close of the most recent bar, or NaN if the frame is empty.
func (f *Frame) LastClose() float64 {
	if f.Len() == 0 {
		return math.NaN()
	}
	return f.close[f.Len()-1]
}

// LastTimestamp returns the timestamp of the most recent bar.
func (f *Frame) LastTimestamp() time.Time {
	if f.Len() == 0 {
		return time.Time{}
	}
	return f.timestamp[f.Len()-1]
}
