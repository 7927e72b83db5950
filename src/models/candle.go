package models

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCandle is returned by NewCandle when the OHLCV envelope is broken.
var ErrInvalidCandle = errors.New("invalid candle")

// MIndexLevel is one synthesized composite price point of an index.
type MIndexLevel struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
	Volume    float64 `json:"volume"`
}

// MCandle represents an OHLCV bucket of an index level series.
// Values are only built through NewCandle so every candle in a response
// satisfies the OHLC envelope.
type MCandle struct {
	Time      int64   `json:"time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	VolumeUsd float64 `json:"volumeUsd"`
}

// -----------------------------------------------------------------------------

// NewCandle validates and builds a candle.
func NewCandle(t int64, open, high, low, closePrice, volume float64) (MCandle, error) {
	for _, v := range []float64{open, high, low, closePrice, volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return MCandle{}, fmt.Errorf("%w: non-finite value at %d", ErrInvalidCandle, t)
		}
	}
	if high < math.Max(open, closePrice) {
		return MCandle{}, fmt.Errorf("%w: high %.6f below body at %d", ErrInvalidCandle, high, t)
	}
	if low > math.Min(open, closePrice) {
		return MCandle{}, fmt.Errorf("%w: low %.6f above body at %d", ErrInvalidCandle, low, t)
	}
	if volume < 0 {
		return MCandle{}, fmt.Errorf("%w: negative volume at %d", ErrInvalidCandle, t)
	}

	return MCandle{
		Time:      t,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		VolumeUsd: volume,
	}, nil
}

// -----------------------------------------------------------------------------

// Valid reports whether the candle still satisfies the OHLC envelope.
func (c MCandle) Valid() bool {
	_, err := NewCandle(c.Time, c.Open, c.High, c.Low, c.Close, c.VolumeUsd)
	return err == nil
}
