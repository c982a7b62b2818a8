package domain

import (
	"errors"
	"time"
)

// Detector defaults: 30 actions inside any 60 second window, looking back
// over the last 10 minutes.
const (
	DefaultScanRange = 10 * time.Minute
	DefaultBurstSize = 30
	DefaultWindow    = 60 * time.Second
)

var ErrInvalidDetectorParams = errors.New("invalid detector parameters")

type DetectorParams struct {
	ScanRange time.Duration
	BurstSize int
	Window    time.Duration
}

func DefaultDetectorParams() DetectorParams {
	return DetectorParams{
		ScanRange: DefaultScanRange,
		BurstSize: DefaultBurstSize,
		Window:    DefaultWindow,
	}
}

func (p DetectorParams) Validate() error {
	if p.ScanRange <= 0 || p.BurstSize < 1 || p.Window <= 0 {
		return ErrInvalidDetectorParams
	}
	return nil
}

type DetectionResult struct {
	UserID           string `json:"userId"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	RequestCount     int    `json:"requestCount"`
	TimeframeSeconds int64  `json:"timeframeSeconds"`
	Role             string `json:"role"`
}
