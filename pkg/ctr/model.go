// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ctr

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrBadVector     = errors.New("feature vector length mismatch")
	ErrNotFinite     = errors.New("prediction is not finite")
	ErrEmptyArtifact = errors.New("model artifact has no weights")
)

// DefaultCTR is the fallback click probability applied when prediction
// fails. Matches the industry-average 1.5% baseline the model trains around.
const DefaultCTR = 0.015

// Model is a fitted logistic-regression click predictor. Immutable after
// training; safe for concurrent Predict calls. Retraining produces a new
// Model rather than mutating one in place.
type Model struct {
	Weights   []float64 `json:"weights"`
	Bias      float64   `json:"bias"`
	Samples   int       `json:"samples,omitempty"`
	TrainedAt time.Time `json:"trained_at,omitempty"`
}

// Predict returns the click probability for a feature vector, clamped to
// [0,1]. Errors instead of returning NaN or Inf.
func (m *Model) Predict(features []float64) (float64, error) {
	if len(features) != len(m.Weights) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrBadVector, len(features), len(m.Weights))
	}

	logit := m.Bias
	for i, w := range m.Weights {
		logit += w * features[i]
	}

	p := sigmoid(logit)
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, ErrNotFinite
	}

	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	return p, nil
}

// sigmoid with the logit clipped so exp never overflows
func sigmoid(x float64) float64 {
	if x > 500 {
		x = 500
	} else if x < -500 {
		x = -500
	}
	return 1.0 / (1.0 + math.Exp(-x))
}
