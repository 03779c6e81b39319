// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ctr

import (
	"math/rand"
	"time"
)

// TrainConfig controls synthetic data generation and gradient descent.
type TrainConfig struct {
	Samples      int
	Iterations   int
	LearningRate float64
	Seed         int64
}

// DefaultTrainConfig matches the parameters the shipped model artifact was
// produced with. The fixed seed keeps training reproducible.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Samples:      10000,
		Iterations:   1000,
		LearningRate: 0.01,
		Seed:         42,
	}
}

// trainingSample pairs a feature vector with a binary click label. Samples
// exist only for the duration of a Train call.
type trainingSample struct {
	features []float64
	clicked  float64
}

// Train fits a logistic regression on synthetic impressions whose click
// labels follow industry CTR priors: phone > tablet > desktop, iOS >
// Android, the reference country over others, and a midday traffic peak.
func Train(cfg TrainConfig) *Model {
	if cfg.Samples <= 0 {
		cfg = DefaultTrainConfig()
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	samples := generateSamples(rng, cfg.Samples)

	weights := make([]float64, FeatureCount)
	for i := range weights {
		weights[i] = rng.NormFloat64() * 0.1
	}
	bias := 0.0

	n := float64(len(samples))
	grad := make([]float64, FeatureCount)

	// Batch gradient descent on cross-entropy loss
	for iter := 0; iter < cfg.Iterations; iter++ {
		for i := range grad {
			grad[i] = 0
		}
		gradBias := 0.0

		for _, s := range samples {
			logit := bias
			for i, w := range weights {
				logit += w * s.features[i]
			}
			err := sigmoid(logit) - s.clicked

			for i, f := range s.features {
				grad[i] += err * f
			}
			gradBias += err
		}

		for i := range weights {
			weights[i] -= cfg.LearningRate * grad[i] / n
		}
		bias -= cfg.LearningRate * gradBias / n
	}

	return &Model{
		Weights:   weights,
		Bias:      bias,
		Samples:   cfg.Samples,
		TrainedAt: time.Now().UTC(),
	}
}

func generateSamples(rng *rand.Rand, n int) []trainingSample {
	deviceMultipliers := [3]float64{1.2, 1.1, 0.8}

	samples := make([]trainingSample, n)
	for i := range samples {
		features := make([]float64, FeatureCount)

		device := rng.Intn(3)
		features[device] = 1

		// Desktop traffic skews away from iOS
		var osIsIOS bool
		if device < 2 {
			osIsIOS = rng.Intn(2) == 0
		} else {
			osIsIOS = rng.Float64() < 0.3
		}
		osMultiplier := 0.9
		if osIsIOS {
			features[featOSiOS] = 1
			osMultiplier = 1.1
		} else {
			features[featOSAndroid] = 1
		}

		countryMultiplier := 0.8
		if rng.Float64() < 0.7 {
			features[featCountryUSA] = 1
			countryMultiplier = 1.2
		}

		hour := rng.Intn(24)
		features[featHourOfDay] = float64(hour) / 23.0

		timeMultiplier := 0.7
		switch {
		case hour >= 10 && hour <= 14:
			timeMultiplier = 1.3
		case hour >= 8 && hour <= 18:
			timeMultiplier = 1.1
		}

		floor := 0.1 + rng.Float64()*(maxFloorNorm-0.1)
		features[featBidFloor] = floor / maxFloorNorm

		ctr := DefaultCTR * deviceMultipliers[device] * osMultiplier * countryMultiplier * timeMultiplier
		ctr *= 0.7 + rng.Float64()*0.6

		var clicked float64
		if rng.Float64() < ctr {
			clicked = 1
		}

		samples[i] = trainingSample{features: features, clicked: clicked}
	}
	return samples
}
