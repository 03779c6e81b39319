// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ctr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/adxyz/bidder/pkg/log"
)

// Save writes the model artifact as JSON.
func (m *Model) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

// Load reads a model artifact written by Save. The weights are used verbatim.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if len(m.Weights) == 0 {
		return nil, ErrEmptyArtifact
	}
	if len(m.Weights) != FeatureCount {
		return nil, fmt.Errorf("%w: artifact has %d weights, want %d", ErrBadVector, len(m.Weights), FeatureCount)
	}
	return &m, nil
}

// LoadOrTrain loads the persisted model, training and saving a fresh one
// when the artifact is missing. Called once at startup; the returned model
// is shared read-only afterwards.
func LoadOrTrain(path string, cfg TrainConfig, logger log.Logger) (*Model, error) {
	m, err := Load(path)
	if err == nil {
		logger.Info("loaded ctr model", "path", path, "samples", m.Samples)
		return m, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	logger.Info("no ctr model found, training", "path", path, "samples", cfg.Samples)
	m = Train(cfg)
	if err := m.Save(path); err != nil {
		logger.Warn("failed to persist ctr model", "path", path, "error", err)
	}
	return m, nil
}
