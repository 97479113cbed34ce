/*
 * nagodisk - Reliable and lightweight Nagios plugins written in Go
 * Copyright (C) 2018-2019  Pascal Mathis
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

// Package trend predicts the growth of a capacity-bound level (e.g. used disk space) by fitting a linear regression
// over a sliding window of samples and extrapolating the time left until the capacity is exhausted.
package trend

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/snapserv/nagodisk/valuestore"
	"io/ioutil"
	"math"
	"time"
)

// ErrInvalidSample is returned for levels, capacities or timestamps which can not be used for a prediction
var ErrInvalidSample = errors.New("invalid sample")

// Phase describes how much history is available for a key
type Phase int

// Phases of a key. A key falls back to PhaseWarming when a gap longer than the range pruned all but the newest sample.
const (
	PhaseNoData Phase = iota
	PhaseWarming
	PhaseTrending
)

// Sample is a single observation of a level
type Sample struct {
	Timestamp float64 `json:"t"`
	Value     float64 `json:"v"`
}

// History is the persisted, timestamp-ordered list of samples of a key
type History []Sample

// Result contains the prediction computed by Predictor.Update
type Result struct {
	Phase   Phase
	Samples int

	Level    float64
	Capacity float64

	// Slope is the growth of the level in units per second
	Slope float64
	// Growth is the extrapolated growth over the configured range, in units of the level
	Growth float64
	// GrowthPercent is Growth relative to the capacity
	GrowthPercent float64

	// Full is set when the level already reached the capacity, TimeLeft is meaningless then
	Full bool
	// HasTimeLeft is set when the level grows and the capacity will be reached in finite time
	HasTimeLeft bool
	// TimeLeft is the amount of seconds until the capacity is reached
	TimeLeft float64
}

// Predictor maintains the sample history of any amount of keys and computes predictions
type Predictor struct {
	config Config
	store  valuestore.Store
	logger logrus.FieldLogger
}

// PredictorOpt is a type alias for functional options used by NewPredictor()
type PredictorOpt func(*Predictor)

// PredictorLogger is a functional option for NewPredictor(), which sets the logger receiving debug events
func PredictorLogger(logger logrus.FieldLogger) PredictorOpt {
	return func(p *Predictor) {
		p.logger = logger
	}
}

// NewPredictor instantiates a Predictor after validating the given configuration
func NewPredictor(store valuestore.Store, config Config, options ...PredictorOpt) (*Predictor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	predictor := &Predictor{
		config: config,
		store:  store,
	}

	for _, option := range options {
		option(predictor)
	}

	if predictor.logger == nil {
		silent := logrus.New()
		silent.Out = ioutil.Discard
		predictor.logger = silent
	}

	return predictor, nil
}

// Config returns the configuration of the predictor
func (p *Predictor) Config() Config {
	return p.config
}

// Update appends the given level to the history of key and returns the resulting prediction. A sample which is not
// newer than the latest stored one gets ignored, the prediction is then based on the stored history only. Invalid
// samples return ErrInvalidSample and never modify the stored history.
func (p *Predictor) Update(key string, timestamp float64, level float64, capacity float64) (Result, error) {
	if err := validateSample(timestamp, level, capacity); err != nil {
		return Result{}, errors.Wrapf(err, "trend [%s]", key)
	}

	var history History
	if _, err := p.store.Get(key, &history); err != nil {
		return Result{}, err
	}

	logger := p.logger.WithField("key", key)
	if len(history) > 0 && timestamp <= history[len(history)-1].Timestamp {
		logger.WithField("latest", history[len(history)-1].Timestamp).Debug("ignoring out-of-order sample")
	} else {
		history = append(history, Sample{Timestamp: timestamp, Value: level})
		history = history.prune(timestamp-p.config.Range.Seconds(), p.config.MaxSamples)
		if err := p.store.Set(key, history); err != nil {
			return Result{}, err
		}
	}

	result := p.predict(history, level, capacity)
	logger.WithFields(logrus.Fields{
		"samples": result.Samples,
		"slope":   result.Slope,
	}).Debug("updated trend")

	return result, nil
}

func (p *Predictor) predict(history History, level float64, capacity float64) Result {
	result := Result{
		Phase:    PhaseNoData,
		Samples:  len(history),
		Level:    level,
		Capacity: capacity,
	}

	if len(history) > 0 {
		result.Phase = PhaseWarming
	}

	if slope, ok := history.Slope(); ok {
		result.Phase = PhaseTrending
		result.Slope = slope
		result.Growth = slope * p.config.Range.Seconds()
		result.GrowthPercent = result.Growth / capacity * 100
	}

	if level >= capacity {
		result.Full = true
		return result
	}

	if result.Slope > 0 {
		result.HasTimeLeft = true
		result.TimeLeft = math.Max(0, (capacity-level)/result.Slope)
	}

	return result
}

// Slope returns the least-squares slope of the history in units per second. The boolean result is false if less than
// two distinct timestamps are available. Means are subtracted first, the summation order is the stored order.
func (h History) Slope() (float64, bool) {
	if len(h) < 2 {
		return 0, false
	}

	var meanTime, meanValue float64
	for _, sample := range h {
		meanTime += sample.Timestamp
		meanValue += sample.Value
	}
	meanTime /= float64(len(h))
	meanValue /= float64(len(h))

	var covariance, variance float64
	for _, sample := range h {
		deltaTime := sample.Timestamp - meanTime
		covariance += deltaTime * (sample.Value - meanValue)
		variance += deltaTime * deltaTime
	}

	if variance == 0 {
		return 0, false
	}

	return covariance / variance, true
}

// prune drops samples older than the given cutoff and afterwards the oldest samples exceeding maxSamples
func (h History) prune(cutoff float64, maxSamples int) History {
	start := 0
	for start < len(h) && h[start].Timestamp < cutoff {
		start++
	}

	if maxSamples > 0 && len(h)-start > maxSamples {
		start = len(h) - maxSamples
	}

	pruned := make(History, len(h)-start)
	copy(pruned, h[start:])
	return pruned
}

func validateSample(timestamp float64, level float64, capacity float64) error {
	switch {
	case math.IsNaN(timestamp) || math.IsInf(timestamp, 0):
		return errors.Wrapf(ErrInvalidSample, "timestamp [%v] is not finite", timestamp)
	case math.IsNaN(level) || math.IsInf(level, 0):
		return errors.Wrapf(ErrInvalidSample, "level [%v] is not finite", level)
	case level < 0:
		return errors.Wrapf(ErrInvalidSample, "level [%v] is negative", level)
	case math.IsNaN(capacity) || math.IsInf(capacity, 0):
		return errors.Wrapf(ErrInvalidSample, "capacity [%v] is not finite", capacity)
	case capacity <= 0:
		return errors.Wrapf(ErrInvalidSample, "capacity [%v] is not positive", capacity)
	}

	return nil
}

// String returns a short description of the phase
func (p Phase) String() string {
	switch p {
	case PhaseNoData:
		return "no data"
	case PhaseWarming:
		return "insufficient data"
	case PhaseTrending:
		return "trending"
	}

	return "unknown"
}

// Duration returns TimeLeft as time.Duration, capped to the largest representable duration
func (r Result) Duration() time.Duration {
	if r.TimeLeft >= float64(math.MaxInt64)/float64(time.Second) {
		return time.Duration(math.MaxInt64)
	}

	return time.Duration(r.TimeLeft * float64(time.Second))
}
