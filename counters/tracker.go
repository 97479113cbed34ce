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

// Package counters turns monotonically increasing counters into per-second rates by remembering the previous sample
// of every counter in a value store.
package counters

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/snapserv/nagodisk/valuestore"
	"io/ioutil"
	"math"
	"time"
)

var (
	// ErrNoData is returned on the first observation of a counter. It is not a failure: the sample has been stored and
	// the next invocation will be able to compute a rate.
	ErrNoData = errors.New("counter initialized, no rate available yet")

	// ErrInvalidInterval is returned when the clock did not advance since the stored sample. The stored sample is kept.
	ErrInvalidInterval = errors.New("no time has passed since last sample")

	// ErrInvalidSample is returned for non-finite timestamps or values. The stored sample is kept.
	ErrInvalidSample = errors.New("sample is not a finite number")
)

// DeltaState is the last sample of a counter, as persisted in the value store
type DeltaState struct {
	Timestamp float64 `json:"t"`
	Value     float64 `json:"v"`
}

// AverageState is the current exponential moving average of a value, as persisted in the value store
type AverageState struct {
	Timestamp float64 `json:"t"`
	Value     float64 `json:"v"`
}

// Tracker computes rates and averages for any amount of independent keys
type Tracker struct {
	store  valuestore.Store
	logger logrus.FieldLogger
}

// TrackerOpt is a type alias for functional options used by NewTracker()
type TrackerOpt func(*Tracker)

// TrackerLogger is a functional option for NewTracker(), which sets the logger receiving debug events
func TrackerLogger(logger logrus.FieldLogger) TrackerOpt {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// NewTracker instantiates a Tracker which keeps its state in the given store
func NewTracker(store valuestore.Store, options ...TrackerOpt) *Tracker {
	tracker := &Tracker{
		store: store,
	}

	for _, option := range options {
		option(tracker)
	}

	if tracker.logger == nil {
		silent := logrus.New()
		silent.Out = ioutil.Discard
		tracker.logger = silent
	}

	return tracker
}

// Rate returns the per-second increase of the counter stored under key. The new sample replaces the stored one on
// success, after a counter reset and on the first observation (ErrNoData). A counter which went backwards is treated
// as reset or wrapped around and yields a rate of zero.
func (t *Tracker) Rate(key string, timestamp float64, value float64) (float64, error) {
	if !isFinite(timestamp) || !isFinite(value) {
		return 0, errors.Wrapf(ErrInvalidSample, "counter [%s]", key)
	}

	var previous DeltaState
	found, err := t.store.Get(key, &previous)
	if err != nil {
		return 0, err
	}

	logger := t.logger.WithField("key", key)
	current := DeltaState{Timestamp: timestamp, Value: value}

	if !found {
		if err := t.store.Set(key, current); err != nil {
			return 0, err
		}

		logger.Debug("initialized counter")
		return 0, ErrNoData
	}

	elapsed := timestamp - previous.Timestamp
	if elapsed <= 0 {
		logger.WithField("elapsed", elapsed).Debug("skipping counter, clock did not advance")
		return 0, errors.Wrapf(ErrInvalidInterval, "counter [%s]", key)
	}

	if err := t.store.Set(key, current); err != nil {
		return 0, err
	}

	if value < previous.Value {
		logger.WithFields(logrus.Fields{
			"previous": previous.Value,
			"current":  value,
		}).Debug("counter reset or wrapped around")
		return 0, nil
	}

	return (value - previous.Value) / elapsed, nil
}

// Average returns the exponential moving average of value stored under key. Samples are weighted by the time passed
// since the previous one, so that the average reflects roughly the given horizon regardless of the check interval.
// The first observation returns the value itself.
func (t *Tracker) Average(key string, timestamp float64, value float64, horizon time.Duration) (float64, error) {
	if !isFinite(timestamp) || !isFinite(value) {
		return 0, errors.Wrapf(ErrInvalidSample, "average [%s]", key)
	}

	var previous AverageState
	found, err := t.store.Get(key, &previous)
	if err != nil {
		return 0, err
	}

	if !found || horizon <= 0 {
		if err := t.store.Set(key, AverageState{Timestamp: timestamp, Value: value}); err != nil {
			return 0, err
		}
		return value, nil
	}

	elapsed := timestamp - previous.Timestamp
	if elapsed <= 0 {
		return previous.Value, errors.Wrapf(ErrInvalidInterval, "average [%s]", key)
	}

	weight := 1 - math.Exp(-elapsed/horizon.Seconds())
	average := previous.Value + weight*(value-previous.Value)
	if err := t.store.Set(key, AverageState{Timestamp: timestamp, Value: average}); err != nil {
		return 0, err
	}

	return average, nil
}

// IsSkippable reports whether err only means that no rate could be computed in this cycle
func IsSkippable(err error) bool {
	switch errors.Cause(err) {
	case ErrNoData, ErrInvalidInterval:
		return true
	}

	return false
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
