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

package trend

import (
	"github.com/pkg/errors"
	"github.com/snapserv/nagodisk/valuestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"testing"
	"time"
)

const hour = 3600.0

func newTestPredictor(t *testing.T, config Config) (*Predictor, *valuestore.Memory) {
	store := valuestore.NewMemory()
	predictor, err := NewPredictor(store, config)
	require.NoError(t, err)
	return predictor, store
}

func storedHistory(t *testing.T, store valuestore.Store, key string) History {
	var history History
	_, err := store.Get(key, &history)
	require.NoError(t, err)
	return history
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, Config{Range: time.Hour}.Validate())
	assert.Error(t, Config{}.Validate())
	assert.Error(t, Config{Range: -time.Hour}.Validate())
	assert.Error(t, Config{Range: time.Hour, MaxSamples: -1}.Validate())
	assert.Error(t, Config{Range: time.Hour, MaxSamples: 1}.Validate())

	_, err := NewPredictor(valuestore.NewMemory(), Config{})
	assert.Error(t, err)
}

func TestPredictor_Phases(t *testing.T) {
	predictor, _ := newTestPredictor(t, DefaultConfig())

	result, err := predictor.Update("/var", 0, 100, 1000)
	require.NoError(t, err)
	assert.Equal(t, PhaseWarming, result.Phase)
	assert.Equal(t, 1, result.Samples)
	assert.Zero(t, result.Slope)
	assert.Zero(t, result.Growth)
	assert.False(t, result.HasTimeLeft)
	assert.Equal(t, "insufficient data", result.Phase.String())

	result, err = predictor.Update("/var", hour, 200, 1000)
	require.NoError(t, err)
	assert.Equal(t, PhaseTrending, result.Phase)
	assert.Equal(t, 2, result.Samples)

	result, err = predictor.Update("/var", 2*hour, 300, 1000)
	require.NoError(t, err)
	assert.Equal(t, PhaseTrending, result.Phase)
	assert.Equal(t, 3, result.Samples)
}

func TestPredictor_TwoSamples(t *testing.T) {
	predictor, _ := newTestPredictor(t, DefaultConfig())

	_, err := predictor.Update("/srv", 1000, 400, 1000)
	require.NoError(t, err)
	result, err := predictor.Update("/srv", 1000+hour, 436, 1000)
	require.NoError(t, err)

	slope := 36 / hour
	assert.InDelta(t, slope, result.Slope, 1e-12)
	assert.InDelta(t, slope*24*hour, result.Growth, 1e-9)
	assert.InDelta(t, 86.4, result.GrowthPercent, 1e-9)
	assert.True(t, result.HasTimeLeft)
	assert.False(t, result.Full)
	assert.InDelta(t, (1000-436)/slope, result.TimeLeft, 1e-6)
	assert.Equal(t, time.Duration(result.TimeLeft*float64(time.Second)), result.Duration())
}

func TestPredictor_LinearRegression(t *testing.T) {
	predictor, _ := newTestPredictor(t, DefaultConfig())

	levels := []float64{10, 14, 15, 21, 20}
	var result Result
	var err error
	for index, level := range levels {
		result, err = predictor.Update("key", float64(index)*hour, level, 100)
		require.NoError(t, err)
	}

	// least squares over x=0..4: slope = 2.7 per hour
	assert.InDelta(t, 2.7/hour, result.Slope, 1e-12)
	assert.InDelta(t, (100-20)/(2.7/hour), result.TimeLeft, 1e-6)
}

func TestPredictor_NegativeSlope(t *testing.T) {
	predictor, _ := newTestPredictor(t, DefaultConfig())

	_, _ = predictor.Update("key", 0, 500, 1000)
	result, err := predictor.Update("key", hour, 400, 1000)
	require.NoError(t, err)

	assert.Equal(t, PhaseTrending, result.Phase)
	assert.InDelta(t, -2400.0, result.Growth, 1e-9)
	assert.InDelta(t, -240.0, result.GrowthPercent, 1e-9)
	assert.False(t, result.HasTimeLeft)
	assert.False(t, result.Full)
}

func TestPredictor_Full(t *testing.T) {
	predictor, _ := newTestPredictor(t, DefaultConfig())

	_, _ = predictor.Update("key", 0, 900, 1000)
	result, err := predictor.Update("key", hour, 1000, 1000)
	require.NoError(t, err)

	assert.True(t, result.Full)
	assert.False(t, result.HasTimeLeft)
	assert.Zero(t, result.TimeLeft)
	assert.True(t, result.Slope > 0)
}

func TestPredictor_TimeLeftUntilFull(t *testing.T) {
	predictor, store := newTestPredictor(t, DefaultConfig())
	level, capacity := 10342.4, 65843.2
	require.NoError(t, store.Set("HXE 90 HXE - Log", History{{Timestamp: 0, Value: 0}}))

	now := 7 * level / (capacity - level)
	result, err := predictor.Update("HXE 90 HXE - Log", now, level, capacity)
	require.NoError(t, err)

	assert.InDelta(t, 15.707620528771386, level/capacity*100, 1e-12)
	assert.True(t, result.HasTimeLeft)
	assert.InDelta(t, 7.0, result.TimeLeft, 1e-9)
	assert.Equal(t, 7*time.Second, result.Duration().Round(time.Second))
}

func TestPredictor_WindowPruning(t *testing.T) {
	predictor, store := newTestPredictor(t, Config{Range: 2 * time.Hour})

	_, _ = predictor.Update("key", 0, 1000, 10000)
	_, _ = predictor.Update("key", hour, 10, 10000)
	_, _ = predictor.Update("key", 2*hour, 20, 10000)
	result, err := predictor.Update("key", 3*hour, 30, 10000)
	require.NoError(t, err)

	history := storedHistory(t, store, "key")
	assert.Equal(t, History{{hour, 10}, {2 * hour, 20}, {3 * hour, 30}}, history)
	assert.Equal(t, 3, result.Samples)
	assert.InDelta(t, 10/hour, result.Slope, 1e-12)
	assert.InDelta(t, 20.0, result.Growth, 1e-9)
}

func TestPredictor_GapLongerThanRange(t *testing.T) {
	predictor, store := newTestPredictor(t, Config{Range: time.Hour})

	_, err := predictor.Update("key", 0, 10, 100)
	require.NoError(t, err)
	result, err := predictor.Update("key", 600, 20, 100)
	require.NoError(t, err)
	require.Equal(t, PhaseTrending, result.Phase)

	result, err = predictor.Update("key", 600+2*hour, 30, 100)
	require.NoError(t, err)
	assert.Equal(t, PhaseWarming, result.Phase)
	assert.Equal(t, "insufficient data", result.Phase.String())
	assert.Equal(t, 1, result.Samples)
	assert.Zero(t, result.Slope)
	assert.Zero(t, result.Growth)
	assert.False(t, result.HasTimeLeft)
	assert.Equal(t, History{{600 + 2*hour, 30}}, storedHistory(t, store, "key"))

	result, err = predictor.Update("key", 1200+2*hour, 40, 100)
	require.NoError(t, err)
	assert.Equal(t, PhaseTrending, result.Phase)
}

func TestPredictor_MaxSamples(t *testing.T) {
	predictor, store := newTestPredictor(t, Config{Range: 24 * time.Hour, MaxSamples: 3})

	for index := 0; index < 5; index++ {
		_, err := predictor.Update("key", float64(index), float64(index), 100)
		require.NoError(t, err)
	}

	history := storedHistory(t, store, "key")
	assert.Equal(t, History{{2, 2}, {3, 3}, {4, 4}}, history)
}

func TestPredictor_OutOfOrderSampleIgnored(t *testing.T) {
	predictor, store := newTestPredictor(t, DefaultConfig())

	_, _ = predictor.Update("key", 0, 100, 1000)
	_, _ = predictor.Update("key", hour, 200, 1000)
	before := storedHistory(t, store, "key")

	for _, timestamp := range []float64{hour, hour / 2} {
		result, err := predictor.Update("key", timestamp, 900, 1000)
		require.NoError(t, err)
		assert.Equal(t, before, storedHistory(t, store, "key"))
		assert.InDelta(t, 100/hour, result.Slope, 1e-12)
		assert.Equal(t, 900.0, result.Level)
		assert.InDelta(t, 100/(100/hour), result.TimeLeft, 1e-6)
	}
}

func TestPredictor_InvalidSample(t *testing.T) {
	tests := map[string][3]float64{
		"negative level":     {hour, -1, 1000},
		"nan level":          {hour, math.NaN(), 1000},
		"infinite level":     {hour, math.Inf(1), 1000},
		"zero capacity":      {hour, 10, 0},
		"negative capacity":  {hour, 10, -5},
		"nan capacity":       {hour, 10, math.NaN()},
		"infinite timestamp": {math.Inf(1), 10, 1000},
	}

	for name, sample := range tests {
		t.Run(name, func(t *testing.T) {
			predictor, store := newTestPredictor(t, DefaultConfig())
			_, _ = predictor.Update("key", 0, 100, 1000)

			_, err := predictor.Update("key", sample[0], sample[1], sample[2])
			assert.Equal(t, ErrInvalidSample, errors.Cause(err))
			assert.Equal(t, History{{0, 100}}, storedHistory(t, store, "key"))
		})
	}
}

func TestPredictor_Deterministic(t *testing.T) {
	samples := []Sample{{0, 1.1}, {300, 2.7}, {600, 2.2}, {900, 3.9}, {1200, 5.3}}

	run := func() Result {
		predictor, _ := newTestPredictor(t, DefaultConfig())
		var result Result
		for _, sample := range samples {
			var err error
			result, err = predictor.Update("key", sample.Timestamp, sample.Value, 10)
			require.NoError(t, err)
		}
		return result
	}

	assert.Equal(t, run(), run())
}

func TestHistory_Slope(t *testing.T) {
	_, ok := History{}.Slope()
	assert.False(t, ok)

	_, ok = History{{5, 1}}.Slope()
	assert.False(t, ok)

	_, ok = History{{5, 1}, {5, 3}}.Slope()
	assert.False(t, ok)

	slope, ok := History{{0, 0}, {10, 5}}.Slope()
	assert.True(t, ok)
	assert.Equal(t, 0.5, slope)
}

func TestPredictor_IndependentKeys(t *testing.T) {
	predictor, _ := newTestPredictor(t, DefaultConfig())

	_, _ = predictor.Update("/", 0, 100, 1000)
	result, err := predictor.Update("/home", hour, 100, 1000)
	require.NoError(t, err)
	assert.Equal(t, PhaseWarming, result.Phase)
}
