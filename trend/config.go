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
	"fmt"
	"time"
)

// Defaults used by DefaultConfig
const (
	DefaultRange      = 24 * time.Hour
	DefaultMaxSamples = 10000
)

// Config specifies the lookback window of a Predictor
type Config struct {
	// Range is both the lookback window of the regression and the period growth gets extrapolated for
	Range time.Duration
	// MaxSamples bounds the history of a single key, zero disables the bound
	MaxSamples int
}

// DefaultConfig returns a configuration with a range of one day
func DefaultConfig() Config {
	return Config{
		Range:      DefaultRange,
		MaxSamples: DefaultMaxSamples,
	}
}

// Validate checks the configuration for values which would make predictions meaningless
func (c Config) Validate() error {
	if c.Range <= 0 {
		return fmt.Errorf("trend range must be positive, got [%s]", c.Range)
	}
	if c.MaxSamples < 0 {
		return fmt.Errorf("maximum sample count must not be negative, got [%d]", c.MaxSamples)
	}
	if c.MaxSamples == 1 {
		return fmt.Errorf("maximum sample count must allow at least two samples")
	}

	return nil
}
