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

package nagocheck

import (
	"fmt"
	"github.com/snapserv/nagopher"
	"math"
	"strconv"
	"time"
)

// Round is a utility function which allows rounding a float64 to a given precision
func Round(value float64, precision float64) float64 {
	precision = 1 / math.Pow(10, precision)
	if value > 0 {
		return float64(int64(value/precision+0.5)) * precision
	}

	return float64(int64(value/precision-0.5)) * precision
}

// DurationString outputs a time.Duration variable in the same way as time.Duration.String() with additional support for
// days instead of just hours, minutes and seconds. Whole days are printed without a remainder, e.g. 1d.
func DurationString(duration time.Duration) string {
	daysDuration := duration.Truncate(24 * time.Hour)
	days := int64(daysDuration.Hours() / 24)
	if days > 0 {
		remainder := (duration - daysDuration).Truncate(time.Second)
		if remainder == 0 {
			return fmt.Sprintf("%dd", days)
		}

		return fmt.Sprintf("%dd%s", days, remainder.String())
	}

	return duration.Truncate(time.Second).String()
}

// FormatBinarySize expects a size given in bytes and returns a formatted string with a precision of two with the most
// appropriate unit, which can either be B, K, M, G or T.
func FormatBinarySize(size float64) string {
	units := []struct {
		Divisor float64
		Suffix  string
	}{
		{math.Pow(1024, 4), "T"},
		{math.Pow(1024, 3), "G"},
		{math.Pow(1024, 2), "M"},
		{math.Pow(1024, 1), "K"},
		{math.Pow(1024, 0), "B"},
	}

	if !math.IsNaN(size) {
		if size < 0 {
			return "-" + FormatBinarySize(-size)
		}

		for _, unit := range units {
			if size > unit.Divisor*100 {
				value := Round(size/unit.Divisor, 2)
				return strconv.FormatFloat(value, 'f', 2, 64) + unit.Suffix
			}
		}

		return strconv.FormatFloat(Round(size, 2), 'f', -1, 64) + "B"
	}

	return "N/A"
}

// FormatSignedBinarySize behaves like FormatBinarySize, but always prefixes the sign
func FormatSignedBinarySize(size float64) string {
	if !math.IsNaN(size) && size >= 0 {
		return "+" + FormatBinarySize(size)
	}

	return FormatBinarySize(size)
}

// FormatRate formats a rate given in bytes per second
func FormatRate(bytesPerSecond float64) string {
	formatted := FormatBinarySize(bytesPerSecond)
	if formatted == "N/A" {
		return formatted
	}

	return formatted + "/s"
}

// MustParseBounds parses a Nagios range specifier and panics if it is invalid, which makes it only suitable for
// constant specifiers.
func MustParseBounds(rangeSpecifier string) nagopher.Bounds {
	bounds, err := nagopher.NewBoundsFromNagiosRange(rangeSpecifier)
	if err != nil {
		panic(err)
	}

	return bounds
}
