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

package moddisk

import (
	"fmt"
	"github.com/snapserv/nagodisk/nagocheck"
	"github.com/snapserv/nagodisk/trend"
	"time"
)

const (
	fillStateAvailable = "AVAILABLE"
	fillStateFull      = "FULL"
)

// trendKey is the value store key of the usage history, relative to the scope of a mount point
const trendKey = "trend"

type usageReport struct {
	Used  float64
	Size  float64
	Range time.Duration
	Trend trend.Result
}

// evaluateUsage feeds the current level into the predictor. Used space is the level, used plus available space the
// capacity, as space reserved for root is never available to regular users.
func evaluateUsage(predictor *trend.Predictor, now time.Time, used float64, size float64) (usageReport, error) {
	timestamp := float64(now.UnixNano()) / float64(time.Second)
	result, err := predictor.Update(trendKey, timestamp, used, size)
	if err != nil {
		return usageReport{}, err
	}

	return usageReport{
		Used:  used,
		Size:  size,
		Range: predictor.Config().Range,
		Trend: result,
	}, nil
}

func (r usageReport) UsedPercent() float64 {
	if r.Size <= 0 {
		return 0
	}

	return r.Used / r.Size * 100
}

func (r usageReport) GrowthPerDay() float64 {
	return r.Trend.Slope * (24 * time.Hour).Seconds()
}

func (r usageReport) FillState() string {
	if r.Trend.Full {
		return fillStateFull
	}

	return fillStateAvailable
}

func describeTrend(report usageReport) string {
	result := report.Trend
	if result.Full {
		return "disk full"
	}

	if result.Phase != trend.PhaseTrending {
		return "trend: " + result.Phase.String()
	}

	description := fmt.Sprintf("trend per %s: %s (%+.2f%%)",
		nagocheck.DurationString(report.Range),
		nagocheck.FormatSignedBinarySize(result.Growth),
		result.GrowthPercent,
	)

	if result.HasTimeLeft {
		description += ", time left until disk full: " + nagocheck.DurationString(result.Duration())
	}

	return description
}
