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
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/disk"
	"github.com/snapserv/nagodisk/counters"
	"math"
	"regexp"
	"sort"
	"time"
)

// summaryItem is the pseudo disk name which sums up all physical disks
const summaryItem = "SUMMARY"

// Partitions, device mapper targets and virtual devices would count the same IO twice in a summary
const defaultExcludePattern = `^(loop|ram|sr|fd|dm-|md)\d*$|^(sd|vd|xvd|hd)[a-z]+\d+$|^nvme\d+n\d+p\d+$|^mmcblk\d+p\d+$`

type diskCounters struct {
	Disks int

	ReadBytes   float64
	WriteBytes  float64
	ReadIOs     float64
	WriteIOs    float64
	ReadTime    float64
	WriteTime   float64
	IOTime      float64
	QueueLength float64
}

type diskRates struct {
	// Initializing is set during the first cycle, when counters were stored but no rates exist yet
	Initializing bool
	// Skipped is set when the clock did not advance since the last cycle
	Skipped bool

	ReadThroughput  float64
	WriteThroughput float64
	ReadIOPS        float64
	WriteIOPS       float64
	Utilization     float64
	Latency         float64
	HasLatency      bool
	QueueLength     float64
}

func countersFromStat(stat disk.IOCountersStat) diskCounters {
	return diskCounters{
		Disks:       1,
		ReadBytes:   float64(stat.ReadBytes),
		WriteBytes:  float64(stat.WriteBytes),
		ReadIOs:     float64(stat.ReadCount),
		WriteIOs:    float64(stat.WriteCount),
		ReadTime:    float64(stat.ReadTime),
		WriteTime:   float64(stat.WriteTime),
		IOTime:      float64(stat.IoTime),
		QueueLength: float64(stat.IopsInProgress),
	}
}

// add combines the counters of two disks by summation
func (c diskCounters) add(other diskCounters) diskCounters {
	return diskCounters{
		Disks:       c.Disks + other.Disks,
		ReadBytes:   c.ReadBytes + other.ReadBytes,
		WriteBytes:  c.WriteBytes + other.WriteBytes,
		ReadIOs:     c.ReadIOs + other.ReadIOs,
		WriteIOs:    c.WriteIOs + other.WriteIOs,
		ReadTime:    c.ReadTime + other.ReadTime,
		WriteTime:   c.WriteTime + other.WriteTime,
		IOTime:      c.IOTime + other.IOTime,
		QueueLength: c.QueueLength + other.QueueLength,
	}
}

// summarizeDisks sums up all disks not matching the exclude pattern. Disks are visited in lexical order, which keeps
// the floating point summation stable across invocations.
func summarizeDisks(stats map[string]disk.IOCountersStat, exclude *regexp.Regexp) diskCounters {
	names := make([]string, 0, len(stats))
	for name := range stats {
		if exclude != nil && exclude.MatchString(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var summary diskCounters
	for _, name := range names {
		summary = summary.add(countersFromStat(stats[name]))
	}

	return summary
}

// selectDisk returns the counters of a single disk or the summary of all disks
func selectDisk(stats map[string]disk.IOCountersStat, item string, exclude *regexp.Regexp) (diskCounters, error) {
	if item == summaryItem {
		summary := summarizeDisks(stats, exclude)
		if summary.Disks == 0 {
			return summary, fmt.Errorf("no disks left to summarize")
		}
		return summary, nil
	}

	stat, ok := stats[item]
	if !ok {
		return diskCounters{}, fmt.Errorf("disk [%s] not found", item)
	}

	return countersFromStat(stat), nil
}

// computeDiskRates passes every counter through the rate tracker. All counters share the same timestamp, so they are
// either all initialized, all skipped or all computed within one cycle.
func computeDiskRates(tracker *counters.Tracker, timestamp float64, c diskCounters, average time.Duration) (diskRates, error) {
	rates := diskRates{QueueLength: c.QueueLength}

	counterRates := make(map[string]float64)
	for _, counter := range []struct {
		name  string
		value float64
	}{
		{"read_bytes", c.ReadBytes},
		{"write_bytes", c.WriteBytes},
		{"read_ios", c.ReadIOs},
		{"write_ios", c.WriteIOs},
		{"read_time", c.ReadTime},
		{"write_time", c.WriteTime},
		{"io_time", c.IOTime},
	} {
		rate, err := tracker.Rate(counter.name, timestamp, counter.value)
		switch errors.Cause(err) {
		case nil:
			counterRates[counter.name] = rate
		case counters.ErrNoData:
			rates.Initializing = true
		case counters.ErrInvalidInterval:
			rates.Skipped = true
		default:
			return rates, errors.Wrapf(err, "could not compute rate of %s", counter.name)
		}
	}

	if rates.Initializing || rates.Skipped {
		return rates, nil
	}

	rates.ReadThroughput = counterRates["read_bytes"]
	rates.WriteThroughput = counterRates["write_bytes"]
	rates.ReadIOPS = counterRates["read_ios"]
	rates.WriteIOPS = counterRates["write_ios"]

	// io_time counts milliseconds spent doing IO, per disk
	disks := math.Max(1, float64(c.Disks))
	rates.Utilization = math.Min(100, counterRates["io_time"]/1000/disks*100)

	if totalIOPS := rates.ReadIOPS + rates.WriteIOPS; totalIOPS > 0 {
		rates.HasLatency = true
		rates.Latency = (counterRates["read_time"] + counterRates["write_time"]) / totalIOPS
	}

	if average > 0 {
		var err error
		for _, averaged := range []struct {
			name  string
			value *float64
		}{
			{"read_throughput", &rates.ReadThroughput},
			{"write_throughput", &rates.WriteThroughput},
			{"read_ios", &rates.ReadIOPS},
			{"write_ios", &rates.WriteIOPS},
			{"utilization", &rates.Utilization},
		} {
			*averaged.value, err = tracker.Average("avg."+averaged.name, timestamp, *averaged.value, average)
			if err != nil {
				return rates, errors.Wrapf(err, "could not average %s", averaged.name)
			}
		}
	}

	return rates, nil
}
