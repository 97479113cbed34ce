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
	"github.com/snapserv/nagodisk/counters"
	"github.com/snapserv/nagodisk/nagocheck"
	"github.com/snapserv/nagodisk/valuestore"
	"github.com/snapserv/nagopher"
	"math"
	"regexp"
	"time"
)

type ioPlugin struct {
	nagocheck.Plugin
	collector Collector

	Item           string
	ExcludePattern *regexp.Regexp
	Average        time.Duration

	ReadThroughput  nagocheck.ThresholdPair
	WriteThroughput nagocheck.ThresholdPair
	ReadIOPS        nagocheck.ThresholdPair
	WriteIOPS       nagocheck.ThresholdPair
	Utilization     nagocheck.ThresholdPair
	Latency         nagocheck.ThresholdPair
}

type ioResource struct {
	nagocheck.Resource

	rates diskRates
}

type ioSummarizer struct {
	nagocheck.Summarizer
}

func newIOPlugin(collector Collector) *ioPlugin {
	return &ioPlugin{
		Plugin: nagocheck.NewPlugin("io",
			nagocheck.PluginDescription("Disk IO"),
			nagocheck.PluginDefaultThresholds(false),
		),
		collector: collector,
	}
}

func (p *ioPlugin) DefineFlags(node nagocheck.KingpinNode) {
	node.Arg("disk", "Name of the disk as listed in /proc/diskstats, or SUMMARY for the sum of all disks.").
		Required().StringVar(&p.Item)

	node.Flag("exclude", "Regular expression of disks which are not part of the SUMMARY (default: partitions, "+
		"loop, ram and device mapper devices).").
		Default(defaultExcludePattern).RegexpVar(&p.ExcludePattern)

	node.Flag("average", "Average all rates over the given horizon (e.g. 15m) instead of reporting the last "+
		"check interval only.").
		Short('a').DurationVar(&p.Average)

	nagocheck.ThresholdFlags(node, "read", "read throughput in bytes per second", &p.ReadThroughput)
	nagocheck.ThresholdFlags(node, "write", "write throughput in bytes per second", &p.WriteThroughput)
	nagocheck.ThresholdFlags(node, "read-ios", "read operations per second", &p.ReadIOPS)
	nagocheck.ThresholdFlags(node, "write-ios", "write operations per second", &p.WriteIOPS)
	nagocheck.ThresholdFlags(node, "utilization", "disk utilization in percent", &p.Utilization)
	nagocheck.ThresholdFlags(node, "latency", "average wait time per operation in milliseconds", &p.Latency)
}

func (p *ioPlugin) DefineCheck() nagopher.Check {
	check := nagopher.NewCheck("disk_io", newIOSummarizer(p))
	check.AttachResources(newIOResource(p))
	check.AttachContexts(
		nagopher.NewStringInfoContext("info_state"),

		p.ReadThroughput.ScalarContext("read_throughput"),
		p.WriteThroughput.ScalarContext("write_throughput"),
		p.ReadIOPS.ScalarContext("read_ios"),
		p.WriteIOPS.ScalarContext("write_ios"),
		p.Utilization.ScalarContext("utilization"),
		p.Latency.ScalarContext("latency"),
		nagopher.NewScalarContext("queue_length", nil, nil),
	)

	return check
}

func newIOResource(plugin *ioPlugin, options ...nagocheck.ResourceOpt) *ioResource {
	options = append([]nagocheck.ResourceOpt{nagocheck.ResourcePersistence(plugin.Item)}, options...)
	return &ioResource{
		Resource: nagocheck.NewResource(plugin, options...),
	}
}

func (r *ioResource) Probe(warnings nagopher.WarningCollection) (metrics []nagopher.Metric, _ error) {
	if err := r.Collect(); err != nil {
		return metrics, err
	}

	valueRange := nagopher.NewBounds(nagopher.BoundsOpt(nagopher.LowerBound(0)))
	metrics = append(metrics,
		nagopher.MustNewStringMetric("info_state", describeIOState(r.rates), ""),
		nagopher.MustNewNumericMetric("queue_length", r.rates.QueueLength, "", &valueRange, ""),
	)

	for _, warning := range ioWarnings(r.ThisPlugin().Item, r.rates) {
		warnings.Add(nagopher.NewWarning("%s", warning))
	}
	if r.rates.Initializing || r.rates.Skipped {
		return metrics, nil
	}

	metrics = append(metrics,
		nagopher.MustNewNumericMetric("read_throughput", nagocheck.Round(r.rates.ReadThroughput, 2), "B", &valueRange, ""),
		nagopher.MustNewNumericMetric("write_throughput", nagocheck.Round(r.rates.WriteThroughput, 2), "B", &valueRange, ""),
		nagopher.MustNewNumericMetric("read_ios", nagocheck.Round(r.rates.ReadIOPS, 2), "", &valueRange, ""),
		nagopher.MustNewNumericMetric("write_ios", nagocheck.Round(r.rates.WriteIOPS, 2), "", &valueRange, ""),
		nagopher.MustNewNumericMetric("utilization", nagocheck.Round(r.rates.Utilization, 2), "%", &valueRange, ""),
	)

	if r.rates.HasLatency {
		metrics = append(metrics,
			nagopher.MustNewNumericMetric("latency", nagocheck.Round(r.rates.Latency, 3), "ms", &valueRange, ""))
	}

	return metrics, nil
}

func (r *ioResource) Collect() error {
	plugin := r.ThisPlugin()

	stats, err := plugin.collector.IOCounters()
	if err != nil {
		return fmt.Errorf("could not read disk counters: %s", err.Error())
	}

	diskCounters, err := selectDisk(stats, plugin.Item, plugin.ExcludePattern)
	if err != nil {
		return err
	}

	tracker := counters.NewTracker(
		valuestore.Scoped(r.Store(), "diskio."+plugin.Item),
		counters.TrackerLogger(r.Logger().WithField("disk", plugin.Item)),
	)

	timestamp := float64(r.Now().UnixNano()) / float64(time.Second)
	r.rates, err = computeDiskRates(tracker, timestamp, diskCounters, plugin.Average)
	return err
}

func (r *ioResource) ThisPlugin() *ioPlugin {
	return r.Resource.Plugin().(*ioPlugin)
}

func describeIOState(rates diskRates) string {
	switch {
	case rates.Initializing:
		return "initializing counters"
	case rates.Skipped:
		return "no time passed since last check, skipping rates"
	}

	return "counters ok"
}

// ioWarnings returns the messages which should be attached as warnings to the check result
func ioWarnings(item string, rates diskRates) (warnings []string) {
	if rates.Skipped {
		warnings = append(warnings, fmt.Sprintf("disk [%s]: %s", item, describeIOState(rates)))
	}

	return warnings
}

func newIOSummarizer(plugin *ioPlugin) *ioSummarizer {
	return &ioSummarizer{
		Summarizer: nagocheck.NewSummarizer(plugin),
	}
}

func (s *ioSummarizer) Ok(check nagopher.Check) string {
	readThroughput := s.NumericValue(check, "read_throughput")
	if math.IsNaN(readThroughput) {
		return s.StringValue(check, "info_state", "N/A")
	}

	return fmt.Sprintf("read %s, write %s, utilization %.2f%%",
		nagocheck.FormatRate(readThroughput),
		nagocheck.FormatRate(s.NumericValue(check, "write_throughput")),
		s.NumericValue(check, "utilization"),
	)
}
