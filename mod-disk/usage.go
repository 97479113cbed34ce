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
	"github.com/snapserv/nagodisk/valuestore"
	"github.com/snapserv/nagopher"
	"time"
)

type usagePlugin struct {
	nagocheck.Plugin
	collector Collector

	MountPoint   string
	TrendRange   time.Duration
	TrendSamples int

	UsedBytes    nagocheck.ThresholdPair
	Trend        nagocheck.ThresholdPair
	TrendPercent nagocheck.ThresholdPair
	TimeLeft     nagocheck.ThresholdPair
}

type usageResource struct {
	nagocheck.Resource

	report usageReport
}

type usageSummarizer struct {
	nagocheck.Summarizer
}

func newUsagePlugin(collector Collector) *usagePlugin {
	return &usagePlugin{
		Plugin: nagocheck.NewPlugin("usage",
			nagocheck.PluginDescription("Filesystem Usage and Trend"),
		),
		collector: collector,
	}
}

func (p *usagePlugin) DefineFlags(node nagocheck.KingpinNode) {
	node.Arg("mountpoint", "Mount point of the filesystem.").
		Required().StringVar(&p.MountPoint)

	node.Flag("trend-range", "Lookback window of the trend computation, growth is extrapolated over the same period.").
		Short('r').Default(trend.DefaultRange.String()).DurationVar(&p.TrendRange)

	node.Flag("trend-samples", "Maximum amount of samples kept for the trend computation.").
		Default(fmt.Sprintf("%d", trend.DefaultMaxSamples)).IntVar(&p.TrendSamples)

	nagocheck.ThresholdFlags(node, "used", "used space in bytes", &p.UsedBytes)
	nagocheck.ThresholdFlags(node, "trend", "growth in bytes over the trend range", &p.Trend)
	nagocheck.ThresholdFlags(node, "trend-percent", "growth over the trend range in percent of the size",
		&p.TrendPercent)
	nagocheck.ThresholdFlags(node, "timeleft", "hours left until the filesystem is full", &p.TimeLeft)
}

func (p *usagePlugin) DefineCheck() nagopher.Check {
	check := nagopher.NewCheck("usage", newUsageSummarizer(p))
	check.AttachResources(newUsageResource(p))
	check.AttachContexts(
		nagopher.NewScalarContext(
			"usage",
			nagopher.OptionalBoundsPtr(p.WarningThreshold()),
			nagopher.OptionalBoundsPtr(p.CriticalThreshold()),
		),
		p.UsedBytes.ScalarContext("used"),
		nagopher.NewScalarContext("size", nil, nil),
		nagopher.NewStringMatchContext("fill_state", nagopher.StateCritical(), []string{fillStateAvailable}),

		nagocheck.NewHiddenScalarContext(p, "growth", nil, nil),
		p.Trend.ScalarContext("trend"),
		p.TrendPercent.ScalarContext("trend_percent"),
		p.TimeLeft.ScalarContext("timeleft"),
		nagopher.NewStringInfoContext("info_trend"),
	)

	return check
}

func (p *usagePlugin) trendConfig() trend.Config {
	return trend.Config{
		Range:      p.TrendRange,
		MaxSamples: p.TrendSamples,
	}
}

func newUsageResource(plugin *usagePlugin, options ...nagocheck.ResourceOpt) *usageResource {
	options = append([]nagocheck.ResourceOpt{nagocheck.ResourcePersistence(plugin.MountPoint)}, options...)
	return &usageResource{
		Resource: nagocheck.NewResource(plugin, options...),
	}
}

func (r *usageResource) Setup(warnings nagopher.WarningCollection) error {
	if err := r.ThisPlugin().trendConfig().Validate(); err != nil {
		return err
	}

	return r.Resource.Setup(warnings)
}

func (r *usageResource) Probe(warnings nagopher.WarningCollection) (metrics []nagopher.Metric, _ error) {
	if err := r.Collect(); err != nil {
		return metrics, err
	}

	report := r.report
	valueRange := nagopher.NewBounds(nagopher.BoundsOpt(nagopher.LowerBound(0)))
	metrics = append(metrics,
		nagopher.MustNewNumericMetric("usage", nagocheck.Round(report.UsedPercent(), 2), "%", nil, ""),
		nagopher.MustNewNumericMetric("used", report.Used, "B", &valueRange, ""),
		nagopher.MustNewNumericMetric("size", report.Size, "B", &valueRange, ""),
		nagopher.MustNewStringMetric("fill_state", report.FillState(), ""),
		nagopher.MustNewStringMetric("info_trend", describeTrend(report), ""),
	)

	// growth is zero while the trend has insufficient data, which info_trend explains
	metrics = append(metrics,
		nagopher.MustNewNumericMetric("growth", nagocheck.Round(report.GrowthPerDay(), 0), "B", nil, ""),
		nagopher.MustNewNumericMetric("trend", nagocheck.Round(report.Trend.Growth, 0), "B", nil, ""),
		nagopher.MustNewNumericMetric("trend_percent", nagocheck.Round(report.Trend.GrowthPercent, 2), "%", nil, ""),
	)

	if report.Trend.HasTimeLeft {
		metrics = append(metrics,
			nagopher.MustNewNumericMetric("timeleft", nagocheck.Round(report.Trend.TimeLeft/3600, 2), "h", &valueRange, ""))
	}

	return metrics, nil
}

func (r *usageResource) Collect() error {
	plugin := r.ThisPlugin()

	predictor, err := trend.NewPredictor(
		valuestore.Scoped(r.Store(), "usage."+plugin.MountPoint),
		plugin.trendConfig(),
		trend.PredictorLogger(r.Logger().WithField("mountpoint", plugin.MountPoint)),
	)
	if err != nil {
		return err
	}

	stat, err := plugin.collector.Usage(plugin.MountPoint)
	if err != nil {
		return fmt.Errorf("could not determine usage of [%s]: %s", plugin.MountPoint, err.Error())
	}

	r.report, err = evaluateUsage(predictor, r.Now(), float64(stat.Used), float64(stat.Used+stat.Free))
	return err
}

func (r *usageResource) ThisPlugin() *usagePlugin {
	return r.Resource.Plugin().(*usagePlugin)
}

func newUsageSummarizer(plugin *usagePlugin) *usageSummarizer {
	return &usageSummarizer{
		Summarizer: nagocheck.NewSummarizer(plugin),
	}
}

func (s *usageSummarizer) Ok(check nagopher.Check) string {
	return fmt.Sprintf("%.2f%% used (%s of %s) - %s",
		s.NumericValue(check, "usage"),
		nagocheck.FormatBinarySize(s.NumericValue(check, "used")),
		nagocheck.FormatBinarySize(s.NumericValue(check, "size")),
		s.StringValue(check, "info_trend", "trend: N/A"),
	)
}
