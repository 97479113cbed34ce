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


package modsystem

import (
	"fmt"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/net"
	"github.com/snapserv/nagodisk/counters"
	"github.com/snapserv/nagodisk/nagocheck"
	"github.com/snapserv/nagodisk/valuestore"
	"github.com/snapserv/nagopher"
	"math"
	"strings"
	"time"
)

type interfacePlugin struct {
	nagocheck.Plugin
	collector Collector

	Name           string
	SpeedRange     nagopher.OptionalBounds
	ExpectedDuplex []string

	RxThroughput nagocheck.ThresholdPair
	TxThroughput nagocheck.ThresholdPair
	Errors       nagocheck.ThresholdPair
}

type interfaceResource struct {
	nagocheck.Resource

	link  interfaceLink
	rates interfaceRates
}

type interfaceSummarizer struct {
	nagocheck.Summarizer
}

type interfaceRates struct {
	Initializing bool
	Skipped      bool

	RxBytes   float64
	TxBytes   float64
	RxPackets float64
	TxPackets float64
	RxErrors  float64
	TxErrors  float64
	RxDrops   float64
	TxDrops   float64
}

func newInterfacePlugin(collector Collector) *interfacePlugin {
	return &interfacePlugin{
		Plugin: nagocheck.NewPlugin("interface",
			nagocheck.PluginDescription("Network Interface"),
			nagocheck.PluginDefaultThresholds(false),
		),
		collector: collector,
	}
}

func (p *interfacePlugin) DefineFlags(node nagocheck.KingpinNode) {
	nagocheck.NagopherBoundsVar(node.Flag("speed",
		"Interface speed threshold formatted as Nagios range specifier.").Short('s'), &p.SpeedRange)

	node.Flag("duplex", "Return WARNING state when interface duplex does not match (e.g.: half, full).").
		Short('d').
		HintOptions("half", "full").
		StringsVar(&p.ExpectedDuplex)

	nagocheck.ThresholdFlags(node, "rx", "receive throughput in bytes per second", &p.RxThroughput)
	nagocheck.ThresholdFlags(node, "tx", "transmit throughput in bytes per second", &p.TxThroughput)
	nagocheck.ThresholdFlags(node, "errors", "errors per second and direction (default warning: ~:0)", &p.Errors)

	node.Arg("name", "Name of network interface.").
		Required().
		StringVar(&p.Name)
}

func (p *interfacePlugin) DefineCheck() nagopher.Check {
	expectedDuplex := make([]string, 0, len(p.ExpectedDuplex))
	for _, duplex := range p.ExpectedDuplex {
		expectedDuplex = append(expectedDuplex, strings.ToUpper(duplex))
	}

	check := nagopher.NewCheck("interface", newInterfaceSummarizer(p))
	check.AttachResources(newInterfaceResource(p))
	check.AttachContexts(
		nagopher.NewStringMatchContext("state", nagopher.StateCritical(), []string{"UP"}),
		nagopher.NewStringMatchContext("duplex", nagopher.StateWarning(), expectedDuplex),
		nagopher.NewScalarContext("speed", nagopher.OptionalBoundsPtr(p.SpeedRange), nil),

		p.RxThroughput.ScalarContext("rx_throughput"),
		p.TxThroughput.ScalarContext("tx_throughput"),
		nagopher.NewScalarContext("rx_packets", nil, nil),
		nagopher.NewScalarContext("tx_packets", nil, nil),
		p.Errors.ScalarContextWithDefault("rx_errors", "~:0"),
		p.Errors.ScalarContextWithDefault("tx_errors", "~:0"),
		nagopher.NewScalarContext("rx_drops", nil, nil),
		nagopher.NewScalarContext("tx_drops", nil, nil),
	)

	return check
}

func newInterfaceResource(plugin *interfacePlugin) *interfaceResource {
	return &interfaceResource{
		Resource: nagocheck.NewResource(plugin,
			nagocheck.ResourcePersistence(plugin.Name),
		),
	}
}

func (r *interfaceResource) Probe(warnings nagopher.WarningCollection) (metrics []nagopher.Metric, _ error) {
	if err := r.Collect(warnings); err != nil {
		return metrics, err
	}

	valueRange := nagopher.NewBounds(nagopher.BoundsOpt(nagopher.LowerBound(0)))
	metrics = append(metrics,
		nagopher.MustNewStringMetric("state", r.link.State, ""),
		nagopher.MustNewStringMetric("duplex", r.link.Duplex, ""),
	)

	if r.link.Speed >= 0 {
		metrics = append(metrics, nagopher.MustNewNumericMetric("speed", float64(r.link.Speed), "M", nil, ""))
	}

	if r.rates.Initializing || r.rates.Skipped {
		return metrics, nil
	}

	metrics = append(metrics,
		nagopher.MustNewNumericMetric("rx_throughput", nagocheck.Round(r.rates.RxBytes, 2), "B", &valueRange, ""),
		nagopher.MustNewNumericMetric("tx_throughput", nagocheck.Round(r.rates.TxBytes, 2), "B", &valueRange, ""),
		nagopher.MustNewNumericMetric("rx_packets", nagocheck.Round(r.rates.RxPackets, 2), "", &valueRange, ""),
		nagopher.MustNewNumericMetric("tx_packets", nagocheck.Round(r.rates.TxPackets, 2), "", &valueRange, ""),
		nagopher.MustNewNumericMetric("rx_errors", nagocheck.Round(r.rates.RxErrors, 4), "", &valueRange, ""),
		nagopher.MustNewNumericMetric("tx_errors", nagocheck.Round(r.rates.TxErrors, 4), "", &valueRange, ""),
		nagopher.MustNewNumericMetric("rx_drops", nagocheck.Round(r.rates.RxDrops, 4), "", &valueRange, ""),
		nagopher.MustNewNumericMetric("tx_drops", nagocheck.Round(r.rates.TxDrops, 4), "", &valueRange, ""),
	)

	return metrics, nil
}

func (r *interfaceResource) Collect(warnings nagopher.WarningCollection) error {
	plugin := r.ThisPlugin()

	link, errs := plugin.collector.Link(plugin.Name)
	if len(errs) > 0 && link.State == "" {
		return errs[0]
	}
	for _, err := range errs {
		warnings.Add(nagopher.NewWarning(err.Error()))
	}
	r.link = link

	stats, err := plugin.collector.IOCounters()
	if err != nil {
		return fmt.Errorf("interface: could not read network counters (%s)", err.Error())
	}

	stat, err := findInterface(stats, plugin.Name)
	if err != nil {
		return err
	}

	tracker := counters.NewTracker(
		valuestore.Scoped(r.Store(), "interface."+plugin.Name),
		counters.TrackerLogger(r.Logger().WithField("interface", plugin.Name)),
	)

	timestamp := float64(r.Now().UnixNano()) / float64(time.Second)
	r.rates, err = computeInterfaceRates(tracker, timestamp, stat)
	return err
}

func (r *interfaceResource) ThisPlugin() *interfacePlugin {
	return r.Resource.Plugin().(*interfacePlugin)
}

func findInterface(stats []net.IOCountersStat, name string) (net.IOCountersStat, error) {
	for _, stat := range stats {
		if stat.Name == name {
			return stat, nil
		}
	}

	return net.IOCountersStat{}, fmt.Errorf("interface: no counters found for [%s]", name)
}

// computeInterfaceRates passes every counter of both directions through the rate tracker
func computeInterfaceRates(tracker *counters.Tracker, timestamp float64, stat net.IOCountersStat) (interfaceRates, error) {
	var rates interfaceRates

	for _, counter := range []struct {
		name   string
		value  uint64
		target *float64
	}{
		{"rx.bytes", stat.BytesRecv, &rates.RxBytes},
		{"tx.bytes", stat.BytesSent, &rates.TxBytes},
		{"rx.packets", stat.PacketsRecv, &rates.RxPackets},
		{"tx.packets", stat.PacketsSent, &rates.TxPackets},
		{"rx.errors", stat.Errin, &rates.RxErrors},
		{"tx.errors", stat.Errout, &rates.TxErrors},
		{"rx.drops", stat.Dropin, &rates.RxDrops},
		{"tx.drops", stat.Dropout, &rates.TxDrops},
	} {
		rate, err := tracker.Rate(counter.name, timestamp, float64(counter.value))
		switch errors.Cause(err) {
		case nil:
			*counter.target = rate
		case counters.ErrNoData:
			rates.Initializing = true
		case counters.ErrInvalidInterval:
			rates.Skipped = true
		default:
			return rates, errors.Wrapf(err, "could not compute rate of %s", counter.name)
		}
	}

	return rates, nil
}

func newInterfaceSummarizer(plugin *interfacePlugin) *interfaceSummarizer {
	return &interfaceSummarizer{
		Summarizer: nagocheck.NewSummarizer(plugin),
	}
}

func (s *interfaceSummarizer) Ok(check nagopher.Check) string {
	interfaceState := s.StringValue(check, "state", "N/A")
	interfaceDuplex := s.StringValue(check, "duplex", "N/A")

	interfaceSpeed := "N/A"
	if speed := s.NumericValue(check, "speed"); !math.IsNaN(speed) {
		interfaceSpeed = fmt.Sprintf("%.0fM", speed)
	}

	summary := fmt.Sprintf("State:%s Speed:%s Duplex:%s", interfaceState, interfaceSpeed, interfaceDuplex)
	if rx := s.NumericValue(check, "rx_throughput"); !math.IsNaN(rx) {
		summary += fmt.Sprintf(" RX:%s TX:%s", nagocheck.FormatRate(rx),
			nagocheck.FormatRate(s.NumericValue(check, "tx_throughput")))
	}

	return summary
}
