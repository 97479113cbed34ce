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
	"github.com/snapserv/nagopher"
	"math"
)

// Summarizer wraps a nagopher.Summarizer. Next to the plugin, it offers metric lookups which tolerate missing metrics,
// as resources skip rate and trend metrics while their counters are still initializing.
type Summarizer interface {
	nagopher.Summarizer
	Plugin() Plugin

	NumericValue(check nagopher.Check, name string) float64
	StringValue(check nagopher.Check, name string, fallback string) string
}

type pluginSummarizer struct {
	nagopher.Summarizer
	plugin Plugin
}

// NewSummarizer returns the default nagopher summarizer bound to the plugin
func NewSummarizer(plugin Plugin) Summarizer {
	return &pluginSummarizer{
		Summarizer: nagopher.NewSummarizer(),
		plugin:     plugin,
	}
}

func (s *pluginSummarizer) Plugin() Plugin {
	return s.plugin
}

// NumericValue returns the value of a numeric metric, or NaN when the check did not produce it
func (s *pluginSummarizer) NumericValue(check nagopher.Check, name string) float64 {
	return check.Results().GetNumericMetricValue(name).OrElse(math.NaN())
}

// StringValue returns the value of a string metric, or the fallback when the check did not produce it
func (s *pluginSummarizer) StringValue(check nagopher.Check, name string, fallback string) string {
	return check.Results().GetStringMetricValue(name).OrElse(fallback)
}
