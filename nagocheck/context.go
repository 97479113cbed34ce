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
)

// Context wraps a nagopher.Context and remembers the plugin it was defined by
type Context interface {
	nagopher.Context
	Plugin() Plugin
}

// ThresholdPair groups a warning and critical threshold of a single metric, usually filled by ThresholdFlags
type ThresholdPair struct {
	Warning  nagopher.OptionalBounds
	Critical nagopher.OptionalBounds
}

type pluginContext struct {
	nagopher.Context
	plugin Plugin
}

type hiddenScalarContext struct {
	Context
}

// NewContext wraps the given nagopher context for the plugin
func NewContext(plugin Plugin, parentContext nagopher.Context) Context {
	return &pluginContext{
		Context: parentContext,
		plugin:  plugin,
	}
}

func (c *pluginContext) Plugin() Plugin {
	return c.plugin
}

// NewHiddenScalarContext is a subclass of the standard ScalarContext provided by nagopher. It behaves exactly the same
// in terms of representation and evaluation, however it is being suppressed in performance data.
func NewHiddenScalarContext(plugin Plugin, name string, warningThreshold *nagopher.Bounds, criticalThreshold *nagopher.Bounds) Context {
	return &hiddenScalarContext{
		Context: NewContext(plugin, nagopher.NewScalarContext(
			name, warningThreshold, criticalThreshold,
		)),
	}
}

func (c *hiddenScalarContext) Performance(metric nagopher.Metric, resource nagopher.Resource) (nagopher.OptionalPerfData, error) {
	return nagopher.OptionalPerfData{}, nil
}

// ScalarContext returns a nagopher ScalarContext evaluating the given thresholds
func (t ThresholdPair) ScalarContext(name string) nagopher.Context {
	return nagopher.NewScalarContext(name,
		nagopher.OptionalBoundsPtr(t.Warning), nagopher.OptionalBoundsPtr(t.Critical))
}

// ScalarContextWithDefault behaves like ScalarContext, but falls back to the given range specifier when no warning
// threshold was passed. The specifier must be a constant, invalid ones panic.
func (t ThresholdPair) ScalarContextWithDefault(name string, defaultWarning string) nagopher.Context {
	warningThreshold := t.Warning.OrElse(MustParseBounds(defaultWarning))
	return nagopher.NewScalarContext(name, &warningThreshold, nagopher.OptionalBoundsPtr(t.Critical))
}
