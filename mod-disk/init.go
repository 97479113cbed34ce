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
	"github.com/shirou/gopsutil/disk"
	"github.com/snapserv/nagodisk/nagocheck"
)

type diskModule struct {
	nagocheck.Module
}

// Collector provides the raw disk statistics consumed by the plugins of this module
type Collector interface {
	IOCounters() (map[string]disk.IOCountersStat, error)
	Usage(path string) (*disk.UsageStat, error)
}

type systemCollector struct{}

// NewDiskModule instantiates the disk module and all its plugins
func NewDiskModule() nagocheck.Module {
	return &diskModule{
		Module: nagocheck.NewModule("disk",
			nagocheck.ModuleDescription("Disk"),
			nagocheck.ModulePlugin(newIOPlugin(systemCollector{})),
			nagocheck.ModulePlugin(newUsagePlugin(systemCollector{})),
		),
	}
}

func (systemCollector) IOCounters() (map[string]disk.IOCountersStat, error) {
	return disk.IOCounters()
}

func (systemCollector) Usage(path string) (*disk.UsageStat, error) {
	return disk.Usage(path)
}
