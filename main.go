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


package main

import (
	"fmt"
	"github.com/snapserv/nagodisk/mod-disk"
	"github.com/snapserv/nagodisk/mod-system"
	"github.com/snapserv/nagodisk/nagocheck"
	"gopkg.in/alecthomas/kingpin.v2"
	"os"
	"runtime"
	"strings"
)

// Build variables, automatically set during compilation
var (
	BuildVersion = "SNAPSHOT"
	BuildCommit  = "N/A"
	BuildDate    = "N/A"
)

func main() {
	modules := nagocheck.RegisterModules(
		moddisk.NewDiskModule(),
		modsystem.NewSystemModule(),
	)

	for _, module := range modules {
		moduleNode := module.DefineCommand()
		module.DefineFlags(moduleNode)
	}

	kingpin.Version(fmt.Sprintf("nagodisk, version %s (commit: %s)\nbuild date: %s, runtime: %s",
		BuildVersion, BuildCommit, BuildDate, runtime.Version()))
	kingpin.CommandLine.HelpFlag.Short('h')
	kingpin.CommandLine.VersionFlag.Short('V')

	commandParts := strings.Split(kingpin.Parse(), " ")
	if len(commandParts) != 2 {
		kingpin.Fatalf("expected module and plugin command, got [%s]", strings.Join(commandParts, " "))
	}

	module, ok := modules[commandParts[0]]
	if !ok {
		kingpin.Fatalf("module not found with name [%s]", commandParts[0])
	}

	plugin, err := module.GetPluginByName(commandParts[1])
	if err != nil {
		kingpin.Fatalf("%s", err.Error())
	}

	if err := module.ExecutePlugin(plugin); err != nil {
		nagocheck.Logger().WithError(err).Error("plugin execution failed")
		os.Exit(3)
	}
}
