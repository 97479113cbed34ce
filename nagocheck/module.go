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
	"github.com/sirupsen/logrus"
	"github.com/snapserv/nagopher"
	"gopkg.in/alecthomas/kingpin.v2"
	"sort"
)

// Module consists out of several plugins and offers methods for executing them
type Module interface {
	Name() string
	Description() string
	Plugins() map[string]Plugin
	PluginNames() []string

	DefineCommand() KingpinNode
	DefineFlags(node KingpinNode)
	RegisterPlugin(plugin Plugin)
	ExecutePlugin(plugin Plugin) error
	GetPluginByName(pluginName string) (Plugin, error)
}

// ModuleOpt is a type alias for functional options used by NewModule()
type ModuleOpt func(*baseModule)

type baseModule struct {
	name        string
	description string
	plugins     map[string]Plugin
}

// RegisterModules returns a map of modules with their name as the respective key. Additionally, all plugins contained
// by these modules are being registered to their respective module using Plugin.setModule()
func RegisterModules(modules ...Module) map[string]Module {
	result := make(map[string]Module)
	for _, module := range modules {
		result[module.Name()] = module
		for _, plugin := range module.Plugins() {
			plugin.setModule(module)
		}
	}

	return result
}

// NewModule instantiates baseModule with the given functional options
func NewModule(name string, options ...ModuleOpt) Module {
	module := &baseModule{
		name:        name,
		description: name,
		plugins:     make(map[string]Plugin),
	}

	for _, option := range options {
		option(module)
	}

	return module
}

// ModuleDescription is a functional option for NewModule(), which sets the module description
func ModuleDescription(description string) ModuleOpt {
	return func(m *baseModule) {
		m.description = description
	}
}

// ModulePlugin is a functional option for NewModule(), which registers a plugin using Module.RegisterPlugin()
func ModulePlugin(plugin Plugin) ModuleOpt {
	return func(m *baseModule) {
		m.RegisterPlugin(plugin)
	}
}

func (m *baseModule) RegisterPlugin(plugin Plugin) {
	m.plugins[plugin.Name()] = plugin
}

// DefineCommand registers the module as kingpin command, with one sub-command per plugin. Plugins are registered in
// lexical order, so that the help output stays stable.
func (m *baseModule) DefineCommand() KingpinNode {
	moduleNode := kingpin.Command(m.name, "Check Module: "+m.description)

	for _, pluginName := range m.PluginNames() {
		plugin := m.plugins[pluginName]
		pluginDescription := fmt.Sprintf("%s: %s", m.description, plugin.Description())
		pluginNode := moduleNode.Command(plugin.Name(), pluginDescription)

		plugin.defineDefaultFlags(pluginNode)
		plugin.DefineFlags(pluginNode)
	}

	return moduleNode
}

func (m *baseModule) DefineFlags(node KingpinNode) {
}

// ExecutePlugin runs the check of the given plugin with the nagopher runtime and exits with the according exit code
func (m *baseModule) ExecutePlugin(plugin Plugin) error {
	if plugin.DebugOutput() {
		Logger().SetLevel(logrus.DebugLevel)
	}

	Logger().WithFields(logrus.Fields{
		"module": m.name,
		"plugin": plugin.Name(),
	}).Debug("executing plugin")

	check := plugin.DefineCheck()
	runtime := nagopher.NewRuntime(plugin.VerboseOutput())
	runtime.ExecuteAndExit(check)

	return nil
}

func (m *baseModule) GetPluginByName(pluginName string) (Plugin, error) {
	plugin, ok := m.plugins[pluginName]
	if !ok {
		return nil, fmt.Errorf("plugin not found with name [%s]", pluginName)
	}

	return plugin, nil
}

func (m baseModule) Name() string {
	return m.name
}

func (m baseModule) Description() string {
	return m.description
}

func (m baseModule) Plugins() map[string]Plugin {
	return m.plugins
}

func (m baseModule) PluginNames() []string {
	names := make([]string, 0, len(m.plugins))
	for name := range m.plugins {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}
