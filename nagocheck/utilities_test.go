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
	"github.com/snapserv/nagodisk/valuestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"testing"
	"time"
)

func TestRound(t *testing.T) {
	assert.InDelta(t, 15.71, Round(15.707620528771386, 2), 1e-9)
	assert.InDelta(t, -4469.02, Round(-4469.024458823538, 2), 1e-9)
	assert.Equal(t, 7.0, Round(7.4, 0))
}

func TestDurationString(t *testing.T) {
	assert.Equal(t, "7s", DurationString(7*time.Second+300*time.Millisecond))
	assert.Equal(t, "1h0m0s", DurationString(time.Hour))
	assert.Equal(t, "1d2h0m0s", DurationString(26*time.Hour))
	assert.Equal(t, "1d", DurationString(24*time.Hour))
	assert.Equal(t, "7d", DurationString(7*24*time.Hour+400*time.Millisecond))
	assert.Equal(t, "0s", DurationString(0))
}

func TestFormatBinarySize(t *testing.T) {
	tests := map[float64]string{
		0:                               "0B",
		42:                              "42B",
		1024 * 1024 * 512:               "512.00M",
		10342.4 * 1024 * 1024:           "10342.40M",
		200 * 1024 * 1024 * 1024 * 1024: "200.00T",
		-1024 * 1024 * 200:              "-200.00M",
	}

	for size, expected := range tests {
		assert.Equal(t, expected, FormatBinarySize(size))
	}

	assert.Equal(t, "N/A", FormatBinarySize(math.NaN()))
}

func TestFormatSignedBinarySize(t *testing.T) {
	assert.Equal(t, "+200.00M", FormatSignedBinarySize(1024*1024*200))
	assert.Equal(t, "-200.00M", FormatSignedBinarySize(-1024*1024*200))
	assert.Equal(t, "+0B", FormatSignedBinarySize(0))
	assert.Equal(t, "N/A", FormatSignedBinarySize(math.NaN()))
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "150.00K/s", FormatRate(150*1024))
	assert.Equal(t, "N/A", FormatRate(math.NaN()))
}

func TestModule_Plugins(t *testing.T) {
	io := NewPlugin("io", PluginDescription("Disk IO"))
	usage := NewPlugin("usage")
	module := NewModule("disk", ModuleDescription("Disk"), ModulePlugin(usage), ModulePlugin(io))

	modules := RegisterModules(module)
	require.Contains(t, modules, "disk")
	assert.Equal(t, "Disk", module.Description())
	assert.Equal(t, []string{"io", "usage"}, module.PluginNames())
	assert.Equal(t, module, io.Module())
	assert.Equal(t, "Disk IO", io.Description())
	assert.Equal(t, "usage", usage.Description())

	plugin, err := module.GetPluginByName("usage")
	require.NoError(t, err)
	assert.Equal(t, usage, plugin)

	_, err = module.GetPluginByName("memory")
	assert.Error(t, err)
}

func TestPlugin_Options(t *testing.T) {
	plugin := NewPlugin("zfs", PluginForceVerbose(true))
	assert.True(t, plugin.VerboseOutput())
	assert.False(t, plugin.DebugOutput())
}

func TestResource_InMemoryStore(t *testing.T) {
	resource := NewResource(NewPlugin("usage"))

	require.NoError(t, resource.Store().Set("key", 1))
	var value int
	found, err := resource.Store().Get("key", &value)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, value)
}

func TestResource_InjectedStoreAndClock(t *testing.T) {
	store := valuestore.NewMemory()
	now := time.Unix(581792400, 0)
	resource := NewResource(NewPlugin("usage"),
		ResourcePersistence("/var"),
		ResourceStore(store),
		ResourceClock(func() time.Time { return now }),
	)

	assert.Equal(t, now, resource.Now())
	assert.Equal(t, store, resource.Store())
}

func TestResourcePersistence_KeysAreDistinct(t *testing.T) {
	persistenceKey := func(uniqueKey string) string {
		return NewResource(NewPlugin("usage"), ResourcePersistence(uniqueKey)).(*baseResource).persistenceKey
	}

	assert.Equal(t, ".nagodisk-usage-/var/lib", persistenceKey("/var/lib"))
	assert.NotEqual(t, persistenceKey("/Data"), persistenceKey("/data"))
	assert.NotEqual(t, persistenceKey("/var/lib"), persistenceKey("/var_lib"))
}
