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
	"github.com/shirou/gopsutil/net"
	"github.com/snapserv/nagodisk/counters"
	"github.com/snapserv/nagodisk/valuestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func writeSysfsAttributes(t *testing.T, root string, name string, attributes map[string]string) {
	directory := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(directory, 0755))

	for attribute, value := range attributes {
		require.NoError(t, ioutil.WriteFile(filepath.Join(directory, attribute), []byte(value+"\n"), 0644))
	}
}

func TestReadInterfaceLink(t *testing.T) {
	root, err := ioutil.TempDir("", "sysfs")
	require.NoError(t, err)
	defer os.RemoveAll(root)

	writeSysfsAttributes(t, root, "eth0", map[string]string{"operstate": "up", "speed": "1000", "duplex": "full"})
	writeSysfsAttributes(t, root, "veth0", map[string]string{"operstate": "up"})
	writeSysfsAttributes(t, root, "eth1", map[string]string{"operstate": "down", "speed": "unknown"})

	link, errs := readInterfaceLink(root, "eth0")
	assert.Empty(t, errs)
	assert.Equal(t, interfaceLink{State: "UP", Speed: 1000, Duplex: "FULL"}, link)

	link, errs = readInterfaceLink(root, "veth0")
	assert.Len(t, errs, 2)
	assert.Equal(t, interfaceLink{State: "UP", Speed: -1}, link)

	link, errs = readInterfaceLink(root, "eth1")
	assert.Len(t, errs, 2)
	assert.Equal(t, "DOWN", link.State)
	assert.Equal(t, -1, link.Speed)

	link, errs = readInterfaceLink(root, "missing0")
	assert.Len(t, errs, 1)
	assert.Empty(t, link.State)
}

func TestFindInterface(t *testing.T) {
	stats := []net.IOCountersStat{{Name: "lo"}, {Name: "eth0", BytesRecv: 42}}

	stat, err := findInterface(stats, "eth0")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), stat.BytesRecv)

	_, err = findInterface(stats, "eth1")
	assert.Error(t, err)
}

func TestComputeInterfaceRates(t *testing.T) {
	tracker := counters.NewTracker(valuestore.NewMemory())
	stat := net.IOCountersStat{Name: "eth0", BytesRecv: 1000, BytesSent: 2000, PacketsRecv: 10, PacketsSent: 20}

	rates, err := computeInterfaceRates(tracker, 50, stat)
	require.NoError(t, err)
	assert.True(t, rates.Initializing)

	stat.BytesRecv += 6000
	stat.BytesSent += 600
	stat.PacketsRecv += 60
	stat.Errin += 3
	rates, err = computeInterfaceRates(tracker, 110, stat)
	require.NoError(t, err)
	assert.False(t, rates.Initializing)
	assert.False(t, rates.Skipped)
	assert.InDelta(t, 100, rates.RxBytes, 1e-9)
	assert.InDelta(t, 10, rates.TxBytes, 1e-9)
	assert.InDelta(t, 1, rates.RxPackets, 1e-9)
	assert.Zero(t, rates.TxPackets)
	assert.InDelta(t, 0.05, rates.RxErrors, 1e-9)
	assert.Zero(t, rates.TxErrors)

	rates, err = computeInterfaceRates(tracker, 100, stat)
	require.NoError(t, err)
	assert.True(t, rates.Skipped)
}

func TestComputeInterfaceRates_CounterReset(t *testing.T) {
	tracker := counters.NewTracker(valuestore.NewMemory())

	_, err := computeInterfaceRates(tracker, 0, net.IOCountersStat{BytesRecv: 5000})
	require.NoError(t, err)

	rates, err := computeInterfaceRates(tracker, 10, net.IOCountersStat{BytesRecv: 100})
	require.NoError(t, err)
	assert.Zero(t, rates.RxBytes)
}

func TestSystemModule(t *testing.T) {
	module := NewSystemModule()

	assert.Equal(t, "system", module.Name())
	assert.Equal(t, []string{"interface"}, module.PluginNames())
}
