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
	"io/ioutil"
	"path/filepath"
	"strconv"
	"strings"
)

const defaultSysfsRoot = "/sys/class/net"

type interfaceLink struct {
	State  string
	Speed  int
	Duplex string
}

// readInterfaceLink reads the link attributes of a network interface. Only a missing state is fatal, as speed and
// duplex are not exposed by virtual interfaces, which is why these errors get returned separately.
func readInterfaceLink(root string, name string) (link interfaceLink, errs []error) {
	var err error
	link.Speed = -1

	if link.State, err = readInterfaceState(root, name); err != nil {
		return link, []error{err}
	}
	if link.Speed, err = readInterfaceSpeed(root, name); err != nil {
		errs = append(errs, err)
	}
	if link.Duplex, err = readInterfaceDuplex(root, name); err != nil {
		errs = append(errs, err)
	}

	return link, errs
}

func readInterfaceAttribute(root string, name string, attribute string) (string, error) {
	bytes, err := ioutil.ReadFile(filepath.Join(root, name, attribute))
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(bytes)), nil
}

func readInterfaceState(root string, name string) (string, error) {
	state, err := readInterfaceAttribute(root, name, "operstate")
	if err != nil {
		return "", fmt.Errorf("interface: could not read operstate of [%s] (%s)", name, err.Error())
	}

	return strings.ToUpper(state), nil
}

func readInterfaceSpeed(root string, name string) (int, error) {
	rawSpeed, err := readInterfaceAttribute(root, name, "speed")
	if err != nil {
		return -1, fmt.Errorf("interface: could not determine interface speed (%s)", err.Error())
	}

	speed, err := strconv.ParseInt(rawSpeed, 10, strconv.IntSize)
	if err != nil {
		return -1, fmt.Errorf("interface: could not parse interface speed [%s] as integer (%s)",
			rawSpeed, err.Error())
	}

	return int(speed), nil
}

func readInterfaceDuplex(root string, name string) (string, error) {
	duplex, err := readInterfaceAttribute(root, name, "duplex")
	if err != nil {
		return "", fmt.Errorf("interface: could not determine interface duplex (%s)", err.Error())
	}

	return strings.ToUpper(duplex), nil
}
