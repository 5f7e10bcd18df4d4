// Energy Sign Core
// Copyright (c) 2026 The Energy Sign Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Energy Sign Core.
//
// Energy Sign Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Energy Sign Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Energy Sign Core.  If not, see <http://www.gnu.org/licenses/>.

package helpers

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"go.bug.st/serial"
)

// SerialPort is the part of serial.Port the sign's serial inputs and
// display use.
type SerialPort interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
	SetReadTimeout(t time.Duration) error
}

// SerialPortFactory opens a serial port. Tests swap in a mock.
type SerialPortFactory func(path string, mode *serial.Mode) (SerialPort, error)

func OpenSerialPort(path string, mode *serial.Mode) (SerialPort, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return port, nil
}

// serialPrefixes are the device names USB serial adapters show up as.
var serialPrefixes = map[string][]string{
	"linux":   {"/dev/ttyUSB", "/dev/ttyACM"},
	"darwin":  {"/dev/tty.usbserial", "/dev/tty.usbmodem"},
	"windows": {"COM"},
}

// FilterSerialPorts keeps the ports that look like USB serial adapters on
// goos. Unknown platforms keep everything.
func FilterSerialPorts(goos string, ports []string) []string {
	prefixes, ok := serialPrefixes[goos]
	if !ok {
		return ports
	}
	devices := make([]string, 0, len(ports))
	for _, p := range ports {
		for _, prefix := range prefixes {
			if strings.HasPrefix(p, prefix) {
				devices = append(devices, p)
				break
			}
		}
	}
	return devices
}

// GetSerialDeviceList lists candidate serial devices for the sign's UART
// link and serial inputs.
func GetSerialDeviceList() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports list: %w", err)
	}
	return FilterSerialPorts(runtime.GOOS, ports), nil
}
