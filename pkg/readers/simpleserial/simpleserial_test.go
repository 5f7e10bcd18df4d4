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

package simpleserial

import (
	"runtime"
	"testing"
	"time"

	"github.com/EnergySign/energysign-core/pkg/config"
	"github.com/EnergySign/energysign-core/pkg/helpers"
	"github.com/EnergySign/energysign-core/pkg/readers"
	"github.com/EnergySign/energysign-core/pkg/readers/testutils"
	"github.com/EnergySign/energysign-core/pkg/service/tracks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func mockFactory(port *testutils.MockSerialPort) helpers.SerialPortFactory {
	return func(_ string, _ *serial.Mode) (helpers.SerialPort, error) {
		return port, nil
	}
}

func TestMetadata(t *testing.T) {
	t.Parallel()

	reader := NewReader()
	assert.Equal(t, "simpleserial", reader.Metadata().ID)
	assert.Equal(t, []string{"simpleserial", "simple_serial"}, reader.IDs())
}

func TestConnected_NotPolling(t *testing.T) {
	t.Parallel()

	reader := &SimpleSerialReader{}
	assert.False(t, reader.Connected())
}

func TestParseLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		line   string
		want   readers.Input
		wantOK bool
	}{
		{name: "empty line", line: ""},
		{name: "whitespace", line: "   \r"},
		{name: "unknown command", line: "SCAN\tuid=abc"},
		{name: "blank message", line: "MSG\t  "},
		{
			name:   "message",
			line:   "MSG\tHELLO WORLD\r",
			want:   readers.PayloadInput("simpleserial:/dev/ttyUSB0", []byte("HELLO WORLD")),
			wantOK: true,
		},
		{
			name: "escaped template",
			line: "MSG\t!🅰🆑BAAAHS\\n🛤",
			want: readers.PayloadInput("simpleserial:/dev/ttyUSB0",
				[]byte("!🅰🆑BAAAHS\n🛤")),
			wantOK: true,
		},
		{
			name:   "command",
			line:   "MSG\t!next",
			want:   readers.PayloadInput("simpleserial:/dev/ttyUSB0", []byte("!next")),
			wantOK: true,
		},
		{
			name:   "key",
			line:   "KEY\tA",
			want:   readers.KeyInput("simpleserial:/dev/ttyUSB0", 'A'),
			wantOK: true,
		},
		{
			name:   "space key",
			line:   "KEY\t ",
			want:   readers.KeyInput("simpleserial:/dev/ttyUSB0", ' '),
			wantOK: true,
		},
		{name: "key without char", line: "KEY"},
		{
			name:   "backspace",
			line:   "BKSP",
			want:   readers.BackspaceInput("simpleserial:/dev/ttyUSB0"),
			wantOK: true,
		},
		{
			name:   "enter",
			line:   "ENTER\r",
			want:   readers.SubmitInput("simpleserial:/dev/ttyUSB0"),
			wantOK: true,
		},
		{
			name: "track",
			line: "TRACK\tartist=Aphex Twin\ttitle=Xtal",
			want: readers.TrackInput("simpleserial:/dev/ttyUSB0",
				tracks.Track{Artist: "Aphex Twin", Title: "Xtal"}),
			wantOK: true,
		},
		{
			name:   "track clear",
			line:   "TRACK",
			want:   readers.TrackInput("simpleserial:/dev/ttyUSB0", tracks.Track{}),
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := &SimpleSerialReader{
				device: config.ReadersConnect{
					Driver: "simpleserial",
					Path:   "/dev/ttyUSB0",
				},
			}

			in, ok := r.parseLine(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, in)
			}
		})
	}
}

func TestOpen_InvalidDriver(t *testing.T) {
	t.Parallel()

	reader := NewReader()
	err := reader.Open(config.ReadersConnect{
		Driver: "mqtt",
		Path:   "/dev/ttyUSB0",
	}, testutils.CreateTestInputChannel(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid reader id")
}

func TestOpen_MissingDevice(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("device paths are not checked on windows")
	}

	reader := NewReader()
	err := reader.Open(config.ReadersConnect{
		Driver: "simpleserial",
		Path:   "/nonexistent/ttyUSB9",
	}, testutils.CreateTestInputChannel(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stat device path")
}

func TestOpen_SetReadTimeoutError(t *testing.T) {
	t.Parallel()

	mockPort := testutils.NewMockSerialPort()
	mockPort.TimeoutErr = assert.AnError

	reader := NewReader()
	reader.portFactory = mockFactory(mockPort)

	err := reader.Open(config.ReadersConnect{
		Driver: "simple_serial",
		Path:   testutils.CreateTempDevicePath(t),
	}, testutils.CreateTestInputChannel(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set read timeout")
	assert.True(t, mockPort.IsClosed())
	assert.False(t, reader.Connected())
}

func TestOpen_ForwardsInputsInOrder(t *testing.T) {
	t.Parallel()

	mockPort := testutils.NewMockSerialPort()
	mockPort.ReadData = []byte("MSG\tHELLO\nKEY\tH\nKEY\tI\nBKSP\nENTER\nnoise\nTRACK\tartist=A\ttitle=T\n")

	reader := NewReader()
	reader.portFactory = mockFactory(mockPort)

	ch := testutils.CreateTestInputChannel(t)
	devicePath := testutils.CreateTempDevicePath(t)
	err := reader.Open(config.ReadersConnect{
		Driver: "simpleserial",
		Path:   devicePath,
	}, ch)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reader.Close() })

	assert.True(t, reader.Connected())
	assert.Equal(t, devicePath, reader.Info())
	assert.Equal(t, "simpleserial:"+devicePath, reader.Device())

	var kinds []readers.InputKind
	for range 6 {
		kinds = append(kinds, testutils.AssertInputReceived(t, ch, time.Second).Kind)
	}
	assert.Equal(t, []readers.InputKind{
		readers.InputPayload,
		readers.InputKey,
		readers.InputKey,
		readers.InputBackspace,
		readers.InputSubmit,
		readers.InputTrack,
	}, kinds)
	testutils.AssertNoInput(t, ch, 50*time.Millisecond)
}

func TestOpen_LineSplitAcrossReads(t *testing.T) {
	t.Parallel()

	chunks := [][]byte{[]byte("MSG\tHEL"), []byte("LO\nMSG"), []byte("\tBYE\n")}
	mockPort := testutils.NewMockSerialPort()
	mockPort.ReadFunc = func(p []byte) (int, error) {
		if len(chunks) == 0 {
			time.Sleep(10 * time.Millisecond)
			return 0, nil
		}
		n := copy(p, chunks[0])
		chunks = chunks[1:]
		return n, nil
	}

	reader := NewReader()
	reader.portFactory = mockFactory(mockPort)

	ch := testutils.CreateTestInputChannel(t)
	require.NoError(t, reader.Open(config.ReadersConnect{
		Driver: "simpleserial",
		Path:   testutils.CreateTempDevicePath(t),
	}, ch))
	t.Cleanup(func() { _ = reader.Close() })

	assert.Equal(t, []byte("HELLO"), testutils.AssertInputReceived(t, ch, time.Second).Payload)
	assert.Equal(t, []byte("BYE"), testutils.AssertInputReceived(t, ch, time.Second).Payload)
}

func TestOpen_ReadErrorClosesPort(t *testing.T) {
	t.Parallel()

	mockPort := testutils.NewMockSerialPort()
	mockPort.ReadError = assert.AnError

	reader := NewReader()
	reader.portFactory = mockFactory(mockPort)

	ch := testutils.CreateTestInputChannel(t)
	require.NoError(t, reader.Open(config.ReadersConnect{
		Driver: "simpleserial",
		Path:   testutils.CreateTempDevicePath(t),
	}, ch))

	assert.Eventually(t, mockPort.IsClosed, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return !reader.Connected() }, time.Second, 10*time.Millisecond)
	testutils.AssertNoInput(t, ch, 50*time.Millisecond)
}

func TestClose(t *testing.T) {
	t.Parallel()

	mockPort := testutils.NewMockSerialPort()
	mockPort.CloseError = assert.AnError

	reader := &SimpleSerialReader{port: mockPort, polling: true}
	err := reader.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to close serial port")
	assert.False(t, reader.Connected())
}
