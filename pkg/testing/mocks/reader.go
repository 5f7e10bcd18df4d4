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

package mocks

import (
	"fmt"

	"github.com/EnergySign/energysign-core/pkg/config"
	"github.com/EnergySign/energysign-core/pkg/readers"
	"github.com/stretchr/testify/mock"
)

// MockReader is a testify mock of readers.Reader.
type MockReader struct {
	mock.Mock
}

func (m *MockReader) Metadata() readers.DriverMetadata {
	args := m.Called()
	if metadata, ok := args.Get(0).(readers.DriverMetadata); ok {
		return metadata
	}
	return readers.DriverMetadata{}
}

func (m *MockReader) IDs() []string {
	args := m.Called()
	if ids, ok := args.Get(0).([]string); ok {
		return ids
	}
	return []string{}
}

func (m *MockReader) Open(device config.ReadersConnect, inputCh chan<- readers.Input) error {
	args := m.Called(device, inputCh)
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock operation failed: %w", err)
	}
	return nil
}

func (m *MockReader) Close() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock operation failed: %w", err)
	}
	return nil
}

func (m *MockReader) Device() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockReader) Connected() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockReader) Info() string {
	args := m.Called()
	return args.String(0)
}

// SimulateInput sends in as if the device had produced it.
func (*MockReader) SimulateInput(inputCh chan<- readers.Input, in readers.Input) {
	inputCh <- in
}

// NewMockReader returns a mock whose Close may or may not be called.
func NewMockReader() *MockReader {
	m := &MockReader{}
	m.On("Close").Return(nil).Maybe()
	return m
}

// SetupBasicMock configures a reader for driver that opens successfully.
func (m *MockReader) SetupBasicMock(driver string) {
	m.On("Metadata").Return(readers.DriverMetadata{
		ID:          driver,
		Description: "Mock input",
	}).Maybe()
	m.On("IDs").Return([]string{driver}).Maybe()
	m.On("Open", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("Connected").Return(true).Maybe()
	m.On("Info").Return("mock").Maybe()
}
