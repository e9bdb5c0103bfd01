// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package device names compute placements and registers the drivers that
// serve them.
//
// A custom device plugs in by registering a driver and binding its
// placement type:
//
//	func init() {
//	    device.Register("mydev", func(p device.Place) (tensor.Backend, error) {
//	        return newBackend(p.ID)
//	    })
//	    device.Bind("mydev", "mydev")
//	}
package device

import (
	"github.com/born-ml/opcheck/internal/device"
	"github.com/born-ml/opcheck/tensor"
)

// Place is a device placement: a placement type and a device ordinal.
type Place = device.Place

// Driver opens a backend for a placement.
type Driver = device.Driver

var (
	// ErrUnknownDevice is returned for placements bound to no registered driver.
	ErrUnknownDevice = device.ErrUnknownDevice
	// ErrUnavailable is returned when a driver's runtime is not present.
	ErrUnavailable = device.ErrUnavailable
)

// Custom returns the placement for the given custom device type and ordinal.
func Custom(deviceType string, id int) Place {
	return device.Custom(deviceType, id)
}

// ParsePlace parses "type" or "type:id".
func ParsePlace(s string) (Place, error) {
	return device.ParsePlace(s)
}

// Register a driver under name.
func Register(name string, driver Driver) {
	device.Register(name, driver)
}

// Bind routes placements of deviceType to the named driver.
func Bind(deviceType, driver string) {
	device.Bind(deviceType, driver)
}

// Open returns a backend for p.
func Open(p Place) (tensor.Backend, error) {
	return device.Open(p)
}

// Close releases backend resources if the backend holds any.
func Close(b tensor.Backend) {
	device.Close(b)
}

// Drivers returns the names of the registered drivers, sorted.
func Drivers() []string {
	return device.Drivers()
}
