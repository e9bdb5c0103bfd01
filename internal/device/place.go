// Package device names compute placements and maps them to backend drivers.
//
// A Place identifies where an operator runs ("custom_cpu:0", "mlu:0",
// "npu:1"). Drivers are registered by backend packages during init, in the
// style of a plugin registry, and each placement type is bound to a driver.
// The default bindings emulate the custom placements with the pure Go CPU
// driver.
package device

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Place is a device placement: a placement type and a device ordinal.
type Place struct {
	Type string
	ID   int
}

// Custom returns the placement for the given custom device type and ordinal.
func Custom(deviceType string, id int) Place {
	return Place{Type: deviceType, ID: id}
}

// ParsePlace parses "type" or "type:id".
func ParsePlace(s string) (Place, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Place{}, errors.New("empty placement")
	}
	name, ordinal, found := strings.Cut(s, ":")
	if name == "" {
		return Place{}, errors.Errorf("placement %q has no device type", s)
	}
	p := Place{Type: name}
	if found {
		id, err := strconv.Atoi(ordinal)
		if err != nil || id < 0 {
			return Place{}, errors.Errorf("placement %q has invalid device id %q", s, ordinal)
		}
		p.ID = id
	}
	return p, nil
}

// String renders the placement as "type:id".
func (p Place) String() string {
	return fmt.Sprintf("%s:%d", p.Type, p.ID)
}
