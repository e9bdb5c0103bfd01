package opcheck

import (
	"strings"

	"github.com/pkg/errors"
)

// Mode selects how an operator is executed.
type Mode int

const (
	// Eager applies the operator directly to in-memory tensors.
	Eager Mode = iota
	// Graph builds a static program, then feeds, executes and fetches it.
	Graph
)

// AllModes lists every execution mode.
var AllModes = []Mode{Eager, Graph}

func (m Mode) String() string {
	switch m {
	case Eager:
		return "eager"
	case Graph:
		return "graph"
	default:
		return "unknown"
	}
}

// ParseMode parses "eager" (or "dygraph") and "graph" (or "static").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "eager", "dygraph":
		return Eager, nil
	case "graph", "static":
		return Graph, nil
	}
	return 0, errors.Errorf("unknown execution mode %q", s)
}

// ParseModes parses a list of mode names.
func ParseModes(names []string) ([]Mode, error) {
	modes := make([]Mode, 0, len(names))
	for _, name := range names {
		m, err := ParseMode(name)
		if err != nil {
			return nil, err
		}
		modes = append(modes, m)
	}
	return modes, nil
}
