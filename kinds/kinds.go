// Package kinds classifies the elements of a state machine. A kind carries its own bit plus the
// bits of every base it was made from, so membership tests are a single mask.
package kinds

import (
	"slices"
	"strings"
)

var names = map[uint64]string{}

// Make returns a new kind derived from bases. Each call consumes one bit.
func Make(name string, bases ...uint64) uint64 {
	kind := uint64(1) << len(names)
	for _, base := range bases {
		kind |= base
	}
	names[kind] = name
	return kind
}

// IsKind reports whether kind is, or derives from, any of bases.
func IsKind(kind uint64, bases ...uint64) bool {
	for _, base := range bases {
		if base != 0 && kind&base == base {
			return true
		}
	}
	return false
}

// Name returns the name kind was made with, or the names of the kinds it derives from.
func Name(kind uint64) string {
	if name, ok := names[kind]; ok {
		return name
	}
	var matched []string
	for base, name := range names {
		if IsKind(kind, base) {
			matched = append(matched, name)
		}
	}
	slices.Sort(matched)
	return strings.Join(matched, "|")
}

var (
	Element         = Make("element")
	Machine         = Make("machine", Element)
	State           = Make("state", Element)
	Transition      = Make("transition", Element)
	Event           = Make("event", Element)
	GlobalEvent     = Make("global_event", Event)
	StateEvent      = Make("state_event", Event)
	TransitionEvent = Make("transition_event", Event)
)
