package ratbag

import "github.com/libratbag/ratbag-go/ratbagerr"

// MacroEventKind discriminates a Macro event.
type MacroEventKind int

const (
	MacroKeyPressed MacroEventKind = iota
	MacroKeyReleased
	MacroWait
)

// MacroEvent is one entry in a Macro's event sequence. Code is only
// meaningful for MacroKeyPressed/MacroKeyReleased; WaitMs only for
// MacroWait.
type MacroEvent struct {
	Kind   MacroEventKind
	Code   int
	WaitMs int
}

// Macro is an ordered list of key press/release events with inter-event
// waits. maxEvents bounds the device's memory for one macro;
// Name may be truncated by a driver to the device's name-length limit.
type Macro struct {
	Name      string
	Group     string
	Events    []MacroEvent
	maxEvents int
}

// NewMacro creates an empty macro bounded to maxEvents events.
func NewMacro(name string, maxEvents int) *Macro {
	return &Macro{Name: name, maxEvents: maxEvents}
}

// Append adds e to the macro. A leading wait is dropped rather than
// stored, and a wait adjacent to a previous wait is coalesced into it by
// summing durations, so neither shape ever reaches a wire encoder.
// Returns a value error if the event budget is exhausted.
func (m *Macro) Append(e MacroEvent) error {
	if e.Kind == MacroWait {
		if len(m.Events) == 0 {
			return nil
		}
		last := &m.Events[len(m.Events)-1]
		if last.Kind == MacroWait {
			last.WaitMs += e.WaitMs
			return nil
		}
	}
	if len(m.Events) >= m.maxEvents {
		return ratbagerr.New(ratbagerr.KindValue, "macro event count exceeds device limit")
	}
	m.Events = append(m.Events, e)
	return nil
}

// TruncateName clamps Name to at most maxLen bytes, reporting whether it
// changed anything. Drivers call this after a successful commit writes a
// device-truncated name, so the in-memory model matches hardware.
func (m *Macro) TruncateName(maxLen int) bool {
	if len(m.Name) <= maxLen {
		return false
	}
	m.Name = m.Name[:maxLen]
	return true
}
