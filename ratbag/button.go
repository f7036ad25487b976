package ratbag

import "github.com/libratbag/ratbag-go/ratbagerr"

// ButtonType identifies a button's physical role on the device.
type ButtonType int

const (
	ButtonUnknown ButtonType = iota
	ButtonLeft
	ButtonRight
	ButtonMiddle
	ButtonWheel
	ButtonThumb
	ButtonSide
	ButtonDPIUp
	ButtonProfileUp
)

// Button is one programmable button. Permitted restricts which
// Action kinds SetAction will accept, fixed at probe time from the
// device's capability report.
type Button struct {
	refCounted
	profile *Profile

	Index     int
	Type      ButtonType
	Permitted map[ActionKind]bool
	Action    Action

	dirty bool
}

func newButton(p *Profile, index int, typ ButtonType, permitted ...ActionKind) *Button {
	b := &Button{
		profile:   p,
		Index:     index,
		Type:      typ,
		Permitted: make(map[ActionKind]bool, len(permitted)),
		Action:    NoneAction(),
	}
	for _, k := range permitted {
		b.Permitted[k] = true
	}
	b.ref()
	p.ref()
	return b
}

// Ref increments b's reference count.
func (b *Button) Ref() { b.ref() }

// Unref releases b's handle.
func (b *Button) Unref() {
	if b.unref() {
		b.profile.Unref()
	}
}

// Dirty reports whether b's action changed since the last commit.
func (b *Button) Dirty() bool { return b.dirty }

// ClearDirty marks b as committed.
func (b *Button) ClearDirty() { b.dirty = false }

// SetAction validates a's kind against b.Permitted and, for macro
// actions, against the macro's own event-count limit (the maxEvents given
// to NewMacro), then installs
// it and marks b dirty.
func (b *Button) SetAction(a Action) error {
	if a.Kind != ActionNone && !b.Permitted[a.Kind] {
		return ratbagerr.New(ratbagerr.KindUnsupported, "action kind not permitted on this button")
	}
	if a.Kind == ActionMacro {
		if a.Macro == nil {
			return ratbagerr.New(ratbagerr.KindValue, "macro action with nil macro")
		}
		if len(a.Macro.Events) > a.Macro.maxEvents {
			return ratbagerr.New(ratbagerr.KindValue, "macro exceeds device event limit")
		}
	}
	b.Action = a
	b.dirty = true
	return nil
}
