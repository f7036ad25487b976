package ratbag

// Snapshot is a value copy of every persisted attribute, enough to
// assert that probing a device twice produces the same model without
// needing real hardware in tests.
type Snapshot struct {
	ActiveProfile int
	Profiles      []ProfileSnapshot
}

// ProfileSnapshot mirrors one Profile's persisted state.
type ProfileSnapshot struct {
	Enabled       bool
	Name          string
	PollingRateHz int
	DebounceMs    int
	AngleSnapping int
	Resolutions   []ResolutionSnapshot
	Buttons       []ButtonSnapshot
	LEDs          []LEDSnapshot
}

// ResolutionSnapshot mirrors one Resolution's persisted state.
type ResolutionSnapshot struct {
	XDPI, YDPI      int
	Active, Default bool
	Disabled        bool
}

// ButtonSnapshot mirrors one Button's persisted state.
type ButtonSnapshot struct {
	Action Action
}

// LEDSnapshot mirrors one LED's persisted state.
type LEDSnapshot struct {
	Mode       LEDMode
	Color      Color
	Brightness byte
	DurationMs int
}

// Snapshot captures d's current persisted state.
func (d *Device) Snapshot() Snapshot {
	s := Snapshot{ActiveProfile: d.ActiveProfileIndex(), Profiles: make([]ProfileSnapshot, len(d.Profiles))}
	for i, p := range d.Profiles {
		ps := ProfileSnapshot{
			Enabled:       p.Enabled,
			Name:          p.Name,
			PollingRateHz: p.PollingRateHz,
			DebounceMs:    p.DebounceMs,
			AngleSnapping: p.AngleSnapping,
			Resolutions:   make([]ResolutionSnapshot, len(p.Resolutions)),
			Buttons:       make([]ButtonSnapshot, len(p.Buttons)),
			LEDs:          make([]LEDSnapshot, len(p.LEDs)),
		}
		for j, r := range p.Resolutions {
			ps.Resolutions[j] = ResolutionSnapshot{XDPI: r.XDPI, YDPI: r.YDPI, Active: r.Active, Default: r.Default, Disabled: r.Disabled}
		}
		for j, b := range p.Buttons {
			ps.Buttons[j] = ButtonSnapshot{Action: b.Action}
		}
		for j, l := range p.LEDs {
			ps.LEDs[j] = LEDSnapshot{Mode: l.Mode, Color: l.Color, Brightness: l.Brightness, DurationMs: l.DurationMs}
		}
		s.Profiles[i] = ps
	}
	return s
}

// RestoreSnapshot overwrites d's in-memory state from s, without marking
// anything dirty — it represents a fresh read from hardware, not a
// pending caller edit. len(s.Profiles) must match len(d.Profiles).
func (d *Device) RestoreSnapshot(s Snapshot) {
	for i, p := range d.Profiles {
		ps := s.Profiles[i]
		p.Enabled = ps.Enabled
		p.Active = i == s.ActiveProfile
		p.Name = ps.Name
		p.PollingRateHz = ps.PollingRateHz
		p.DebounceMs = ps.DebounceMs
		p.AngleSnapping = ps.AngleSnapping
		p.scalarsDirty = false

		for j, r := range p.Resolutions {
			rs := ps.Resolutions[j]
			r.XDPI, r.YDPI, r.Active, r.Default, r.Disabled = rs.XDPI, rs.YDPI, rs.Active, rs.Default, rs.Disabled
			r.dirty = false
		}
		for j, b := range p.Buttons {
			b.Action = ps.Buttons[j].Action
			b.dirty = false
		}
		for j, l := range p.LEDs {
			ls := ps.LEDs[j]
			l.Mode, l.Color, l.Brightness, l.DurationMs = ls.Mode, ls.Color, ls.Brightness, ls.DurationMs
			l.dirty = false
		}
	}
}
