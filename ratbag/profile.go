package ratbag

import "github.com/libratbag/ratbag-go/ratbagerr"

// Profile is one indexed, named preset of all configurable state on a
// device. Exactly one profile per device is Active at steady
// state; this is enforced by Device.SetActiveProfile rather than by
// Profile itself, since activation is a whole-device operation.
type Profile struct {
	refCounted
	device *Device

	Index   int
	Enabled bool
	Active  bool
	Name    string

	PollingRateHz int
	DebounceMs    int
	AngleSnapping int

	Resolutions []*Resolution
	Buttons     []*Button
	LEDs        []*LED

	scalarsDirty bool
}

func newProfile(d *Device, index int) *Profile {
	p := &Profile{device: d, Index: index, Enabled: true}
	p.ref()
	d.ref()
	return p
}

// Ref increments p's reference count.
func (p *Profile) Ref() { p.ref() }

// Unref releases p's handle, destroying it and releasing its edge on the
// owning device when the count reaches zero.
func (p *Profile) Unref() {
	if p.unref() {
		p.device.Unref()
	}
}

// ScalarsDirty reports whether any of the profile's own scalar
// attributes (name, enabled, polling rate, debounce, angle-snapping)
// changed since the last commit. Drivers key their per-profile settings
// write off this, independent of resolution/button/LED dirtiness.
func (p *Profile) ScalarsDirty() bool { return p.scalarsDirty }

// Dirty reports whether p or any of its children changed since the last
// commit: a profile is dirty if any of its buttons/resolutions/LEDs/
// scalars is dirty or its own flags are.
func (p *Profile) Dirty() bool {
	if p.scalarsDirty {
		return true
	}
	for _, r := range p.Resolutions {
		if r.Dirty() {
			return true
		}
	}
	for _, b := range p.Buttons {
		if b.Dirty() {
			return true
		}
	}
	for _, l := range p.LEDs {
		if l.Dirty() {
			return true
		}
	}
	return false
}

// ClearDirty clears p's own and every child's dirty flag. The commit
// engine calls this only after a profile's writes succeed.
func (p *Profile) ClearDirty() {
	p.scalarsDirty = false
	for _, r := range p.Resolutions {
		r.ClearDirty()
	}
	for _, b := range p.Buttons {
		b.ClearDirty()
	}
	for _, l := range p.LEDs {
		l.ClearDirty()
	}
}

// SetName renames the profile.
func (p *Profile) SetName(name string) error {
	p.Name = name
	p.scalarsDirty = true
	return nil
}

// SetPollingRate sets the polling rate in Hz.
func (p *Profile) SetPollingRate(hz int) error {
	if hz <= 0 {
		return ratbagerr.New(ratbagerr.KindValue, "polling rate must be positive")
	}
	p.PollingRateHz = hz
	p.scalarsDirty = true
	return nil
}

// SetDebounce sets the debounce time in milliseconds.
func (p *Profile) SetDebounce(ms int) error {
	if ms < 0 {
		return ratbagerr.New(ratbagerr.KindValue, "debounce time must be non-negative")
	}
	p.DebounceMs = ms
	p.scalarsDirty = true
	return nil
}

// SetAngleSnapping sets the angle-snapping value.
func (p *Profile) SetAngleSnapping(v int) error {
	p.AngleSnapping = v
	p.scalarsDirty = true
	return nil
}

// SetEnabled toggles whether the profile participates on the device.
// Disabling requires CapDisableProfile, and the active profile may never
// be disabled.
func (p *Profile) SetEnabled(enabled bool) error {
	if !enabled {
		if p.Active {
			return ratbagerr.New(ratbagerr.KindValue, "cannot disable the active profile")
		}
		if !p.device.HasCapability(CapDisableProfile) {
			return ratbagerr.New(ratbagerr.KindUnsupported, "device does not support disabling profiles")
		}
	}
	p.Enabled = enabled
	p.scalarsDirty = true
	return nil
}
