package ratbag

import "github.com/libratbag/ratbag-go/ratbagerr"

// DPIRange is an inclusive (min, max) range with a step granularity, used
// by devices that support arbitrary DPI within bounds rather than a fixed
// enumerated list.
type DPIRange struct {
	Min, Max, Step int
}

// Contains reports whether dpi is a value this range permits.
func (r DPIRange) Contains(dpi int) bool {
	if dpi < r.Min || dpi > r.Max {
		return false
	}
	if r.Step <= 1 {
		return true
	}
	return (dpi-r.Min)%r.Step == 0
}

// Resolution is one DPI step in a profile's fixed-size table.
// Exactly one of DPIList or DPIRange describes what values XDPI/YDPI may
// take; the zero value of DPIRange (Max==0) means "range unset, use
// DPIList".
type Resolution struct {
	refCounted
	profile *Profile

	Index    int
	XDPI     int
	YDPI     int
	Active   bool
	Default  bool
	Disabled bool

	DPIList  []int
	DPIRange DPIRange

	dirty bool
}

func newResolution(p *Profile, index int, list []int, rng DPIRange) *Resolution {
	r := &Resolution{profile: p, Index: index, DPIList: list, DPIRange: rng}
	r.ref()
	p.ref()
	return r
}

// Ref increments r's reference count.
func (r *Resolution) Ref() { r.ref() }

// Unref releases r's handle.
func (r *Resolution) Unref() {
	if r.unref() {
		r.profile.Unref()
	}
}

// Dirty reports whether r changed since the last commit.
func (r *Resolution) Dirty() bool { return r.dirty }

// ClearDirty marks r as committed.
func (r *Resolution) ClearDirty() { r.dirty = false }

func (r *Resolution) valid(dpi int) bool {
	if len(r.DPIList) > 0 {
		for _, v := range r.DPIList {
			if v == dpi {
				return true
			}
		}
		return false
	}
	return r.DPIRange.Contains(dpi)
}

// SetDPI sets both axes to the same value. dpi=0 disables the step if the
// device advertises CapResolutionDisable; any other
// value outside the device's list/range returns ratbagerr.Value.
func (r *Resolution) SetDPI(dpi int) error {
	if dpi == 0 {
		if !r.profile.device.HasCapability(CapResolutionDisable) {
			return ratbagerr.New(ratbagerr.KindValue, "dpi=0 not supported by device")
		}
		r.XDPI, r.YDPI, r.Disabled = 0, 0, true
		r.dirty = true
		return nil
	}
	if !r.valid(dpi) {
		return ratbagerr.New(ratbagerr.KindValue, "dpi out of range")
	}
	r.XDPI, r.YDPI, r.Disabled = dpi, dpi, false
	r.dirty = true
	return nil
}

// SetDPIXY sets independent x/y DPI. Requires CapSeparateXYResolution.
func (r *Resolution) SetDPIXY(x, y int) error {
	if !r.profile.device.HasCapability(CapSeparateXYResolution) {
		return ratbagerr.New(ratbagerr.KindUnsupported, "separate-xy dpi not supported by device")
	}
	if !r.valid(x) || !r.valid(y) {
		return ratbagerr.New(ratbagerr.KindValue, "dpi out of range")
	}
	r.XDPI, r.YDPI, r.Disabled = x, y, false
	r.dirty = true
	return nil
}

// SetActive marks r as the step currently in use, clearing Active on
// every other resolution step in the profile. Rejects a disabled step.
func (r *Resolution) SetActive() error {
	if r.Disabled {
		return ratbagerr.New(ratbagerr.KindValue, "cannot activate a disabled resolution step")
	}
	for _, other := range r.profile.Resolutions {
		if other.Active && other != r {
			other.Active = false
			other.dirty = true
		}
	}
	r.Active = true
	r.dirty = true
	return nil
}

// SetDefault marks r as the step the device selects on entering the
// profile, clearing Default on every other step.
func (r *Resolution) SetDefault() error {
	if r.Disabled {
		return ratbagerr.New(ratbagerr.KindValue, "cannot default to a disabled resolution step")
	}
	for _, other := range r.profile.Resolutions {
		if other.Default && other != r {
			other.Default = false
			other.dirty = true
		}
	}
	r.Default = true
	r.dirty = true
	return nil
}
