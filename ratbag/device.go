package ratbag

import (
	"sync"

	"github.com/libratbag/ratbag-go/ratbagerr"
	"github.com/libratbag/ratbag-go/transport"
)

// DeviceIdentity is the stable (bus, vendor, product[, version]) tuple
// the registry and data store match drivers against.
type DeviceIdentity struct {
	Bus     uint32
	Vendor  uint16
	Product uint16
	Version uint16
}

// DeviceState reflects whether the device answered its last liveness
// check.
type DeviceState int

const (
	StateReady DeviceState = iota
	StateNotReady
)

// ButtonSpec describes one button slot shared by every profile on a
// device, fixed at probe time.
type ButtonSpec struct {
	Type      ButtonType
	Permitted []ActionKind
}

// ResolutionSpec describes one resolution-step slot shared by every
// profile on a device.
type ResolutionSpec struct {
	DPIList  []int
	DPIRange DPIRange
}

// LEDSpec describes one LED slot shared by every profile on a device.
type LEDSpec struct {
	Type LEDType
}

// Device is the root of the object graph. Descendants hold a
// strong reference to it (see refCounted), so it outlives any child
// observable by a caller.
type Device struct {
	refCounted
	mu sync.Mutex

	identity DeviceIdentity
	Name     string
	Firmware string

	DriverName string
	driver     Driver
	Transport  transport.Transport
	CloseFn    transport.CloseRestricted

	capabilities Capability
	state        DeviceState

	Profiles           []*Profile
	pendingActiveIndex *int
	translator         KeyCodeTranslator

	Private any // driver-private opaque state
}

// NewDevice constructs a device in StateReady with refcount 1 (the
// caller's creation handle), holding t and driven by drv. closeFn is the
// privileged close-restricted callback paired with whatever
// OpenRestricted callback was used to open t; Probe implementations
// thread it through from their Probe argument so Remove can hand it back
// to the transport later.
func NewDevice(identity DeviceIdentity, driverName string, drv Driver, t transport.Transport, closeFn transport.CloseRestricted, capabilities Capability) *Device {
	d := &Device{
		identity:     identity,
		DriverName:   driverName,
		driver:       drv,
		Transport:    t,
		CloseFn:      closeFn,
		capabilities: capabilities,
		state:        StateReady,
	}
	d.ref()
	return d
}

// Identity returns the device's (bus, vendor, product, version) tuple.
func (d *Device) Identity() DeviceIdentity { return d.identity }

// State reports the device's last-observed liveness.
func (d *Device) State() DeviceState { return d.state }

// SetState updates the device's last-observed liveness. Callers set
// StateNotReady; Commit itself returns the device to StateReady after a
// successful re-probe.
func (d *Device) SetState(s DeviceState) { d.state = s }

// Ref increments the device's reference count (a new caller handle).
func (d *Device) Ref() { d.ref() }

// Unref releases a handle. When the count reaches zero — meaning every
// caller handle and every profile's strong edge has been released — the
// device is torn down via the driver's Remove.
func (d *Device) Unref() {
	if d.unref() {
		d.destroy()
	}
}

func (d *Device) destroy() {
	if d.driver != nil {
		d.driver.Remove(d)
	}
}

// InitProfiles allocates n profiles, each with the given button,
// resolution, and LED slot templates, all disabled/none content and
// clear dirty flags. Profile 0 starts active.
func (d *Device) InitProfiles(n int, buttons []ButtonSpec, resolutions []ResolutionSpec, leds []LEDSpec) {
	d.Profiles = make([]*Profile, n)
	for i := 0; i < n; i++ {
		p := newProfile(d, i)
		p.Active = i == 0

		p.Buttons = make([]*Button, len(buttons))
		for bi, spec := range buttons {
			p.Buttons[bi] = newButton(p, bi, spec.Type, spec.Permitted...)
		}

		p.Resolutions = make([]*Resolution, len(resolutions))
		for ri, spec := range resolutions {
			r := newResolution(p, ri, spec.DPIList, spec.DPIRange)
			if ri == 0 {
				r.Active = true
				r.Default = true
			}
			p.Resolutions[ri] = r
		}

		p.LEDs = make([]*LED, len(leds))
		for li, spec := range leds {
			p.LEDs[li] = newLED(p, li, spec.Type)
		}

		d.Profiles[i] = p
	}
}

// SetInitialActiveProfile seeds which profile the in-memory model
// believes is active immediately after probe, without registering it as
// a caller-requested change — Commit's active-profile-preservation logic
// still treats the device as untouched until the caller calls
// SetActiveProfile explicitly. Drivers call this once from Probe.
func (d *Device) SetInitialActiveProfile(index int) {
	for _, p := range d.Profiles {
		p.Active = p.Index == index
	}
}

// ActiveProfileIndex returns the index of the profile flagged Active in
// the in-memory model.
func (d *Device) ActiveProfileIndex() int {
	for _, p := range d.Profiles {
		if p.Active {
			return p.Index
		}
	}
	return -1
}

// Dirty reports whether any profile on the device has pending changes.
func (d *Device) Dirty() bool {
	for _, p := range d.Profiles {
		if p.Dirty() {
			return true
		}
	}
	return false
}

// SetActiveProfile marks index as the model's active profile, rejecting
// a disabled target, and records that the
// caller explicitly changed activation so Commit honors it instead of
// restoring whatever was active before.
func (d *Device) SetActiveProfile(index int) error {
	if index < 0 || index >= len(d.Profiles) {
		return ratbagerr.New(ratbagerr.KindValue, "profile index out of range")
	}
	target := d.Profiles[index]
	if !target.Enabled {
		return ratbagerr.New(ratbagerr.KindValue, "cannot activate a disabled profile")
	}
	for _, p := range d.Profiles {
		p.Active = p.Index == index
	}
	idx := index
	d.pendingActiveIndex = &idx
	return nil
}
