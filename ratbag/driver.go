package ratbag

import "github.com/libratbag/ratbag-go/transport"

// Driver is the five-operation interface every vendor driver implements.
// There is no base type to inherit from; dispatch is a table lookup by
// id in the driver package.
type Driver interface {
	// Probe verifies the model against an already-open transport t,
	// allocates driver-private state, calls InitProfiles, and populates
	// the model by reading hardware. closeFn is threaded through to
	// NewDevice so Remove can later close t. On any failure Probe must
	// close t itself (using closeFn) and free its state.
	Probe(identity DeviceIdentity, t transport.Transport, closeFn transport.CloseRestricted) (*Device, error)

	// Remove closes the transport and frees driver-private state.
	Remove(d *Device)

	// Commit serializes the dirty subset of profile (buttons,
	// resolutions, LEDs, scalars) into one or more feature-report
	// writes, in whatever sub-section order the wire protocol accepts.
	Commit(d *Device, profile *Profile) error

	// SetActiveProfile writes the feature report that selects profile
	// index on hardware, touching no other state.
	SetActiveProfile(d *Device, index int) error

	// ActiveProfile reads which profile index is currently active on
	// hardware.
	ActiveProfile(d *Device) (int, error)
}

// ReadyWaiter is implemented by drivers whose families gate writes on a
// status byte.
// A driver without this interface is assumed to need no handshake.
type ReadyWaiter interface {
	WaitReady(d *Device) error
}

// Reprober is implemented by drivers that can re-read device state when
// the commit engine finds the device not ready.
type Reprober interface {
	Reprobe(d *Device) error
}

// Flasher is implemented by drivers whose devices have an explicit save-
// to-flash command, issued after per-profile writes.
type Flasher interface {
	SaveToFlash(d *Device) error
}
