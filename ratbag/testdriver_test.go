package ratbag

import (
	"github.com/libratbag/ratbag-go/ratbagerr"
	"github.com/libratbag/ratbag-go/transport"
)

// fakeDriver is a minimal in-memory Driver used across this package's
// tests — no real transport I/O, just enough bookkeeping to assert on
// the commit engine's behavior.
type fakeDriver struct {
	active         int
	setActiveErr   error
	commitErr      map[int]error
	commits        []int
	busyRemaining  int // while positive, Commit replies protocol-busy
	requireReProbe bool
	reprobeErr     error
	reprobed       bool
	removed        bool
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{commitErr: make(map[int]error)}
}

func (f *fakeDriver) Probe(identity DeviceIdentity, t transport.Transport, closeFn transport.CloseRestricted) (*Device, error) {
	return nil, nil
}

func (f *fakeDriver) Remove(d *Device) { f.removed = true }

func (f *fakeDriver) Commit(d *Device, p *Profile) error {
	f.commits = append(f.commits, p.Index)
	if f.busyRemaining > 0 {
		f.busyRemaining--
		return ratbagerr.NewProtocolError(ratbagerr.ProtoErrBusy)
	}
	return f.commitErr[p.Index]
}

func (f *fakeDriver) SetActiveProfile(d *Device, index int) error {
	if f.setActiveErr != nil {
		return f.setActiveErr
	}
	f.active = index
	return nil
}

func (f *fakeDriver) ActiveProfile(d *Device) (int, error) {
	return f.active, nil
}

func (f *fakeDriver) Reprobe(d *Device) error {
	f.reprobed = true
	return f.reprobeErr
}

func buttonSpecs() []ButtonSpec {
	return []ButtonSpec{
		{Type: ButtonLeft, Permitted: []ActionKind{ActionNone, ActionMouseButton, ActionKey, ActionSpecial}},
		{Type: ButtonRight, Permitted: []ActionKind{ActionNone, ActionMouseButton, ActionMacro}},
	}
}

func resolutionSpecs() []ResolutionSpec {
	return []ResolutionSpec{
		{DPIList: []int{800, 1600, 3200}},
	}
}

func ledSpecs() []LEDSpec {
	return []LEDSpec{{Type: LEDLogo}}
}

func newTestDevice(drv *fakeDriver, nProfiles int, caps Capability) *Device {
	d := NewDevice(DeviceIdentity{Vendor: 0x046d, Product: 0xc09d}, "test", drv, nil, nil, caps)
	d.InitProfiles(nProfiles, buttonSpecs(), resolutionSpecs(), ledSpecs())
	return d
}
