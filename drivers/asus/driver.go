// Package asus implements the probe-recovery family: writes
// occasionally land on a device that has silently reset and forgotten its
// in-memory state, which this driver detects as an unexpected reply and
// surfaces as a ratbagerr.KindDevice error. Marking the device not-ready
// (Device.SetState) is left to the caller; the next Commit then re-probes.
// Recovery is a fresh read of every profile without pending edits (a
// re-probe), never a blind retry of the write that
// failed. A successful re-probe does not itself retry the commit, it
// only makes the model trustworthy again for the caller's next Commit
// call.
package asus

import (
	"github.com/libratbag/ratbag-go/driver"
	"github.com/libratbag/ratbag-go/ratbag"
	"github.com/libratbag/ratbag-go/ratbagerr"
	"github.com/libratbag/ratbag-go/transport"
)

// DriverID is this driver's registry id.
const DriverID = "asus"

// Feature report ids.
const (
	reportInfo     uint8 = 0x0c // [id, numProfiles, numResolutions, numButtons, numLEDs]
	reportProfile  uint8 = 0x02 // [id, activeProfile]
	reportSettings uint8 = 0x05 // [id, profile, dpiHi, dpiLo, active, default, pollingRateHz, debounceMs, angleSnap, disabled]
	reportButtons  uint8 = 0x06 // [id, profile, button, kind, paramHi, paramLo]
	reportLED      uint8 = 0x0e // [id, profile, led, r, g, b, mode]
)

func init() {
	driver.Register(driver.Record{
		ID:   DriverID,
		Name: "Asus probe-recovery profiles",
		New:  func() ratbag.Driver { return &Driver{} },
	})
}

// Driver implements ratbag.Driver and ratbag.Reprober directly over
// feature reports, using the same select-then-read two-phase access
// pattern as the roccat family.
type Driver struct {
	t transport.Transport
}

func encodeAction(a ratbag.Action) (kind byte, param int) {
	switch a.Kind {
	case ratbag.ActionMouseButton:
		return 0x01, a.Mouse
	case ratbag.ActionKey:
		return 0x02, a.Key
	case ratbag.ActionSpecial:
		return 0x03, int(a.Special)
	default:
		return 0x00, 0
	}
}

func decodeAction(kind byte, param int) ratbag.Action {
	switch kind {
	case 0x01:
		return ratbag.MouseButtonAction(param)
	case 0x02:
		return ratbag.KeyAction(param)
	case 0x03:
		return ratbag.SpecialAction(ratbag.SpecialKind(param))
	default:
		return ratbag.NoneAction()
	}
}

// Probe implements ratbag.Driver. On failure it closes t with closeFn.
func (drv *Driver) Probe(identity ratbag.DeviceIdentity, t transport.Transport, closeFn transport.CloseRestricted) (*ratbag.Device, error) {
	dev, err := drv.probe(identity, t, closeFn)
	if err != nil {
		t.Close(closeFn)
		return nil, err
	}
	return dev, nil
}

func (drv *Driver) probe(identity ratbag.DeviceIdentity, t transport.Transport, closeFn transport.CloseRestricted) (*ratbag.Device, error) {
	drv.t = t

	info := make([]byte, 5)
	if _, err := t.GetFeature(reportInfo, info); err != nil {
		return nil, err
	}
	numProfiles, numResolutions, numButtons, numLEDs := int(info[1]), int(info[2]), int(info[3]), int(info[4])

	active := make([]byte, 2)
	if _, err := t.GetFeature(reportProfile, active); err != nil {
		return nil, err
	}
	activeProfile := int(active[1])

	caps := ratbag.CapDisableProfile | ratbag.CapResolutionDisable |
		ratbag.CapLEDModeOn | ratbag.CapLEDModeCycle | ratbag.CapLEDModeBreathing
	dev := ratbag.NewDevice(identity, DriverID, drv, t, closeFn, caps)

	buttons := make([]ratbag.ButtonSpec, numButtons)
	for i := range buttons {
		buttons[i] = ratbag.ButtonSpec{
			Type:      ratbag.ButtonUnknown,
			Permitted: []ratbag.ActionKind{ratbag.ActionNone, ratbag.ActionMouseButton, ratbag.ActionKey, ratbag.ActionSpecial},
		}
	}
	resolutions := make([]ratbag.ResolutionSpec, numResolutions)
	for i := range resolutions {
		resolutions[i] = ratbag.ResolutionSpec{DPIRange: ratbag.DPIRange{Min: 50, Max: 19000, Step: 50}}
	}
	leds := make([]ratbag.LEDSpec, numLEDs)
	for i := range leds {
		leds[i] = ratbag.LEDSpec{Type: ratbag.LEDLogo}
	}
	dev.InitProfiles(numProfiles, buttons, resolutions, leds)
	dev.SetInitialActiveProfile(activeProfile)

	if err := drv.populate(dev); err != nil {
		return nil, err
	}
	return dev, nil
}

func (drv *Driver) populate(dev *ratbag.Device) error {
	snap := dev.Snapshot()
	for pi, p := range dev.Profiles {
		if _, err := drv.t.SetFeature(reportSettings, []byte{reportSettings, byte(pi)}); err != nil {
			return err
		}
		buf := make([]byte, 10)
		if _, err := drv.t.GetFeature(reportSettings, buf); err != nil {
			return err
		}
		if len(p.Resolutions) > 0 {
			dpi := int(buf[2])<<8 | int(buf[3])
			snap.Profiles[pi].Resolutions[0].XDPI = dpi
			snap.Profiles[pi].Resolutions[0].YDPI = dpi
			snap.Profiles[pi].Resolutions[0].Active = buf[4] != 0
			snap.Profiles[pi].Resolutions[0].Default = buf[5] != 0
		}
		snap.Profiles[pi].PollingRateHz = int(buf[6])
		snap.Profiles[pi].DebounceMs = int(buf[7])
		snap.Profiles[pi].AngleSnapping = int(buf[8])
		snap.Profiles[pi].Enabled = buf[9] == 0
		for bi := range p.Buttons {
			if _, err := drv.t.SetFeature(reportButtons, []byte{reportButtons, byte(pi), byte(bi)}); err != nil {
				return err
			}
			buf := make([]byte, 6)
			if _, err := drv.t.GetFeature(reportButtons, buf); err != nil {
				return err
			}
			a := decodeAction(buf[3], int(buf[4])<<8|int(buf[5]))
			if a.Kind == ratbag.ActionKey {
				a.Key = dev.KeyFromUsage(uint16(a.Key))
			}
			snap.Profiles[pi].Buttons[bi].Action = a
		}
		for li := range p.LEDs {
			if _, err := drv.t.SetFeature(reportLED, []byte{reportLED, byte(pi), byte(li)}); err != nil {
				return err
			}
			buf := make([]byte, 7)
			if _, err := drv.t.GetFeature(reportLED, buf); err != nil {
				return err
			}
			snap.Profiles[pi].LEDs[li].Color = ratbag.Color{R: buf[3], G: buf[4], B: buf[5]}
			snap.Profiles[pi].LEDs[li].Mode = ratbag.LEDMode(buf[6])
		}
	}
	dev.RestoreSnapshot(snap)
	return nil
}

// Remove implements ratbag.Driver.
func (drv *Driver) Remove(d *ratbag.Device) {
	if d.Transport != nil {
		d.Transport.Close(d.CloseFn)
	}
}

// Commit implements ratbag.Driver. A write the device does not acknowledge
// with its usual echo is treated as a reset and surfaced as KindDevice; the
// commit engine returns that error without changing the device state.
func (drv *Driver) Commit(d *ratbag.Device, p *ratbag.Profile) error {
	if p.ScalarsDirty() || (len(p.Resolutions) > 0 && p.Resolutions[0].Dirty()) {
		buf := []byte{reportSettings, byte(p.Index), 0, 0, 0, 0, byte(p.PollingRateHz), byte(p.DebounceMs), byte(p.AngleSnapping), boolByte(!p.Enabled)}
		if len(p.Resolutions) > 0 {
			r := p.Resolutions[0]
			buf[2], buf[3] = byte(r.XDPI>>8), byte(r.XDPI)
			buf[4], buf[5] = boolByte(r.Active), boolByte(r.Default)
		}
		if err := drv.writeAcked(reportSettings, buf); err != nil {
			return err
		}
	}
	for bi, b := range p.Buttons {
		if !b.Dirty() {
			continue
		}
		kind, param := encodeAction(b.Action)
		if b.Action.Kind == ratbag.ActionKey {
			param = int(d.KeyToUsage(b.Action.Key))
		}
		buf := []byte{reportButtons, byte(p.Index), byte(bi), kind, byte(param >> 8), byte(param)}
		if err := drv.writeAcked(reportButtons, buf); err != nil {
			return err
		}
	}
	for li, l := range p.LEDs {
		if !l.Dirty() {
			continue
		}
		buf := []byte{reportLED, byte(p.Index), byte(li), l.Color.R, l.Color.G, l.Color.B, byte(l.Mode)}
		if err := drv.writeAcked(reportLED, buf); err != nil {
			return err
		}
	}
	return nil
}

// writeAcked writes buf to reportID and confirms the device echoed it
// back unchanged; a mismatched or errored echo means the device reset
// mid-session and lost the write.
func (drv *Driver) writeAcked(reportID uint8, buf []byte) error {
	if _, err := drv.t.SetFeature(reportID, buf); err != nil {
		return ratbagerr.Wrap(ratbagerr.KindDevice, err, "device did not acknowledge write")
	}
	echo := make([]byte, len(buf))
	if _, err := drv.t.GetFeature(reportID, echo); err != nil {
		return ratbagerr.Wrap(ratbagerr.KindDevice, err, "device did not acknowledge write")
	}
	for i := range buf {
		if echo[i] != buf[i] {
			return ratbagerr.New(ratbagerr.KindDevice, "device echo mismatch after write")
		}
	}
	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// SetActiveProfile implements ratbag.Driver.
func (drv *Driver) SetActiveProfile(d *ratbag.Device, index int) error {
	return drv.writeAcked(reportProfile, []byte{reportProfile, byte(index)})
}

// ActiveProfile implements ratbag.Driver.
func (drv *Driver) ActiveProfile(d *ratbag.Device) (int, error) {
	buf := make([]byte, 2)
	if _, err := drv.t.GetFeature(reportProfile, buf); err != nil {
		return 0, err
	}
	return int(buf[1]), nil
}

// Reprobe implements ratbag.Reprober: re-read every profile that has no
// pending edit from hardware. A profile the caller already marked dirty
// is left untouched, since overwriting it here would silently discard
// the very change the caller is about to retry: a re-probe only
// refreshes what hardware reports, it does not decide what the caller
// still wants to write.
func (drv *Driver) Reprobe(d *ratbag.Device) error {
	for pi, p := range d.Profiles {
		if p.Dirty() {
			continue
		}
		if err := drv.reprobeProfile(d, pi, p); err != nil {
			return err
		}
	}
	return nil
}

// reprobeProfile overwrites p's exported fields from a fresh hardware
// read, without touching its dirty flags (which are already clear).
func (drv *Driver) reprobeProfile(d *ratbag.Device, pi int, p *ratbag.Profile) error {
	if _, err := drv.t.SetFeature(reportSettings, []byte{reportSettings, byte(pi)}); err != nil {
		return err
	}
	buf := make([]byte, 10)
	if _, err := drv.t.GetFeature(reportSettings, buf); err != nil {
		return err
	}
	if len(p.Resolutions) > 0 {
		dpi := int(buf[2])<<8 | int(buf[3])
		r := p.Resolutions[0]
		r.XDPI, r.YDPI, r.Active, r.Default = dpi, dpi, buf[4] != 0, buf[5] != 0
	}
	p.PollingRateHz = int(buf[6])
	p.DebounceMs = int(buf[7])
	p.AngleSnapping = int(buf[8])
	p.Enabled = buf[9] == 0
	for bi, b := range p.Buttons {
		if _, err := drv.t.SetFeature(reportButtons, []byte{reportButtons, byte(pi), byte(bi)}); err != nil {
			return err
		}
		buf := make([]byte, 6)
		if _, err := drv.t.GetFeature(reportButtons, buf); err != nil {
			return err
		}
		a := decodeAction(buf[3], int(buf[4])<<8|int(buf[5]))
		if a.Kind == ratbag.ActionKey {
			a.Key = d.KeyFromUsage(uint16(a.Key))
		}
		b.Action = a
	}
	for li, l := range p.LEDs {
		if _, err := drv.t.SetFeature(reportLED, []byte{reportLED, byte(pi), byte(li)}); err != nil {
			return err
		}
		buf := make([]byte, 7)
		if _, err := drv.t.GetFeature(reportLED, buf); err != nil {
			return err
		}
		l.Color = ratbag.Color{R: buf[3], G: buf[4], B: buf[5]}
		l.Mode = ratbag.LEDMode(buf[6])
	}
	return nil
}
