// Package roccat implements the status-byte ready-handshake family:
// profile switches and flash writes are gated on a "control"
// feature report that settles from busy to ready, and a committed
// profile must be confirmed with an explicit save-to-flash write before
// it survives a power cycle. Macro normalization (leading-wait drop,
// adjacent-wait coalescing) lives in ratbag.Macro.Append, so this driver
// serializes the event slice it is handed, capped at maxMacroEvents.
package roccat

import (
	"github.com/libratbag/ratbag-go/driver"
	"github.com/libratbag/ratbag-go/ratbag"
	"github.com/libratbag/ratbag-go/transport"
)

// DriverID is this driver's registry id.
const DriverID = "roccat"

// Feature report ids this driver reads and writes.
const (
	reportControl  uint8 = 0x03 // [id, request, status]
	reportInfo     uint8 = 0x09 // [id, numProfiles, numResolutions, numButtons, numLEDs]
	reportProfile  uint8 = 0x04 // [id, activeProfile]
	reportSettings uint8 = 0x06 // [id, profile, dpiHi, dpiLo, active, default, pollingRateHz, debounceMs, angleSnap, disabled]
	reportButtons  uint8 = 0x07 // [id, profile, button, kind, paramHi, paramLo]
	reportMacro    uint8 = 0x08 // [id, profile, button, count, (kind, code, waitHi, waitLo)*]
	reportLED      uint8 = 0x0a // [id, profile, led, r, g, b, mode]
)

// ctrlRequestConfirm is written to reportControl to confirm a profile
// write so it survives a power cycle.
const ctrlRequestConfirm byte = 0x01

// ctrlStatusReady is the value reportControl's third byte holds once the
// device has settled after a write or profile switch.
const ctrlStatusReady byte = 0x01

// maxMacroEvents bounds how many events this family's macro report can
// carry. Callers bound a Macro via NewMacro(..., maxMacroEvents); writeMacro
// also drops any events past this bound before serializing.
const maxMacroEvents = 32

func init() {
	driver.Register(driver.Record{
		ID:   DriverID,
		Name: "Roccat ready-handshake profiles",
		New:  func() ratbag.Driver { return &Driver{} },
	})
}

// Driver implements ratbag.Driver, ratbag.ReadyWaiter, and ratbag.Flasher
// directly over feature reports; this family predates HID++ and has no
// shared channel type to build on.
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
	case ratbag.ActionMacro:
		return 0x04, 0
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

func (drv *Driver) readControlStatus() (byte, error) {
	buf := make([]byte, 3)
	if _, err := drv.t.GetFeature(reportControl, buf); err != nil {
		return 0, err
	}
	return buf[2], nil
}

func (drv *Driver) writeControl(request byte) error {
	_, err := drv.t.SetFeature(reportControl, []byte{reportControl, request, 0})
	return err
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

	caps := ratbag.CapRequiresActiveForWrite | ratbag.CapSaveToFlash | ratbag.CapDisableProfile |
		ratbag.CapLEDModeOn | ratbag.CapLEDModeCycle | ratbag.CapLEDModeBreathing
	dev := ratbag.NewDevice(identity, DriverID, drv, t, closeFn, caps)

	buttons := make([]ratbag.ButtonSpec, numButtons)
	for i := range buttons {
		buttons[i] = ratbag.ButtonSpec{
			Type:      ratbag.ButtonUnknown,
			Permitted: []ratbag.ActionKind{ratbag.ActionNone, ratbag.ActionMouseButton, ratbag.ActionKey, ratbag.ActionSpecial, ratbag.ActionMacro},
		}
	}
	resolutions := make([]ratbag.ResolutionSpec, numResolutions)
	for i := range resolutions {
		resolutions[i] = ratbag.ResolutionSpec{DPIRange: ratbag.DPIRange{Min: 100, Max: 16000, Step: 50}}
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

// populate reads every profile's settings, buttons, and LEDs and loads
// them via Snapshot/RestoreSnapshot so nothing is marked dirty. Reads are
// two-phase: a SetFeature selects which profile/button/LED slot the next
// GetFeature on the same report id returns, since feature reports carry
// no addressing of their own. Macro content is intentionally not read
// back: this family does not expose a way to read an already-stored
// macro body, only to overwrite one.
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

// Commit implements ratbag.Driver: write the dirty subset of one
// profile's settings, buttons, and macros. The commit engine has already
// switched hardware to p and waited for it to settle (CapRequiresActiveForWrite).
func (drv *Driver) Commit(d *ratbag.Device, p *ratbag.Profile) error {
	if p.ScalarsDirty() || (len(p.Resolutions) > 0 && p.Resolutions[0].Dirty()) {
		buf := []byte{reportSettings, byte(p.Index), 0, 0, 0, 0, byte(p.PollingRateHz), byte(p.DebounceMs), byte(p.AngleSnapping), boolByte(!p.Enabled)}
		if len(p.Resolutions) > 0 {
			r := p.Resolutions[0]
			buf[2], buf[3] = byte(r.XDPI>>8), byte(r.XDPI)
			buf[4], buf[5] = boolByte(r.Active), boolByte(r.Default)
		}
		if _, err := drv.t.SetFeature(reportSettings, buf); err != nil {
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
		if _, err := drv.t.SetFeature(reportButtons, buf); err != nil {
			return err
		}
		if b.Action.Kind == ratbag.ActionMacro && b.Action.Macro != nil {
			if err := drv.writeMacro(d, p.Index, bi, b.Action.Macro); err != nil {
				return err
			}
		}
	}
	for li, l := range p.LEDs {
		if !l.Dirty() {
			continue
		}
		buf := []byte{reportLED, byte(p.Index), byte(li), l.Color.R, l.Color.G, l.Color.B, byte(l.Mode)}
		if _, err := drv.t.SetFeature(reportLED, buf); err != nil {
			return err
		}
	}
	return nil
}

func (drv *Driver) writeMacro(d *ratbag.Device, profile, button int, m *ratbag.Macro) error {
	events := m.Events
	if len(events) > maxMacroEvents {
		events = events[:maxMacroEvents]
	}
	buf := make([]byte, 4+4*len(events))
	buf[0], buf[1], buf[2] = reportMacro, byte(profile), byte(button)
	buf[3] = byte(len(events))
	for i, e := range events {
		off := 4 + i*4
		buf[off] = byte(e.Kind)
		if e.Kind != ratbag.MacroWait {
			buf[off+1] = byte(d.KeyToUsage(e.Code))
		}
		buf[off+2] = byte(e.WaitMs >> 8)
		buf[off+3] = byte(e.WaitMs)
	}
	_, err := drv.t.SetFeature(reportMacro, buf)
	return err
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// SetActiveProfile implements ratbag.Driver.
func (drv *Driver) SetActiveProfile(d *ratbag.Device, index int) error {
	_, err := drv.t.SetFeature(reportProfile, []byte{reportProfile, byte(index)})
	return err
}

// ActiveProfile implements ratbag.Driver.
func (drv *Driver) ActiveProfile(d *ratbag.Device) (int, error) {
	buf := make([]byte, 2)
	if _, err := drv.t.GetFeature(reportProfile, buf); err != nil {
		return 0, err
	}
	return int(buf[1]), nil
}

// WaitReady implements ratbag.ReadyWaiter.
func (drv *Driver) WaitReady(d *ratbag.Device) error {
	return ratbag.PollReady(func() (bool, error) {
		status, err := drv.readControlStatus()
		if err != nil {
			return false, err
		}
		return status == ctrlStatusReady, nil
	})
}

// SaveToFlash implements ratbag.Flasher: confirm the profile just written
// so it survives a power cycle. It does not wait for the device to settle;
// the commit engine calls WaitReady afterwards.
func (drv *Driver) SaveToFlash(d *ratbag.Device) error {
	return drv.writeControl(ctrlRequestConfirm)
}
