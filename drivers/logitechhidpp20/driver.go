// Package logitechhidpp20 implements the onboard-profile HID++ 2.0
// Logitech family: feature 0x8100 stores profiles, DPI
// steps, button bindings, and LED effects in the device's own memory;
// the driver's job is translating between that feature's wire layout
// and the generic model, not reinventing the HID++ 2.0 channel itself.
package logitechhidpp20

import (
	"github.com/libratbag/ratbag-go/driver"
	"github.com/libratbag/ratbag-go/hidpp"
	"github.com/libratbag/ratbag-go/ratbag"
	"github.com/libratbag/ratbag-go/transport"
)

// DriverID is this driver's registry id.
const DriverID = "logitech-hidpp20"

// Feature ids this driver consumes, named after their real-world
// counterparts in Logitech's HID++ 2.0 feature space.
const (
	featureOnboardProfiles uint16 = 0x8100
	featureAdjustableDPI   uint16 = 0x8061
	featureColorLED        uint16 = 0x8070
)

// Function numbers within featureOnboardProfiles.
const (
	fnGetCounts        uint8 = 0x00
	fnGetActiveProfile uint8 = 0x01
	fnSetActiveProfile uint8 = 0x02
	fnGetButton        uint8 = 0x03
	fnSetButton        uint8 = 0x04
	fnGetPollingRate   uint8 = 0x05
	fnSetPollingRate   uint8 = 0x06
	fnSetMacro         uint8 = 0x07
)

// maxMacroEvents bounds how many events fit in one onboard macro slot.
// macroEventsPerCall is how many 4-byte events fit in one 16-byte call
// payload after the (profile, button, offset, count) header.
const (
	maxMacroEvents     = 64
	macroEventsPerCall = 3
)

// Function numbers within featureAdjustableDPI.
const (
	fnGetDPI uint8 = 0x00
	fnSetDPI uint8 = 0x01
)

// Function numbers within featureColorLED.
const (
	fnGetColor uint8 = 0x00
	fnSetColor uint8 = 0x01
)

// directWiredDeviceIndex is the device index a corded (non-receiver)
// HID++ 2.0 mouse answers to.
const directWiredDeviceIndex uint8 = 0xff

func init() {
	driver.Register(driver.Record{
		ID:   DriverID,
		Name: "Logitech HID++ 2.0 onboard profiles",
		New:  func() ratbag.Driver { return &Driver{} },
	})
}

// Driver implements ratbag.Driver over hidpp.Channel2.
type Driver struct {
	ch          *hidpp.Channel2
	deviceIndex uint8
}

// encodeAction packs Action into a 3-byte wire form: [kind, param-hi, param-lo].
func encodeAction(a ratbag.Action) [3]byte {
	switch a.Kind {
	case ratbag.ActionNone:
		return [3]byte{0x00, 0, 0}
	case ratbag.ActionMouseButton:
		return [3]byte{0x01, 0, byte(a.Mouse)}
	case ratbag.ActionKey:
		return [3]byte{0x02, byte(a.Key >> 8), byte(a.Key)}
	case ratbag.ActionSpecial:
		return [3]byte{0x03, 0, byte(a.Special)}
	case ratbag.ActionMacro:
		// The binding names the macro slot; the body is streamed
		// separately via fnSetMacro (see writeMacro).
		return [3]byte{0x04, 0, 0}
	default:
		return [3]byte{0x00, 0, 0}
	}
}

func decodeAction(raw [3]byte) ratbag.Action {
	switch raw[0] {
	case 0x01:
		return ratbag.MouseButtonAction(int(raw[2]))
	case 0x02:
		return ratbag.KeyAction(int(raw[1])<<8 | int(raw[2]))
	case 0x03:
		return ratbag.SpecialAction(ratbag.SpecialKind(raw[2]))
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
	ch := hidpp.NewChannel2(t)
	deviceIndex := directWiredDeviceIndex

	if _, err := ch.ResolveFeature(deviceIndex, featureOnboardProfiles); err != nil {
		return nil, err
	}

	reply, err := ch.Call(deviceIndex, featureOnboardProfiles, fnGetCounts, [16]byte{})
	if err != nil {
		return nil, err
	}
	numProfiles, numResolutions, numButtons, numLEDs := int(reply[0]), int(reply[1]), int(reply[2]), int(reply[3])

	activeReply, err := ch.Call(deviceIndex, featureOnboardProfiles, fnGetActiveProfile, [16]byte{})
	if err != nil {
		return nil, err
	}
	activeProfile := int(activeReply[0])

	drv.ch = ch
	drv.deviceIndex = deviceIndex

	caps := ratbag.CapSeparateXYResolution | ratbag.CapResolutionDisable |
		ratbag.CapLEDModeOn | ratbag.CapLEDModeCycle | ratbag.CapLEDModeBreathing | ratbag.CapDisableProfile
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
		resolutions[i] = ratbag.ResolutionSpec{DPIRange: ratbag.DPIRange{Min: 200, Max: 16000, Step: 50}}
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

// populate reads every profile's resolutions, buttons, and LEDs from
// hardware and loads them via Snapshot/RestoreSnapshot so nothing is
// marked dirty.
func (drv *Driver) populate(dev *ratbag.Device) error {
	snap := dev.Snapshot()
	for pi, p := range dev.Profiles {
		var params [16]byte
		params[0] = byte(pi)
		settings, err := drv.ch.Call(drv.deviceIndex, featureOnboardProfiles, fnGetPollingRate, params)
		if err != nil {
			return err
		}
		snap.Profiles[pi].PollingRateHz = int(settings[0])<<8 | int(settings[1])
		snap.Profiles[pi].DebounceMs = int(settings[2])
		snap.Profiles[pi].AngleSnapping = int(settings[3])
		snap.Profiles[pi].Enabled = settings[4] == 0
		for ri := range p.Resolutions {
			var params [16]byte
			params[0], params[1] = byte(pi), byte(ri)
			reply, err := drv.ch.Call(drv.deviceIndex, featureAdjustableDPI, fnGetDPI, params)
			if err != nil {
				return err
			}
			dpi := int(reply[0])<<8 | int(reply[1])
			snap.Profiles[pi].Resolutions[ri].XDPI = dpi
			snap.Profiles[pi].Resolutions[ri].YDPI = dpi
			snap.Profiles[pi].Resolutions[ri].Active = reply[2] != 0
			snap.Profiles[pi].Resolutions[ri].Default = reply[3] != 0
		}
		for bi := range p.Buttons {
			var params [16]byte
			params[0], params[1] = byte(pi), byte(bi)
			reply, err := drv.ch.Call(drv.deviceIndex, featureOnboardProfiles, fnGetButton, params)
			if err != nil {
				return err
			}
			a := decodeAction([3]byte{reply[0], reply[1], reply[2]})
			if a.Kind == ratbag.ActionKey {
				a.Key = dev.KeyFromUsage(uint16(a.Key))
			}
			snap.Profiles[pi].Buttons[bi].Action = a
		}
		for li := range p.LEDs {
			var params [16]byte
			params[0], params[1] = byte(pi), byte(li)
			reply, err := drv.ch.Call(drv.deviceIndex, featureColorLED, fnGetColor, params)
			if err != nil {
				return err
			}
			snap.Profiles[pi].LEDs[li].Color = ratbag.Color{R: reply[0], G: reply[1], B: reply[2]}
			snap.Profiles[pi].LEDs[li].Mode = ratbag.LEDMode(reply[3])
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

// Commit implements ratbag.Driver: serialize the dirty subset of one
// profile. Sub-sections are independent on this family's wire protocol,
// so order between them does not matter.
func (drv *Driver) Commit(d *ratbag.Device, p *ratbag.Profile) error {
	if p.ScalarsDirty() {
		var params [16]byte
		params[0] = byte(p.Index)
		params[1], params[2] = byte(p.PollingRateHz>>8), byte(p.PollingRateHz)
		params[3] = byte(p.DebounceMs)
		params[4] = byte(p.AngleSnapping)
		if !p.Enabled {
			params[5] = 1
		}
		if _, err := drv.ch.Call(drv.deviceIndex, featureOnboardProfiles, fnSetPollingRate, params); err != nil {
			return err
		}
	}
	for ri, r := range p.Resolutions {
		if !r.Dirty() {
			continue
		}
		var params [16]byte
		params[0], params[1] = byte(p.Index), byte(ri)
		params[2], params[3] = byte(r.XDPI>>8), byte(r.XDPI)
		if _, err := drv.ch.Call(drv.deviceIndex, featureAdjustableDPI, fnSetDPI, params); err != nil {
			return err
		}
	}
	for bi, b := range p.Buttons {
		if !b.Dirty() {
			continue
		}
		wire := encodeAction(b.Action)
		if b.Action.Kind == ratbag.ActionKey {
			usage := d.KeyToUsage(b.Action.Key)
			wire[1], wire[2] = byte(usage>>8), byte(usage)
		}
		var params [16]byte
		params[0], params[1] = byte(p.Index), byte(bi)
		params[2], params[3], params[4] = wire[0], wire[1], wire[2]
		if _, err := drv.ch.Call(drv.deviceIndex, featureOnboardProfiles, fnSetButton, params); err != nil {
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
		var params [16]byte
		params[0], params[1] = byte(p.Index), byte(li)
		params[2], params[3], params[4] = l.Color.R, l.Color.G, l.Color.B
		params[5] = byte(l.Mode)
		if _, err := drv.ch.Call(drv.deviceIndex, featureColorLED, fnSetColor, params); err != nil {
			return err
		}
	}
	return nil
}

// writeMacro streams a macro body into the onboard slot addressed by
// (profile, button), macroEventsPerCall events per feature call. Each
// call carries the running event offset so the device can reassemble
// the sequence; an empty macro writes a single zero-count chunk, which
// clears the slot.
func (drv *Driver) writeMacro(d *ratbag.Device, profile, button int, m *ratbag.Macro) error {
	events := m.Events
	if len(events) > maxMacroEvents {
		events = events[:maxMacroEvents]
	}
	for off := 0; ; off += macroEventsPerCall {
		end := off + macroEventsPerCall
		if end > len(events) {
			end = len(events)
		}
		chunk := events[off:end]

		var params [16]byte
		params[0], params[1] = byte(profile), byte(button)
		params[2] = byte(off)
		params[3] = byte(len(chunk))
		for i, e := range chunk {
			base := 4 + i*4
			params[base] = byte(e.Kind)
			if e.Kind != ratbag.MacroWait {
				params[base+1] = byte(d.KeyToUsage(e.Code))
			}
			params[base+2] = byte(e.WaitMs >> 8)
			params[base+3] = byte(e.WaitMs)
		}
		if _, err := drv.ch.Call(drv.deviceIndex, featureOnboardProfiles, fnSetMacro, params); err != nil {
			return err
		}
		if end >= len(events) {
			return nil
		}
	}
}

// SetActiveProfile implements ratbag.Driver.
func (drv *Driver) SetActiveProfile(d *ratbag.Device, index int) error {
	var params [16]byte
	params[0] = byte(index)
	_, err := drv.ch.Call(drv.deviceIndex, featureOnboardProfiles, fnSetActiveProfile, params)
	return err
}

// ActiveProfile implements ratbag.Driver.
func (drv *Driver) ActiveProfile(d *ratbag.Device) (int, error) {
	reply, err := drv.ch.Call(drv.deviceIndex, featureOnboardProfiles, fnGetActiveProfile, [16]byte{})
	if err != nil {
		return 0, err
	}
	return int(reply[0]), nil
}
