// Package logitechhidpp10 implements the register-addressed HID++ 1.0
// Logitech family: older wired and receiver-paired wireless
// mice that keep profiles in a handful of fixed long registers instead of
// a discoverable feature space. Device index resolution goes through
// receiver enumeration when the peripheral answers through a receiver,
// and falls back to the direct-wired index otherwise.
package logitechhidpp10

import (
	"github.com/libratbag/ratbag-go/driver"
	"github.com/libratbag/ratbag-go/hidpp"
	"github.com/libratbag/ratbag-go/ratbag"
	"github.com/libratbag/ratbag-go/ratbagerr"
	"github.com/libratbag/ratbag-go/transport"
)

// DriverID is this driver's registry id.
const DriverID = "logitech-hidpp10"

// directWiredDeviceIndex is the index a corded HID++ 1.0 mouse answers to
// when it is not behind a wireless receiver.
const directWiredDeviceIndex uint8 = 0x00

// Register addresses this driver reads and writes, named for the
// section of profile state they carry.
const (
	regDeviceState   uint8 = 0x07 // short: params[0] bit0 set once settled
	regCapabilities  uint8 = 0xf3 // long: numProfiles, numResolutions, numButtons, numLEDs
	regActiveProfile uint8 = 0xf0 // short: params[0] = profile index
	regProfileData   uint8 = 0xf1 // long: params[0]=profile, [1]=section, [2]=sub-index
)

// Sections addressed within regProfileData.
const (
	sectionResolution uint8 = 0
	sectionButton     uint8 = 1
	sectionLED        uint8 = 2
	sectionSettings   uint8 = 3 // pollHi, pollLo, debounceMs, angleSnap, disabled
)

func init() {
	driver.Register(driver.Record{
		ID:   DriverID,
		Name: "Logitech HID++ 1.0 register profiles",
		New:  func() ratbag.Driver { return &Driver{} },
	})
}

// Driver implements ratbag.Driver over hidpp.Channel1.
type Driver struct {
	ch          *hidpp.Channel1
	deviceIndex uint8
}

func encodeAction(a ratbag.Action) [3]byte {
	switch a.Kind {
	case ratbag.ActionMouseButton:
		return [3]byte{0x01, 0, byte(a.Mouse)}
	case ratbag.ActionKey:
		return [3]byte{0x02, byte(a.Key >> 8), byte(a.Key)}
	case ratbag.ActionSpecial:
		return [3]byte{0x03, 0, byte(a.Special)}
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

// resolveDeviceIndex finds which HID++ 1.0 device index identity answers
// to: the paired slot reported by receiver enumeration if one matches the
// product id, otherwise the direct-wired index.
func resolveDeviceIndex(ch *hidpp.Channel1, identity ratbag.DeviceIdentity) uint8 {
	paired, err := ch.EnumerateReceiver()
	if err != nil {
		return directWiredDeviceIndex
	}
	for _, p := range paired {
		if p.ProductID == identity.Product {
			return p.Index
		}
	}
	return directWiredDeviceIndex
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
	ch := hidpp.NewChannel1(t)
	deviceIndex := resolveDeviceIndex(ch, identity)

	caps, err := ch.GetLongRegister(deviceIndex, regCapabilities)
	if err != nil {
		return nil, err
	}
	numProfiles, numResolutions, numButtons, numLEDs := int(caps[0]), int(caps[1]), int(caps[2]), int(caps[3])

	active, err := ch.GetRegister(deviceIndex, regActiveProfile)
	if err != nil {
		return nil, err
	}
	activeProfile := int(active[0])

	drv.ch = ch
	drv.deviceIndex = deviceIndex

	deviceCaps := ratbag.CapResolutionDisable | ratbag.CapLEDModeOn | ratbag.CapLEDModeBreathing | ratbag.CapDisableProfile
	dev := ratbag.NewDevice(identity, DriverID, drv, t, closeFn, deviceCaps)

	buttons := make([]ratbag.ButtonSpec, numButtons)
	for i := range buttons {
		buttons[i] = ratbag.ButtonSpec{
			Type:      ratbag.ButtonUnknown,
			Permitted: []ratbag.ActionKind{ratbag.ActionNone, ratbag.ActionMouseButton, ratbag.ActionKey, ratbag.ActionSpecial},
		}
	}
	resolutions := make([]ratbag.ResolutionSpec, numResolutions)
	for i := range resolutions {
		resolutions[i] = ratbag.ResolutionSpec{DPIRange: ratbag.DPIRange{Min: 400, Max: 8000, Step: 100}}
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

// populate reads every profile's resolution, button, and LED sections
// from registers and loads them via Snapshot/RestoreSnapshot so nothing
// is marked dirty.
func (drv *Driver) populate(dev *ratbag.Device) error {
	snap := dev.Snapshot()
	for pi, p := range dev.Profiles {
		settings, err := drv.ch.GetLongRegisterParams(drv.deviceIndex, regProfileData, [16]byte{0: byte(pi), 1: sectionSettings})
		if err != nil {
			return err
		}
		snap.Profiles[pi].PollingRateHz = int(settings[0])<<8 | int(settings[1])
		snap.Profiles[pi].DebounceMs = int(settings[2])
		snap.Profiles[pi].AngleSnapping = int(settings[3])
		snap.Profiles[pi].Enabled = settings[4] == 0
		for ri := range p.Resolutions {
			data, err := drv.ch.GetLongRegisterParams(drv.deviceIndex, regProfileData, [16]byte{0: byte(pi), 1: sectionResolution, 2: byte(ri)})
			if err != nil {
				return err
			}
			dpi := int(data[0])<<8 | int(data[1])
			snap.Profiles[pi].Resolutions[ri].XDPI = dpi
			snap.Profiles[pi].Resolutions[ri].YDPI = dpi
			snap.Profiles[pi].Resolutions[ri].Active = data[2] != 0
			snap.Profiles[pi].Resolutions[ri].Default = data[3] != 0
		}
		for bi := range p.Buttons {
			data, err := drv.ch.GetLongRegisterParams(drv.deviceIndex, regProfileData, [16]byte{0: byte(pi), 1: sectionButton, 2: byte(bi)})
			if err != nil {
				return err
			}
			a := decodeAction([3]byte{data[0], data[1], data[2]})
			if a.Kind == ratbag.ActionKey {
				a.Key = dev.KeyFromUsage(uint16(a.Key))
			}
			snap.Profiles[pi].Buttons[bi].Action = a
		}
		for li := range p.LEDs {
			data, err := drv.ch.GetLongRegisterParams(drv.deviceIndex, regProfileData, [16]byte{0: byte(pi), 1: sectionLED, 2: byte(li)})
			if err != nil {
				return err
			}
			snap.Profiles[pi].LEDs[li].Color = ratbag.Color{R: data[0], G: data[1], B: data[2]}
			snap.Profiles[pi].LEDs[li].Mode = ratbag.LEDMode(data[3])
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
// profile's resolution, button, and LED sections.
func (drv *Driver) Commit(d *ratbag.Device, p *ratbag.Profile) error {
	if p.ScalarsDirty() {
		params := [16]byte{0: byte(p.Index), 1: sectionSettings}
		params[3], params[4] = byte(p.PollingRateHz>>8), byte(p.PollingRateHz)
		params[5] = byte(p.DebounceMs)
		params[6] = byte(p.AngleSnapping)
		params[7] = boolByte(!p.Enabled)
		if _, err := drv.ch.SetLongRegister(drv.deviceIndex, regProfileData, params); err != nil {
			return err
		}
	}
	for ri, r := range p.Resolutions {
		if !r.Dirty() {
			continue
		}
		params := [16]byte{0: byte(p.Index), 1: sectionResolution, 2: byte(ri)}
		params[3], params[4] = byte(r.XDPI>>8), byte(r.XDPI)
		params[5] = boolByte(r.Active)
		params[6] = boolByte(r.Default)
		if _, err := drv.ch.SetLongRegister(drv.deviceIndex, regProfileData, params); err != nil {
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
		params := [16]byte{0: byte(p.Index), 1: sectionButton, 2: byte(bi)}
		params[3], params[4], params[5] = wire[0], wire[1], wire[2]
		if _, err := drv.ch.SetLongRegister(drv.deviceIndex, regProfileData, params); err != nil {
			return err
		}
	}
	for li, l := range p.LEDs {
		if !l.Dirty() {
			continue
		}
		params := [16]byte{0: byte(p.Index), 1: sectionLED, 2: byte(li)}
		params[3], params[4], params[5] = l.Color.R, l.Color.G, l.Color.B
		params[6] = byte(l.Mode)
		if _, err := drv.ch.SetLongRegister(drv.deviceIndex, regProfileData, params); err != nil {
			return err
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
	_, err := drv.ch.SetRegister(drv.deviceIndex, regActiveProfile, [3]byte{byte(index), 0, 0})
	return err
}

// ActiveProfile implements ratbag.Driver.
func (drv *Driver) ActiveProfile(d *ratbag.Device) (int, error) {
	reply, err := drv.ch.GetRegister(drv.deviceIndex, regActiveProfile)
	if err != nil {
		return 0, err
	}
	return int(reply[0]), nil
}

// WaitReady implements ratbag.ReadyWaiter: wireless receivers take a
// moment to settle after a profile switch before they accept writes
// again.
func (drv *Driver) WaitReady(d *ratbag.Device) error {
	return ratbag.PollReady(func() (bool, error) {
		reply, err := drv.ch.GetRegister(drv.deviceIndex, regDeviceState)
		if err != nil {
			if ratbagerr.Is(err, ratbagerr.KindIO) {
				return false, nil
			}
			return false, err
		}
		return reply[0]&0x01 != 0, nil
	})
}
