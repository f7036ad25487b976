// Package simplehid implements the quirk-as-data family: one
// generic driver whose wire layout is parameterized by a Model table
// entry instead of a per-vendor code path, covering the
// SteelSeries/SinoWealth/Trust GXT/Etekcity-shaped devices that pack an
// entire profile into a single feature report with an optional trailing
// checksum. New models are added to the modelsByIdentity table, never a
// new branch of driver logic: quirks are data, not code paths.
package simplehid

import (
	"github.com/libratbag/ratbag-go/driver"
	"github.com/libratbag/ratbag-go/ratbag"
	"github.com/libratbag/ratbag-go/ratbagerr"
	"github.com/libratbag/ratbag-go/ratbaglog"
	"github.com/libratbag/ratbag-go/transport"
)

// DriverID is this driver's registry id.
const DriverID = "simplehid"

// Quirk bits select per-model wire behavior without branching driver
// code.
type Quirk uint32

const (
	// QuirkChecksum appends a 16-bit unsigned-sum checksum as the last
	// two bytes of the profile report.
	QuirkChecksum Quirk = 1 << iota
	// QuirkRequiresActiveForWrite mirrors ratbag.CapRequiresActiveForWrite:
	// this model only accepts a profile write while that profile is
	// selected as active.
	QuirkRequiresActiveForWrite
)

// Model describes one vendor's fixed single-report profile layout: an
// 8-byte header (report id, profile index, 16-bit DPI, polling rate,
// debounce, angle-snapping, disabled flag), NumButtons 2-byte button
// slots, NumLEDs 4-byte (R, G, B, mode) LED slots, and an optional
// trailing checksum.
type Model struct {
	Name           string
	Quirks         Quirk
	NumProfiles    int
	NumButtons     int
	NumLEDs        int
	ReportID       uint8
	ActiveReportID uint8
}

func (m Model) reportSize() int {
	size := 8 + m.NumButtons*2 + m.NumLEDs*4
	if m.Quirks&QuirkChecksum != 0 {
		size += 2
	}
	return size
}

// modelsByIdentity maps (vendor, product) to the Model table entry for
// that device. Each entry stands in for one real-world simple-report
// mouse; adding support for another model is adding a row here.
var modelsByIdentity = map[uint32]Model{
	key(0x1038, 0x1702): {Name: "SteelSeries Rival 100", Quirks: QuirkChecksum, NumProfiles: 1, NumButtons: 6, NumLEDs: 1, ReportID: 0x02, ActiveReportID: 0x03},
	key(0x258a, 0x1007): {Name: "SinoWealth generic gaming mouse", Quirks: QuirkChecksum | QuirkRequiresActiveForWrite, NumProfiles: 4, NumButtons: 8, NumLEDs: 1, ReportID: 0x04, ActiveReportID: 0x05},
	key(0x0483, 0xa033): {Name: "Trust GXT gaming mouse", Quirks: 0, NumProfiles: 1, NumButtons: 6, NumLEDs: 0, ReportID: 0x06, ActiveReportID: 0x07},
	key(0x1ea7, 0x4011): {Name: "Etekcity gaming mouse", Quirks: QuirkChecksum, NumProfiles: 1, NumButtons: 5, NumLEDs: 1, ReportID: 0x08, ActiveReportID: 0x09},
}

func key(vendor, product uint16) uint32 {
	return uint32(vendor)<<16 | uint32(product)
}

// checksum16 is the shared 16-bit unsigned-sum checksum used by every
// model in this family that sets QuirkChecksum.
func checksum16(data []byte) uint16 {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return sum
}

func init() {
	driver.Register(driver.Record{
		ID:   DriverID,
		Name: "Generic single-report HID profile family",
		New:  func() ratbag.Driver { return &Driver{} },
	})
}

// Driver implements ratbag.Driver once, generically, over whichever Model
// Probe resolves for the opened device's identity.
type Driver struct {
	t     transport.Transport
	model Model
}

func encodeAction(a ratbag.Action) (kind byte, param byte) {
	switch a.Kind {
	case ratbag.ActionMouseButton:
		return 0x01, byte(a.Mouse)
	case ratbag.ActionSpecial:
		return 0x02, byte(a.Special)
	default:
		return 0x00, 0
	}
}

func decodeAction(kind, param byte) ratbag.Action {
	switch kind {
	case 0x01:
		return ratbag.MouseButtonAction(int(param))
	case 0x02:
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
	model, ok := modelsByIdentity[key(identity.Vendor, identity.Product)]
	if !ok {
		return nil, ratbagerr.New(ratbagerr.KindNotFound, "no simplehid model table entry for this identity")
	}
	drv.t = t
	drv.model = model

	activeBuf := make([]byte, 2)
	if _, err := t.GetFeature(model.ActiveReportID, activeBuf); err != nil {
		return nil, err
	}
	activeProfile := int(activeBuf[1])

	var caps ratbag.Capability
	if model.Quirks&QuirkRequiresActiveForWrite != 0 {
		caps |= ratbag.CapRequiresActiveForWrite
	}
	if model.NumLEDs > 0 {
		caps |= ratbag.CapLEDModeOn
	}
	dev := ratbag.NewDevice(identity, DriverID, drv, t, closeFn, caps)

	buttons := make([]ratbag.ButtonSpec, model.NumButtons)
	for i := range buttons {
		buttons[i] = ratbag.ButtonSpec{
			Type:      ratbag.ButtonUnknown,
			Permitted: []ratbag.ActionKind{ratbag.ActionNone, ratbag.ActionMouseButton, ratbag.ActionSpecial},
		}
	}
	resolutions := []ratbag.ResolutionSpec{{DPIRange: ratbag.DPIRange{Min: 400, Max: 12000, Step: 100}}}
	leds := make([]ratbag.LEDSpec, model.NumLEDs)
	for i := range leds {
		leds[i] = ratbag.LEDSpec{Type: ratbag.LEDLogo}
	}
	dev.InitProfiles(model.NumProfiles, buttons, resolutions, leds)
	dev.SetInitialActiveProfile(activeProfile)

	if err := drv.populate(dev); err != nil {
		return nil, err
	}
	return dev, nil
}

// readProfile selects pi via SetFeature and reads the full profile report
// back, logging and continuing past a checksum mismatch rather than
// rejecting the read.
func (drv *Driver) readProfile(pi int) ([]byte, error) {
	if _, err := drv.t.SetFeature(drv.model.ReportID, []byte{drv.model.ReportID, byte(pi)}); err != nil {
		return nil, err
	}
	buf := make([]byte, drv.model.reportSize())
	if _, err := drv.t.GetFeature(drv.model.ReportID, buf); err != nil {
		return nil, err
	}
	if drv.model.Quirks&QuirkChecksum != 0 {
		n := len(buf)
		want := uint16(buf[n-2])<<8 | uint16(buf[n-1])
		if got := checksum16(buf[:n-2]); got != want {
			ratbaglog.Warn(ratbaglog.ComponentDriver, "simplehid checksum mismatch on read, using data anyway",
				"model", drv.model.Name, "profile", pi, "want", want, "got", got)
		}
	}
	return buf, nil
}

func (drv *Driver) populate(dev *ratbag.Device) error {
	snap := dev.Snapshot()
	for pi, p := range dev.Profiles {
		buf, err := drv.readProfile(pi)
		if err != nil {
			return err
		}
		dpi := int(buf[2])<<8 | int(buf[3])
		snap.Profiles[pi].Resolutions[0].XDPI = dpi
		snap.Profiles[pi].Resolutions[0].YDPI = dpi
		snap.Profiles[pi].PollingRateHz = int(buf[4])
		snap.Profiles[pi].DebounceMs = int(buf[5])
		snap.Profiles[pi].AngleSnapping = int(buf[6])
		snap.Profiles[pi].Enabled = buf[7] == 0

		off := 8
		for bi := range p.Buttons {
			snap.Profiles[pi].Buttons[bi].Action = decodeAction(buf[off], buf[off+1])
			off += 2
		}
		for li := range p.LEDs {
			snap.Profiles[pi].LEDs[li].Color = ratbag.Color{R: buf[off], G: buf[off+1], B: buf[off+2]}
			snap.Profiles[pi].LEDs[li].Mode = ratbag.LEDMode(buf[off+3])
			off += 4
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

// Commit implements ratbag.Driver: the whole profile is one report, so a
// dirty section forces a full re-encode and write of that profile's
// report, not just the changed bytes.
func (drv *Driver) Commit(d *ratbag.Device, p *ratbag.Profile) error {
	if !p.Dirty() {
		return nil
	}

	buf := make([]byte, drv.model.reportSize())
	buf[0] = drv.model.ReportID
	buf[1] = byte(p.Index)
	dpi := 0
	if len(p.Resolutions) > 0 {
		dpi = p.Resolutions[0].XDPI
	}
	buf[2], buf[3] = byte(dpi>>8), byte(dpi)
	buf[4] = byte(p.PollingRateHz)
	buf[5] = byte(p.DebounceMs)
	buf[6] = byte(p.AngleSnapping)
	if !p.Enabled {
		buf[7] = 1
	}

	off := 8
	for _, b := range p.Buttons {
		kind, param := encodeAction(b.Action)
		buf[off], buf[off+1] = kind, param
		off += 2
	}
	for _, l := range p.LEDs {
		buf[off], buf[off+1], buf[off+2], buf[off+3] = l.Color.R, l.Color.G, l.Color.B, byte(l.Mode)
		off += 4
	}

	if drv.model.Quirks&QuirkChecksum != 0 {
		cs := checksum16(buf[:off])
		buf[off], buf[off+1] = byte(cs>>8), byte(cs)
	}

	_, err := drv.t.SetFeature(drv.model.ReportID, buf)
	return err
}

// SetActiveProfile implements ratbag.Driver.
func (drv *Driver) SetActiveProfile(d *ratbag.Device, index int) error {
	_, err := drv.t.SetFeature(drv.model.ActiveReportID, []byte{drv.model.ActiveReportID, byte(index)})
	return err
}

// ActiveProfile implements ratbag.Driver.
func (drv *Driver) ActiveProfile(d *ratbag.Device) (int, error) {
	buf := make([]byte, 2)
	if _, err := drv.t.GetFeature(drv.model.ActiveReportID, buf); err != nil {
		return 0, err
	}
	return int(buf[1]), nil
}
