package logitechhidpp10

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/libratbag/ratbag-go/hidpp"
	"github.com/libratbag/ratbag-go/ratbag"
	"github.com/libratbag/ratbag-go/ratbagerr"
	"github.com/libratbag/ratbag-go/transport"
)

// regSim fakes a HID++ 1.0 peripheral (optionally behind a receiver): it
// decodes outgoing short/long frames, answers register reads from its
// tables, and queues exactly one reply frame per request the way the
// real single-endpoint hardware does.
type regSim struct {
	paired map[uint8]hidpp.PairedDevice

	counts [4]byte // numProfiles, numResolutions, numButtons, numLEDs
	active byte
	data   map[[3]byte][16]byte // (profile, section, slot) -> reply payload

	longWrites []hidpp.LongFrame

	pendingShort []byte
	pendingLong  []byte
}

func newRegSim(profiles, resolutions, buttons, leds byte) *regSim {
	return &regSim{
		paired: make(map[uint8]hidpp.PairedDevice),
		counts: [4]byte{profiles, resolutions, buttons, leds},
		data:   make(map[[3]byte][16]byte),
	}
}

func (s *regSim) Open(path string, open transport.OpenRestricted) error { return nil }
func (s *regSim) Close(close transport.CloseRestricted)                 {}
func (s *regSim) HasReport(reportID uint8) bool                         { return true }
func (s *regSim) Identity() (transport.Identity, error)                 { return transport.Identity{}, nil }

func (s *regSim) SetFeature(reportID uint8, buf []byte) (int, error) {
	s.pendingShort, s.pendingLong = nil, nil

	if reportID == hidpp.ShortReportID {
		f, ok := hidpp.DecodeShortFrame(buf)
		if !ok {
			return 0, ratbagerr.New(ratbagerr.KindIO, "bad short frame")
		}
		s.handleShort(f)
		return len(buf), nil
	}

	f, ok := hidpp.DecodeLongFrame(buf)
	if !ok {
		return 0, ratbagerr.New(ratbagerr.KindIO, "bad long frame")
	}
	s.handleLong(f)
	return len(buf), nil
}

func (s *regSim) handleShort(f hidpp.ShortFrame) {
	switch f.SubID {
	case hidpp.SubIDGetRegister:
		switch f.Address {
		case regActiveProfile:
			s.replyShort(f, [3]byte{s.active, 0, 0})
		case regDeviceState:
			s.replyShort(f, [3]byte{0x01, 0, 0})
		}
	case hidpp.SubIDSetRegister:
		if f.Address == regActiveProfile {
			s.active = f.Params[0]
		}
		s.replyShort(f, f.Params)
	}
}

func (s *regSim) handleLong(f hidpp.LongFrame) {
	switch f.SubID {
	case hidpp.SubIDGetLongRegister:
		switch f.Address {
		case hidpp.RegPairingInformation:
			s.handlePairing(f)
		case regCapabilities:
			var data [16]byte
			copy(data[:], s.counts[:])
			s.replyLong(f, data)
		case regProfileData:
			s.replyLong(f, s.data[[3]byte{f.Data[0], f.Data[1], f.Data[2]}])
		}
	case hidpp.SubIDSetLongRegister:
		if f.Address == regProfileData {
			var stored [16]byte
			copy(stored[:], f.Data[3:])
			s.data[[3]byte{f.Data[0], f.Data[1], f.Data[2]}] = stored
		}
		s.longWrites = append(s.longWrites, f)
		s.replyLong(f, f.Data)
	}
}

func (s *regSim) handlePairing(f hidpp.LongFrame) {
	selector := f.Data[0]
	var kind byte
	var slot uint8
	switch {
	case selector >= 0x40:
		kind, slot = 0x40, selector-0x40+1
	case selector >= 0x30:
		kind, slot = 0x30, selector-0x30+1
	default:
		kind, slot = 0x20, selector-0x20+1
	}

	dev, ok := s.paired[slot]
	if !ok {
		s.pendingShort = hidpp.ShortFrame{
			DeviceIndex: hidpp.ReceiverIndex,
			SubID:       hidpp.ErrorSubID,
			Address:     hidpp.SubIDGetLongRegister,
			Params:      [3]byte{hidpp.RegPairingInformation, 0x0a, 0},
		}.Encode()
		return
	}

	var data [16]byte
	switch kind {
	case 0x20:
		data[1], data[2] = byte(dev.ProductID>>8), byte(dev.ProductID)
		data[7] = dev.DeviceType
	case 0x30:
		data[1] = byte(dev.Serial >> 24)
		data[2] = byte(dev.Serial >> 16)
		data[3] = byte(dev.Serial >> 8)
		data[4] = byte(dev.Serial)
	case 0x40:
		data[1] = byte(len(dev.Name))
		copy(data[2:], dev.Name)
	}
	s.replyLong(f, data)
}

func (s *regSim) replyShort(req hidpp.ShortFrame, params [3]byte) {
	s.pendingShort = hidpp.ShortFrame{DeviceIndex: req.DeviceIndex, SubID: req.SubID, Address: req.Address, Params: params}.Encode()
}

func (s *regSim) replyLong(req hidpp.LongFrame, data [16]byte) {
	s.pendingLong = hidpp.LongFrame{DeviceIndex: req.DeviceIndex, SubID: req.SubID, Address: req.Address, Data: data}.Encode()
}

func (s *regSim) GetFeature(reportID uint8, buf []byte) (int, error) {
	if reportID == hidpp.ShortReportID {
		if s.pendingShort == nil {
			return 0, ratbagerr.New(ratbagerr.KindIO, "no short reply pending")
		}
		n := copy(buf, s.pendingShort)
		s.pendingShort = nil
		return n, nil
	}
	if s.pendingLong == nil {
		return 0, ratbagerr.New(ratbagerr.KindIO, "no long reply pending")
	}
	n := copy(buf, s.pendingLong)
	s.pendingLong = nil
	return n, nil
}

func TestProbe_DirectWired_PopulatesModel(t *testing.T) {
	sim := newRegSim(2, 1, 2, 1)
	sim.active = 1
	sim.data[[3]byte{0, sectionSettings, 0}] = [16]byte{0x03, 0xe8, 4, 1, 0}  // 1000 Hz, 4 ms debounce, angle snapping
	sim.data[[3]byte{0, sectionResolution, 0}] = [16]byte{0x06, 0x40, 1, 1} // 1600 dpi, active, default
	sim.data[[3]byte{0, sectionButton, 1}] = [16]byte{0x02, 0x00, 0x52}     // key 0x52
	sim.data[[3]byte{0, sectionLED, 0}] = [16]byte{0x11, 0x22, 0x33, byte(ratbag.LEDModeOn)}

	drv := &Driver{}
	dev, err := drv.Probe(ratbag.DeviceIdentity{Bus: transport.BusUSB, Vendor: 0x046d, Product: 0xc246}, sim, nil)
	require.NoError(t, err)

	require.Equal(t, directWiredDeviceIndex, drv.deviceIndex)
	require.Len(t, dev.Profiles, 2)
	require.Equal(t, 1, dev.ActiveProfileIndex())

	p := dev.Profiles[0]
	require.Equal(t, 1000, p.PollingRateHz)
	require.Equal(t, 4, p.DebounceMs)
	require.Equal(t, 1, p.AngleSnapping)
	require.Equal(t, 1600, p.Resolutions[0].XDPI)
	require.True(t, p.Resolutions[0].Active)
	require.Equal(t, ratbag.KeyAction(0x52), p.Buttons[1].Action)
	require.Equal(t, ratbag.Color{R: 0x11, G: 0x22, B: 0x33}, p.LEDs[0].Color)
	require.False(t, dev.Dirty())
}

func TestProbe_ResolvesPairedReceiverSlot(t *testing.T) {
	sim := newRegSim(1, 1, 1, 0)
	sim.paired[2] = hidpp.PairedDevice{Index: 2, ProductID: 0x4082, DeviceType: 3, Serial: 0x01020304, Name: "G Pro"}

	drv := &Driver{}
	dev, err := drv.Probe(ratbag.DeviceIdentity{Bus: transport.BusUSB, Vendor: 0x046d, Product: 0x4082}, sim, nil)
	require.NoError(t, err)
	require.Equal(t, uint8(2), drv.deviceIndex, "driver must address the paired slot, not the direct-wired index")

	// Every later write is addressed to the resolved slot.
	sim.longWrites = nil
	require.NoError(t, dev.Profiles[0].Resolutions[0].SetDPI(800))
	require.NoError(t, dev.Commit())
	require.NotEmpty(t, sim.longWrites)
	for _, w := range sim.longWrites {
		require.Equal(t, uint8(2), w.DeviceIndex)
	}
}

func TestCommit_WritesDirtyResolutionRegister(t *testing.T) {
	sim := newRegSim(1, 1, 1, 0)
	drv := &Driver{}
	dev, err := drv.Probe(ratbag.DeviceIdentity{Bus: transport.BusUSB, Vendor: 0x046d, Product: 0xc246}, sim, nil)
	require.NoError(t, err)
	sim.longWrites = nil

	require.NoError(t, dev.Profiles[0].Resolutions[0].SetDPI(800))
	require.NoError(t, dev.Profiles[0].Resolutions[0].SetActive())
	require.NoError(t, dev.Commit())

	require.Len(t, sim.longWrites, 1)
	w := sim.longWrites[0]
	require.Equal(t, regProfileData, w.Address)
	require.Equal(t, byte(0), w.Data[0])
	require.Equal(t, sectionResolution, w.Data[1])
	require.Equal(t, byte(800>>8), w.Data[3])
	require.Equal(t, byte(800&0xff), w.Data[4])
	require.Equal(t, byte(1), w.Data[5], "active flag")
}

func TestCommit_ScalarOnlyChangeWritesSettingsRegister(t *testing.T) {
	sim := newRegSim(1, 1, 1, 0)
	drv := &Driver{}
	dev, err := drv.Probe(ratbag.DeviceIdentity{Bus: transport.BusUSB, Vendor: 0x046d, Product: 0xc246}, sim, nil)
	require.NoError(t, err)
	sim.longWrites = nil

	require.NoError(t, dev.Profiles[0].SetPollingRate(1000))
	require.NoError(t, dev.Commit())

	require.Len(t, sim.longWrites, 1)
	w := sim.longWrites[0]
	require.Equal(t, regProfileData, w.Address)
	require.Equal(t, sectionSettings, w.Data[1])
	require.Equal(t, byte(0x03), w.Data[3])
	require.Equal(t, byte(0xe8), w.Data[4])
}

func TestWaitReady_ReadsDeviceStateRegister(t *testing.T) {
	sim := newRegSim(1, 1, 1, 0)
	drv := &Driver{ch: hidpp.NewChannel1(sim), deviceIndex: directWiredDeviceIndex}

	require.NoError(t, drv.WaitReady(nil))
}
