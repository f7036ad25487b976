package asus

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/libratbag/ratbag-go/ratbag"
	"github.com/libratbag/ratbag-go/ratbagerr"
	"github.com/libratbag/ratbag-go/transport"
)

type slotKey struct {
	profile byte
	slot    byte
}

// echoSim fakes hardware that echoes every accepted write back on the
// next read of the same report id, which is how this family acknowledges
// writes. flipEchoAfter, when positive, counts down accepted writes and
// then corrupts every later echo, simulating a device that silently
// reset mid-commit.
type echoSim struct {
	numProfiles, numResolutions, numButtons, numLEDs byte

	active   byte
	settings map[byte][]byte
	buttons  map[slotKey][]byte
	leds     map[slotKey][]byte

	selSettings byte
	selButton   slotKey
	selLED      slotKey

	flipEchoAfter int
	writes        int
}

func newEchoSim(profiles, resolutions, buttons, leds byte) *echoSim {
	return &echoSim{
		numProfiles:    profiles,
		numResolutions: resolutions,
		numButtons:     buttons,
		numLEDs:        leds,
		flipEchoAfter:  -1,
		settings:       make(map[byte][]byte),
		buttons:        make(map[slotKey][]byte),
		leds:           make(map[slotKey][]byte),
	}
}

func (s *echoSim) Open(path string, open transport.OpenRestricted) error { return nil }
func (s *echoSim) Close(close transport.CloseRestricted)                 {}
func (s *echoSim) HasReport(reportID uint8) bool                         { return true }
func (s *echoSim) Identity() (transport.Identity, error)                 { return transport.Identity{}, nil }

func (s *echoSim) SetFeature(reportID uint8, buf []byte) (int, error) {
	switch reportID {
	case reportProfile:
		s.active = buf[1]
	case reportSettings:
		if len(buf) == 2 {
			s.selSettings = buf[1]
			return len(buf), nil
		}
		s.settings[buf[1]] = clone(buf)
		s.selSettings = buf[1]
	case reportButtons:
		if len(buf) == 3 {
			s.selButton = slotKey{buf[1], buf[2]}
			return len(buf), nil
		}
		s.buttons[slotKey{buf[1], buf[2]}] = clone(buf)
		s.selButton = slotKey{buf[1], buf[2]}
	case reportLED:
		if len(buf) == 3 {
			s.selLED = slotKey{buf[1], buf[2]}
			return len(buf), nil
		}
		s.leds[slotKey{buf[1], buf[2]}] = clone(buf)
		s.selLED = slotKey{buf[1], buf[2]}
	}
	s.writes++
	if s.flipEchoAfter > 0 {
		s.flipEchoAfter--
	}
	return len(buf), nil
}

func (s *echoSim) GetFeature(reportID uint8, buf []byte) (int, error) {
	var n int
	switch reportID {
	case reportInfo:
		return copy(buf, []byte{reportInfo, s.numProfiles, s.numResolutions, s.numButtons, s.numLEDs}), nil
	case reportProfile:
		n = copy(buf, []byte{reportProfile, s.active})
	case reportSettings:
		if r, ok := s.settings[s.selSettings]; ok {
			n = copy(buf, r)
			break
		}
		n = copy(buf, []byte{reportSettings, s.selSettings, 0, 0, 0, 0, 0})
	case reportButtons:
		if r, ok := s.buttons[s.selButton]; ok {
			n = copy(buf, r)
			break
		}
		n = copy(buf, []byte{reportButtons, s.selButton.profile, s.selButton.slot, 0, 0, 0})
	case reportLED:
		if r, ok := s.leds[s.selLED]; ok {
			n = copy(buf, r)
			break
		}
		n = copy(buf, []byte{reportLED, s.selLED.profile, s.selLED.slot, 0, 0, 0, 0})
	default:
		return 0, ratbagerr.New(ratbagerr.KindIO, "unexpected report id")
	}
	if s.flipEchoAfter == 0 && n > 1 {
		buf[n-1] ^= 0xff
	}
	return n, nil
}

func clone(buf []byte) []byte {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	return cp
}

func probeSim(t *testing.T, sim *echoSim) (*Driver, *ratbag.Device) {
	t.Helper()
	drv := &Driver{}
	dev, err := drv.Probe(ratbag.DeviceIdentity{Bus: transport.BusUSB, Vendor: 0x0b05, Product: 0x1898}, sim, nil)
	require.NoError(t, err)
	return drv, dev
}

func TestProbe_PopulatesModel(t *testing.T) {
	sim := newEchoSim(2, 1, 2, 1)
	sim.active = 1
	sim.settings[1] = []byte{reportSettings, 1, 0x0c, 0x80, 1, 0, 250, 6, 0, 0} // 3200 dpi, 250 Hz, 6 ms debounce
	sim.buttons[slotKey{1, 0}] = []byte{reportButtons, 1, 0, 0x01, 0x00, 0x03}
	sim.leds[slotKey{1, 0}] = []byte{reportLED, 1, 0, 0xaa, 0xbb, 0xcc, byte(ratbag.LEDModeOn)}

	_, dev := probeSim(t, sim)

	require.Equal(t, 1, dev.ActiveProfileIndex())
	p := dev.Profiles[1]
	require.Equal(t, 3200, p.Resolutions[0].XDPI)
	require.Equal(t, 250, p.PollingRateHz)
	require.Equal(t, 6, p.DebounceMs)
	require.Equal(t, ratbag.MouseButtonAction(3), p.Buttons[0].Action)
	require.Equal(t, ratbag.Color{R: 0xaa, G: 0xbb, B: 0xcc}, p.LEDs[0].Color)
	require.False(t, dev.Dirty())
}

func TestCommit_AcknowledgedWriteSucceeds(t *testing.T) {
	sim := newEchoSim(1, 1, 1, 0)
	_, dev := probeSim(t, sim)

	require.NoError(t, dev.Profiles[0].Resolutions[0].SetDPI(800))
	require.NoError(t, dev.Commit())
	require.False(t, dev.Dirty())

	wire := sim.settings[0]
	require.Equal(t, byte(800>>8), wire[2])
	require.Equal(t, byte(800&0xff), wire[3])
}

func TestCommit_ScalarOnlyChangeIsAcknowledged(t *testing.T) {
	sim := newEchoSim(1, 1, 1, 0)
	_, dev := probeSim(t, sim)

	require.NoError(t, dev.Profiles[0].SetDebounce(12))
	require.NoError(t, dev.Commit())

	wire := sim.settings[0]
	require.Equal(t, byte(12), wire[7])
	require.False(t, dev.Dirty())
}

func TestCommit_EchoMismatchIsDeviceError(t *testing.T) {
	sim := newEchoSim(1, 1, 1, 0)
	_, dev := probeSim(t, sim)
	sim.flipEchoAfter = 1 // corrupt the echo of the first commit write

	require.NoError(t, dev.Profiles[0].Resolutions[0].SetDPI(800))

	err := dev.Commit()
	require.True(t, ratbagerr.Is(err, ratbagerr.KindDevice), "echo mismatch must surface as KindDevice, got %v", err)
	require.True(t, dev.Profiles[0].Dirty(), "failed write keeps its dirty flag")
}

func TestReprobe_SkipsDirtyProfiles(t *testing.T) {
	sim := newEchoSim(2, 1, 1, 0)
	sim.settings[0] = []byte{reportSettings, 0, 0x03, 0x20, 1, 1, 125}
	sim.settings[1] = []byte{reportSettings, 1, 0x03, 0x20, 1, 1, 125}
	drv, dev := probeSim(t, sim)

	// The caller edits profile 0; then hardware state moves under us.
	require.NoError(t, dev.Profiles[0].Resolutions[0].SetDPI(1600))
	sim.settings[0] = []byte{reportSettings, 0, 0x1f, 0x40, 1, 1, 250}
	sim.settings[1] = []byte{reportSettings, 1, 0x1f, 0x40, 1, 1, 250}

	require.NoError(t, drv.Reprobe(dev))

	require.Equal(t, 1600, dev.Profiles[0].Resolutions[0].XDPI, "pending edit must survive re-probe")
	require.Equal(t, 8000, dev.Profiles[1].Resolutions[0].XDPI, "clean profile refreshed from hardware")
	require.Equal(t, 250, dev.Profiles[1].PollingRateHz)
}

func TestCommitAfterReprobe_IsCallerRetried(t *testing.T) {
	sim := newEchoSim(1, 1, 1, 0)
	_, dev := probeSim(t, sim)

	require.NoError(t, dev.Profiles[0].Resolutions[0].SetDPI(800))
	dev.SetState(ratbag.StateNotReady)

	err := dev.Commit()
	require.True(t, ratbagerr.Is(err, ratbagerr.KindDevice))
	require.Equal(t, ratbag.StateReady, dev.State())
	require.True(t, dev.Dirty(), "the pending edit survives for the caller's re-commit")

	// The re-issued commit now proceeds normally.
	require.NoError(t, dev.Commit())
	require.False(t, dev.Dirty())
}
