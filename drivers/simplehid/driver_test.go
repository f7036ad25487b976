package simplehid

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/libratbag/ratbag-go/ratbag"
	"github.com/libratbag/ratbag-go/ratbagerr"
	"github.com/libratbag/ratbag-go/transport"
)

// rivalIdentity matches the SteelSeries Rival 100 row of modelsByIdentity:
// one profile, six buttons, one LED, checksummed reports.
var rivalIdentity = ratbag.DeviceIdentity{Bus: transport.BusUSB, Vendor: 0x1038, Product: 0x1702}

// reportSim fakes the single-report profile hardware this family talks
// to: a 2-byte select write chooses which profile the next read returns,
// a full-size write replaces that profile's stored report.
type reportSim struct {
	model    Model
	active   byte
	profiles map[byte][]byte
	selected byte

	// fullWrites records every full-size profile report written, in
	// order, so tests can assert on commit wire traffic.
	fullWrites [][]byte
}

func newReportSim(model Model) *reportSim {
	return &reportSim{model: model, profiles: make(map[byte][]byte)}
}

// seedProfile stores the report GetFeature returns for profile pi,
// appending a valid checksum when the model carries one. corrupt flips
// the checksum to an invalid value instead.
func (s *reportSim) seedProfile(pi byte, body []byte, corrupt bool) {
	report := make([]byte, s.model.reportSize())
	copy(report, body)
	if s.model.Quirks&QuirkChecksum != 0 {
		n := len(report)
		cs := checksum16(report[:n-2])
		if corrupt {
			cs++
		}
		report[n-2], report[n-1] = byte(cs>>8), byte(cs)
	}
	s.profiles[pi] = report
}

func (s *reportSim) Open(path string, open transport.OpenRestricted) error { return nil }
func (s *reportSim) Close(close transport.CloseRestricted)                 {}
func (s *reportSim) HasReport(reportID uint8) bool                         { return true }
func (s *reportSim) Identity() (transport.Identity, error) {
	return transport.Identity{BusType: transport.BusUSB, Vendor: 0x1038, Product: 0x1702}, nil
}

func (s *reportSim) SetFeature(reportID uint8, buf []byte) (int, error) {
	switch reportID {
	case s.model.ActiveReportID:
		s.active = buf[1]
	case s.model.ReportID:
		if len(buf) == 2 {
			s.selected = buf[1]
			break
		}
		cp := make([]byte, len(buf))
		copy(cp, buf)
		s.profiles[buf[1]] = cp
		s.selected = buf[1]
		s.fullWrites = append(s.fullWrites, cp)
	}
	return len(buf), nil
}

func (s *reportSim) GetFeature(reportID uint8, buf []byte) (int, error) {
	switch reportID {
	case s.model.ActiveReportID:
		return copy(buf, []byte{s.model.ActiveReportID, s.active}), nil
	case s.model.ReportID:
		report, ok := s.profiles[s.selected]
		if !ok {
			return 0, ratbagerr.New(ratbagerr.KindIO, "no profile seeded")
		}
		return copy(buf, report), nil
	}
	return 0, ratbagerr.New(ratbagerr.KindIO, "unexpected report id")
}

// rivalBody builds the pre-checksum body of a Rival-shaped profile
// report: header with dpi and scalars, six 2-byte button slots, one
// 4-byte LED slot.
func rivalBody(model Model, pi byte, dpi int, button0 [2]byte, led [4]byte) []byte {
	body := make([]byte, model.reportSize())
	body[0], body[1] = model.ReportID, pi
	body[2], body[3] = byte(dpi>>8), byte(dpi)
	body[4] = 125 // polling rate Hz
	body[5] = 4   // debounce ms
	body[8], body[9] = button0[0], button0[1]
	off := 8 + model.NumButtons*2
	copy(body[off:off+4], led[:])
	return body[:off+4]
}

func probeRival(t *testing.T, corruptChecksum bool) (*Driver, *ratbag.Device, *reportSim) {
	t.Helper()
	model := modelsByIdentity[key(0x1038, 0x1702)]
	sim := newReportSim(model)
	sim.seedProfile(0, rivalBody(model, 0, 1600, [2]byte{0x01, 0x02}, [4]byte{0xff, 0x80, 0x00, byte(ratbag.LEDModeOn)}), corruptChecksum)

	drv := &Driver{}
	dev, err := drv.Probe(rivalIdentity, sim, nil)
	require.NoError(t, err)
	return drv, dev, sim
}

func TestProbe_PopulatesModelFromHardware(t *testing.T) {
	_, dev, _ := probeRival(t, false)

	require.Len(t, dev.Profiles, 1)
	p := dev.Profiles[0]
	require.Equal(t, 1600, p.Resolutions[0].XDPI)
	require.Equal(t, 1600, p.Resolutions[0].YDPI)
	require.Equal(t, 125, p.PollingRateHz)
	require.Equal(t, 4, p.DebounceMs)
	require.Equal(t, ratbag.MouseButtonAction(2), p.Buttons[0].Action)
	require.Equal(t, ratbag.NoneAction(), p.Buttons[1].Action)
	require.Equal(t, ratbag.Color{R: 0xff, G: 0x80}, p.LEDs[0].Color)
	require.Equal(t, ratbag.LEDModeOn, p.LEDs[0].Mode)
	require.False(t, dev.Dirty(), "probe must not leave anything dirty")
}

func TestProbe_ChecksumMismatchIsLoggedNotRejected(t *testing.T) {
	_, dev, _ := probeRival(t, true)

	// The corrupted report is still decoded and used.
	require.Equal(t, 1600, dev.Profiles[0].Resolutions[0].XDPI)
}

func TestProbe_UnknownIdentity(t *testing.T) {
	drv := &Driver{}
	sim := newReportSim(Model{})
	_, err := drv.Probe(ratbag.DeviceIdentity{Vendor: 0xdead, Product: 0xbeef}, sim, nil)
	require.True(t, ratbagerr.Is(err, ratbagerr.KindNotFound))
}

func TestCommit_WritesFullReportWithValidChecksum(t *testing.T) {
	_, dev, sim := probeRival(t, false)
	sim.fullWrites = nil

	require.NoError(t, dev.Profiles[0].Resolutions[0].SetDPI(3200))
	require.NoError(t, dev.Commit())

	require.Len(t, sim.fullWrites, 1)
	wire := sim.fullWrites[0]
	require.Equal(t, byte(3200>>8), wire[2])
	require.Equal(t, byte(3200&0xff), wire[3])

	n := len(wire)
	want := checksum16(wire[:n-2])
	got := uint16(wire[n-2])<<8 | uint16(wire[n-1])
	require.Equal(t, want, got, "trailing checksum must cover the payload")

	require.False(t, dev.Dirty(), "successful commit must clear dirty flags")
}

func TestCommit_ScalarOnlyChangeIsWritten(t *testing.T) {
	_, dev, sim := probeRival(t, false)
	sim.fullWrites = nil

	require.NoError(t, dev.Profiles[0].SetPollingRate(250))
	require.NoError(t, dev.Commit())

	require.Len(t, sim.fullWrites, 1, "a polling-rate-only change must still hit the wire")
	require.Equal(t, byte(250), sim.fullWrites[0][4])
	require.False(t, dev.Dirty())
}

func TestCommit_CleanDeviceWritesNothing(t *testing.T) {
	_, dev, sim := probeRival(t, false)
	sim.fullWrites = nil

	require.NoError(t, dev.Commit())
	require.Empty(t, sim.fullWrites)
}

func TestSetActiveProfile_RoundTrip(t *testing.T) {
	drv, dev, _ := probeRival(t, false)

	require.NoError(t, drv.SetActiveProfile(dev, 0))
	idx, err := drv.ActiveProfile(dev)
	require.NoError(t, err)
	require.Equal(t, 0, idx)
}
