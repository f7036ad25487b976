package hidpp

import (
	"testing"

	"github.com/libratbag/ratbag-go/ratbagerr"
	"github.com/libratbag/ratbag-go/transport"
)

// featureSim is a fake Transport driving Channel2: it answers root
// getFeature(id) calls from a fixed id->index table, and answers calls
// against a resolved feature index with whatever replyData the test
// configured (or an HID++ 2.0 error frame if wantErrorCode is set).
type featureSim struct {
	lastReq       LongFrame
	features      map[uint16]uint8
	replyData     [16]byte
	wantErrorCode int // 0 means "reply normally"
	writes        int
}

func (s *featureSim) Open(path string, open transport.OpenRestricted) error { return nil }
func (s *featureSim) Close(close transport.CloseRestricted)                 {}
func (s *featureSim) HasReport(reportID uint8) bool                         { return true }
func (s *featureSim) Identity() (transport.Identity, error)                 { return transport.Identity{}, nil }

func (s *featureSim) SetFeature(reportID uint8, buf []byte) (int, error) {
	frame, ok := DecodeLongFrame(buf)
	if !ok {
		return 0, ratbagerr.New(ratbagerr.KindIO, "bad frame")
	}
	s.lastReq = frame
	s.writes++
	return len(buf), nil
}

func (s *featureSim) GetFeature(reportID uint8, buf []byte) (int, error) {
	req := s.lastReq

	if req.SubID == rootFeatureIndex && (req.Address>>4) == getFeatureFunction {
		id := uint16(req.Data[0])<<8 | uint16(req.Data[1])
		var data [16]byte
		data[0] = s.features[id] // 0 if absent: unsupported
		reply := LongFrame{DeviceIndex: req.DeviceIndex, SubID: rootFeatureIndex, Address: req.Address, Data: data}.Encode()
		return copy(buf, reply), nil
	}

	if s.wantErrorCode != 0 {
		var data [16]byte
		data[0] = req.SubID
		data[1] = req.Address
		data[2] = byte(s.wantErrorCode)
		reply := LongFrame{DeviceIndex: req.DeviceIndex, SubID: errorFeatureIndex, Data: data}.Encode()
		return copy(buf, reply), nil
	}

	reply := LongFrame{DeviceIndex: req.DeviceIndex, SubID: req.SubID, Address: req.Address, Data: s.replyData}.Encode()
	return copy(buf, reply), nil
}

func TestChannel2_ResolveFeature_CachesLookup(t *testing.T) {
	sim := &featureSim{features: map[uint16]uint8{0x1b04: 0x04}}
	c := NewChannel2(sim)

	idx, err := c.ResolveFeature(0x01, 0x1b04)
	if err != nil {
		t.Fatalf("ResolveFeature() error = %v", err)
	}
	if idx != 0x04 {
		t.Fatalf("ResolveFeature() = %#x, want 0x04", idx)
	}
	if sim.writes != 1 {
		t.Fatalf("writes = %d, want 1", sim.writes)
	}

	if _, err := c.ResolveFeature(0x01, 0x1b04); err != nil {
		t.Fatalf("ResolveFeature() (cached) error = %v", err)
	}
	if sim.writes != 1 {
		t.Fatalf("writes after cached lookup = %d, want 1 (no wire round trip)", sim.writes)
	}
}

func TestChannel2_ResolveFeature_Unsupported(t *testing.T) {
	sim := &featureSim{features: map[uint16]uint8{}}
	c := NewChannel2(sim)

	_, err := c.ResolveFeature(0x01, 0x4523)
	if !ratbagerr.Is(err, ratbagerr.KindUnsupported) {
		t.Fatalf("ResolveFeature() err = %v, want KindUnsupported", err)
	}
}

func TestChannel2_Call_Success(t *testing.T) {
	sim := &featureSim{features: map[uint16]uint8{0x2201: 0x07}}
	sim.replyData[0] = 0x2a
	c := NewChannel2(sim)

	got, err := c.Call(0x01, 0x2201, 0x01, [16]byte{})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if got[0] != 0x2a {
		t.Fatalf("Call() data[0] = %#x, want 0x2a", got[0])
	}
}

func TestChannel2_Call_ErrorResponse(t *testing.T) {
	sim := &featureSim{features: map[uint16]uint8{0x2201: 0x07}, wantErrorCode: 0x05}
	c := NewChannel2(sim)

	_, err := c.Call(0x01, 0x2201, 0x01, [16]byte{})
	k, ok := ratbagerr.KindOf(err)
	if !ok || k != ratbagerr.KindProtocol {
		t.Fatalf("KindOf(err) = (%v, %v), want (KindProtocol, true)", k, ok)
	}
	rerr := err.(*ratbagerr.Error)
	if rerr.Code != 0x05 {
		t.Fatalf("err.Code = %#x, want 0x05", rerr.Code)
	}
}

func TestEncodeAddress(t *testing.T) {
	got := encodeAddress(0x3, 0xf)
	if got != 0x3f {
		t.Fatalf("encodeAddress(0x3, 0xf) = %#x, want 0x3f", got)
	}
}
