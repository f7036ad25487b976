package hidpp

import (
	"sync"

	"github.com/libratbag/ratbag-go/ratbagerr"
	"github.com/libratbag/ratbag-go/transport"
)

// RootFeatureID is the HID++ 2.0 root feature (0x0000), always resolved
// to feature index 0, used to resolve any other feature id to its index.
const RootFeatureID uint16 = 0x0000

// rootFeatureIndex is the fixed index of the root feature.
const rootFeatureIndex uint8 = 0x00

// errorFeatureIndex marks a HID++ 2.0 error response: the device replies
// with this reserved feature index instead of echoing the request's
// resolved index.
const errorFeatureIndex uint8 = 0xff

// getFeatureFunction is function 0 on the root feature: resolve a 16-bit
// feature id to (index, type, version).
const getFeatureFunction uint8 = 0x00

// Channel2 is the HID++ 2.0 feature-oriented channel, layered
// on the same 7/20-byte frames as Channel1.
type Channel2 struct {
	t transport.Transport

	mu    sync.Mutex
	index map[hidpp2Key]uint8 // (deviceIndex, featureID) -> resolved index
	txID  uint8
}

type hidpp2Key struct {
	deviceIndex uint8
	featureID   uint16
}

// NewChannel2 wraps t as a HID++ 2.0 channel.
func NewChannel2(t transport.Transport) *Channel2 {
	return &Channel2{t: t, index: make(map[hidpp2Key]uint8)}
}

// encodeAddress packs a HID++ 2.0 address byte: function number in the
// high nibble, a 4-bit transaction tag in the low nibble. The tag is
// sometimes documented as an 8-bit transaction id, but only 4 bits remain
// next to the function nibble in a single address byte, so the tag wraps
// at 16.
func encodeAddress(function, txID uint8) uint8 {
	return (function<<4)&0xf0 | (txID & 0x0f)
}

// ResolveFeature resolves featureID to its feature index on deviceIndex,
// caching the result. A feature not supported by the device returns
// KindUnsupported — a recoverable error the caller may choose to continue
// past.
func (c *Channel2) ResolveFeature(deviceIndex uint8, featureID uint16) (uint8, error) {
	if featureID == RootFeatureID {
		return rootFeatureIndex, nil
	}

	key := hidpp2Key{deviceIndex, featureID}
	c.mu.Lock()
	if idx, ok := c.index[key]; ok {
		c.mu.Unlock()
		return idx, nil
	}
	c.mu.Unlock()

	var params [16]byte
	params[0] = byte(featureID >> 8)
	params[1] = byte(featureID)

	reply, err := c.call(deviceIndex, rootFeatureIndex, getFeatureFunction, params)
	if err != nil {
		return 0, err
	}

	idx := reply[0]
	if idx == 0 {
		return 0, ratbagerr.New(ratbagerr.KindUnsupported, "feature not supported by device")
	}

	c.mu.Lock()
	c.index[key] = idx
	c.mu.Unlock()
	return idx, nil
}

// Call invokes function on featureID with the given parameters, resolving
// featureID to its index first (cached after the first call).
func (c *Channel2) Call(deviceIndex uint8, featureID uint16, function uint8, params [16]byte) ([16]byte, error) {
	idx, err := c.ResolveFeature(deviceIndex, featureID)
	if err != nil {
		return [16]byte{}, err
	}
	return c.call(deviceIndex, idx, function, params)
}

// call issues one HID++ 2.0 request against a resolved feature index and
// waits for either the matching reply or an error response.
func (c *Channel2) call(deviceIndex, featureIndex, function uint8, params [16]byte) ([16]byte, error) {
	c.mu.Lock()
	c.txID = (c.txID + 1) & 0x0f
	tx := c.txID
	c.mu.Unlock()

	address := encodeAddress(function, tx)
	req := LongFrame{DeviceIndex: deviceIndex, SubID: featureIndex, Address: address, Data: params}
	if _, err := c.t.SetFeature(LongReportID, req.Encode()); err != nil {
		return [16]byte{}, err
	}

	buf := make([]byte, LongFrameSize)
	for attempt := 0; attempt < maxReadAttempts; attempt++ {
		n, err := c.t.GetFeature(LongReportID, buf)
		if err != nil {
			continue
		}
		frame, ok := DecodeLongFrame(buf[:n])
		if !ok || frame.DeviceIndex != deviceIndex {
			continue
		}

		if frame.SubID == errorFeatureIndex && frame.Data[0] == featureIndex && frame.Data[1] == address {
			return [16]byte{}, ratbagerr.NewProtocolError(int(frame.Data[2]))
		}
		if frame.SubID == featureIndex && frame.Address == address {
			return frame.Data, nil
		}
		// Unrelated event notification; keep reading.
	}
	return [16]byte{}, ratbagerr.New(ratbagerr.KindIO, "HID++ 2.0 call: no matching reply")
}
