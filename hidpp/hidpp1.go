package hidpp

import (
	"github.com/libratbag/ratbag-go/ratbagerr"
	"github.com/libratbag/ratbag-go/transport"
)

// HID++ 1.0 register-access sub-ids.
const (
	SubIDSetRegister     uint8 = 0x80
	SubIDGetRegister     uint8 = 0x81
	SubIDSetLongRegister uint8 = 0x82
	SubIDGetLongRegister uint8 = 0x83
)

// maxReadAttempts bounds how many feature-report reads Channel1 performs
// looking for a matching reply before giving up with KindIO (stream
// exhaustion).
const maxReadAttempts = 8

// Channel1 is the HID++ 1.0 request/response channel.
type Channel1 struct {
	t transport.Transport
}

// NewChannel1 wraps t as a HID++ 1.0 channel.
func NewChannel1(t transport.Transport) *Channel1 {
	return &Channel1{t: t}
}

// GetRegister issues a short GET_REGISTER request and returns the 3-byte
// reply payload.
func (c *Channel1) GetRegister(deviceIndex, address uint8) ([3]byte, error) {
	return c.shortRequest(deviceIndex, SubIDGetRegister, address, [3]byte{})
}

// SetRegister issues a short SET_REGISTER request with the given
// parameters and returns the 3-byte reply payload.
func (c *Channel1) SetRegister(deviceIndex, address uint8, params [3]byte) ([3]byte, error) {
	return c.shortRequest(deviceIndex, SubIDSetRegister, address, params)
}

// GetLongRegister issues a GET_LONG_REGISTER request with a zeroed
// request payload and returns the 16-byte reply payload.
func (c *Channel1) GetLongRegister(deviceIndex, address uint8) ([16]byte, error) {
	return c.longRequest(deviceIndex, SubIDGetLongRegister, address, [16]byte{})
}

// GetLongRegisterParams issues a GET_LONG_REGISTER request whose request
// payload carries selector bytes (e.g. a pairing-slot selector), and
// returns the 16-byte reply payload.
func (c *Channel1) GetLongRegisterParams(deviceIndex, address uint8, params [16]byte) ([16]byte, error) {
	return c.longRequest(deviceIndex, SubIDGetLongRegister, address, params)
}

// SetLongRegister issues a SET_LONG_REGISTER request and returns the
// 16-byte reply payload.
func (c *Channel1) SetLongRegister(deviceIndex, address uint8, data [16]byte) ([16]byte, error) {
	return c.longRequest(deviceIndex, SubIDSetLongRegister, address, data)
}

// shortRequest writes a short frame and reads replies until the expected
// header matches, an error frame addressed to this request is seen, or
// the read budget is exhausted.
func (c *Channel1) shortRequest(deviceIndex, subID, address uint8, params [3]byte) ([3]byte, error) {
	req := ShortFrame{DeviceIndex: deviceIndex, SubID: subID, Address: address, Params: params}
	if _, err := c.t.SetFeature(ShortReportID, req.Encode()); err != nil {
		return [3]byte{}, err
	}

	buf := make([]byte, ShortFrameSize)
	for attempt := 0; attempt < maxReadAttempts; attempt++ {
		n, err := c.t.GetFeature(ShortReportID, buf)
		if err != nil {
			return [3]byte{}, err
		}
		frame, ok := DecodeShortFrame(buf[:n])
		if !ok {
			continue
		}

		if frame.SubID == subID && frame.DeviceIndex == deviceIndex && frame.Address == address {
			return frame.Params, nil
		}

		if isErrorFor(frame, deviceIndex, subID, address) {
			return [3]byte{}, ratbagerr.NewProtocolError(int(frame.Params[1]))
		}
		// Unrelated notification frame; keep reading.
	}
	return [3]byte{}, ratbagerr.New(ratbagerr.KindIO, "HID++ 1.0 short request: no matching reply")
}

// longRequest is shortRequest's long-frame counterpart.
func (c *Channel1) longRequest(deviceIndex, subID, address uint8, data [16]byte) ([16]byte, error) {
	req := LongFrame{DeviceIndex: deviceIndex, SubID: subID, Address: address, Data: data}
	if _, err := c.t.SetFeature(LongReportID, req.Encode()); err != nil {
		return [16]byte{}, err
	}

	buf := make([]byte, LongFrameSize)
	shortBuf := make([]byte, ShortFrameSize)
	for attempt := 0; attempt < maxReadAttempts; attempt++ {
		// An error reply to a long request still arrives as a short
		// error frame.
		if n, err := c.t.GetFeature(ShortReportID, shortBuf); err == nil {
			if frame, ok := DecodeShortFrame(shortBuf[:n]); ok && isErrorFor(frame, deviceIndex, subID, address) {
				return [16]byte{}, ratbagerr.NewProtocolError(int(frame.Params[1]))
			}
		}

		n, err := c.t.GetFeature(LongReportID, buf)
		if err != nil {
			continue
		}
		frame, ok := DecodeLongFrame(buf[:n])
		if !ok {
			continue
		}
		if frame.SubID == subID && frame.DeviceIndex == deviceIndex && frame.Address == address {
			return frame.Data, nil
		}
	}
	return [16]byte{}, ratbagerr.New(ratbagerr.KindIO, "HID++ 1.0 long request: no matching reply")
}

// isErrorFor reports whether frame is an HID++ 1.0 error frame (sub_id
// 0x8f) addressed to the given request: its Address field echoes the
// original sub_id and Params[0] echoes the original address. The error
// is considered
// addressed to this request if it targets either the requesting device
// or a receiver relaying on its behalf.
func isErrorFor(frame ShortFrame, deviceIndex, subID, address uint8) bool {
	if frame.SubID != ErrorSubID {
		return false
	}
	if frame.DeviceIndex != deviceIndex && frame.DeviceIndex != ReceiverIndex {
		return false
	}
	return frame.Address == subID && frame.Params[0] == address
}
