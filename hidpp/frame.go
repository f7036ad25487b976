package hidpp

// Report IDs for the two HID++ 1.0/2.0 frame sizes.
const (
	ShortReportID uint8 = 0x10
	LongReportID  uint8 = 0x11

	// ShortFrameSize is 7 bytes: report_id, device_index, sub_id,
	// address, p0, p1, p2.
	ShortFrameSize = 7
	// LongFrameSize is 20 bytes: report_id, device_index, sub_id,
	// address, data[16].
	LongFrameSize = 20

	// ReceiverIndex (0xff) targets a receiver rather than a paired
	// peripheral.
	ReceiverIndex uint8 = 0xff

	// ErrorSubID (0x8f) marks an HID++ 1.0 error frame.
	ErrorSubID uint8 = 0x8f
)

// ShortFrame is the 7-byte HID++ request/response frame.
type ShortFrame struct {
	DeviceIndex uint8
	SubID       uint8
	Address     uint8
	Params      [3]byte
}

// Encode serializes f into a ShortFrameSize-byte buffer with the leading
// report ID byte, ready for [transport.Transport.SetFeature].
func (f ShortFrame) Encode() []byte {
	buf := make([]byte, ShortFrameSize)
	buf[0] = ShortReportID
	buf[1] = f.DeviceIndex
	buf[2] = f.SubID
	buf[3] = f.Address
	copy(buf[4:7], f.Params[:])
	return buf
}

// DecodeShortFrame parses a ShortFrameSize-byte buffer (as returned by
// [transport.Transport.GetFeature]) into a ShortFrame. ok is false if buf
// is too short or does not carry the short report ID.
func DecodeShortFrame(buf []byte) (ShortFrame, bool) {
	if len(buf) < ShortFrameSize || buf[0] != ShortReportID {
		return ShortFrame{}, false
	}
	var f ShortFrame
	f.DeviceIndex = buf[1]
	f.SubID = buf[2]
	f.Address = buf[3]
	copy(f.Params[:], buf[4:7])
	return f, true
}

// LongFrame is the 20-byte HID++ request/response frame.
type LongFrame struct {
	DeviceIndex uint8
	SubID       uint8
	Address     uint8
	Data        [16]byte
}

// Encode serializes f into a LongFrameSize-byte buffer with the leading
// report ID byte.
func (f LongFrame) Encode() []byte {
	buf := make([]byte, LongFrameSize)
	buf[0] = LongReportID
	buf[1] = f.DeviceIndex
	buf[2] = f.SubID
	buf[3] = f.Address
	copy(buf[4:20], f.Data[:])
	return buf
}

// DecodeLongFrame parses a LongFrameSize-byte buffer into a LongFrame.
func DecodeLongFrame(buf []byte) (LongFrame, bool) {
	if len(buf) < LongFrameSize || buf[0] != LongReportID {
		return LongFrame{}, false
	}
	var f LongFrame
	f.DeviceIndex = buf[1]
	f.SubID = buf[2]
	f.Address = buf[3]
	copy(f.Data[:], buf[4:20])
	return f, true
}
