package hidpp

import (
	"bytes"
	"errors"

	"github.com/libratbag/ratbag-go/ratbagerr"
)

// RegPairingInformation is the single register address a receiver
// multiplexes by selector byte, carried as the first byte of the request
// payload, to expose pairing information, extended pairing info, and the
// device name:
//   - pairingInfoSelector + slot: basic pairing info (product id, type)
//   - extendedPairingInfoSelector + slot: extended pairing info (serial)
//   - deviceNameSelector + slot: the device's name
const RegPairingInformation uint8 = 0xb5

// Selector bytes for RegPairingInformation, offset by (slot-1).
const (
	pairingInfoSelector         byte = 0x20
	extendedPairingInfoSelector byte = 0x30
	deviceNameSelector          byte = 0x40
)

// PairedDevice describes one device paired to a wireless receiver, as
// reported by receiver enumeration.
type PairedDevice struct {
	Index      uint8
	ProductID  uint16
	DeviceType uint8
	Serial     uint32
	Name       string
}

// Identity returns the (pid, type, serial, name) tuple that recognizes
// the same physical device across enumerations whose device index may
// have been reassigned by the receiver.
func (p PairedDevice) Identity() [4]any {
	return [4]any{p.ProductID, p.DeviceType, p.Serial, p.Name}
}

// SameDevice reports whether p and other identify the same physical
// device, independent of Index.
func (p PairedDevice) SameDevice(other PairedDevice) bool {
	return p.ProductID == other.ProductID &&
		p.DeviceType == other.DeviceType &&
		p.Serial == other.Serial &&
		p.Name == other.Name
}

// EnumerateReceiver iterates device indexes 1..6 on the receiver at
// ReceiverIndex, skipping indexes that return a protocol error (an
// unoccupied pairing slot), and returns the paired devices found.
func (c *Channel1) EnumerateReceiver() ([]PairedDevice, error) {
	var devices []PairedDevice

	for slot := uint8(1); slot <= 6; slot++ {
		pairing, err := c.selectorRead(pairingInfoSelector, slot)
		if err != nil {
			if isSkippableSlotError(err) {
				continue
			}
			return nil, err
		}

		productID := uint16(pairing[2]) | uint16(pairing[1])<<8
		deviceType := pairing[7]

		extended, err := c.selectorRead(extendedPairingInfoSelector, slot)
		if err != nil && !isSkippableSlotError(err) {
			return nil, err
		}
		serial := uint32(extended[1])<<24 | uint32(extended[2])<<16 | uint32(extended[3])<<8 | uint32(extended[4])

		name, err := c.deviceName(slot)
		if err != nil && !isSkippableSlotError(err) {
			return nil, err
		}

		devices = append(devices, PairedDevice{
			Index:      slot,
			ProductID:  productID,
			DeviceType: deviceType,
			Serial:     serial,
			Name:       name,
		})
	}

	return devices, nil
}

// selectorRead issues a GET_LONG_REGISTER at RegPairingInformation with
// the given sub-query selector and pairing slot encoded in the request
// payload.
func (c *Channel1) selectorRead(selector byte, slot uint8) ([16]byte, error) {
	var params [16]byte
	params[0] = selector + (slot - 1)
	return c.GetLongRegisterParams(ReceiverIndex, RegPairingInformation, params)
}

// deviceName reads the paired device's name at the given slot.
func (c *Channel1) deviceName(slot uint8) (string, error) {
	raw, err := c.selectorRead(deviceNameSelector, slot)
	if err != nil {
		return "", err
	}
	length := int(raw[1])
	if length > len(raw)-2 {
		length = len(raw) - 2
	}
	name := raw[2 : 2+length]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return string(name), nil
}

// isSkippableSlotError reports whether err represents an unoccupied
// pairing slot, which receiver enumeration silently skips.
func isSkippableSlotError(err error) bool {
	var e *ratbagerr.Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == ratbagerr.KindProtocol
}
