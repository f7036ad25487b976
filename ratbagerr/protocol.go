package ratbagerr

// HID++ 1.0/2.0 protocol error codes, as carried in an 0x8f error frame
// or a HID++ 2.0 error response. These are the
// fixed, enumerable sub-codes of KindProtocol.
const (
	ProtoErrUnknown           = 0x00
	ProtoErrInvalidSubID      = 0x01
	ProtoErrInvalidAddress    = 0x02
	ProtoErrInvalidValue      = 0x03
	ProtoErrConnectFail       = 0x04
	ProtoErrTooManyDevices    = 0x05
	ProtoErrAlreadyExists     = 0x06
	ProtoErrBusy              = 0x09
	ProtoErrUnknownDevice     = 0x0a
	ProtoErrInvalidParamValue = 0x0b
	ProtoErrWrongPINCode      = 0x0c
	ProtoErrUnsupported       = 0x0d
	ProtoErrResourceError     = 0x0e
)

// protocolErrorNames maps known HID++ error codes to short names used in
// error messages and logs.
var protocolErrorNames = map[int]string{
	ProtoErrUnknown:           "unknown",
	ProtoErrInvalidSubID:      "invalid-sub-id",
	ProtoErrInvalidAddress:    "invalid-address",
	ProtoErrInvalidValue:      "invalid-value",
	ProtoErrConnectFail:       "connect-fail",
	ProtoErrTooManyDevices:    "too-many-devices",
	ProtoErrAlreadyExists:     "already-exists",
	ProtoErrBusy:              "busy",
	ProtoErrUnknownDevice:     "unknown-device",
	ProtoErrInvalidParamValue: "invalid-param-value",
	ProtoErrWrongPINCode:      "wrong-pin-code",
	ProtoErrUnsupported:       "unsupported",
	ProtoErrResourceError:     "resource-error",
}

// ProtocolErrorName returns a short name for a HID++ protocol error code,
// or "unknown-protocol-error" if the code is not recognized.
func ProtocolErrorName(code int) string {
	if name, ok := protocolErrorNames[code]; ok {
		return name
	}
	return "unknown-protocol-error"
}

// NewProtocolError builds a KindProtocol error for the given HID++ error
// code, using the well-known short name as the message.
func NewProtocolError(code int) *Error {
	return WithCode(KindProtocol, code, ProtocolErrorName(code))
}

// IsBusy reports whether err is the transient "device busy" protocol
// error, the one protocol reply worth retrying after a brief delay.
func IsBusy(err error) bool {
	var e *Error
	if k, ok := KindOf(err); !ok || k != KindProtocol {
		return false
	}
	if ae, ok := err.(*Error); ok {
		e = ae
	}
	return e != nil && e.Code == ProtoErrBusy
}
