package transport

import "github.com/libratbag/ratbag-go/ratbagerr"

// OpenRestricted opens path with the given flags (O_RDWR-style bits) and
// returns a raw file descriptor, or a negative errno on failure. A
// privileged caller (e.g. a D-Bus daemon holding CAP_foo or talking to
// logind) supplies this; the core never calls open(2) directly.
type OpenRestricted func(path string, flags int) (fd int, errno int)

// CloseRestricted closes a file descriptor previously returned by an
// OpenRestricted callback.
type CloseRestricted func(fd int)

// Identity is the numeric identity of an opened device, as reported by
// HIDIOCGRAWINFO (bus type, vendor id, product id).
type Identity struct {
	BusType uint32
	Vendor  uint16
	Product uint16
}

// Transport is one kernel HID raw endpoint. Implementations
// must not retry failed operations; retry policy belongs to the driver
// calling this interface.
type Transport interface {
	// Open acquires the endpoint at path using the given OpenRestricted
	// callback. Returns a *ratbagerr.Error of KindIO on failure.
	Open(path string, open OpenRestricted) error

	// Close releases the endpoint using the given CloseRestricted
	// callback. Close is idempotent: calling it on an already-closed
	// transport is a no-op.
	Close(close CloseRestricted)

	// GetFeature reads a feature report with the given report ID into buf
	// and returns the number of bytes read (including the leading report
	// ID byte, matching the kernel ioctl convention). buf must be sized
	// for the largest feature report the caller expects, plus one byte
	// for the report ID.
	GetFeature(reportID uint8, buf []byte) (int, error)

	// SetFeature writes a feature report. buf[0] must already be
	// reportID; SetFeature does not prepend it. Returns the number of
	// bytes written.
	SetFeature(reportID uint8, buf []byte) (int, error)

	// HasReport reports whether the opened device exposes a report with
	// the given ID, determined from the parsed report descriptor.
	HasReport(reportID uint8) bool

	// Identity returns the opened device's numeric identity.
	Identity() (Identity, error)
}

// errIO wraps cause as a KindIO *ratbagerr.Error.
func errIO(cause error, message string) error {
	return ratbagerr.Wrap(ratbagerr.KindIO, cause, message)
}
