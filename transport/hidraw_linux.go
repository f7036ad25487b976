//go:build linux

package transport

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/libratbag/ratbag-go/ratbaglog"
)

// Linux implements [Transport] against a Linux hidraw character device
// (/dev/hidrawN).
type Linux struct {
	mu      sync.Mutex
	fd      int
	path    string
	open    bool
	reports map[uint8]bool
}

// NewLinux constructs an unopened Linux hidraw transport.
func NewLinux() *Linux {
	return &Linux{fd: -1}
}

// Open implements [Transport.Open].
func (l *Linux) Open(path string, open OpenRestricted) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	fd, errno := open(path, unix.O_RDWR)
	if errno < 0 {
		errno = -errno
	}
	if errno != 0 {
		return errIO(unix.Errno(errno), fmt.Sprintf("open %s", path))
	}

	l.fd = fd
	l.path = path
	l.open = true

	ids, err := l.readReportIDsLocked()
	if err != nil {
		// Non-fatal: HasReport degrades to "assume present" if the
		// descriptor can't be read, but probe should still proceed.
		ratbaglog.Warn(ratbaglog.ComponentTransport, "could not read report descriptor",
			"path", path, "error", err)
		ids = nil
	}
	l.reports = ids

	return nil
}

// Close implements [Transport.Close].
func (l *Linux) Close(closeFn CloseRestricted) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.open {
		return
	}
	closeFn(l.fd)
	l.fd = -1
	l.open = false
}

// GetFeature implements [Transport.GetFeature].
func (l *Linux) GetFeature(reportID uint8, buf []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.open {
		return 0, errIO(unix.EBADF, "get feature on closed transport")
	}
	if len(buf) == 0 {
		return 0, errIO(unix.EINVAL, "get feature buffer too small")
	}
	buf[0] = reportID

	n, err := ioctlBuf(l.fd, hidrawGetFeature(len(buf)), buf)
	if err != nil {
		return 0, errIO(err, "HIDIOCGFEATURE")
	}
	return n, nil
}

// SetFeature implements [Transport.SetFeature].
func (l *Linux) SetFeature(reportID uint8, buf []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.open {
		return 0, errIO(unix.EBADF, "set feature on closed transport")
	}
	if len(buf) == 0 || buf[0] != reportID {
		return 0, errIO(unix.EINVAL, "set feature buffer missing report id")
	}

	n, err := ioctlBuf(l.fd, hidrawSetFeature(len(buf)), buf)
	if err != nil {
		return 0, errIO(err, "HIDIOCSFEATURE")
	}
	return n, nil
}

// HasReport implements [Transport.HasReport].
func (l *Linux) HasReport(reportID uint8) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.reports == nil {
		// Descriptor unavailable: do not block drivers that rely on
		// report presence as a soft hint.
		return true
	}
	return l.reports[reportID]
}

// Identity implements [Transport.Identity].
func (l *Linux) Identity() (Identity, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.open {
		return Identity{}, errIO(unix.EBADF, "identity on closed transport")
	}

	var info struct {
		BusType uint32
		Vendor  int16
		Product int16
	}
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(l.fd), hidrawGetRawInfo, uintptr(unsafe.Pointer(&info))); errno != 0 {
		return Identity{}, errIO(errno, "HIDIOCGRAWINFO")
	}
	return Identity{
		BusType: info.BusType,
		Vendor:  uint16(info.Vendor),
		Product: uint16(info.Product),
	}, nil
}

// readReportIDsLocked reads the report descriptor and extracts every
// declared report ID. Caller must hold l.mu.
func (l *Linux) readReportIDsLocked() (map[uint8]bool, error) {
	var size uint32
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(l.fd), hidrawGetRDescSize, uintptr(unsafe.Pointer(&size))); errno != 0 {
		return nil, errno
	}

	desc := struct {
		Size  uint32
		Value [maxRDescSize]byte
	}{Size: size}

	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(l.fd), hidrawGetRDesc, uintptr(unsafe.Pointer(&desc))); errno != 0 {
		return nil, errno
	}

	return reportIDs(desc.Value[:size]), nil
}

// ioctlBuf performs an ioctl whose argument is buf itself (HIDIOCGFEATURE/
// HIDIOCSFEATURE take a single in/out buffer), returning the ioctl's
// return value (bytes transferred) on success.
func ioctlBuf(fd int, req uintptr, buf []byte) (int, error) {
	r, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return 0, errno
	}
	return int(r), nil
}
