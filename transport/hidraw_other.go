//go:build !linux

package transport

import "github.com/libratbag/ratbag-go/ratbagerr"

// Linux is only implemented on GOOS=linux, since this module targets the
// Linux hidraw character device specifically. On other platforms [NewLinux]
// still type-checks against [Transport] but every method that can fail reports
// KindUnsupported, so callers building cross-platform tooling around this
// module fail loudly rather than silently no-op.
type Linux struct{}

// NewLinux returns a non-functional stub on non-Linux platforms.
func NewLinux() *Linux { return &Linux{} }

func (l *Linux) Open(path string, open OpenRestricted) error {
	return ratbagerr.New(ratbagerr.KindUnsupported, "hidraw transport requires linux")
}

func (l *Linux) Close(close CloseRestricted) {}

func (l *Linux) GetFeature(reportID uint8, buf []byte) (int, error) {
	return 0, ratbagerr.New(ratbagerr.KindUnsupported, "hidraw transport requires linux")
}

func (l *Linux) SetFeature(reportID uint8, buf []byte) (int, error) {
	return 0, ratbagerr.New(ratbagerr.KindUnsupported, "hidraw transport requires linux")
}

func (l *Linux) HasReport(reportID uint8) bool { return false }

func (l *Linux) Identity() (Identity, error) {
	return Identity{}, ratbagerr.New(ratbagerr.KindUnsupported, "hidraw transport requires linux")
}
