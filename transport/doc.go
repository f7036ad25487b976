// Package transport abstracts one kernel HID raw endpoint.
//
// # Design
//
// The package defines the [Transport] interface: open/close, get/set
// feature report, report-id presence, and a numeric identity probe. File
// descriptor acquisition is delegated to caller-supplied
// [OpenRestricted]/[CloseRestricted] callbacks, so a privileged
// daemon can hand descriptors to an unprivileged core without this package
// ever calling open(2) itself. The "platform" role is played by whoever
// owns the privilege to open /dev/hidrawN.
//
// [Linux] implements [Transport] against a real Linux hidraw character
// device using HIDIOCGFEATURE/HIDIOCSFEATURE/HIDIOCGRAWINFO ioctls via
// golang.org/x/sys/unix. The package has no retry policy of its own —
// retry is a driver concern.
package transport
