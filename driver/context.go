package driver

import (
	"github.com/libratbag/ratbag-go/ratbag"
	"github.com/libratbag/ratbag-go/ratbagerr"
	"github.com/libratbag/ratbag-go/transport"
)

// Context is the top-level object of the public surface: it owns the
// DataStore in use and is the factory for opening a device against the
// transport a caller already holds. It adds no synchronization beyond
// what a single goroutine needs; devices are driven one goroutine each.
type Context struct {
	Store DataStore
}

// NewContext creates a Context backed by store.
func NewContext(store DataStore) *Context {
	return &Context{Store: store}
}

// OpenDevice matches identity against the Context's DataStore, resolves
// the named driver from the global registry, and dispatches Probe.
// t must already be open; closeFn is the close-
// restricted callback paired with whatever opened it, threaded through
// to the resulting Device so it can be closed again on removal. A store
// miss or an unregistered driver id both return ratbagerr.NotFound so the
// caller never receives a half-built Device.
func (c *Context) OpenDevice(identity ratbag.DeviceIdentity, t transport.Transport, closeFn transport.CloseRestricted) (*ratbag.Device, error) {
	entry, ok := c.Store.Match(identity)
	if !ok {
		return nil, ratbagerr.New(ratbagerr.KindNotFound, "no data-store entry matches this device")
	}

	rec, ok := Lookup(entry.DriverID)
	if !ok {
		return nil, ratbagerr.New(ratbagerr.KindNotFound, "driver not registered: "+entry.DriverID)
	}

	drv := rec.New()
	device, err := drv.Probe(identity, t, closeFn)
	if err != nil {
		return nil, err
	}
	return device, nil
}
