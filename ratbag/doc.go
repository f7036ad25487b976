// Package ratbag implements the strongly-typed, refcounted device object
// graph (device → profiles → {buttons, resolutions, LEDs}) and the commit
// engine that flushes pending changes to hardware in a safe order.
//
// The graph is mutated through setter methods that validate input and set
// a dirty flag only on success; dirty state propagates upward so a single
// Device.Dirty() call answers whether anything needs to be written. A
// Driver (vendor-specific, see the driver package) is the only thing that
// talks to the transport; this package never issues I/O itself outside of
// the commit engine's calls into the driver.
package ratbag
