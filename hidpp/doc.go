// Package hidpp implements the two Logitech vendor protocol families,
// carried over the same 7/20-byte HID feature report frames:
//
//   - HID++ 1.0 ([Channel1]): register-addressed short (7 B)/long (20 B)
//     request/response messages, receiver enumeration.
//   - HID++ 2.0 ([Channel2]): feature-index discovery layered on the same
//     frames, with feature ids resolved to indexes and cached.
//
// Both channels share the [ShortFrame]/[LongFrame] codec in frame.go.
// This package is consumed by the Logitech-family drivers
// (drivers/logitechhidpp10, drivers/logitechhidpp20); no other vendor
// driver needs it: this is a reusable protocol stack shared by the
// concrete Logitech drivers, not part of the generic device model.
package hidpp
