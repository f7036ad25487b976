// Package ratbagerr defines the error taxonomy shared by every layer of
// ratbag-go: transport, the HID++ channels, the device object graph, the
// driver registry, and the commit engine.
//
// # Kinds
//
// Every error raised by this module carries a machine-readable [Kind] in
// addition to a human-readable message and (where applicable) the
// underlying cause:
//
//   - [KindIO] — a transport read/write failed; the underlying errno is
//     attached as the wrapped cause.
//   - [KindProtocol] — the peripheral replied with a defined protocol error
//     code (invalid-param, busy, unknown-device, resource-error, ...).
//   - [KindTimeout] — a ready handshake exceeded its backoff budget.
//   - [KindUnsupported] — the requested capability is not advertised.
//   - [KindValue] — a caller-supplied value is out of range or
//     inconsistent.
//   - [KindDevice] — the device is in an unexpected state; the caller
//     should re-read and retry.
//   - [KindNotFound] — no driver matches the candidate device.
//
// Callers should prefer [errors.Is] against the sentinel values in this
// package, or [errors.As] to recover the [Kind] and wrapped cause, rather than
// string-matching on Error().
package ratbagerr
