// Package driver implements the driver registry and dispatch:
// a global, read-only-after-startup table of driver Records keyed by a
// stable string id, matched against a candidate device through the
// DataStore consumed collaborator, and a Context that ties the registry
// and the caller's chosen DataStore together as the factory for opening
// devices.
package driver
