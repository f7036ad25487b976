package ratbag

// KeyCodeTranslator maps between the host key-code namespace carried by
// KeyAction and macro events and the HID usage codes device memory
// stores. The mapping itself belongs to the caller; the core only
// threads it through to the drivers that serialize key bindings.
type KeyCodeTranslator interface {
	ToUsage(keyCode int) (uint16, bool)
	FromUsage(usage uint16) (int, bool)
}

// SetKeyTranslator installs the caller's key-code mapping, used by the
// next probe or commit. A nil t restores the identity mapping, for
// callers that already work in HID usage space.
func (d *Device) SetKeyTranslator(t KeyCodeTranslator) { d.translator = t }

// KeyToUsage translates a host key code for the wire. Codes the
// translator does not know are passed through unchanged so a driver
// never drops a binding on the floor.
func (d *Device) KeyToUsage(code int) uint16 {
	if d.translator != nil {
		if u, ok := d.translator.ToUsage(code); ok {
			return u
		}
	}
	return uint16(code)
}

// KeyFromUsage translates a wire usage code back into the host
// namespace.
func (d *Device) KeyFromUsage(usage uint16) int {
	if d.translator != nil {
		if code, ok := d.translator.FromUsage(usage); ok {
			return code
		}
	}
	return int(usage)
}
