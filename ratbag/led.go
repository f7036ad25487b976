package ratbag

import "github.com/libratbag/ratbag-go/ratbagerr"

// LEDType identifies where on the device an LED sits.
type LEDType int

const (
	LEDUnknown LEDType = iota
	LEDLogo
	LEDSide
	LEDWheel
	LEDBattery
	LEDDPI
	LEDSwitches
)

// LEDMode selects what an LED does.
type LEDMode int

const (
	LEDModeOff LEDMode = iota
	LEDModeOn
	LEDModeCycle
	LEDModeBreathing
)

// ColorDepth is the wire color resolution a driver will encode an LED's
// color at.
type ColorDepth int

const (
	ColorMono ColorDepth = iota
	ColorRGB565
	ColorRGB888
)

// Color is an 8-bit-per-channel RGB triple.
type Color struct {
	R, G, B byte
}

// LED is one addressable light on the device. Color is only
// meaningful when Mode is LEDModeOn or LEDModeBreathing; DurationMs only
// when Mode is LEDModeCycle or LEDModeBreathing — both are simply ignored
// by the encoder otherwise, not rejected at set time.
type LED struct {
	refCounted
	profile *Profile

	Index      int
	Type       LEDType
	Mode       LEDMode
	Color      Color
	Depth      ColorDepth
	Brightness byte
	DurationMs int

	dirty bool
}

func newLED(p *Profile, index int, typ LEDType) *LED {
	l := &LED{profile: p, Index: index, Type: typ, Depth: ColorRGB888}
	l.ref()
	p.ref()
	return l
}

// Ref increments l's reference count.
func (l *LED) Ref() { l.ref() }

// Unref releases l's handle, destroying it and releasing its edge on the
// owning profile when the count reaches zero.
func (l *LED) Unref() {
	if l.unref() {
		l.profile.Unref()
	}
}

// Dirty reports whether any mutable attribute changed since the last
// commit.
func (l *LED) Dirty() bool { return l.dirty }

// ClearDirty marks l as committed.
func (l *LED) ClearDirty() { l.dirty = false }

func modeCapability(mode LEDMode) Capability {
	switch mode {
	case LEDModeOn:
		return CapLEDModeOn
	case LEDModeCycle:
		return CapLEDModeCycle
	case LEDModeBreathing:
		return CapLEDModeBreathing
	default:
		return 0
	}
}

// SetMode sets the LED mode, rejecting modes the device does not
// advertise. LEDModeOff is always permitted.
func (l *LED) SetMode(mode LEDMode) error {
	if cap := modeCapability(mode); cap != 0 && !l.profile.device.HasCapability(cap) {
		return ratbagerr.New(ratbagerr.KindUnsupported, "LED mode not advertised by device")
	}
	l.Mode = mode
	l.dirty = true
	return nil
}

// SetColor sets the LED's RGB color.
func (l *LED) SetColor(c Color) error {
	l.Color = c
	l.dirty = true
	return nil
}

// SetBrightness sets the LED's brightness (0-255).
func (l *LED) SetBrightness(b byte) error {
	l.Brightness = b
	l.dirty = true
	return nil
}

// SetDuration sets the effect duration in milliseconds.
func (l *LED) SetDuration(ms int) error {
	if ms < 0 {
		return ratbagerr.New(ratbagerr.KindValue, "negative LED duration")
	}
	l.DurationMs = ms
	l.dirty = true
	return nil
}
