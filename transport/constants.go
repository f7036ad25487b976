package transport

// HID raw ioctl direction/type/size encoding, matching Linux's asm-generic
// _IOC layout (arch-independent on every architecture this module targets).
const (
	iocNrBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNrShift   = 0
	iocTypeShift = iocNrShift + iocNrBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocNone  = 0
	iocWrite = 1
	iocRead  = 2
)

func ioc(dir, typ, nr, size uintptr) uintptr {
	return (dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNrShift) | (size << iocSizeShift)
}

// hidrawIOCType is the ioctl type byte ('H') shared by every HIDIOC* request.
const hidrawIOCType = 'H'

// hidrawGetFeature returns the HIDIOCGFEATURE(len) request number for a
// buffer of the given size (report ID byte included).
func hidrawGetFeature(size int) uintptr {
	return ioc(iocWrite|iocRead, hidrawIOCType, 0x07, uintptr(size))
}

// hidrawSetFeature returns the HIDIOCSFEATURE(len) request number.
func hidrawSetFeature(size int) uintptr {
	return ioc(iocWrite|iocRead, hidrawIOCType, 0x06, uintptr(size))
}

// hidrawGetRawInfo is HIDIOCGRAWINFO: bus type + vendor/product ids.
var hidrawGetRawInfo = ioc(iocRead, hidrawIOCType, 0x03, rawInfoSize)

// hidrawGetRDescSize is HIDIOCGRDESCSIZE: the size of the report descriptor.
var hidrawGetRDescSize = ioc(iocRead, hidrawIOCType, 0x01, 4)

// hidrawGetRDesc is HIDIOCGRDESC: the report descriptor itself.
var hidrawGetRDesc = ioc(iocRead, hidrawIOCType, 0x02, rdescSize)

// rawInfoSize is sizeof(struct hidraw_devinfo): int32 bustype + 2×int16.
const rawInfoSize = 4 + 2 + 2

// maxRDescSize matches HID_MAX_DESCRIPTOR_SIZE in the Linux kernel.
const maxRDescSize = 4096

// rdescSize is sizeof(struct hidraw_report_descriptor): uint32 size +
// the fixed-size value array.
const rdescSize = 4 + maxRDescSize

// Bus types reported by HIDIOCGRAWINFO (linux/input.h BUS_*).
const (
	BusUSB       = 0x03
	BusBluetooth = 0x05
	BusI2C       = 0x18
)
