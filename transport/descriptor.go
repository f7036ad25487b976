package transport

// reportIDs walks a HID report descriptor and collects every report ID
// declared by a Report ID (Global, tag 0x8) item. A device with no Report
// ID items at all uses the implicit report ID 0 for every report.
//
// The item-walking loop mirrors the short/long item framing any HID
// report descriptor parser needs (1-byte prefix: 4-bit tag, 2-bit type,
// 2-bit size-code, optional long-item escape at 0xFE).
func reportIDs(desc []byte) map[uint8]bool {
	ids := map[uint8]bool{0: true}
	i := 0
	for i < len(desc) {
		prefix := desc[i]
		i++

		if prefix == 0xFE { // long item
			if i+2 > len(desc) {
				break
			}
			size := int(desc[i])
			i += 2 + size
			continue
		}

		sizeCode := int(prefix & 0x03)
		size := sizeCode
		if sizeCode == 3 {
			size = 4
		}
		itemType := (prefix >> 2) & 0x03
		itemTag := (prefix >> 4) & 0x0F

		if i+size > len(desc) {
			break
		}
		var val uint32
		switch size {
		case 1:
			val = uint32(desc[i])
		case 2:
			val = uint32(desc[i]) | uint32(desc[i+1])<<8
		case 4:
			val = uint32(desc[i]) | uint32(desc[i+1])<<8 | uint32(desc[i+2])<<16 | uint32(desc[i+3])<<24
		}
		i += size

		const (
			typeGlobal  = 1
			tagReportID = 0x8
		)
		if itemType == typeGlobal && itemTag == tagReportID {
			ids[uint8(val)] = true
		}
	}
	return ids
}
