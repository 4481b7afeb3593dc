package preview

const (
	markerPrefix = 0xff

	temMarker  = 0x01 // TEMporary, arithmetic coding.
	sof0Marker = 0xc0 // Start Of Frame (Baseline Sequential).
	sof2Marker = 0xc2 // Start Of Frame (Progressive).
	rst0Marker = 0xd0 // ReSTart (0).
	soiMarker  = 0xd8 // Start Of Image.
	eoiMarker  = 0xd9 // End Of Image.
)

type markerKind uint8

const (
	// segmentMarker is followed by a big-endian length that includes itself.
	segmentMarker markerKind = iota
	// standaloneMarker carries no length or payload.
	standaloneMarker
	// frameMarker is a segment whose payload holds the image dimensions.
	frameMarker
)

var markerTable = func() [256]markerKind {
	var t [256]markerKind
	t[temMarker] = standaloneMarker
	for m := rst0Marker; m <= eoiMarker; m++ {
		t[m] = standaloneMarker
	}
	t[sof0Marker] = frameMarker
	t[sof2Marker] = frameMarker
	return t
}()

// Offsets inside a frame segment, counted from the first length byte:
// length(2) precision(1) height(2) width(2).
const (
	frameHeightOffset = 3
	frameWidthOffset  = 5
	frameHeaderLen    = 7
)

// parseFrameSize walks the segment chain of one JPEG span and returns the
// dimensions from the first baseline or progressive frame header.
func parseFrameSize(data []byte) (width, height int, ok bool) {
	if len(data) < 2 || data[0] != markerPrefix || data[1] != soiMarker {
		return 0, 0, false
	}

	i := 2
	for i < len(data) {
		for data[i] != markerPrefix {
			i++
			if i >= len(data) {
				return 0, 0, false
			}
		}
		// Fill bytes: any marker may be preceded by extra 0xFF.
		for data[i] == markerPrefix {
			i++
			if i >= len(data) {
				return 0, 0, false
			}
		}

		marker := data[i]
		i++

		kind := markerTable[marker]
		if kind == standaloneMarker {
			continue
		}

		if i+1 >= len(data) {
			return 0, 0, false
		}
		length := int(be16(data, i))

		if kind == frameMarker {
			if length < frameHeaderLen || i+frameHeaderLen > len(data) {
				return 0, 0, false
			}
			height = int(be16(data, i+frameHeightOffset))
			width = int(be16(data, i+frameWidthOffset))
			if width == 0 || height == 0 {
				return 0, 0, false
			}
			return width, height, true
		}

		if length < 2 || i+length > len(data) {
			return 0, 0, false
		}
		i += length
	}
	return 0, 0, false
}

func be16(b []byte, i int) uint16 {
	return uint16(b[i])<<8 | uint16(b[i+1])
}
