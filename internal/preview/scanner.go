// Package preview finds embedded JPEG previews inside camera RAW containers.
//
// The scanner knows nothing about any particular RAW layout. It carves
// SOI..EOI spans out of the raw bytes, keeps the ones large enough to be a
// real preview and with a readable frame header, and ranks them by pixel area.
package preview

import (
	"sort"
)

// DefaultMinSize is the span length a candidate must exceed. Smaller JPEGs are
// almost always EXIF thumbnails or false positives.
const DefaultMinSize = 20 * 1024

// Scanner carves embedded JPEGs out of a byte buffer.
type Scanner struct {
	// MinSize overrides DefaultMinSize when positive.
	MinSize int
	// SkipMetadata disables EXIF parsing of accepted candidates.
	SkipMetadata bool
}

// Scan runs the default scanner over buf.
func Scan(buf []byte) []Candidate {
	return Scanner{}.Scan(buf)
}

// Scan returns every usable embedded JPEG in buf, largest pixel area first.
// Candidates with equal area keep scan order. buf is not modified, and an
// empty result is a normal outcome.
func (s Scanner) Scan(buf []byte) []Candidate {
	minSize := s.MinSize
	if minSize <= 0 {
		minSize = DefaultMinSize
	}

	var candidates []Candidate
	c := cursor{buf: buf}
	for !c.done() {
		start, ok := c.seekMarker(soiMarker)
		if !ok {
			break
		}

		eoi, ok := c.findMarkerFrom(start+2, eoiMarker)
		if !ok {
			// No EOI after this start means none after any later start either,
			// so every remaining SOI would be discarded in turn.
			break
		}
		end := eoi + 2

		if end-start > minSize {
			span := buf[start:end]
			if w, h, ok := parseFrameSize(span); ok {
				payload := make([]byte, len(span))
				copy(payload, span)
				cand := Candidate{
					Start:   start,
					End:     end,
					Width:   w,
					Height:  h,
					Payload: payload,
				}
				if !s.SkipMetadata {
					cand.Camera = readCamera(payload)
				}
				candidates = append(candidates, cand)
			}
		}

		c.pos = end
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Area() > candidates[j].Area()
	})
	return candidates
}

// cursor is the scan position over the container bytes.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) done() bool {
	return c.pos >= len(c.buf)-1
}

// seekMarker advances pos to the next 0xFF <marker> pair and returns its offset.
func (c *cursor) seekMarker(marker byte) (int, bool) {
	i, ok := c.findMarkerFrom(c.pos, marker)
	if !ok {
		c.pos = len(c.buf)
		return -1, false
	}
	c.pos = i
	return i, true
}

// findMarkerFrom returns the offset of the first 0xFF <marker> pair at or
// after from, without moving the cursor.
func (c *cursor) findMarkerFrom(from int, marker byte) (int, bool) {
	for i := from; i < len(c.buf)-1; i++ {
		if c.buf[i] == markerPrefix && c.buf[i+1] == marker {
			return i, true
		}
	}
	return -1, false
}
