package preview

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// Candidate is one embedded JPEG carved out of a container.
type Candidate struct {
	// Start and End bound the span in the container, End exclusive.
	Start int `json:"start"`
	End   int `json:"end"`

	Width  int `json:"width"`
	Height int `json:"height"`

	// Payload is the JPEG stream itself, a copy of container[Start:End].
	Payload []byte `json:"-"`

	Camera Camera `json:"camera"`
}

// Size is the payload length in bytes.
func (c Candidate) Size() int {
	return c.End - c.Start
}

// Area is width times height in pixels.
func (c Candidate) Area() int {
	return c.Width * c.Height
}

// ID names the candidate within the file it came from.
func (c Candidate) ID(filename string) string {
	return fmt.Sprintf("%s-%d", filename, c.Start)
}

// Label renders the candidate for a selection list, e.g. "6000 x 4000 (4.2 MB)".
func (c Candidate) Label() string {
	return fmt.Sprintf("%d x %d (%s)", c.Width, c.Height, FormatBytes(c.Size()))
}

// Camera is the subset of EXIF a preview selection screen shows.
type Camera struct {
	Make        string `json:"make,omitempty"`
	Model       string `json:"model,omitempty"`
	Orientation int    `json:"orientation,omitempty"`
}

// readCamera pulls camera identity from the APP1 block of a JPEG payload.
// Missing or malformed EXIF yields a zero Camera.
func readCamera(payload []byte) (cam Camera) {
	// goexif can panic on truncated IFDs.
	defer func() {
		if r := recover(); r != nil {
			cam = Camera{}
		}
	}()

	x, err := exif.Decode(bytes.NewReader(payload))
	if err != nil {
		return Camera{}
	}
	if tag, err := x.Get(exif.Make); err == nil {
		if s, err := tag.StringVal(); err == nil {
			cam.Make = trimTag(s)
		}
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if s, err := tag.StringVal(); err == nil {
			cam.Model = trimTag(s)
		}
	}
	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			cam.Orientation = v
		}
	}
	return cam
}

func trimTag(s string) string {
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}

var byteUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FormatBytes renders n with binary units and at most one decimal, e.g. "1.5 KB".
func FormatBytes(n int) string {
	if n <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(n)) / math.Log(1024)))
	if i >= len(byteUnits) {
		i = len(byteUnits) - 1
	}
	v := float64(n) / math.Pow(1024, float64(i))
	v = math.Round(v*10) / 10
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + byteUnits[i]
}
