package images

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Resolution is a named capture size.
type Resolution struct {
	Name   string `json:"name" yaml:"name"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
}

// MegaPixels returns the pixel count in millions, rounded to two decimals.
func (r Resolution) MegaPixels() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return math.Round(float64(r.Width*r.Height)/10_000) / 100
}

// String returns a human-readable summary of the resolution.
func (r Resolution) String() string {
	return fmt.Sprintf("%s (%dx%d, %.2fMP)", r.Name, r.Width, r.Height, r.MegaPixels())
}

// resolutions holds the capture sizes camera drivers commonly accept.
var resolutions = map[string]Resolution{
	"qvga":  {Name: "qvga", Width: 320, Height: 240},
	"vga":   {Name: "vga", Width: 640, Height: 480},
	"360p":  {Name: "360p", Width: 640, Height: 360},
	"540p":  {Name: "540p", Width: 960, Height: 540},
	"720p":  {Name: "720p", Width: 1280, Height: 720},
	"1080p": {Name: "1080p", Width: 1920, Height: 1080},
	"1440p": {Name: "1440p", Width: 2560, Height: 1440},
	"4k":    {Name: "4k", Width: 3840, Height: 2160},
}

// Resolutions returns the named resolutions ordered by pixel count.
func Resolutions() []Resolution {
	out := make([]Resolution, 0, len(resolutions))
	for _, r := range resolutions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Width*out[i].Height < out[j].Width*out[j].Height
	})
	return out
}

// ParseResolution resolves a name such as "720p" or an explicit "WIDTHxHEIGHT".
func ParseResolution(s string) (Resolution, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if r, ok := resolutions[key]; ok {
		return r, nil
	}

	w, h, ok := strings.Cut(key, "x")
	if ok {
		width, errW := strconv.Atoi(w)
		height, errH := strconv.Atoi(h)
		if errW == nil && errH == nil && width > 0 && height > 0 {
			return Resolution{Name: key, Width: width, Height: height}, nil
		}
	}
	return Resolution{}, errors.Errorf("images: unknown resolution %q", s)
}
