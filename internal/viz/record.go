package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"

	"github.com/san-kum/segsim/internal/schelling"
)

// Recorder collects grid frames for a GIF animation.
type Recorder struct {
	scale  int
	frames []*image.Paletted
}

func NewRecorder(scale int) *Recorder {
	if scale < 1 {
		scale = 1
	}
	return &Recorder{scale: scale}
}

func (r *Recorder) Len() int { return len(r.frames) }

// Capture appends a frame of g painted with the theme's cell colours.
func (r *Recorder) Capture(g *schelling.Grid, th Theme) {
	n := g.Size()
	palette := color.Palette{
		parseHex(string(th.Empty)),
		parseHex(string(th.GroupA)),
		parseHex(string(th.GroupB)),
	}
	img := image.NewPaletted(image.Rect(0, 0, n*r.scale, n*r.scale), palette)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			idx := uint8(g.At(schelling.Coord{Row: row, Col: col}))
			for py := 0; py < r.scale; py++ {
				for px := 0; px < r.scale; px++ {
					img.SetColorIndex(col*r.scale+px, row*r.scale+py, idx)
				}
			}
		}
	}
	r.frames = append(r.frames, img)
}

func (r *Recorder) Save(path string) error {
	if len(r.frames) == 0 {
		return fmt.Errorf("no frames recorded")
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gif.EncodeAll(f, &anim)
}

func parseHex(hex string) color.RGBA {
	var r, g, b uint8
	if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{255, 255, 255, 255}
	}
	return color.RGBA{r, g, b, 255}
}
