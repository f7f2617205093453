package calendar

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Canvas geometry. The canvas size is constant for every month.
const (
	ImageWidth  = 420
	ImageHeight = 340

	gridX0     = 15
	gridY0     = 80
	cellPitchX = 50
	cellPitchY = 40
	cellInset  = 4

	headerBaseline  = 30
	weekdayBaseline = 60
	weekdayX0       = 40
	dayBaseline     = 25
)

var (
	colorBackground = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorText       = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorOutline    = color.RGBA{0xbb, 0xbb, 0xbb, 0xff}

	// DefaultHighlight fills cells of days with events.
	DefaultHighlight color.Color = color.RGBA{0xff, 0x4d, 0x4d, 0xff}
)

var weekdayLabels = [Cols]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

var (
	fontsOnce   sync.Once
	fontsErr    error
	regularFont *opentype.Font
	boldFont    *opentype.Font
)

// The parsed fonts are shared; faces are not safe for concurrent use and are
// created per draw.
func loadFonts() error {
	fontsOnce.Do(func() {
		regularFont, fontsErr = opentype.Parse(goregular.TTF)
		if fontsErr != nil {
			return
		}
		boldFont, fontsErr = opentype.Parse(gobold.TTF)
	})
	return fontsErr
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Draw renders the grid as a PNG.
func Draw(g Grid, highlight color.Color) ([]byte, error) {
	if err := loadFonts(); err != nil {
		return nil, fmt.Errorf("calendar: load fonts: %w", err)
	}
	if highlight == nil {
		highlight = DefaultHighlight
	}

	headerFace, err := newFace(boldFont, 20)
	if err != nil {
		return nil, fmt.Errorf("calendar: header face: %w", err)
	}
	defer headerFace.Close()
	weekdayFace, err := newFace(boldFont, 14)
	if err != nil {
		return nil, fmt.Errorf("calendar: weekday face: %w", err)
	}
	defer weekdayFace.Close()
	dayFace, err := newFace(regularFont, 16)
	if err != nil {
		return nil, fmt.Errorf("calendar: day face: %w", err)
	}
	defer dayFace.Close()

	img := image.NewRGBA(image.Rect(0, 0, ImageWidth, ImageHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)

	drawCentered(img, headerFace, fmt.Sprintf("%s %d", g.Month, g.Year), ImageWidth/2, headerBaseline)

	for i, label := range weekdayLabels {
		drawCentered(img, weekdayFace, label, weekdayX0+i*cellPitchX, weekdayBaseline)
	}

	fill := image.NewUniform(highlight)
	for row := range Rows {
		for col := range Cols {
			cell := g.Cells[row][col]
			if cell.Kind == CellEmpty {
				continue
			}
			x := gridX0 + col*cellPitchX
			y := gridY0 + row*cellPitchY
			r := image.Rect(x, y, x+cellPitchX-cellInset, y+cellPitchY-cellInset)

			if cell.Kind == CellEvent {
				draw.Draw(img, r, fill, image.Point{}, draw.Src)
			}
			strokeRect(img, r, colorOutline)
			drawCentered(img, dayFace, strconv.Itoa(cell.Day), x+cellPitchX/2-2, y+dayBaseline)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("calendar: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// drawCentered draws s horizontally centred on cx with its baseline at y.
func drawCentered(dst draw.Image, face font.Face, s string, cx, y int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(colorText),
		Face: face,
	}
	width := d.MeasureString(s)
	d.Dot = fixed.Point26_6{
		X: fixed.I(cx) - width/2,
		Y: fixed.I(y),
	}
	d.DrawString(s)
}

// strokeRect draws a one pixel outline just inside r.
func strokeRect(dst draw.Image, r image.Rectangle, c color.Color) {
	line := image.NewUniform(c)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), line, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), line, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), line, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), line, image.Point{}, draw.Src)
}

// ParseHexColor parses "#rrggbb" or "#rgb".
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("calendar: invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("calendar: invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
