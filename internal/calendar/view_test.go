package calendar

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcal/internal/model"
)

// cellProbe is a pixel inside a cell's fill area, clear of the outline and
// the day number.
func cellProbe(row, col int) image.Point {
	return image.Pt(gridX0+col*cellPitchX+3, gridY0+row*cellPitchY+3)
}

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func rgba(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

func TestRenderScenarioLeapFebruary(t *testing.T) {
	r := NewRenderer(time.UTC, nil)
	events := []model.Event{{
		Timestamp: time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC),
		Actor:     model.Actor{ID: "A", DisplayName: "A", Tag: "A#0001"},
	}}

	v, err := r.Render(events, time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 2024, v.Year)
	assert.Equal(t, time.February, v.Month)
	assert.Equal(t, 29, v.Grid.Filled())
	assert.Equal(t, []int{15}, v.Grid.Highlighted())
	assert.Contains(t, v.Text, "**1.** Feb 15, 2024 10:00 AM UTC - <@A> (A#0001)")
	assert.Equal(t, LogControl, v.Control)

	img := decode(t, v.Image)
	assert.Equal(t, image.Rect(0, 0, ImageWidth, ImageHeight), img.Bounds())

	row, col, ok := v.Grid.Position(15)
	require.True(t, ok)
	p := cellProbe(row, col)
	assert.Equal(t, rgba(DefaultHighlight), rgba(img.At(p.X, p.Y)))

	row, col, ok = v.Grid.Position(14)
	require.True(t, ok)
	p = cellProbe(row, col)
	assert.Equal(t, colorBackground, rgba(img.At(p.X, p.Y)))
}

func TestRenderEmptyLog(t *testing.T) {
	v, err := NewRenderer(time.UTC, nil).Render(nil, time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "The calendar is empty.", v.Text)
	assert.Empty(t, v.Grid.Highlighted())
}

func TestRenderCanvasIsConstant(t *testing.T) {
	r := NewRenderer(time.UTC, color.RGBA{0x90, 0xee, 0x90, 0xff})
	for _, now := range []time.Time{
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC),
	} {
		v, err := r.Render(nil, now)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, ImageWidth, ImageHeight), decode(t, v.Image).Bounds())
	}
}

func TestRenderHonoursHighlightColour(t *testing.T) {
	green := color.RGBA{0x90, 0xee, 0x90, 0xff}
	r := NewRenderer(time.UTC, green)
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	v, err := r.Render([]model.Event{{Timestamp: now, Actor: model.Actor{ID: "1"}}}, now)
	require.NoError(t, err)

	row, col, ok := v.Grid.Position(10)
	require.True(t, ok)
	p := cellProbe(row, col)
	assert.Equal(t, green, rgba(decode(t, v.Image).At(p.X, p.Y)))
}

func TestViewPayload(t *testing.T) {
	v := View{Text: "hello", Image: []byte{1, 2, 3}, Control: LogControl}
	p := v.Payload()

	assert.Equal(t, "hello", p.Content)
	require.NotNil(t, p.Attachment)
	assert.Equal(t, "calendar.png", p.Attachment.Name)
	assert.Equal(t, "image/png", p.Attachment.ContentType)
	assert.Equal(t, []model.Control{LogControl}, p.Controls)
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#ff4d4d")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0xff, 0x4d, 0x4d, 0xff}, c)

	c, err = ParseHexColor("9e9")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0x99, 0xee, 0x99, 0xff}, c)

	for _, bad := range []string{"", "#12", "#zzzzzz", "#1234567"} {
		_, err := ParseHexColor(bad)
		assert.Error(t, err, bad)
	}
}
