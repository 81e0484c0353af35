package leaderboard

import (
	"bytes"
	"fmt"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
)

// Row is one line of a leaderboard table
type Row struct {
	Rank  int
	Name  string
	Value string
}

// TableStyle defines the visual style of the table
type TableStyle struct {
	Width     int
	MinHeight int
	Padding   int
	RowHeight int
}

// ImageGenerator renders leaderboards as PNG tables
type ImageGenerator struct {
	style TableStyle
	medal [3][4]float64
}

// NewImageGenerator creates a generator with the default style
func NewImageGenerator() *ImageGenerator {
	return &ImageGenerator{
		style: TableStyle{
			Width:     360,
			MinHeight: 160,
			Padding:   15,
			RowHeight: 26,
		},
		medal: [3][4]float64{
			{1, 0.84, 0, 0.12},    // gold
			{0.8, 0.8, 0.8, 0.08}, // silver
			{0.8, 0.5, 0.2, 0.06}, // bronze
		},
	}
}

// Render draws title above a three-column table of rows
func (g *ImageGenerator) Render(title, valueHeader string, rows []Row) ([]byte, error) {
	start := time.Now()
	defer func() {
		log.WithFields(log.Fields{
			"duration_ms": time.Since(start).Milliseconds(),
			"row_count":   len(rows),
		}).Debug("Leaderboard image generation completed")
	}()

	// Title (35px) + header (30px) + rows + bottom padding
	height := 35 + 30 + len(rows)*g.style.RowHeight + g.style.Padding
	if height < g.style.MinHeight {
		height = g.style.MinHeight
	}

	dc := gg.NewContext(g.style.Width, height)

	// Background gradient
	for y := 0; y < height; y++ {
		t := float64(y) / float64(height)
		dc.SetRGB(0.05+t*0.03, 0.04+t*0.04, 0.10+t*0.08)
		dc.DrawLine(0, float64(y), float64(g.style.Width), float64(y))
		dc.Stroke()
	}

	titleFace, err := loadFont(gobold.TTF, 16)
	if err != nil {
		return nil, fmt.Errorf("failed to load title font: %w", err)
	}
	bodyFace, err := loadFont(gomono.TTF, 12)
	if err != nil {
		return nil, fmt.Errorf("failed to load body font: %w", err)
	}

	pad := float64(g.style.Padding)
	rankX := pad
	nameX := pad + 30
	valueX := float64(g.style.Width) - pad

	dc.SetFontFace(titleFace)
	dc.SetRGB(1, 0.84, 0.3)
	drawSharpText(dc, title, pad, 25)

	dc.SetFontFace(bodyFace)
	y := float64(55)

	dc.SetRGBA(0.3, 0.3, 0.4, 0.4)
	dc.DrawRectangle(0, y-15, float64(g.style.Width), 20)
	dc.Fill()

	dc.SetRGB(1, 1, 1)
	drawSharpText(dc, "#", rankX, y)
	drawSharpText(dc, "User", nameX, y)
	dc.DrawStringAnchored(valueHeader, valueX, y, 1, 0)

	y += float64(g.style.RowHeight)
	for i, row := range rows {
		if i < len(g.medal) {
			c := g.medal[i]
			dc.SetRGBA(c[0], c[1], c[2], c[3])
			dc.DrawRectangle(0, y-17, float64(g.style.Width), float64(g.style.RowHeight))
			dc.Fill()
		}

		dc.SetRGB(0.85, 0.85, 0.9)
		drawSharpText(dc, fmt.Sprintf("%d", row.Rank), rankX, y)
		dc.SetRGB(1, 1, 1)
		drawSharpText(dc, truncate(row.Name, 24), nameX, y)
		dc.SetRGB(0.85, 1, 0.85)
		dc.DrawStringAnchored(row.Value, valueX, y, 1, 0)

		y += float64(g.style.RowHeight)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode leaderboard image: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func drawSharpText(dc *gg.Context, text string, x, y float64) {
	dc.Push()
	dc.SetRGBA(0, 0, 0, 0.5)
	dc.DrawString(text, x+0.5, y+0.5)
	dc.Pop()

	dc.DrawString(text, x, y)
}

// loadFont loads a font from byte data
func loadFont(fontData []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:       size,
		DPI:        72,
		Hinting:    font.HintingFull,
		SubPixelsX: 4,
		SubPixelsY: 4,
	}), nil
}
