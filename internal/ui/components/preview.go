package components

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	// Register the decoders for the accepted image formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/charmbracelet/lipgloss"
	"github.com/nfnt/resize"

	"github.com/snapnote/snapnote-tui/internal/models"
)

const (
	previewMaxCols = 36
	previewMaxRows = 12
)

// BuildPreview derives the renderable representation of a selected image:
// its dimensions, format, size, and a half-block thumbnail. A decode failure
// still yields a preview carrying the byte size, so selection never fails on
// an exotic-but-accepted file.
func BuildPreview(data []byte) *models.ImagePreview {
	preview := &models.ImagePreview{ByteSize: int64(len(data))}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		preview.Format = "unknown"
		return preview
	}
	preview.Width = cfg.Width
	preview.Height = cfg.Height
	preview.Format = format

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return preview
	}
	preview.Thumbnail = renderThumbnail(img)

	return preview
}

// renderThumbnail downscales the image and renders it two pixels per cell
// using the upper-half block, top pixel as foreground and bottom pixel as
// background.
func renderThumbnail(img image.Image) string {
	// Terminal cells are roughly twice as tall as wide; each cell carries
	// two vertical pixels.
	small := resize.Thumbnail(previewMaxCols, previewMaxRows*2, img, resize.Bilinear)
	bounds := small.Bounds()

	var b strings.Builder
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 2 {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			top := hexColor(small.At(x, y))
			bottom := top
			if y+1 < bounds.Max.Y {
				bottom = hexColor(small.At(x, y+1))
			}
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(top)).
				Background(lipgloss.Color(bottom))
			b.WriteString(style.Render("▀"))
		}
		if y+2 < bounds.Max.Y {
			b.WriteString("\n")
		}
	}

	return b.String()
}

func hexColor(c interface{ RGBA() (r, g, b, a uint32) }) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
