package components

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 17), G: uint8(y * 17), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode error: %v", err)
	}
	return buf.Bytes()
}

func TestBuildPreview_PNG(t *testing.T) {
	data := encodePNG(t, 8, 6)

	preview := BuildPreview(data)
	if preview.Width != 8 || preview.Height != 6 {
		t.Errorf("dimensions = %dx%d, want 8x6", preview.Width, preview.Height)
	}
	if preview.Format != "png" {
		t.Errorf("format = %s, want png", preview.Format)
	}
	if preview.ByteSize != int64(len(data)) {
		t.Errorf("byte size = %d, want %d", preview.ByteSize, len(data))
	}
	if preview.Thumbnail == "" {
		t.Error("thumbnail should be rendered for a decodable image")
	}
	if !strings.Contains(preview.Thumbnail, "▀") {
		t.Error("thumbnail should use half-block cells")
	}
}

func TestBuildPreview_Undecodable(t *testing.T) {
	data := []byte("definitely not an image")

	preview := BuildPreview(data)
	if preview == nil {
		t.Fatal("BuildPreview must not return nil")
	}
	if preview.Format != "unknown" {
		t.Errorf("format = %s, want unknown", preview.Format)
	}
	if preview.ByteSize != int64(len(data)) {
		t.Errorf("byte size = %d, want %d", preview.ByteSize, len(data))
	}
	if preview.Thumbnail != "" {
		t.Error("no thumbnail for an undecodable image")
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline(nil, 10); got != "" {
		t.Errorf("sparkline of no data = %q, want empty", got)
	}

	line := RenderSparkline([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 8)
	if line == "" {
		t.Fatal("sparkline should not be empty")
	}
	runes := []rune(line)
	if runes[0] != '▁' || runes[len(runes)-1] != '█' {
		t.Errorf("sparkline = %q, want rising from ▁ to █", line)
	}
}
