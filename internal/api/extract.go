package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/snapnote/snapnote-tui/internal/logger"
)

// Progress bands: the upload half of the round trip maps onto 0-50, reading
// the response maps onto 50-100. When the response has no Content-Length the
// second half jumps straight to 100 on completion.
const (
	uploadBandEnd = 50.0
	progressDone  = 100.0
)

// ExtractResult is the outcome of a successful extraction call.
type ExtractResult struct {
	Text          string
	RemainingUses int
	HasRemaining  bool
}

// ExtractText uploads an image for text extraction. onProgress, if non-nil,
// receives monotone percentages in [0,100]; granularity is best effort.
// Quota exhaustion is reported as ErrQuotaExceeded.
func (c *Client) ExtractText(ctx context.Context, token, filename string, image []byte, onProgress func(float64)) (*ExtractResult, error) {
	if token == "" {
		return nil, fmt.Errorf("bearer token is empty")
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("image is empty")
	}
	if onProgress == nil {
		onProgress = func(float64) {}
	}

	body, contentType, err := buildMultipart(token, filename, image)
	if err != nil {
		return nil, err
	}

	total := int64(body.Len())
	reader := &progressReader{
		r:     body,
		total: total,
		report: func(sent int64) {
			onProgress(uploadBandEnd * float64(sent) / float64(total))
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+extractTextPath, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create extract request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = total

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extract request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	onProgress(uploadBandEnd)

	respBody, err := readWithProgress(resp.Body, resp.ContentLength, onProgress)
	if err != nil {
		return nil, fmt.Errorf("failed to read extract response: %w", err)
	}

	if err := statusError(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	var payload struct {
		Text          string `json:"text"`
		RemainingUses *int   `json:"remaining_uses"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse extract response: %w", err)
	}

	onProgress(progressDone)

	result := &ExtractResult{Text: payload.Text}
	if payload.RemainingUses != nil {
		result.RemainingUses = max(*payload.RemainingUses, 0)
		result.HasRemaining = true
	}
	return result, nil
}

// buildMultipart assembles the image + token form body the backend expects.
func buildMultipart(token, filename string, image []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("failed to write image data: %w", err)
	}

	if err := w.WriteField("token", token); err != nil {
		return nil, "", fmt.Errorf("failed to write token field: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize form: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

// readWithProgress drains a response body, mapping read progress onto the
// 50-100 band when the total size is known.
func readWithProgress(r io.Reader, contentLength int64, onProgress func(float64)) ([]byte, error) {
	if contentLength <= 0 {
		return io.ReadAll(r)
	}

	var buf bytes.Buffer
	chunk := make([]byte, 32*1024)
	var read int64
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			read += n64(n)
			pct := uploadBandEnd + uploadBandEnd*float64(read)/float64(contentLength)
			onProgress(min(pct, progressDone))
		}
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func n64(n int) int64 { return int64(n) }

// progressReader reports cumulative bytes handed to the transport.
type progressReader struct {
	r      io.Reader
	total  int64
	sent   int64
	report func(sent int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.report(p.sent)
	}
	return n, err
}
