package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	v0 "github.com/VivekAsole/video-processing-backend/internal/contracts/renderer/v0"
)

// HTTPClient delegates rendering to a renderer service that shares the
// worker's work volume.
type HTTPClient struct {
	baseURL  string
	fontFile string
	client   *http.Client
}

func NewHTTPClient(baseURL, fontFile string) *HTTPClient {
	return &HTTPClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		fontFile: fontFile,
		client:   &http.Client{Timeout: 10 * time.Minute},
	}
}

func (c *HTTPClient) Render(ctx context.Context, r Request) error {
	spec := v0.RenderRequest{
		JobID:       r.JobID,
		Base:        r.BasePath,
		Inputs:      r.InputPaths,
		Steps:       r.Plan.Steps,
		OutputLabel: r.Plan.Output,
		FontFile:    c.fontFile,
	}
	spec.Output.Path = r.OutputPath

	body, err := json.Marshal(spec)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+v0.RenderPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		var er v0.ErrorResponse
		if json.Unmarshal(raw, &er) == nil && er.Error != "" {
			return fmt.Errorf("renderer http %d: %s", res.StatusCode, er.Error)
		}
		if msg := strings.TrimSpace(string(raw)); msg != "" {
			return fmt.Errorf("renderer http %d: %s", res.StatusCode, msg)
		}
		return fmt.Errorf("renderer http %d", res.StatusCode)
	}
	return nil
}
