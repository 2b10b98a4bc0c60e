// pkg/genclient/image.go

package genclient

import (
	"context"
	"fmt"

	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
	log "github.com/sirupsen/logrus"
)

type ImageResult struct {
	URL string `json:"url"`
}

type imageRequest struct {
	Model          string   `json:"model"`
	Prompt         string   `json:"prompt"`
	Size           string   `json:"size"`
	ResponseFormat string   `json:"response_format"`
	Image          []string `json:"image,omitempty"`
	Watermark      bool     `json:"watermark"`
}

type imageResponse struct {
	Data []ImageResult `json:"data"`
}

// GenerateImage renders one image. refs are reference images in the order the
// prompt numbers them.
func (c *Client) GenerateImage(ctx context.Context, prompt, size string, refs []string) (ImageResult, error) {
	headers, err := c.arkHeaders()
	if err != nil {
		return ImageResult{}, err
	}
	if err := c.imageLimiter.Wait(ctx); err != nil {
		return ImageResult{}, fmt.Errorf("image rate limit wait failed: %w", err)
	}

	body := imageRequest{
		Model:          c.cfg.ImageModel,
		Prompt:         prompt,
		Size:           size,
		ResponseFormat: "url",
		Image:          refs,
		Watermark:      true,
	}
	log.Debugf("GenerateImage: size=%s refs=%d", size, len(refs))

	var resp imageResponse
	if err := c.postJSON(ctx, c.cfg.ArkBaseURL+"/images/generations", headers, body, &resp); err != nil {
		return ImageResult{}, err
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return ImageResult{}, apperr.NewJobFailedError("image backend returned no image")
	}
	return resp.Data[0], nil
}
