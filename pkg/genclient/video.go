// pkg/genclient/video.go

package genclient

import (
	"context"
	"net/url"

	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
	log "github.com/sirupsen/logrus"
)

// Bounds the video model enforces on requested durations, in whole seconds.
const (
	VideoMinSeconds = 4
	VideoMaxSeconds = 12
)

// ClampVideoDuration fits d into what the video model accepts. Out-of-range
// values are clamped, never rejected, and Auto passes through.
func ClampVideoDuration(d skeleton.Duration) skeleton.Duration {
	return d.Clamp(VideoMinSeconds, VideoMaxSeconds)
}

type VideoRequest struct {
	Prompt        string
	FirstFrameURL string
	// LastFrameURL, when set, asks for a clip that ends on this image.
	LastFrameURL string
	Duration     skeleton.Duration
	Ratio        skeleton.AspectRatio
}

type VideoTask struct {
	ID string `json:"id"`
}

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether polling can stop.
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

type VideoStatus struct {
	Status   JobStatus `json:"status"`
	VideoURL string    `json:"videoUrl,omitempty"`
	Error    string    `json:"error,omitempty"`
}

type contentItem struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
	Role     string    `json:"role,omitempty"`
}

type imageRef struct {
	URL string `json:"url"`
}

type videoTaskRequest struct {
	Model    string        `json:"model"`
	Content  []contentItem `json:"content"`
	Duration *int          `json:"duration,omitempty"`
	Ratio    string        `json:"ratio,omitempty"`
}

// GenerateVideo submits an image-to-video job and returns its task id.
func (c *Client) GenerateVideo(ctx context.Context, req VideoRequest) (VideoTask, error) {
	if req.FirstFrameURL == "" {
		return VideoTask{}, apperr.NewValidationError("a first frame image is required for video generation", nil)
	}
	headers, err := c.arkHeaders()
	if err != nil {
		return VideoTask{}, err
	}

	content := []contentItem{{Type: "image_url", ImageURL: &imageRef{URL: req.FirstFrameURL}, Role: "first_frame"}}
	if req.LastFrameURL != "" {
		content = append(content, contentItem{Type: "image_url", ImageURL: &imageRef{URL: req.LastFrameURL}, Role: "last_frame"})
	}
	if req.Prompt != "" {
		content = append(content, contentItem{Type: "text", Text: req.Prompt})
	}

	body := videoTaskRequest{Model: c.cfg.VideoModel, Content: content}
	if req.Duration.IsSet() {
		seconds := int(ClampVideoDuration(req.Duration).Wire())
		body.Duration = &seconds
	}
	if req.Ratio != "" {
		body.Ratio = string(req.Ratio.OrDefault())
	}

	var task VideoTask
	if err := c.postJSON(ctx, c.cfg.ArkBaseURL+"/contents/generations/tasks", headers, body, &task); err != nil {
		return VideoTask{}, err
	}
	if task.ID == "" {
		return VideoTask{}, apperr.NewJobFailedError("video backend returned no task id")
	}
	log.Infof("GenerateVideo: created task %s (last frame: %v)", task.ID, req.LastFrameURL != "")
	return task, nil
}

type videoTaskResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Content struct {
		VideoURL string `json:"video_url"`
	} `json:"content"`
	VideoURL string `json:"video_url"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// QueryVideoStatus performs a single status check. Retry cadence belongs to the caller.
func (c *Client) QueryVideoStatus(ctx context.Context, taskID string) (VideoStatus, error) {
	if taskID == "" {
		return VideoStatus{}, apperr.NewValidationError("task id is required", nil)
	}
	headers, err := c.arkHeaders()
	if err != nil {
		return VideoStatus{}, err
	}

	var resp videoTaskResponse
	if err := c.getJSON(ctx, c.cfg.ArkBaseURL+"/contents/generations/tasks/"+url.PathEscape(taskID), headers, &resp); err != nil {
		return VideoStatus{}, err
	}

	status := VideoStatus{Status: mapJobStatus(resp.Status), VideoURL: resp.Content.VideoURL}
	if status.VideoURL == "" {
		status.VideoURL = resp.VideoURL
	}
	if resp.Error != nil {
		status.Error = resp.Error.Message
	}
	return status, nil
}

func mapJobStatus(upstream string) JobStatus {
	switch upstream {
	case "queued", "pending", "":
		return JobPending
	case "succeeded", "success":
		return JobSucceeded
	case "failed", "cancelled", "expired":
		return JobFailed
	default:
		return JobRunning
	}
}
