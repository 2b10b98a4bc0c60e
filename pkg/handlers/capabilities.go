package handlers

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
	"github.com/ASHISH26940/video-studio-api/pkg/genclient"
	"github.com/ASHISH26940/video-studio-api/pkg/media"
	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
	"github.com/ASHISH26940/video-studio-api/pkg/utils"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type ChatRequest struct {
	Messages []genclient.Message `json:"messages" binding:"required,min=1,dive"`
	JSONMode bool                `json:"jsonMode"`
}

type GenerateImageRequest struct {
	Prompt string   `json:"prompt" binding:"required"`
	Size   string   `json:"size"`
	Images []string `json:"images"`
}

type GenerateVideoRequest struct {
	Prompt        string               `json:"prompt" binding:"required"`
	FirstFrameURL string               `json:"firstFrameUrl"`
	LastFrameURL  string               `json:"lastFrameUrl"`
	Duration      skeleton.Duration    `json:"duration"`
	AspectRatio   skeleton.AspectRatio `json:"aspectRatio"`
}

// ProxyMedia streams a remote media file through the API so the browser can
// draw it on a canvas without cross-origin taint.
func (h *Handlers) ProxyMedia(c *gin.Context) {
	raw := c.Query("url")
	u, err := url.Parse(raw)
	if raw == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		log.Warnf("ProxyMedia: rejected url %q", raw)
		utils.ResponseWithError(c, http.StatusBadRequest, "A valid http(s) url query parameter is required", nil)
		return
	}
	if !h.ProxyHosts.Allows(u) {
		log.Warnf("ProxyMedia: host %q is not allowed", u.Host)
		utils.ResponseWithError(c, http.StatusForbidden, "Media host is not allowed", nil)
		return
	}

	resp, err := h.Media.Open(c.Request.Context(), raw)
	if err != nil {
		log.Errorf("ProxyMedia: fetching %s failed: %v", u.Host, err)
		utils.ResponseWithAppError(c, "Failed to fetch media", err)
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	extra := media.ProxyHeaders()
	c.DataFromReader(http.StatusOK, resp.ContentLength, contentType, resp.Body, extra)
}

func (h *Handlers) ListVoices(c *gin.Context) {
	utils.ResponseWithSuccess(c, http.StatusOK, "Voices retrieved successfully", genclient.Voices())
}

// Chat streams the completion back as plain text chunks.
func (h *Handlers) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Chat: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	started := false
	err := h.Gen.ChatStream(c.Request.Context(), req.Messages, req.JSONMode, func(chunk string) {
		if !started {
			c.Header("Content-Type", "text/plain; charset=utf-8")
			c.Header("Cache-Control", "no-cache")
			c.Status(http.StatusOK)
			started = true
		}
		io.WriteString(c.Writer, chunk)
		c.Writer.Flush()
	})
	if err == nil {
		if !started {
			c.Data(http.StatusOK, "text/plain; charset=utf-8", nil)
		}
		return
	}
	if started {
		log.Errorf("Chat: stream broke after the first chunk: %v", err)
		return
	}
	log.Errorf("Chat: completion failed: %v", err)
	utils.ResponseWithAppError(c, "Chat completion failed", err)
}

func (h *Handlers) GenerateImage(c *gin.Context) {
	var req GenerateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("GenerateImage: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if req.Size == "" {
		req.Size = skeleton.Ratio16x9.Resolution()
	}

	result, err := h.Gen.GenerateImage(c.Request.Context(), req.Prompt, req.Size, req.Images)
	if err != nil {
		log.Errorf("GenerateImage: %v", err)
		utils.ResponseWithAppError(c, "Image generation failed", err)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Image generated successfully", result)
}

// CreateVideoTask submits a video job and returns its task id for polling.
func (h *Handlers) CreateVideoTask(c *gin.Context) {
	var req GenerateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("CreateVideoTask: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	task, err := h.Gen.GenerateVideo(c.Request.Context(), genclient.VideoRequest{
		Prompt:        req.Prompt,
		FirstFrameURL: req.FirstFrameURL,
		LastFrameURL:  req.LastFrameURL,
		Duration:      genclient.ClampVideoDuration(req.Duration),
		Ratio:         req.AspectRatio.OrDefault(),
	})
	if err != nil {
		log.Errorf("CreateVideoTask: %v", err)
		utils.ResponseWithAppError(c, "Video task creation failed", err)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Video task created", task)
}

func (h *Handlers) GetVideoTask(c *gin.Context) {
	taskID := strings.TrimSpace(c.Query("id"))
	if taskID == "" {
		utils.ResponseWithError(c, http.StatusBadRequest, "The id query parameter is required", nil)
		return
	}

	status, err := h.Gen.QueryVideoStatus(c.Request.Context(), taskID)
	if err != nil {
		log.Errorf("GetVideoTask: task %s: %v", taskID, err)
		utils.ResponseWithAppError(c, "Video task query failed", err)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Video task status", status)
}

// TextToSpeech returns the synthesized narration as an MP3 body.
func (h *Handlers) TextToSpeech(c *gin.Context) {
	var req genclient.SpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("TextToSpeech: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	req.VoiceID = genclient.ResolveVoiceID(req.VoiceID)

	audio, err := h.Gen.Synthesize(c.Request.Context(), req)
	if err != nil {
		if c.Request.Context().Err() != nil {
			log.Debugf("TextToSpeech: client went away: %v", err)
			return
		}
		log.Errorf("TextToSpeech: %v", err)
		utils.ResponseWithAppError(c, "Speech synthesis failed", err)
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

// requireGen guards the capability routes when no generation client is wired.
func (h *Handlers) requireGen(c *gin.Context) {
	if h.Gen == nil {
		utils.ResponseWithAppError(c, "Generation backends are not configured", apperr.NewConfigurationError("generation client missing"))
		c.Abort()
		return
	}
	c.Next()
}
