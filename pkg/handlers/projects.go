package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
	"github.com/ASHISH26940/video-studio-api/pkg/document"
	"github.com/ASHISH26940/video-studio-api/pkg/genclient"
	"github.com/ASHISH26940/video-studio-api/pkg/middleware"
	"github.com/ASHISH26940/video-studio-api/pkg/pipeline"
	"github.com/ASHISH26940/video-studio-api/pkg/progress"
	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
	"github.com/ASHISH26940/video-studio-api/pkg/timeline"
	"github.com/ASHISH26940/video-studio-api/pkg/utils"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// --- Request/Response Structs ---

type CreateProjectRequest struct {
	Prompt      string               `json:"prompt" binding:"required,min=2"`
	AspectRatio skeleton.AspectRatio `json:"aspectRatio"`
}

type ResizeClipRequest struct {
	Edge  timeline.Edge `json:"edge" binding:"required,oneof=left right"`
	Delta float64       `json:"delta"`
}

type RegenerateRequest struct {
	Kind pipeline.AssetKind `json:"kind" binding:"required"`
	ID   string             `json:"id" binding:"required"`
}

type RefineRequest struct {
	Instruction string `json:"instruction" binding:"required"`
}

// ProjectResponse is a live project as the editor sees it.
type ProjectResponse struct {
	ID        string            `json:"id"`
	Prompt    string            `json:"prompt"`
	State     pipeline.State    `json:"state"`
	Error     string            `json:"error,omitempty"`
	HistoryID string            `json:"historyId,omitempty"`
	Version   uint64            `json:"version"`
	Document  skeleton.Skeleton `json:"document"`
	Progress  progress.Update   `json:"progress"`
}

func newProjectResponse(p *pipeline.Project) ProjectResponse {
	snap := p.Doc.Snapshot()
	resp := ProjectResponse{
		ID:        p.ID,
		Prompt:    p.Prompt,
		State:     p.State(),
		Error:     p.Err(),
		HistoryID: p.HistoryID(),
		Version:   snap.Version,
		Document:  snap.Doc,
	}
	if p.Tracker != nil {
		resp.Progress = p.Tracker.Current()
	}
	return resp
}

// project loads the :id project or answers 404.
func (h *Handlers) project(c *gin.Context) (*pipeline.Project, bool) {
	id := c.Param("id")
	p, ok := h.Manager.Get(id)
	if !ok {
		middleware.GetLoggerFromContext(c).Debugf("project: Project with ID %s not found.", id)
		utils.ResponseWithError(c, http.StatusNotFound, "Project not found", nil)
		return nil, false
	}
	return p, true
}

// --- API Handlers ---

// CreateProject starts the generation pipeline for a prompt. The run continues
// in the background; clients follow it through the events or ws endpoints.
func (h *Handlers) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("CreateProject: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if req.AspectRatio != "" && !req.AspectRatio.Valid() {
		utils.ResponseWithError(c, http.StatusBadRequest, "Unsupported aspect ratio", string(req.AspectRatio))
		return
	}

	p := h.Manager.Start(strings.TrimSpace(req.Prompt), req.AspectRatio)
	log.WithField("project", p.ID).Info("CreateProject: pipeline started")
	utils.ResponseWithSuccess(c, http.StatusAccepted, "Project generation started", gin.H{
		"id":    p.ID,
		"state": p.State(),
	})
}

func (h *Handlers) GetProject(c *gin.Context) {
	p, ok := h.project(c)
	if !ok {
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Project retrieved successfully", newProjectResponse(p))
}

// DeleteProject closes a live project. Its history item is kept.
func (h *Handlers) DeleteProject(c *gin.Context) {
	p, ok := h.project(c)
	if !ok {
		return
	}
	if p.Busy() {
		utils.ResponseWithError(c, http.StatusConflict, "Project is still generating", gin.H{"state": p.State()})
		return
	}
	h.Manager.Remove(p.ID)
	middleware.GetLoggerFromContext(c).Infof("DeleteProject: project %s closed", p.ID)
	utils.ResponseWithSuccess(c, http.StatusOK, "Project closed successfully", gin.H{"id": p.ID, "historyId": p.HistoryID()})
}

// UpdateScene applies a user edit to one scene. A new duration ripples the
// timeline; other fields replace what they name.
func (h *Handlers) UpdateScene(c *gin.Context) {
	p, ok := h.project(c)
	if !ok {
		return
	}
	sceneID := c.Param("sceneId")
	var fields skeleton.Fields
	if err := c.ShouldBindJSON(&fields); err != nil {
		log.Warnf("UpdateScene: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if _, i := p.Doc.Doc().SceneByID(sceneID); i < 0 {
		utils.ResponseWithError(c, http.StatusNotFound, "Scene not found", nil)
		return
	}
	if fields.VoiceActor != nil {
		fields.VoiceActor = skeleton.String(genclient.ResolveVoiceID(*fields.VoiceActor))
	}

	duration := fields.Duration
	fields.Duration = nil
	snap, err := h.Manager.Apply(c.Request.Context(), p, document.PatchFunc(func(doc skeleton.Skeleton) skeleton.Skeleton {
		doc = document.PatchEntity{Collection: skeleton.Scenes, ID: sceneID, Fields: fields}.Apply(doc)
		if duration != nil {
			doc = document.SetSceneDuration{SceneID: sceneID, Duration: *duration}.Apply(doc)
		}
		return doc
	}))
	if err != nil {
		log.Errorf("UpdateScene: project %s scene %s: %v", p.ID, sceneID, err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to update scene", nil)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Scene updated successfully", snap.Doc)
}

// ResizeClip drags one edge of a timeline clip.
func (h *Handlers) ResizeClip(c *gin.Context) {
	p, ok := h.project(c)
	if !ok {
		return
	}
	clipID := c.Param("clipId")
	var req ResizeClipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("ResizeClip: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if !hasClip(p.Doc.Doc().Tracks, clipID) {
		utils.ResponseWithError(c, http.StatusNotFound, "Clip not found", nil)
		return
	}

	snap, err := h.Manager.Apply(c.Request.Context(), p, document.ResizeClip{ClipID: clipID, Edge: req.Edge, Delta: req.Delta})
	if err != nil {
		log.Errorf("ResizeClip: project %s clip %s: %v", p.ID, clipID, err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to resize clip", nil)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Clip resized successfully", snap.Doc.Tracks)
}

func hasClip(tracks []skeleton.Track, clipID string) bool {
	for _, t := range tracks {
		for _, clip := range t.Clips {
			if clip.ID == clipID {
				return true
			}
		}
	}
	return false
}

// Regenerate redoes one asset. Images and audio finish within the request;
// a scene video is polled in the background and the call answers 202.
func (h *Handlers) Regenerate(c *gin.Context) {
	p, ok := h.project(c)
	if !ok {
		return
	}
	var req RegenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Regenerate: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if !req.Kind.Valid() {
		utils.ResponseWithError(c, http.StatusBadRequest, "Unknown asset kind", string(req.Kind))
		return
	}
	orch := h.Manager.Orchestrator()

	if req.Kind == pipeline.KindSceneVideo {
		scene, i := p.Doc.Doc().SceneByID(req.ID)
		if i < 0 {
			utils.ResponseWithAppError(c, "Regeneration failed", apperr.NewNotFoundError(fmt.Sprintf("scene %s not found", req.ID)))
			return
		}
		if scene.ImageURL == "" {
			utils.ResponseWithAppError(c, "Regeneration failed", apperr.NewValidationError("the scene needs an image before it can get a video", nil))
			return
		}
		h.Manager.Go(p, "regenerate-video", func(ctx context.Context) error {
			return orch.Regenerate(ctx, p, req.Kind, req.ID)
		})
		utils.ResponseWithSuccess(c, http.StatusAccepted, "Video regeneration started", gin.H{"id": req.ID})
		return
	}

	if err := orch.Regenerate(c.Request.Context(), p, req.Kind, req.ID); err != nil {
		log.WithFields(log.Fields{"project": p.ID, "entity": req.ID}).Errorf("Regenerate: %v", err)
		utils.ResponseWithAppError(c, "Regeneration failed", err)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Asset regenerated successfully", p.Doc.Doc())
}

// GenerateVideos starts the video wave for every scene that has an image.
func (h *Handlers) GenerateVideos(c *gin.Context) {
	p, ok := h.project(c)
	if !ok {
		return
	}
	// A failed run keeps its partial document, so its images can still be animated.
	if state := p.State(); state != pipeline.StateComplete && state != pipeline.StateFailed {
		utils.ResponseWithError(c, http.StatusConflict, "Images are still being generated", gin.H{"state": state})
		return
	}
	orch := h.Manager.Orchestrator()
	h.Manager.Go(p, "videos", func(ctx context.Context) error {
		return orch.GenerateVideos(ctx, p)
	})
	utils.ResponseWithSuccess(c, http.StatusAccepted, "Video generation started", gin.H{"id": p.ID})
}

// GenerateAllAudio narrates every scene with dialogue and no audio yet.
func (h *Handlers) GenerateAllAudio(c *gin.Context) {
	p, ok := h.project(c)
	if !ok {
		return
	}
	orch := h.Manager.Orchestrator()
	h.Manager.Go(p, "audio", func(ctx context.Context) error {
		n, err := orch.GenerateMissingAudio(ctx, p)
		log.WithField("project", p.ID).Infof("GenerateAllAudio: %d scenes narrated", n)
		return err
	})
	utils.ResponseWithSuccess(c, http.StatusAccepted, "Audio generation started", gin.H{"id": p.ID})
}

func (h *Handlers) GenerateSceneAudio(c *gin.Context) {
	p, ok := h.project(c)
	if !ok {
		return
	}
	sceneID := c.Param("sceneId")
	orch := h.Manager.Orchestrator()
	if err := orch.GenerateAudio(c.Request.Context(), p, sceneID); err != nil {
		log.WithFields(log.Fields{"project": p.ID, "entity": sceneID}).Errorf("GenerateSceneAudio: %v", err)
		utils.ResponseWithAppError(c, "Audio generation failed", err)
		return
	}
	orch.SaveHistory(c.Request.Context(), p)
	scene, _ := p.Doc.Doc().SceneByID(sceneID)
	utils.ResponseWithSuccess(c, http.StatusOK, "Audio generated successfully", scene)
}

// Refine hands a free-form instruction to the model and applies the
// skeleton it answers with, if any.
func (h *Handlers) Refine(c *gin.Context) {
	p, ok := h.project(c)
	if !ok {
		return
	}
	var req RefineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Refine: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	reply, changed, err := h.Manager.Orchestrator().Refine(c.Request.Context(), p, req.Instruction)
	if err != nil {
		log.WithField("project", p.ID).Errorf("Refine: %v", err)
		utils.ResponseWithAppError(c, "Refinement failed", err)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Refinement finished", gin.H{
		"reply":    reply,
		"changed":  changed,
		"document": p.Doc.Doc(),
	})
}

// ExportProject renders the timeline and sends the file as a download.
// Progress is reported on the project's tracker under the export stage.
func (h *Handlers) ExportProject(c *gin.Context) {
	p, ok := h.project(c)
	if !ok {
		return
	}
	if h.Exporter == nil {
		utils.ResponseWithAppError(c, "Export is not available", apperr.NewConfigurationError("no exporter configured"))
		return
	}

	p.Tracker.Start("export", "rendering clips")
	res, err := h.Exporter.Export(c.Request.Context(), p.Doc.Doc(), func(pct int) {
		p.Tracker.Update(pct, "")
	})
	if err != nil {
		p.Tracker.Fail(err.Error())
		middleware.GetLoggerFromContext(c).WithField("project", p.ID).Errorf("ExportProject: %v", err)
		utils.ResponseWithAppError(c, "Export failed", err)
		return
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			log.Warnf("ExportProject: cleanup of %s failed: %v", res.Path, err)
		}
	}()

	p.Tracker.Complete("export ready")
	c.Header("Content-Type", res.ContentType)
	c.FileAttachment(res.Path, res.Filename)
}
