package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
	"github.com/ASHISH26940/video-studio-api/pkg/db"
	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
	"github.com/ASHISH26940/video-studio-api/pkg/utils"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// HistoryResponse defines the structure for sending a saved project back to the client.
type HistoryResponse struct {
	ID        string             `json:"id"`
	Prompt    string             `json:"prompt"`
	Thumbnail string             `json:"thumbnail,omitempty"`
	Timestamp string             `json:"timestamp"`
	UpdatedAt string             `json:"updatedAt"`
	Document  *skeleton.Skeleton `json:"document,omitempty"`
}

// newHistoryResponse converts a db.HistoryItem to a HistoryResponse.
func newHistoryResponse(item *db.HistoryItem) HistoryResponse {
	thumbnail := ""
	if item.Thumbnail.Valid {
		thumbnail = item.Thumbnail.String
	}
	return HistoryResponse{
		ID:        item.ID.String(),
		Prompt:    item.Prompt,
		Thumbnail: thumbnail,
		Timestamp: item.Timestamp.Format(time.RFC3339),
		UpdatedAt: item.UpdatedAt.Format(time.RFC3339),
	}
}

// ListHistory returns saved projects, newest first, without their documents.
func (h *Handlers) ListHistory(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			utils.ResponseWithError(c, http.StatusBadRequest, "limit must be between 1 and 500", nil)
			return
		}
		limit = n
	}

	items, err := h.History.ListHistory(c.Request.Context(), limit)
	if err != nil {
		log.Errorf("ListHistory: Failed to fetch history: %v", err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to retrieve history", nil)
		return
	}

	responses := make([]HistoryResponse, len(items))
	for i := range items {
		responses[i] = newHistoryResponse(&items[i])
	}
	log.Debugf("ListHistory: Found %d history items.", len(items))
	utils.ResponseWithSuccess(c, http.StatusOK, "History retrieved successfully", responses)
}

func (h *Handlers) GetHistory(c *gin.Context) {
	id := c.Param("id")
	item, doc, found, err := h.History.LoadHistory(c.Request.Context(), id)
	if err != nil {
		log.Errorf("GetHistory: Failed to fetch history item %s: %v", id, err)
		utils.ResponseWithAppError(c, "Failed to retrieve history item", err)
		return
	}
	if !found {
		utils.ResponseWithError(c, http.StatusNotFound, "History item not found", nil)
		return
	}

	resp := newHistoryResponse(item)
	resp.Document = &doc
	utils.ResponseWithSuccess(c, http.StatusOK, "History item retrieved successfully", resp)
}

func (h *Handlers) DeleteHistory(c *gin.Context) {
	id := c.Param("id")
	if err := h.History.DeleteHistory(c.Request.Context(), id); err != nil {
		if apperr.IsNotFoundError(err) || apperr.IsValidationError(err) {
			utils.ResponseWithAppError(c, "Failed to delete history item", err)
			return
		}
		log.Errorf("DeleteHistory: Failed to delete history item %s: %v", id, err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to delete history item", nil)
		return
	}
	log.Infof("History item %s deleted.", id)
	utils.ResponseWithSuccess(c, http.StatusOK, "History item deleted successfully", nil)
}

// RestoreHistory reopens a saved project as a live one. Later edits keep
// updating the same history item.
func (h *Handlers) RestoreHistory(c *gin.Context) {
	p, err := h.Manager.Restore(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Warnf("RestoreHistory: %v", err)
		utils.ResponseWithAppError(c, "Failed to restore history item", err)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusCreated, "Project restored successfully", newProjectResponse(p))
}
