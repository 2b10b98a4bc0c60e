package handlers

import (
	"net/http"

	"github.com/ASHISH26940/video-studio-api/pkg/utils"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// GetAsset serves a stored blob, such as a scene's narration.
func (h *Handlers) GetAsset(c *gin.Context) {
	id := c.Param("id")
	asset, err := h.Assets.GetAsset(c.Request.Context(), id)
	if err != nil {
		log.Errorf("GetAsset: Failed to fetch asset %s: %v", id, err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to retrieve asset", nil)
		return
	}
	if asset == nil {
		utils.ResponseWithError(c, http.StatusNotFound, "Asset not found", nil)
		return
	}

	contentType := asset.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, contentType, asset.Blob)
}
