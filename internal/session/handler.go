package session

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/drivestudy/annotator/internal/models"
	"github.com/drivestudy/annotator/pkg/response"
)

// Handler exposes the session controller operations over HTTP.
type Handler struct {
	ctrl *Controller
}

// NewHandler creates a session handler.
func NewHandler(ctrl *Controller) *Handler {
	return &Handler{ctrl: ctrl}
}

// GetState handles GET /session.
func (h *Handler) GetState(c *gin.Context) {
	response.OK(c, h.ctrl.State())
}

// SelectAssetRequest is the body for PUT /session/asset.
type SelectAssetRequest struct {
	AssetID string `json:"asset_id" binding:"required"`
}

// SelectAsset handles PUT /session/asset.
func (h *Handler) SelectAsset(c *gin.Context) {
	var req SelectAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.ctrl.SelectAsset(req.AssetID); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, h.ctrl.State())
}

// SetBaseTimeRequest is the body for PUT /session/base-time.
type SetBaseTimeRequest struct {
	BaseTime string `json:"base_time" binding:"required"`
}

// SetBaseTime handles PUT /session/base-time. The timestamp is local,
// "YYYY-MM-DDTHH:mm:ss".
func (h *Handler) SetBaseTime(c *gin.Context) {
	var req SetBaseTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	t, err := time.ParseInLocation(models.TimeLayout, req.BaseTime, time.Local)
	if err != nil {
		response.BadRequest(c, "invalid base time: expected "+models.TimeLayout)
		return
	}
	if err := h.ctrl.SetBaseTime(t); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, h.ctrl.State())
}

// Load handles POST /session/load.
func (h *Handler) Load(c *gin.Context) {
	if err := h.ctrl.LoadVideo(c.Request.Context()); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, h.ctrl.State())
}

// Release handles POST /session/release.
func (h *Handler) Release(c *gin.Context) {
	h.ctrl.ReleaseVideo()
	response.OK(c, h.ctrl.State())
}

// OffsetRequest is the body for PUT /session/offset.
type OffsetRequest struct {
	Seconds *float64 `json:"seconds" binding:"required"`
}

// ReportOffset handles PUT /session/offset: the player's periodic progress
// callback plus point reports on pause and seek.
func (h *Handler) ReportOffset(c *gin.Context) {
	var req OffsetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	h.ctrl.ReportPlaybackOffset(*req.Seconds)
	response.OK(c, h.ctrl.State())
}

// SetRate handles PUT /session/rate. The rate may arrive as a JSON number
// or a string; either way it is parsed and validated by the controller.
func (h *Handler) SetRate(c *gin.Context) {
	var req struct {
		Rate json.RawMessage `json:"rate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	value := strings.Trim(strings.TrimSpace(string(req.Rate)), `"`)
	if err := h.ctrl.SetPlaybackRate(value); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, h.ctrl.State())
}

// FlipRequest is the body for POST /session/flip.
type FlipRequest struct {
	Axis string `json:"axis" binding:"required"`
}

// ToggleFlip handles POST /session/flip.
func (h *Handler) ToggleFlip(c *gin.Context) {
	var req FlipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.ctrl.ToggleFlip(req.Axis); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, h.ctrl.State())
}
