package recorder

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/drivestudy/annotator/internal/models"
	"github.com/drivestudy/annotator/pkg/apperr"
	"github.com/drivestudy/annotator/pkg/response"
)

// Clock provides the real-world timestamp attached to submissions. The
// session controller implements it.
type Clock interface {
	RealTime() *time.Time
}

// Handler exposes the event encoder operations over HTTP.
type Handler struct {
	enc      *Encoder
	sink     *Sink
	clock    Clock
	log      *zap.Logger
	inFlight atomic.Bool // guards against duplicate concurrent submissions
}

// NewHandler creates a recorder handler.
func NewHandler(enc *Encoder, sink *Sink, clock Clock, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{enc: enc, sink: sink, clock: clock, log: log}
}

// GetState handles GET /recorder.
func (h *Handler) GetState(c *gin.Context) {
	response.OK(c, h.enc.State())
}

// GetDefinitions handles GET /storage/definition.
func (h *Handler) GetDefinitions(c *gin.Context) {
	response.OK(c, h.enc.Definitions())
}

// SelectEventRequest is the body for PUT /recorder/event. EventID -1
// deselects.
type SelectEventRequest struct {
	EventID *int `json:"event_id" binding:"required"`
}

// SelectEvent handles PUT /recorder/event.
func (h *Handler) SelectEvent(c *gin.Context) {
	var req SelectEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.enc.SelectEvent(*req.EventID); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, h.enc.State())
}

// SetAnswerRequest is the body for PUT /recorder/answer. Value is a single
// code for radio/text groups or an array of codes for check groups.
type SetAnswerRequest struct {
	GroupID *int            `json:"group_id" binding:"required"`
	Value   json.RawMessage `json:"value" binding:"required"`
}

// SetAnswer handles PUT /recorder/answer.
func (h *Handler) SetAnswer(c *gin.Context) {
	var req SetAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	codes, err := decodeValue(req.Value)
	if err != nil {
		response.BadRequest(c, "invalid value: expected a code or an array of codes")
		return
	}
	if err := h.enc.SetAnswer(*req.GroupID, codes); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, h.enc.State())
}

func decodeValue(raw json.RawMessage) ([]string, error) {
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, err
	}
	return many, nil
}

// ValidationResult is the body returned by GET /recorder/validate.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Reasons []string `json:"reasons,omitempty"`
}

// Validate handles GET /recorder/validate.
func (h *Handler) Validate(c *gin.Context) {
	reasons := h.enc.Validate()
	response.OK(c, ValidationResult{Valid: len(reasons) == 0, Reasons: reasons})
}

// Submit handles POST /recorder/submit: validate, encode, capture the
// session's real time, and post to the sink. A transport failure leaves the
// answer state untouched so the operator can simply retry.
func (h *Handler) Submit(c *gin.Context) {
	if !h.inFlight.CompareAndSwap(false, true) {
		response.Conflict(c, "a submission is already in progress")
		return
	}
	defer h.inFlight.Store(false)

	encoded, err := h.enc.Encode()
	if err != nil {
		response.FromError(c, err)
		return
	}
	rt := h.clock.RealTime()
	if rt == nil {
		response.FromError(c, apperr.Validation("no video time available: load a video and start playback first"))
		return
	}
	sub := Submission{Time: rt.Format(models.TimeLayout), Event: encoded}
	if err := h.sink.Submit(c.Request.Context(), sub); err != nil {
		h.log.Warn("submission failed", zap.Error(err), zap.String("event", encoded))
		response.BadGateway(c, "submission failed, please retry: "+err.Error())
		return
	}
	h.enc.NotifySubmitted(sub.Time, sub.Event)
	response.OK(c, sub)
}
