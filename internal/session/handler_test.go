package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/drivestudy/annotator/internal/models"
	"github.com/drivestudy/annotator/pkg/response"
)

func newTestRouter(ctrl *Controller) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(ctrl)
	r := gin.New()
	r.GET("/session", h.GetState)
	r.PUT("/session/asset", h.SelectAsset)
	r.PUT("/session/base-time", h.SetBaseTime)
	r.POST("/session/load", h.Load)
	r.POST("/session/release", h.Release)
	r.PUT("/session/offset", h.ReportOffset)
	r.PUT("/session/rate", h.SetRate)
	r.POST("/session/flip", h.ToggleFlip)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, response.Body) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var envelope response.Body
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v (%s)", err, w.Body.String())
	}
	return w, envelope
}

func sessionState(t *testing.T, envelope response.Body) models.SessionState {
	t.Helper()
	data, err := json.Marshal(envelope.Data)
	if err != nil {
		t.Fatalf("remarshal data: %v", err)
	}
	var st models.SessionState
	if err := json.Unmarshal(data, &st); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	return st
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	r := newTestRouter(newTestController())

	w, _ := doJSON(t, r, http.MethodPost, "/session/load", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("load without asset: status = %d, want 400", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodPut, "/session/asset", `{"asset_id":"clip.mp4"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("select asset: status = %d", w.Code)
	}
	w, _ = doJSON(t, r, http.MethodPut, "/session/base-time", `{"base_time":"2024-01-01T10:00:00"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("set base time: status = %d", w.Code)
	}
	w, envelope := doJSON(t, r, http.MethodPost, "/session/load", "")
	if w.Code != http.StatusOK {
		t.Fatalf("load: status = %d (%s)", w.Code, w.Body.String())
	}
	st := sessionState(t, envelope)
	if !st.Frozen || st.StreamURL == "" {
		t.Fatalf("loaded state = %+v", st)
	}

	// Frozen: asset change is rejected with 409.
	w, _ = doJSON(t, r, http.MethodPut, "/session/asset", `{"asset_id":"other.mp4"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("select asset while frozen: status = %d, want 409", w.Code)
	}

	w, envelope = doJSON(t, r, http.MethodPut, "/session/offset", `{"seconds":125.0}`)
	if w.Code != http.StatusOK {
		t.Fatalf("offset: status = %d", w.Code)
	}
	st = sessionState(t, envelope)
	if st.RealTime == nil || *st.RealTime != "2024-01-01T10:02:05" {
		t.Fatalf("real time = %v, want 2024-01-01T10:02:05", st.RealTime)
	}

	w, envelope = doJSON(t, r, http.MethodPost, "/session/release", "")
	if w.Code != http.StatusOK {
		t.Fatalf("release: status = %d", w.Code)
	}
	st = sessionState(t, envelope)
	if st.Frozen || st.PlaybackOffset != nil || st.RealTime != nil {
		t.Fatalf("released state = %+v", st)
	}
}

func TestSetRateOverHTTP(t *testing.T) {
	r := newTestRouter(newTestController())

	// JSON number and JSON string are both accepted.
	w, envelope := doJSON(t, r, http.MethodPut, "/session/rate", `{"rate":2.5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("rate number: status = %d", w.Code)
	}
	if st := sessionState(t, envelope); st.PlaybackRate != 2.5 {
		t.Fatalf("rate = %v, want 2.5", st.PlaybackRate)
	}
	w, _ = doJSON(t, r, http.MethodPut, "/session/rate", `{"rate":"0.5"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("rate string: status = %d", w.Code)
	}

	// Invalid input: 400 and rate reset to 1.0.
	w, _ = doJSON(t, r, http.MethodPut, "/session/rate", `{"rate":"abc"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid rate: status = %d, want 400", w.Code)
	}
	_, envelope = doJSON(t, r, http.MethodGet, "/session", "")
	if st := sessionState(t, envelope); st.PlaybackRate != 1.0 {
		t.Fatalf("rate after invalid input = %v, want 1.0", st.PlaybackRate)
	}
}

func TestSetBaseTimeRejectsBadFormat(t *testing.T) {
	r := newTestRouter(newTestController())
	w, _ := doJSON(t, r, http.MethodPut, "/session/base-time", `{"base_time":"yesterday"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestToggleFlipOverHTTP(t *testing.T) {
	r := newTestRouter(newTestController())
	w, envelope := doJSON(t, r, http.MethodPost, "/session/flip", `{"axis":"vertical"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("flip: status = %d", w.Code)
	}
	if st := sessionState(t, envelope); !st.VerticalFlip {
		t.Fatal("vertical flip should be set")
	}
	w, _ = doJSON(t, r, http.MethodPost, "/session/flip", `{"axis":"diagonal"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown axis: status = %d, want 400", w.Code)
	}
}
