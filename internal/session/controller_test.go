package session

import (
	"context"
	"testing"
	"time"

	"github.com/drivestudy/annotator/pkg/apperr"
)

type staticResolver struct {
	base string
}

func (r staticResolver) Resolve(_ context.Context, assetID string) (string, error) {
	return r.base + "/" + assetID, nil
}

type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) Notify(event string, _ interface{}) {
	n.events = append(n.events, event)
}

func newTestController() *Controller {
	return NewController(staticResolver{base: "http://localhost:8080/data"}, nil, nil)
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return ts
}

func loadSession(t *testing.T, c *Controller) {
	t.Helper()
	if err := c.SelectAsset("210101_083000_084500_F.mp4"); err != nil {
		t.Fatalf("SelectAsset: %v", err)
	}
	if err := c.SetBaseTime(mustParse(t, "2024-01-01T10:00:00")); err != nil {
		t.Fatalf("SetBaseTime: %v", err)
	}
	if err := c.LoadVideo(context.Background()); err != nil {
		t.Fatalf("LoadVideo: %v", err)
	}
}

func TestLoadVideoRequiresAssetAndBaseTime(t *testing.T) {
	c := newTestController()
	err := c.LoadVideo(context.Background())
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if c.State().Frozen {
		t.Fatal("failed load must not freeze the session")
	}

	if err := c.SelectAsset("clip.mp4"); err != nil {
		t.Fatalf("SelectAsset: %v", err)
	}
	if err := c.LoadVideo(context.Background()); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error with missing base time, got %v", err)
	}
}

func TestLoadVideoFreezesAndResolvesStream(t *testing.T) {
	c := newTestController()
	loadSession(t, c)

	st := c.State()
	if !st.Frozen {
		t.Fatal("session should be frozen after load")
	}
	want := "http://localhost:8080/data/210101_083000_084500_F.mp4"
	if st.StreamURL != want {
		t.Fatalf("stream url = %q, want %q", st.StreamURL, want)
	}

	// Frozen session rejects asset/base-time changes.
	if err := c.SelectAsset("other.mp4"); !apperr.IsInvalidState(err) {
		t.Fatalf("expected invalid-state error, got %v", err)
	}
	if err := c.SetBaseTime(time.Now()); !apperr.IsInvalidState(err) {
		t.Fatalf("expected invalid-state error, got %v", err)
	}

	// Re-invocation while frozen is a no-op.
	if err := c.LoadVideo(context.Background()); err != nil {
		t.Fatalf("idempotent load: %v", err)
	}
}

func TestRealTimeDerivation(t *testing.T) {
	c := newTestController()
	if c.RealTime() != nil {
		t.Fatal("real time must be nil before base time and offset are known")
	}

	loadSession(t, c)
	if c.RealTime() != nil {
		t.Fatal("real time must be nil until an offset is reported")
	}

	c.ReportPlaybackOffset(125.0)
	rt := c.RealTime()
	if rt == nil {
		t.Fatal("real time should be derivable")
	}
	if got, want := rt.Format("2006-01-02T15:04:05"), "2024-01-01T10:02:05"; got != want {
		t.Fatalf("real time = %s, want %s", got, want)
	}

	// Rate has no influence on the derivation.
	if err := c.SetPlaybackRate("2.5"); err != nil {
		t.Fatalf("SetPlaybackRate: %v", err)
	}
	if got := c.RealTime().Format("2006-01-02T15:04:05"); got != "2024-01-01T10:02:05" {
		t.Fatalf("real time changed with playback rate: %s", got)
	}
}

func TestReportPlaybackOffsetClampsNegative(t *testing.T) {
	c := newTestController()
	c.ReportPlaybackOffset(-3.5)
	st := c.State()
	if st.PlaybackOffset == nil || *st.PlaybackOffset != 0 {
		t.Fatalf("offset = %v, want 0", st.PlaybackOffset)
	}
}

func TestSetPlaybackRate(t *testing.T) {
	valid := []struct {
		in   string
		want float64
	}{
		{"0.1", 0.1},
		{"1.0", 1.0},
		{"2.5", 2.5},
		{"5.0", 5.0},
	}
	for _, tt := range valid {
		t.Run("valid_"+tt.in, func(t *testing.T) {
			c := newTestController()
			if err := c.SetPlaybackRate(tt.in); err != nil {
				t.Fatalf("SetPlaybackRate(%q): %v", tt.in, err)
			}
			if got := c.State().PlaybackRate; got != tt.want {
				t.Fatalf("rate = %v, want %v", got, tt.want)
			}
		})
	}

	invalid := []string{"abc", "0.05", "5.1", "", "NaN"}
	for _, in := range invalid {
		t.Run("invalid_"+in, func(t *testing.T) {
			c := newTestController()
			if err := c.SetPlaybackRate("2.0"); err != nil {
				t.Fatalf("SetPlaybackRate(2.0): %v", err)
			}
			err := c.SetPlaybackRate(in)
			if !apperr.IsValidation(err) {
				t.Fatalf("expected validation error for %q, got %v", in, err)
			}
			if got := c.State().PlaybackRate; got != 1.0 {
				t.Fatalf("rate after invalid input = %v, want reset to 1.0", got)
			}
		})
	}
}

func TestReleaseVideoResetsTransientState(t *testing.T) {
	c := newTestController()
	loadSession(t, c)
	c.ReportPlaybackOffset(42)
	if err := c.SetPlaybackRate("3.0"); err != nil {
		t.Fatalf("SetPlaybackRate: %v", err)
	}
	if err := c.ToggleFlip("horizontal"); err != nil {
		t.Fatalf("ToggleFlip: %v", err)
	}
	if err := c.ToggleFlip("vertical"); err != nil {
		t.Fatalf("ToggleFlip: %v", err)
	}

	c.ReleaseVideo()
	st := c.State()
	if st.Frozen {
		t.Fatal("session should be unfrozen after release")
	}
	if st.PlaybackOffset != nil {
		t.Fatal("offset should reset to null on release")
	}
	if st.StreamURL != "" {
		t.Fatal("stream url should be cleared on release")
	}
	if st.PlaybackRate != 1.0 {
		t.Fatalf("rate = %v, want 1.0", st.PlaybackRate)
	}
	if st.HorizontalFlip || st.VerticalFlip {
		t.Fatal("flips should reset on release")
	}
	// Asset and base time survive for a quick reload.
	if st.AssetID == nil || st.BaseTime == nil {
		t.Fatal("asset and base time must be preserved across release")
	}

	if err := c.LoadVideo(context.Background()); err != nil {
		t.Fatalf("reload after release: %v", err)
	}
	st = c.State()
	if !st.Frozen || st.PlaybackOffset != nil || st.PlaybackRate != 1.0 {
		t.Fatalf("reload should yield a fresh frozen session, got %+v", st)
	}
}

func TestToggleFlip(t *testing.T) {
	c := newTestController()
	if err := c.ToggleFlip("horizontal"); err != nil {
		t.Fatalf("ToggleFlip: %v", err)
	}
	if !c.State().HorizontalFlip {
		t.Fatal("horizontal flip should be set")
	}
	if err := c.ToggleFlip("horizontal"); err != nil {
		t.Fatalf("ToggleFlip: %v", err)
	}
	if c.State().HorizontalFlip {
		t.Fatal("horizontal flip should toggle back")
	}
	if err := c.ToggleFlip("diagonal"); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for unknown axis, got %v", err)
	}
}

func TestControllerNotifies(t *testing.T) {
	n := &recordingNotifier{}
	c := NewController(staticResolver{base: "http://localhost"}, n, nil)
	loadSession(t, c)
	c.ReleaseVideo()

	want := []string{EventSessionUpdated, EventSessionUpdated, EventVideoLoaded, EventVideoReleased}
	if len(n.events) != len(want) {
		t.Fatalf("events = %v, want %v", n.events, want)
	}
	for i := range want {
		if n.events[i] != want[i] {
			t.Fatalf("events = %v, want %v", n.events, want)
		}
	}
}
