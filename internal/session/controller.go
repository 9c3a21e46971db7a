// Package session owns the video-session lifecycle: which asset, at what
// base real time, currently at what playback offset, under what playback
// transform. The derived real-world timestamp is the single source of truth
// for tagging submitted events.
package session

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/drivestudy/annotator/internal/models"
	"github.com/drivestudy/annotator/pkg/apperr"
)

// StreamResolver turns an asset identifier into a playable URL. It does not
// verify reachability.
type StreamResolver interface {
	Resolve(ctx context.Context, assetID string) (string, error)
}

// Notifier delivers state-change events to the rendering layer.
type Notifier interface {
	Notify(event string, payload interface{})
}

// Events emitted through the Notifier.
const (
	EventSessionUpdated = "session_updated"
	EventVideoLoaded    = "video_loaded"
	EventVideoReleased  = "video_released"
)

// Controller is the single source of truth for the video session. All
// operations are synchronous state transitions; a mutex guards them because
// they arrive over HTTP.
type Controller struct {
	mu sync.Mutex

	assetID   string // empty until chosen
	baseTime  *time.Time
	offset    *float64 // last reported playback position, seconds
	frozen    bool
	streamURL string
	rate      float64
	hFlip     bool
	vFlip     bool

	resolver StreamResolver
	notifier Notifier
	log      *zap.Logger
}

// NewController creates an unfrozen session controller. notifier may be nil.
func NewController(resolver StreamResolver, notifier Notifier, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		rate:     models.DefaultPlaybackRate,
		resolver: resolver,
		notifier: notifier,
		log:      log,
	}
}

// SelectAsset sets the asset identifier. Fails while the session is frozen.
func (c *Controller) SelectAsset(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return apperr.InvalidState("session is frozen; release the video first")
	}
	c.assetID = id
	c.notifyLocked(EventSessionUpdated)
	return nil
}

// SetBaseTime sets the real-world instant corresponding to playback position
// zero. Fails while the session is frozen.
func (c *Controller) SetBaseTime(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return apperr.InvalidState("session is frozen; release the video first")
	}
	c.baseTime = &t
	c.notifyLocked(EventSessionUpdated)
	return nil
}

// LoadVideo freezes the session and constructs the streaming reference from
// the selected asset. Re-invocation while frozen is a no-op. The playback
// offset is left untouched.
func (c *Controller) LoadVideo(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.assetID == "" || c.baseTime == nil {
		return apperr.Validation("missing asset or base time")
	}
	if c.frozen {
		return nil
	}
	url, err := c.resolver.Resolve(ctx, c.assetID)
	if err != nil {
		return err
	}
	c.streamURL = url
	c.frozen = true
	c.log.Info("video loaded", zap.String("asset_id", c.assetID), zap.String("stream_url", url))
	c.notifyLocked(EventVideoLoaded)
	return nil
}

// ReleaseVideo unfreezes the session, clears the playback offset and
// streaming reference, and resets rate and flips. Asset and base time are
// preserved so the same video can be reloaded immediately.
func (c *Controller) ReleaseVideo() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = false
	c.offset = nil
	c.streamURL = ""
	c.rate = models.DefaultPlaybackRate
	c.hFlip = false
	c.vFlip = false
	c.log.Info("video released", zap.String("asset_id", c.assetID))
	c.notifyLocked(EventVideoReleased)
}

// ReportPlaybackOffset records the player's last reported position. Negative
// values clamp to zero.
func (c *Controller) ReportPlaybackOffset(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = &seconds
	c.notifyLocked(EventSessionUpdated)
}

// SetPlaybackRate parses value and commits it when it is a finite number in
// [0.1, 5.0]. Any other input resets the rate to 1.0 and returns a
// validation error.
func (c *Controller) SetPlaybackRate(value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	rate, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(rate) || rate < models.MinPlaybackRate || rate > models.MaxPlaybackRate {
		c.rate = models.DefaultPlaybackRate
		c.notifyLocked(EventSessionUpdated)
		return apperr.Validation("invalid playback rate " + strconv.Quote(value) + ": must be a number between 0.1 and 5.0")
	}
	c.rate = rate
	c.notifyLocked(EventSessionUpdated)
	return nil
}

// ToggleFlip flips the presentation transform on the given axis
// ("horizontal" or "vertical"). Pure presentation state.
func (c *Controller) ToggleFlip(axis string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch axis {
	case "horizontal":
		c.hFlip = !c.hFlip
	case "vertical":
		c.vFlip = !c.vFlip
	default:
		return apperr.Validation("unknown flip axis " + strconv.Quote(axis))
	}
	c.notifyLocked(EventSessionUpdated)
	return nil
}

// RealTime derives the absolute timestamp of the current playback position:
// baseTime + last reported offset. Returns nil until both are known. The
// derivation deliberately ignores wall clock and playback rate; the video
// may be paused, scrubbed, or played off-speed.
func (c *Controller) RealTime() *time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.realTimeLocked()
}

func (c *Controller) realTimeLocked() *time.Time {
	if c.baseTime == nil || c.offset == nil {
		return nil
	}
	t := c.baseTime.Add(time.Duration(*c.offset * float64(time.Second)))
	return &t
}

// State returns a snapshot for the UI layer.
func (c *Controller) State() models.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() models.SessionState {
	s := models.SessionState{
		Frozen:         c.frozen,
		StreamURL:      c.streamURL,
		PlaybackRate:   c.rate,
		HorizontalFlip: c.hFlip,
		VerticalFlip:   c.vFlip,
	}
	if c.assetID != "" {
		id := c.assetID
		s.AssetID = &id
	}
	if c.baseTime != nil {
		bt := c.baseTime.Format(models.TimeLayout)
		s.BaseTime = &bt
	}
	if c.offset != nil {
		off := *c.offset
		s.PlaybackOffset = &off
	}
	if rt := c.realTimeLocked(); rt != nil {
		f := rt.Format(models.TimeLayout)
		s.RealTime = &f
	}
	return s
}

func (c *Controller) notifyLocked(event string) {
	if c.notifier == nil {
		return
	}
	c.notifier.Notify(event, c.stateLocked())
}
