package stream

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/matt-g-everett/ledkey/timeline"
)

// keyframeSpacing is how far past the last keyframe AddKeyframe places a new
// one.
const keyframeSpacing = 10

// tickTask is the handle for a running playback ticker.
type tickTask struct {
	ticker *time.Ticker
	quit   chan struct{}
}

// Controller owns the keyframe store and playback state, and drives the
// views from a fixed-rate ticker while playing.
type Controller struct {
	mu   sync.Mutex
	log  *slog.Logger
	view View

	store      *timeline.Store
	maxFrame   int
	tickPeriod time.Duration

	currentFrame int
	position     float64
	task         *tickTask
}

// NewController creates a stopped Controller at frame 0.
func NewController(config PlaybackConfig, store *timeline.Store, view View, log *slog.Logger) *Controller {
	c := new(Controller)
	c.log = log
	c.view = view
	c.store = store
	c.maxFrame = config.MaxFrame
	c.tickPeriod = config.TickPeriod
	c.currentFrame = 0

	return c
}

// Playing reports whether the ticker is running.
func (c *Controller) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.task != nil
}

// CurrentFrame returns the frame most recently advanced to.
func (c *Controller) CurrentFrame() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentFrame
}

// Position returns the most recently rendered position.
func (c *Controller) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

// Keyframes returns the sorted keyframes.
func (c *Controller) Keyframes() []timeline.Keyframe {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Keyframes()
}

// Refresh pushes the keyframe list and the current frame to the views.
func (c *Controller) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.view.OnKeyframes(c.store.Keyframes())
	c.render()
}

// TogglePlay starts playback from frame 0 when stopped, or stops it when
// playing. It returns whether playback is now running. Once it returns
// after stopping, no further tick runs.
func (c *Controller) TogglePlay() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.task != nil {
		c.stopLocked()
		c.log.Info("playback stopped", "frame", c.currentFrame)
		return false
	}

	c.currentFrame = 0
	t := &tickTask{
		ticker: time.NewTicker(c.tickPeriod),
		quit:   make(chan struct{}),
	}
	c.task = t
	go c.runTask(t)

	c.log.Info("playback started", "period", c.tickPeriod, "maxFrame", c.maxFrame)
	return true
}

// Stop halts playback if it is running.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.task != nil {
		c.stopLocked()
		c.log.Info("playback stopped", "frame", c.currentFrame)
	}
}

func (c *Controller) stopLocked() {
	c.task.ticker.Stop()
	close(c.task.quit)
	c.task = nil
}

func (c *Controller) runTask(t *tickTask) {
	for {
		select {
		case <-t.quit:
			return
		case <-t.ticker.C:
			c.mu.Lock()
			if c.task != t {
				// Cancelled while waiting for the lock
				c.mu.Unlock()
				return
			}
			c.step()
			c.mu.Unlock()
		}
	}
}

// Step advances one frame, wrapping past maxFrame to 0, and renders it.
func (c *Controller) Step() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step()
}

func (c *Controller) step() {
	c.currentFrame++
	if c.currentFrame > c.maxFrame {
		c.currentFrame = 0
	}
	c.render()
}

func (c *Controller) render() {
	position, ok := timeline.Interpolate(c.store, float64(c.currentFrame))
	if !ok {
		return
	}
	c.position = position
	c.view.OnTick(c.currentFrame, position)
}

// AddKeyframe appends a keyframe 10 frames past the current last one, or
// past maxFrame when the store is empty, and pushes the updated list to the
// views. Repeated adds step on to 120, 130 and so on rather than all landing
// on maxFrame+10.
func (c *Controller) AddKeyframe(position float64) timeline.Keyframe {
	c.mu.Lock()
	defer c.mu.Unlock()

	previous := c.maxFrame
	if last, ok := c.store.Last(); ok {
		previous = last.Frame
	}

	frame := previous + keyframeSpacing
	kf := timeline.Keyframe{
		Frame:       frame,
		Position:    position,
		TimelinePos: timeline.TimelinePos(frame, c.maxFrame),
	}
	c.store.Insert(kf)
	c.view.OnKeyframes(c.store.Keyframes())

	c.log.Info("keyframe added", "frame", kf.Frame, "position", kf.Position)
	return kf
}

// Run blocks until ctx is done and then stops playback.
func (c *Controller) Run(ctx context.Context) {
	<-ctx.Done()
	c.Stop()
}
