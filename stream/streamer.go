package stream

import (
	"context"
	"log/slog"
	"time"

	"github.com/eclipse/paho.mqtt.golang"
	"github.com/matt-g-everett/ledkey/timeline"
)

// Publisher is the part of an MQTT client used to send frames.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Streamer renders each tick as an LED frame and streams it to an ledrx
// device over MQTT.
type Streamer struct {
	client   Publisher
	renderer *Renderer
	log      *slog.Logger
	frames   chan *Frame

	topic   string
	qos     byte
	timeout time.Duration
}

// NewStreamer creates an instance of a Streamer.
func NewStreamer(config MqttConfig, client Publisher, renderer *Renderer, log *slog.Logger) *Streamer {
	s := new(Streamer)
	s.client = client
	s.renderer = renderer
	s.log = log
	s.frames = make(chan *Frame, 1)
	s.topic = config.Topics.Stream
	s.qos = config.Qos
	s.timeout = config.PublishTimeout
	return s
}

// OnTick renders the frame for position and queues it for Run. A frame still
// waiting from an earlier tick is replaced, so a slow broker never holds up
// the tick.
func (s *Streamer) OnTick(frame int, position float64) {
	f := s.renderer.Render(position)
	select {
	case <-s.frames:
		s.log.Debug("dropped stale frame", "frame", frame)
	default:
	}
	select {
	case s.frames <- f:
	default:
	}
}

// OnKeyframes logs the new keyframe list; the strip has no timeline display.
func (s *Streamer) OnKeyframes(keyframes []timeline.Keyframe) {
	s.log.Debug("keyframes updated", "count", len(keyframes))
}

// Run sends queued frames until ctx is done.
func (s *Streamer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-s.frames:
			s.SendFrame(f)
		}
	}
}

// SendFrame sends a frame as binary over MQTT to an ledrx device.
func (s *Streamer) SendFrame(f *Frame) {
	b, err := f.MarshalBinary()
	if err != nil {
		s.log.Error("marshal frame", "error", err)
		return
	}

	token := s.client.Publish(s.topic, s.qos, false, b)
	if !token.WaitTimeout(s.timeout) {
		s.log.Warn("publish timed out", "topic", s.topic, "timeout", s.timeout)
		return
	}
	if err := token.Error(); err != nil {
		s.log.Warn("publish failed", "topic", s.topic, "error", err)
	}
}
