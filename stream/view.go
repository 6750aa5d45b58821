package stream

import (
	"github.com/matt-g-everett/ledkey/timeline"
)

// A View renders playback output. Views are called from the controller's
// tick with its lock held, so they hand slow work off and return promptly,
// and must not call back into the controller.
type View interface {
	OnTick(frame int, position float64)
	OnKeyframes(keyframes []timeline.Keyframe)
}

// Views fans out to several views in order.
type Views []View

// OnTick passes the tick to each view.
func (vs Views) OnTick(frame int, position float64) {
	for _, v := range vs {
		v.OnTick(frame, position)
	}
}

// OnKeyframes passes the keyframe list to each view.
func (vs Views) OnKeyframes(keyframes []timeline.Keyframe) {
	for _, v := range vs {
		v.OnKeyframes(keyframes)
	}
}
