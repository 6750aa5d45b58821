package timeline

// Interpolate computes the position at frame by blending linearly between
// the bracketing keyframes. Progress is not clamped, so frames outside the
// keyed range continue along the first or last segment. ok is false when the
// store holds fewer than two keyframes.
func Interpolate(s *Store, frame float64) (position float64, ok bool) {
	start, end, ok := s.Bracket(frame)
	if !ok {
		return 0, false
	}

	span := float64(end.Frame - start.Frame)
	if span == 0 {
		// Every keyframe on the same frame
		return start.Position, true
	}

	progress := (frame - float64(start.Frame)) / span
	return start.Position + (end.Position-start.Position)*progress, true
}

// TimelinePos maps a frame onto the timeline widget's percentage scale used
// for appended keyframes.
func TimelinePos(frame int, maxFrame int) float64 {
	return (float64(frame)/float64(maxFrame))*60 + 5
}
