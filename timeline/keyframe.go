package timeline

import (
	"sort"
)

// Keyframe pins the animated position to a specific frame.
type Keyframe struct {
	Frame       int     `json:"frame" yaml:"frame"`
	Position    float64 `json:"position" yaml:"position"`
	TimelinePos float64 `json:"timelinePos" yaml:"timelinePos"`
}

// Store holds keyframes in ascending frame order.
type Store struct {
	keyframes []Keyframe
}

// NewStore creates a Store seeded with the given keyframes.
func NewStore(seed ...Keyframe) *Store {
	s := new(Store)
	s.keyframes = make([]Keyframe, 0, len(seed)+4)
	for _, kf := range seed {
		s.Insert(kf)
	}

	return s
}

// Insert appends a keyframe and re-sorts the store. Keyframes sharing a
// frame are kept in insertion order; the last one inserted wins in Bracket.
func (s *Store) Insert(kf Keyframe) {
	s.keyframes = append(s.keyframes, kf)
	sort.SliceStable(s.keyframes, func(i, j int) bool {
		return s.keyframes[i].Frame < s.keyframes[j].Frame
	})
}

// Len returns the number of keyframes.
func (s *Store) Len() int {
	return len(s.keyframes)
}

// Keyframes returns a copy of the sorted keyframes.
func (s *Store) Keyframes() []Keyframe {
	out := make([]Keyframe, len(s.keyframes))
	copy(out, s.keyframes)
	return out
}

// Last returns the keyframe with the highest frame.
func (s *Store) Last() (Keyframe, bool) {
	if len(s.keyframes) == 0 {
		return Keyframe{}, false
	}
	return s.keyframes[len(s.keyframes)-1], true
}

// Bracket finds the keyframes either side of frame: start is the latest
// keyframe at or before it and end the earliest one after it. Outside the
// keyed range the first or last segment is used instead, so callers
// extrapolate along that segment. ok is false with fewer than two keyframes.
//
// Keyframes sharing a frame are represented by the last one inserted, at
// every position in the timeline. When every keyframe shares one frame,
// start and end are both that last keyframe.
func (s *Store) Bracket(frame float64) (start Keyframe, end Keyframe, ok bool) {
	n := len(s.keyframes)
	if n < 2 {
		return Keyframe{}, Keyframe{}, false
	}

	// Index of the first keyframe strictly after frame
	i := sort.Search(n, func(i int) bool {
		return float64(s.keyframes[i].Frame) > frame
	})

	switch {
	case i == 0:
		a := s.lastAt(0)
		if a == n-1 {
			return s.keyframes[a], s.keyframes[a], true
		}
		return s.keyframes[a], s.keyframes[s.lastAt(a+1)], true
	case i == n:
		j := s.firstAt(n - 1)
		if j == 0 {
			return s.keyframes[n-1], s.keyframes[n-1], true
		}
		return s.keyframes[j-1], s.keyframes[n-1], true
	}

	// keyframes[i-1] is already the last at its frame
	return s.keyframes[i-1], s.keyframes[s.lastAt(i)], true
}

// lastAt returns the index of the last keyframe sharing keyframes[i]'s frame.
func (s *Store) lastAt(i int) int {
	for i+1 < len(s.keyframes) && s.keyframes[i+1].Frame == s.keyframes[i].Frame {
		i++
	}
	return i
}

// firstAt returns the index of the first keyframe sharing keyframes[i]'s frame.
func (s *Store) firstAt(i int) int {
	for i > 0 && s.keyframes[i-1].Frame == s.keyframes[i].Frame {
		i--
	}
	return i
}
