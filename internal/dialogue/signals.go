package dialogue

import "strings"

// SignalSet is an insertion-ordered set of normalized tags. It only grows.
type SignalSet []string

// NormalizeTag lower-cases a tag and collapses its whitespace.
func NormalizeTag(tag string) string {
	return strings.Join(strings.Fields(strings.ToLower(tag)), " ")
}

// Add returns the set extended with any new tags. Blank tags are ignored.
func (s SignalSet) Add(tags ...string) SignalSet {
	for _, t := range tags {
		t = NormalizeTag(t)
		if t == "" || s.Contains(t) {
			continue
		}
		s = append(s, t)
	}
	return s
}

// Contains reports whether the normalized tag is in the set.
func (s SignalSet) Contains(tag string) bool {
	tag = NormalizeTag(tag)
	for _, t := range s {
		if t == tag {
			return true
		}
	}
	return false
}

// Thresholds decide when enough signal has been gathered. Both counts must
// strictly exceed their threshold.
type Thresholds struct {
	Moods       int
	Ingredients int
}

// DefaultThresholds returns the stock convergence thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{Moods: 1, Ingredients: 1}
}

// Met reports whether both signal sets are large enough to recommend.
func (t Thresholds) Met(moods, ingredients SignalSet) bool {
	return len(moods) > t.Moods && len(ingredients) > t.Ingredients
}
