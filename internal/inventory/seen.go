// internal/inventory/seen.go
package inventory

import "context"

// Seen deduplicates observations by EPC, keeping first-seen order and
// incrementing Count on repeats. The newest RSSI/antenna/channel win.
type Seen struct {
	order []string
	tags  map[string]*Tag
}

func NewSeen() *Seen {
	return &Seen{tags: make(map[string]*Tag)}
}

// Add records t and reports whether its EPC was new.
func (s *Seen) Add(t Tag) bool {
	key := t.EPC()
	if prev, ok := s.tags[key]; ok {
		prev.Count += max(t.Count, 1)
		prev.RSSI, prev.Antenna, prev.Channel = t.RSSI, t.Antenna, t.Channel
		return false
	}
	if t.Count < 1 {
		t.Count = 1
	}
	s.tags[key] = &t
	s.order = append(s.order, key)
	return true
}

func (s *Seen) Len() int { return len(s.order) }

// Tags returns copies in first-seen order.
func (s *Seen) Tags() []Tag {
	out := make([]Tag, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, *s.tags[k])
	}
	return out
}

// Collect drains st into a deduplicated slice. limit > 0 stops after that
// many observations; the stream is left as it was at that point.
func Collect(ctx context.Context, st Stream, limit int) ([]Tag, error) {
	seen := NewSeen()
	n := 0
	for st.Next(ctx) {
		seen.Add(st.Tag())
		n++
		if limit > 0 && n >= limit {
			break
		}
	}
	return seen.Tags(), st.Err()
}
