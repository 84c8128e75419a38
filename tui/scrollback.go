// scrollback.go provides the console's scrollable output history.
//
// Unlike a plain viewport, the scrollback is append-oriented: new output
// is added at the bottom and the view follows it, like a terminal. Manual
// scrolling detaches from the tail until the user scrolls back down.
package tui

import "strings"

// Scrollback is an append-only, scrollable line buffer.
type Scrollback struct {
	width  int
	height int
	lines  []string
	offset int  // first visible line index
	follow bool // stick to the bottom as lines arrive
}

// NewScrollback creates a scrollback with the given dimensions.
func NewScrollback(width, height int) *Scrollback {
	return &Scrollback{width: width, height: height, follow: true}
}

// SetSize updates the dimensions.
func (s *Scrollback) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.clamp()
}

// Append adds lines at the bottom.
func (s *Scrollback) Append(lines ...string) {
	s.lines = append(s.lines, lines...)
	if s.follow {
		s.offset = s.maxOffset()
	}
}

// Clear empties the buffer.
func (s *Scrollback) Clear() {
	s.lines = nil
	s.offset = 0
	s.follow = true
}

// ScrollUp moves the view up by n lines and detaches from the tail.
func (s *Scrollback) ScrollUp(n int) {
	s.offset -= n
	s.follow = false
	s.clamp()
}

// ScrollDown moves the view down by n lines; reaching the bottom
// re-attaches to the tail.
func (s *Scrollback) ScrollDown(n int) {
	s.offset += n
	s.clamp()
	if s.offset == s.maxOffset() {
		s.follow = true
	}
}

// PageUp scrolls up by one page.
func (s *Scrollback) PageUp() { s.ScrollUp(s.height) }

// PageDown scrolls down by one page.
func (s *Scrollback) PageDown() { s.ScrollDown(s.height) }

// Render returns the visible portion, padded to the viewport height.
func (s *Scrollback) Render() string {
	end := s.offset + s.height
	if end > len(s.lines) {
		end = len(s.lines)
	}

	var visible []string
	for _, line := range s.lines[s.offset:end] {
		if len(line) > s.width && s.width > 0 {
			line = line[:s.width]
		}
		visible = append(visible, line)
	}
	for len(visible) < s.height {
		visible = append(visible, "")
	}
	return strings.Join(visible, "\n")
}

func (s *Scrollback) maxOffset() int {
	max := len(s.lines) - s.height
	if max < 0 {
		return 0
	}
	return max
}

func (s *Scrollback) clamp() {
	if s.offset > s.maxOffset() {
		s.offset = s.maxOffset()
	}
	if s.offset < 0 {
		s.offset = 0
	}
}
