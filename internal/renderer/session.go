package renderer

import "sync"

// Stats counts directive outcomes for one build.
type Stats struct {
	Rendered    int
	Cached      int
	Failed      int
	Unavailable int
}

// Session is the state shared by every render of one build. It remembers
// which engines could not be started so each is reported once, and which
// directive owns each explicit file name.
type Session struct {
	mu          sync.Mutex
	unavailable map[string]bool
	names       map[string]claim
	stats       Stats
}

type claim struct {
	key      string
	location string
}

// NewSession starts a build session.
func NewSession() *Session {
	return &Session{
		unavailable: make(map[string]bool),
		names:       make(map[string]claim),
	}
}

// Stats returns a snapshot of the counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Unavailable reports whether engine failed to start earlier in the session.
func (s *Session) Unavailable(engine string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unavailable[engine]
}

// markUnavailable records engine and reports whether this was the first
// time.
func (s *Session) markUnavailable(engine string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	first := !s.unavailable[engine]
	s.unavailable[engine] = true
	return first
}

// claimName records that the directive at location owns name with content
// key. A second claim with the same key succeeds; one with a different key
// fails and returns the location of the first owner.
func (s *Session) claimName(name, key, location string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.names[name]; ok {
		return prev.location, prev.key == key
	}
	s.names[name] = claim{key: key, location: location}
	return "", true
}

func (s *Session) count(fn func(*Stats)) {
	s.mu.Lock()
	fn(&s.stats)
	s.mu.Unlock()
}
