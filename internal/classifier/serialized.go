package classifier

import (
	"image"
	"sync"
)

// Serialized makes a non-thread-safe Classifier shareable by holding a
// mutex around every call.
type Serialized struct {
	mu    sync.Mutex
	inner Classifier
}

// Serialize wraps c. Wrapping an already serialized classifier returns it unchanged.
func Serialize(c Classifier) Classifier {
	if s, ok := c.(*Serialized); ok {
		return s
	}
	return &Serialized{inner: c}
}

// Classify calls the wrapped classifier under the lock.
func (s *Serialized) Classify(glyph *image.Gray) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Classify(glyph)
}

// Close closes the wrapped classifier under the lock.
func (s *Serialized) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Close(s.inner)
}
