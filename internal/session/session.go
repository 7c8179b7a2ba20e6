// Package session keeps the last observed language code per sender. The
// store lives for the process lifetime and is lost on restart.
package session

import "sync"

// DefaultLang is used when a sender has no recorded language yet.
const DefaultLang = "en"

// Store is a mutex guarded sender -> language code mapping. Two messages
// from the same sender handled concurrently still race at the message
// level (last writer wins), but every individual access is well defined.
type Store struct {
	mu    sync.RWMutex
	langs map[string]string
}

// NewStore .
func NewStore() *Store {
	return &Store{
		langs: make(map[string]string),
	}
}

// SetLang records the language code most recently detected for a sender.
func (s *Store) SetLang(sender, langCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.langs[sender] = langCode
}

// Lang returns the last recorded language code for a sender, or
// DefaultLang when the sender was never seen.
func (s *Store) Lang(sender string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if l, ok := s.langs[sender]; ok && l != "" {
		return l
	}

	return DefaultLang
}
