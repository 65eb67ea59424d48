package session

// CachedKeys reports how many derived keys s holds.
func CachedKeys(s *SecureStore) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}
