package session

import (
	"encoding/json"
	"os"
	"sync"
)

// Durable storage keys. String-valued so any key/value store can back them.
const (
	keyUser         = "user"
	keyToken        = "token"
	keyRefreshToken = "refreshToken"
	keyRememberMe   = "rememberMe"
	keyLastActivity = "lastActivity"
)

// Storage is the durable key/value backend a Store persists sessions to.
// Implementations must be safe for concurrent use.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// MemoryStorage is a volatile in-memory Storage, used in tests and for
// processes that do not want session persistence.
type MemoryStorage struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

func (s *MemoryStorage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *MemoryStorage) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

func (s *MemoryStorage) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// FileStorage persists keys as a single JSON object on disk. Write failures
// are swallowed: losing persistence degrades to a fresh login next start,
// never to a broken session.
type FileStorage struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// NewFileStorage loads (or starts empty over) the JSON file at path.
// A malformed file is treated as absent.
func NewFileStorage(path string) *FileStorage {
	s := &FileStorage{path: path, data: make(map[string]string)}
	raw, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var data map[string]string
	if err := json.Unmarshal(raw, &data); err != nil {
		return s
	}
	s.data = data
	return s
}

func (s *FileStorage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *FileStorage) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	s.flush()
}

func (s *FileStorage) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	s.flush()
}

// flush writes the whole map; callers hold s.mu.
func (s *FileStorage) flush() {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return
	}
	_ = os.WriteFile(s.path, raw, 0o600)
}
