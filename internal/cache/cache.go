package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Digest returns the hex md5 digest of text. When limit is positive the text
// is truncated to that many runes before hashing, which bounds the cost of
// digesting very large documents.
func Digest(text string, limit int) string {
	if limit > 0 {
		runes := []rune(text)
		if len(runes) > limit {
			text = string(runes[:limit])
		}
	}
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Key builds a composite cache key by hashing the ordered concatenation of
// all parts. Order matters: Key("a", "b") != Key("b", "a").
func Key(parts ...string) string {
	h := md5.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Store persists JSON documents under <root>/<namespace>/<key>.json.
//
// The store is a performance optimization, not a durability guarantee:
// unreadable or malformed documents read as a miss, and write failures are
// logged and swallowed so they never abort the calling operation.
type Store struct {
	root   string
	logger *zap.Logger
}

// NewStore creates a Store rooted at the given directory.
func NewStore(root string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{root: root, logger: logger}
}

// Path returns the on-disk location for the given namespace and key.
func (s *Store) Path(namespace, key string) string {
	return filepath.Join(s.root, namespace, key+".json")
}

// Exists reports whether a document is present for the given key.
func (s *Store) Exists(namespace, key string) bool {
	info, err := os.Stat(s.Path(namespace, key))
	return err == nil && !info.IsDir()
}

// Read loads the cached document into v. It returns false on any failure:
// missing file, unreadable file, or malformed JSON all count as a miss.
func (s *Store) Read(namespace, key string, v any) bool {
	data, err := os.ReadFile(s.Path(namespace, key))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Debug("discarding malformed cached document",
			zap.String("namespace", namespace),
			zap.String("key", key),
			zap.Error(err),
		)
		return false
	}
	return true
}

// Write persists the document, creating parent directories as needed.
// Failures are logged and swallowed.
func (s *Store) Write(namespace, key string, v any) {
	path := s.Path(namespace, key)

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		s.logger.Warn("marshaling cache document", zap.String("key", key), zap.Error(err))
		return
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.logger.Warn("creating cache directory", zap.String("path", filepath.Dir(path)), zap.Error(err))
		return
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Warn("writing cache document", zap.String("path", path), zap.Error(err))
	}
}
