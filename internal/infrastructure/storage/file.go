package storage

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/tablebook/reservation-client/internal/core/domain"
	"github.com/tablebook/reservation-client/internal/core/ports"
)

const (
	nonceSize = 24
	hkdfSalt  = "tablebook/file-store/v1"
)

// File persists all keys in a single JSON document on disk. When a secret is
// configured the document is sealed with NaCl secretbox.
type File struct {
	mu   sync.Mutex
	path string
	key  *[32]byte
	log  zerolog.Logger
}

var _ ports.KeyValueStore = (*File)(nil)
var _ ports.StorageWatcher = (*File)(nil)

// NewFile prepares a file-backed store at path. An empty secret stores plaintext.
func NewFile(path, secret string, log zerolog.Logger) (*File, error) {
	if path == "" {
		return nil, errors.New("file store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("file store: create dir: %w", err)
	}

	f := &File{path: path, log: log}
	if secret != "" {
		key, err := deriveKey(secret)
		if err != nil {
			return nil, err
		}
		f.key = key
	}
	return f, nil
}

func deriveKey(secret string) (*[32]byte, error) {
	var key [32]byte
	r := hkdf.New(sha256.New, []byte(secret), []byte(hkdfSalt), nil)
	if _, err := io.ReadFull(r, key[:]); err != nil {
		return nil, fmt.Errorf("file store: derive key: %w", err)
	}
	return &key, nil
}

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.readLocked()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.readLocked()
	if err != nil {
		return err
	}
	data[key] = value
	return f.writeLocked(data)
}

func (f *File) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.readLocked()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(data, k)
	}
	return f.writeLocked(data)
}

// Watch reports keys whose value changed in the state file, whichever process
// wrote it, until ctx is done. It watches the directory because writes replace
// the file by rename.
func (f *File) Watch(ctx context.Context) (<-chan domain.StorageEvent, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("file store: watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("file store: watch dir: %w", err)
	}

	prev, err := f.snapshot()
	if err != nil {
		_ = w.Close()
		return nil, err
	}

	out := make(chan domain.StorageEvent, watchBuffer)
	target := filepath.Clean(f.path)
	go func() {
		defer close(out)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				f.log.Warn().Err(err).Str("path", f.path).Msg("state file watcher")
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || ev.Op == fsnotify.Chmod {
					continue
				}
				next, err := f.snapshot()
				if err != nil {
					f.log.Warn().Err(err).Str("path", f.path).Msg("re-read state file")
					continue
				}
				for _, key := range changedKeys(prev, next) {
					select {
					case out <- domain.StorageEvent{Key: key}:
					case <-ctx.Done():
						return
					}
				}
				prev = next
			}
		}
	}()
	return out, nil
}

func (f *File) snapshot() (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readLocked()
}

// changedKeys lists keys added, removed or rewritten between two maps, sorted.
func changedKeys(prev, next map[string]string) []string {
	var keys []string
	for k, v := range next {
		if old, ok := prev[k]; !ok || old != v {
			keys = append(keys, k)
		}
	}
	for k := range prev {
		if _, ok := next[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// readLocked returns the stored map. An unreadable document is logged and
// treated as empty so the next write replaces it.
func (f *File) readLocked() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file store: read: %w", err)
	}
	if len(raw) == 0 {
		return map[string]string{}, nil
	}

	if f.key != nil {
		if len(raw) < nonceSize {
			f.log.Warn().Str("path", f.path).Msg("sealed state file too short, ignoring")
			return map[string]string{}, nil
		}
		var nonce [nonceSize]byte
		copy(nonce[:], raw[:nonceSize])
		opened, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, f.key)
		if !ok {
			f.log.Warn().Str("path", f.path).Msg("state file cannot be opened with configured secret, ignoring")
			return map[string]string{}, nil
		}
		raw = opened
	}

	data := map[string]string{}
	if err := json.Unmarshal(raw, &data); err != nil {
		f.log.Warn().Err(err).Str("path", f.path).Msg("state file is not valid JSON, ignoring")
		return map[string]string{}, nil
	}
	return data, nil
}

func (f *File) writeLocked(data map[string]string) error {
	out, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("file store: encode: %w", err)
	}

	if f.key != nil {
		var nonce [nonceSize]byte
		if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
			return fmt.Errorf("file store: nonce: %w", err)
		}
		out = secretbox.Seal(nonce[:], out, &nonce, f.key)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".state-*")
	if err != nil {
		return fmt.Errorf("file store: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(out); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("file store: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("file store: close: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("file store: rename: %w", err)
	}
	return nil
}
