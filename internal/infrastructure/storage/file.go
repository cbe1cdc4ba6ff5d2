package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/fedawallet/wallet-client/internal/core/ports"
	"github.com/fedawallet/wallet-client/internal/infrastructure/queue"
	"github.com/fedawallet/wallet-client/internal/pkg/metrics"
)

const fileVersion = 1

// envelope is the on-disk layout. Exactly one of Values or Sealed is set.
type envelope struct {
	Version int               `json:"version"`
	Values  map[string]string `json:"values,omitempty"`
	Salt    []byte            `json:"salt,omitempty"`
	Sealed  []byte            `json:"sealed,omitempty"`
}

// File is a Storage kept in a single JSON file, encrypted with
// scrypt + secretbox when a passphrase is set. Every write replaces the file
// atomically. Writes made by other processes are observed with fsnotify.
type File struct {
	path       string
	passphrase string
	log        zerolog.Logger

	mu     sync.Mutex
	sealer *sealer
	// last is the content as of our latest read or write; the watcher diffs
	// against it so our own writes are not reported as changes.
	last map[string]string

	feed      *queue.Dispatcher
	watchOnce sync.Once
	watchErr  error
	watcher   *fsnotify.Watcher
}

var (
	_ ports.Storage    = (*File)(nil)
	_ ports.ChangeFeed = (*File)(nil)
)

// NewFile opens (or prepares) the storage file at path. A non-empty passphrase
// enables encryption; a plaintext file is encrypted on its next write.
func NewFile(path, passphrase string, log zerolog.Logger) (*File, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("storage: create directory: %w", err)
	}
	f := &File{
		path:       path,
		passphrase: passphrase,
		log:        log,
		feed:       queue.NewDispatcher(log),
	}
	values, err := f.load()
	if err != nil {
		return nil, err
	}
	f.last = values
	return f, nil
}

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	values, err := f.load()
	if err != nil {
		f.mu.Unlock()
		return err
	}
	external := diff(f.last, values)
	f.last = copyMap(values)
	values[key] = value
	err = f.write(values)
	f.mu.Unlock()

	f.publish(external)
	return err
}

func (f *File) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	values, err := f.load()
	if err != nil {
		f.mu.Unlock()
		return err
	}
	external := diff(f.last, values)
	f.last = copyMap(values)
	changed := false
	for _, k := range keys {
		if _, ok := values[k]; ok {
			delete(values, k)
			changed = true
		}
	}
	if changed {
		err = f.write(values)
	}
	f.mu.Unlock()

	f.publish(external)
	return err
}

// Ping checks that the file is readable and, when encrypted, decryptable.
func (f *File) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.load()
	return err
}

// Subscribe reports keys changed in the file by other processes.
func (f *File) Subscribe(ctx context.Context, fn func(ports.Change)) (func(), error) {
	f.watchOnce.Do(func() { f.watchErr = f.startWatcher() })
	if f.watchErr != nil {
		return func() {}, f.watchErr
	}
	return f.feed.Subscribe(ctx, func(ch ports.Change) {
		metrics.StorageChangesTotal.WithLabelValues("file").Inc()
		fn(ch)
	})
}

// Close stops the watcher and change delivery.
func (f *File) Close() error {
	f.feed.Close()
	if f.watcher != nil {
		return f.watcher.Close()
	}
	return nil
}

func (f *File) startWatcher() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("storage: create watcher: %w", err)
	}
	// The directory is watched because every write renames a new file over
	// the old one.
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("storage: watch %s: %w", filepath.Dir(f.path), err)
	}
	f.watcher = w
	go f.watch(w)
	return nil
}

func (f *File) watch(w *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != f.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				f.reload()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			f.log.Warn().Err(err).Msg("storage watcher error")
		}
	}
}

// reload diffs the file against the last known content and publishes the
// keys that differ.
func (f *File) reload() {
	f.mu.Lock()
	values, err := f.load()
	if err != nil {
		f.mu.Unlock()
		f.log.Warn().Err(err).Msg("storage reload failed")
		return
	}
	changes := diff(f.last, values)
	f.last = values
	f.mu.Unlock()

	f.publish(changes)
}

// publish reports changes made by other processes. Set and Delete call it too:
// a write they fold into the file before the watcher reloads would otherwise
// never be seen.
func (f *File) publish(changes []ports.Change) {
	for _, ch := range changes {
		f.feed.Publish(ch)
	}
}

func diff(prev, next map[string]string) []ports.Change {
	var out []ports.Change
	for k, v := range next {
		if old, ok := prev[k]; !ok || old != v {
			out = append(out, ports.Change{Key: k})
		}
	}
	for k := range prev {
		if _, ok := next[k]; !ok {
			out = append(out, ports.Change{Key: k, Deleted: true})
		}
	}
	return out
}

// load reads the file. A missing or empty file is an empty store. Callers hold mu.
func (f *File) load() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", f.path, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]string{}, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", f.path, err)
	}
	if env.Sealed == nil {
		if env.Values == nil {
			env.Values = map[string]string{}
		}
		return env.Values, nil
	}

	if f.passphrase == "" {
		return nil, ErrLocked
	}
	if f.sealer == nil || !bytes.Equal(f.sealer.salt, env.Salt) {
		s, err := newSealer(f.passphrase, env.Salt)
		if err != nil {
			return nil, err
		}
		f.sealer = s
	}
	plain, err := f.sealer.open(env.Sealed)
	if err != nil {
		return nil, err
	}
	values := map[string]string{}
	if err := json.Unmarshal(plain, &values); err != nil {
		return nil, fmt.Errorf("storage: decode sealed content: %w", err)
	}
	return values, nil
}

// write replaces the file atomically. Callers hold mu.
func (f *File) write(values map[string]string) error {
	env := envelope{Version: fileVersion}
	if f.passphrase == "" {
		env.Values = values
	} else {
		if f.sealer == nil {
			s, err := newSealer(f.passphrase, nil)
			if err != nil {
				return err
			}
			f.sealer = s
		}
		plain, err := json.Marshal(values)
		if err != nil {
			return fmt.Errorf("storage: encode content: %w", err)
		}
		sealed, err := f.sealer.seal(plain)
		if err != nil {
			return err
		}
		env.Salt = f.sealer.salt
		env.Sealed = sealed
	}

	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("storage: encode file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), "."+filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("storage: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("storage: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("storage: chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("storage: replace %s: %w", f.path, err)
	}
	f.last = copyMap(values)
	return nil
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
