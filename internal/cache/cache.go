// Package cache provides an LRU file cache with a memory budget and
// path access control. Paths outside the allowed set are rejected before
// any filesystem access happens.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/leapstack-labs/embedm/internal/status"
)

// WriteMode controls what happens when a write target already exists.
type WriteMode int

const (
	// Overwrite replaces the existing file.
	Overwrite WriteMode = iota + 1
	// CreateNew writes to name.N.ext with the next free N instead.
	CreateNew
)

// FileState describes a path's standing in the cache.
type FileState int

const (
	// NotInCache means the path has never been validated or loaded.
	NotInCache FileState = iota + 1
	// Loaded means content is resident in memory.
	Loaded
	// Unloaded means the entry was evicted but stays validated, so a
	// reload skips the filesystem checks.
	Unloaded
)

// maxEntries bounds the underlying LRU by count. Eviction is driven by
// the byte budget, so this only needs to be comfortably large.
const maxEntries = 1 << 16

// EventFunc observes cache activity. Event is one of "hit", "miss",
// or "eviction".
type EventFunc func(path, event string)

// FileCache caches file contents keyed by absolute path. Evictions drop
// content but remember that the path passed validation.
type FileCache struct {
	maxFileSize  int64
	memoryLimit  int64
	maxEmbedSize int64
	allowedPaths []string
	writeMode    WriteMode
	onEvent      EventFunc

	lru         *simplelru.LRU[string, string]
	validated   map[string]struct{}
	memoryInUse int64
}

// Config carries the cache limits and access policy.
type Config struct {
	// MaxFileSize is the per-file byte limit enforced at validation.
	MaxFileSize int64
	// MemoryLimit is the total byte budget for resident content. Must
	// exceed MaxFileSize.
	MemoryLimit int64
	// MaxEmbedSize caps a single transform result; 0 disables the check.
	MaxEmbedSize int64
	// AllowedPaths are directory roots or wildcard patterns a path must
	// match to be read or written.
	AllowedPaths []string
	WriteMode    WriteMode
	// OnEvent, when set, is called for every hit, miss, and eviction.
	OnEvent EventFunc
}

// New builds a FileCache. Panics when MemoryLimit does not exceed
// MaxFileSize, since no single valid file could then ever be cached.
func New(cfg Config) *FileCache {
	if cfg.MemoryLimit <= cfg.MaxFileSize {
		panic(fmt.Sprintf("cache: memory limit (%d) must exceed max file size (%d)", cfg.MemoryLimit, cfg.MaxFileSize))
	}
	fc := &FileCache{
		maxFileSize:  cfg.MaxFileSize,
		memoryLimit:  cfg.MemoryLimit,
		maxEmbedSize: cfg.MaxEmbedSize,
		allowedPaths: cfg.AllowedPaths,
		writeMode:    cfg.WriteMode,
		onEvent:      cfg.OnEvent,
		validated:    make(map[string]struct{}),
	}
	lru, err := simplelru.NewLRU[string, string](maxEntries, fc.onEvict)
	if err != nil {
		panic(err)
	}
	fc.lru = lru
	return fc
}

// MaxEmbedSize returns the per-embed byte cap, 0 when disabled.
func (fc *FileCache) MaxEmbedSize() int64 { return fc.maxEmbedSize }

// MaxFileSize returns the per-file byte limit.
func (fc *FileCache) MaxFileSize() int64 { return fc.maxFileSize }

// Validate checks that a path is allowed, exists, and fits the size
// limit. No side effects. Paths already known to the cache pass without
// touching the filesystem.
func (fc *FileCache) Validate(path string) []status.Status {
	if _, ok := fc.validated[path]; ok {
		return nil
	}

	if !pathAllowed(path, fc.allowedPaths) {
		return []status.Status{status.Fatalf("path is not in allowed paths: %q", path)}
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return []status.Status{status.Errorf("file does not exist: %q", path)}
	}

	if info.Size() > fc.maxFileSize {
		return []status.Status{status.Errorf("file exceeds max size (%d > %d): %q", info.Size(), fc.maxFileSize, path)}
	}
	return nil
}

// GetFile returns cached content, or validates and loads from disk.
// Loading evicts least recently used entries until the memory budget
// holds the new content.
func (fc *FileCache) GetFile(path string) (string, []status.Status) {
	if content, ok := fc.lru.Get(path); ok {
		fc.emit(path, "hit")
		return content, nil
	}

	if errs := fc.Validate(path); len(errs) > 0 {
		return "", errs
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", []status.Status{status.Errorf("cannot read file %q: %v", path, err)}
	}

	content := string(data)
	fc.store(path, content)
	fc.emit(path, "miss")
	return content, nil
}

// Write stores content at the given path, which must be allowed. When
// the target exists and the mode is CreateNew, the content goes to
// name.N.ext with the first free N. Returns the path actually written.
func (fc *FileCache) Write(content, path string) (string, []status.Status) {
	if !pathAllowed(path, fc.allowedPaths) {
		return "", []status.Status{status.Fatalf("path is not in allowed paths: %q", path)}
	}

	actual := path
	if fc.writeMode == CreateNew {
		if _, err := os.Stat(path); err == nil {
			actual = nextAvailablePath(path)
		}
	}

	if err := os.WriteFile(actual, []byte(content), 0o644); err != nil {
		return "", []status.Status{status.Errorf("cannot write file %q: %v", actual, err)}
	}

	fc.store(actual, content)
	return actual, nil
}

// State reports whether a path is unknown, resident, or evicted.
func (fc *FileCache) State(path string) FileState {
	if fc.lru.Contains(path) {
		return Loaded
	}
	if _, ok := fc.validated[path]; ok {
		return Unloaded
	}
	return NotInCache
}

// Glob returns allowed files matching the pattern. The ** segment
// matches recursively. Matches outside the allowed paths become ERROR
// statuses rather than silently vanishing.
func (fc *FileCache) Glob(pattern string) ([]string, []status.Status) {
	matched, err := expandGlob(pattern)
	if err != nil {
		return nil, []status.Status{status.Errorf("invalid file pattern %q: %v", pattern, err)}
	}

	var files []string
	var errs []status.Status
	for _, m := range matched {
		abs, absErr := filepath.Abs(m)
		if absErr != nil {
			continue
		}
		if pathAllowed(abs, fc.allowedPaths) {
			files = append(files, abs)
		} else {
			errs = append(errs, status.Errorf("matched file is not in allowed paths: %q", abs))
		}
	}
	return files, errs
}

func (fc *FileCache) store(path, content string) {
	fc.makeRoom(int64(len(content)))
	if prev, ok := fc.lru.Peek(path); ok {
		fc.memoryInUse -= int64(len(prev))
	}
	fc.lru.Add(path, content)
	fc.validated[path] = struct{}{}
	fc.memoryInUse += int64(len(content))
}

func (fc *FileCache) makeRoom(needed int64) {
	for fc.memoryInUse+needed > fc.memoryLimit {
		if _, _, ok := fc.lru.RemoveOldest(); !ok {
			break
		}
	}
}

// onEvict keeps the validated marker so the path skips revalidation on
// reload.
func (fc *FileCache) onEvict(path string, content string) {
	fc.memoryInUse -= int64(len(content))
	fc.emit(path, "eviction")
}

func (fc *FileCache) emit(path, event string) {
	if fc.onEvent != nil {
		fc.onEvent(path, event)
	}
}

// pathAllowed matches a path against directory roots (path equals the
// root or lives under it) or wildcard patterns.
func pathAllowed(path string, allowed []string) bool {
	resolved, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, a := range allowed {
		root, err := filepath.Abs(a)
		if err != nil {
			continue
		}
		if resolved == root || strings.HasPrefix(resolved, root+string(filepath.Separator)) {
			return true
		}
		if wildcardMatch(root, resolved) {
			return true
		}
	}
	return false
}

// wildcardMatch implements shell-style matching where * crosses
// directory separators, so "/docs/*.md" style patterns behave the way
// allowed-path configuration expects.
func wildcardMatch(pattern, path string) bool {
	if !strings.ContainsAny(pattern, "*?") {
		return false
	}
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(path)
}

// expandGlob supports plain filepath.Glob patterns plus a leading-dir
// ** segment for recursive matching.
func expandGlob(pattern string) ([]string, error) {
	if !strings.Contains(pattern, "**") {
		return filepath.Glob(pattern)
	}

	base, rest, _ := strings.Cut(pattern, "**")
	base = filepath.Clean(base)
	if base == "" {
		base = "."
	}
	rest = strings.TrimPrefix(rest, string(filepath.Separator))
	rest = strings.TrimPrefix(rest, "/")

	var matched []string
	walkErr := filepath.WalkDir(base, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(base, p)
		if relErr != nil {
			return nil
		}
		if rest == "" {
			matched = append(matched, p)
			return nil
		}
		// match the tail pattern against the relative suffix
		if ok, _ := filepath.Match(rest, filepath.Base(p)); ok {
			matched = append(matched, p)
			return nil
		}
		if ok, _ := filepath.Match(rest, rel); ok {
			matched = append(matched, p)
		}
		return nil
	})
	return matched, walkErr
}

// nextAvailablePath finds the first free name.N.ext beside the target.
func nextAvailablePath(path string) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for n := 0; ; n++ {
		candidate := fmt.Sprintf("%s.%d%s", stem, n, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
