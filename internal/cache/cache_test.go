package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/embedm/internal/status"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestCache(dir string, cfg Config) *FileCache {
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = 1 << 10
	}
	if cfg.MemoryLimit == 0 {
		cfg.MemoryLimit = 1 << 20
	}
	if cfg.AllowedPaths == nil {
		cfg.AllowedPaths = []string{dir}
	}
	if cfg.WriteMode == 0 {
		cfg.WriteMode = Overwrite
	}
	return New(cfg)
}

func TestNew_PanicsOnBadBudget(t *testing.T) {
	assert.Panics(t, func() {
		New(Config{MaxFileSize: 100, MemoryLimit: 100})
	})
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.md", "hello")
	fc := newTestCache(dir, Config{})

	assert.Empty(t, fc.Validate(path))
}

func TestValidate_PathNotAllowed(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	path := writeFile(t, other, "a.md", "hello")
	fc := newTestCache(dir, Config{})

	errs := fc.Validate(path)
	require.Len(t, errs, 1)
	assert.Equal(t, status.Fatal, errs[0].Level)
	assert.Contains(t, errs[0].Description, "not in allowed paths")
}

func TestValidate_MissingFile(t *testing.T) {
	dir := t.TempDir()
	fc := newTestCache(dir, Config{})

	errs := fc.Validate(filepath.Join(dir, "nope.md"))
	require.Len(t, errs, 1)
	assert.Equal(t, status.Error, errs[0].Level)
	assert.Contains(t, errs[0].Description, "does not exist")
}

func TestValidate_DirectoryRejected(t *testing.T) {
	dir := t.TempDir()
	fc := newTestCache(dir, Config{})

	errs := fc.Validate(dir)
	require.Len(t, errs, 1)
	assert.Equal(t, status.Error, errs[0].Level)
}

func TestValidate_FileTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "big.md", strings.Repeat("x", 64))
	fc := newTestCache(dir, Config{MaxFileSize: 32, MemoryLimit: 1 << 10})

	errs := fc.Validate(path)
	require.Len(t, errs, 1)
	assert.Equal(t, status.Error, errs[0].Level)
	assert.Contains(t, errs[0].Description, "exceeds max size")
}

func TestGetFile_HitAndMissEvents(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.md", "hello")

	var events []string
	fc := newTestCache(dir, Config{OnEvent: func(_, event string) {
		events = append(events, event)
	}})

	content, errs := fc.GetFile(path)
	require.Empty(t, errs)
	assert.Equal(t, "hello", content)

	content, errs = fc.GetFile(path)
	require.Empty(t, errs)
	assert.Equal(t, "hello", content)

	assert.Equal(t, []string{"miss", "hit"}, events)
}

func TestGetFile_NotAllowed(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	path := writeFile(t, other, "a.md", "hello")
	fc := newTestCache(dir, Config{})

	content, errs := fc.GetFile(path)
	assert.Empty(t, content)
	require.Len(t, errs, 1)
	assert.Equal(t, status.Fatal, errs[0].Level)
}

func TestEviction_KeepsValidation(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.md", strings.Repeat("a", 60))
	b := writeFile(t, dir, "b.md", strings.Repeat("b", 60))

	var evicted []string
	fc := newTestCache(dir, Config{
		MaxFileSize: 100,
		MemoryLimit: 101,
		OnEvent: func(path, event string) {
			if event == "eviction" {
				evicted = append(evicted, path)
			}
		},
	})

	_, errs := fc.GetFile(a)
	require.Empty(t, errs)
	assert.Equal(t, Loaded, fc.State(a))

	// Loading b blows the budget, so a is evicted but stays validated.
	_, errs = fc.GetFile(b)
	require.Empty(t, errs)
	assert.Equal(t, Loaded, fc.State(b))
	assert.Equal(t, Unloaded, fc.State(a))
	assert.Equal(t, []string{a}, evicted)

	content, errs := fc.GetFile(a)
	require.Empty(t, errs)
	assert.Equal(t, strings.Repeat("a", 60), content)
}

func TestState_NotInCache(t *testing.T) {
	dir := t.TempDir()
	fc := newTestCache(dir, Config{})
	assert.Equal(t, NotInCache, fc.State(filepath.Join(dir, "unknown.md")))
}

func TestWrite_Overwrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.md")
	fc := newTestCache(dir, Config{WriteMode: Overwrite})

	actual, errs := fc.Write("first", target)
	require.Empty(t, errs)
	assert.Equal(t, target, actual)

	actual, errs = fc.Write("second", target)
	require.Empty(t, errs)
	assert.Equal(t, target, actual)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestWrite_CreateNew(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.md")
	fc := newTestCache(dir, Config{WriteMode: CreateNew})

	actual, errs := fc.Write("first", target)
	require.Empty(t, errs)
	assert.Equal(t, target, actual)

	actual, errs = fc.Write("second", target)
	require.Empty(t, errs)
	assert.Equal(t, filepath.Join(dir, "out.0.md"), actual)

	actual, errs = fc.Write("third", target)
	require.Empty(t, errs)
	assert.Equal(t, filepath.Join(dir, "out.1.md"), actual)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestWrite_NotAllowed(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	fc := newTestCache(dir, Config{})

	_, errs := fc.Write("content", filepath.Join(other, "out.md"))
	require.Len(t, errs, 1)
	assert.Equal(t, status.Fatal, errs[0].Level)
}

func TestPathAllowed_Wildcard(t *testing.T) {
	dir := t.TempDir()
	md := writeFile(t, dir, "a.md", "x")
	txt := writeFile(t, dir, "a.txt", "x")

	fc := newTestCache(dir, Config{AllowedPaths: []string{filepath.Join(dir, "*.md")}})

	assert.Empty(t, fc.Validate(md))
	errs := fc.Validate(txt)
	require.Len(t, errs, 1)
	assert.Equal(t, status.Fatal, errs[0].Level)
}

func TestGlob(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.md", "x")
	b := writeFile(t, dir, "b.md", "x")
	writeFile(t, dir, "c.txt", "x")

	fc := newTestCache(dir, Config{})

	files, errs := fc.Glob(filepath.Join(dir, "*.md"))
	require.Empty(t, errs)
	assert.ElementsMatch(t, []string{a, b}, files)
}

func TestGlob_Recursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	a := writeFile(t, dir, "a.md", "x")
	c := writeFile(t, sub, "c.md", "x")
	writeFile(t, sub, "d.txt", "x")

	fc := newTestCache(dir, Config{})

	files, errs := fc.Glob(filepath.Join(dir, "**", "*.md"))
	require.Empty(t, errs)
	assert.ElementsMatch(t, []string{a, c}, files)
}

func TestGlob_OutsideAllowed(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFile(t, dir, "a.md", "x")
	c := writeFile(t, sub, "c.md", "x")

	fc := newTestCache(dir, Config{AllowedPaths: []string{sub}})

	files, errs := fc.Glob(filepath.Join(dir, "*.md"))
	assert.Empty(t, files)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Description, "not in allowed paths")

	files, errs = fc.Glob(filepath.Join(sub, "*.md"))
	require.Empty(t, errs)
	assert.Equal(t, []string{c}, files)
}
