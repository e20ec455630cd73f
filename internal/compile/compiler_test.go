package compile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/embedm/internal/cache"
	"github.com/leapstack-labs/embedm/internal/directive"
	"github.com/leapstack-labs/embedm/internal/plan"
	"github.com/leapstack-labs/embedm/internal/status"
)

type stubCapability struct {
	name      string
	dtype     string
	recurses  bool
	transform func(node *plan.Node, parentDoc []directive.Fragment, ctx *plan.Context) (string, error)
}

func (s *stubCapability) Name() string                         { return s.name }
func (s *stubCapability) DirectiveType() string                { return s.dtype }
func (s *stubCapability) Recurses(_ *directive.Directive) bool { return s.recurses }

func (s *stubCapability) ValidateDirective(_ *directive.Directive) []status.Status { return nil }

func (s *stubCapability) Transform(node *plan.Node, parentDoc []directive.Fragment, ctx *plan.Context) (string, error) {
	if s.transform != nil {
		return s.transform(node, parentDoc, ctx)
	}
	return "", nil
}

type fixture struct {
	dir   string
	cache *cache.FileCache
	reg   *plan.Registry
	cfg   *plan.Config
}

func newFixture(t *testing.T, caps ...plan.Capability) *fixture {
	t.Helper()
	dir := t.TempDir()
	reg := plan.NewRegistry()
	for _, c := range caps {
		reg.MustRegister(c)
	}
	return &fixture{
		dir: dir,
		cache: cache.New(cache.Config{
			MaxFileSize:  1 << 20,
			MemoryLimit:  100 << 20,
			AllowedPaths: []string{dir},
			WriteMode:    cache.Overwrite,
		}),
		reg: reg,
		cfg: &plan.Config{MaxRecursion: 8},
	}
}

func (f *fixture) compile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, "root.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	d := &directive.Directive{Type: "file", Source: path, BaseDir: f.dir}
	planner := plan.NewPlanner(f.reg, f.cache, f.cfg, nil)
	node := planner.CreatePlan(d, content, []string{path}, 0)

	return Compile(node, plan.NewContext(f.cache, f.reg, f.cfg, nil))
}

func block(dtype string, extra ...string) string {
	lines := append([]string{"```yaml embedm", "type: " + dtype}, extra...)
	return strings.Join(append(lines, "```"), "\n") + "\n"
}

func TestCompile_PlainDocumentRoundTrips(t *testing.T) {
	f := newFixture(t)
	content := "# Title\n\nplain text, no directives\n"
	assert.Equal(t, content, f.compile(t, content))
}

func TestCompile_DirectiveReplaced(t *testing.T) {
	f := newFixture(t, &stubCapability{
		name:  "stamp",
		dtype: "stamp",
		transform: func(*plan.Node, []directive.Fragment, *plan.Context) (string, error) {
			return "STAMPED\n", nil
		},
	})

	out := f.compile(t, "before\n\n"+block("stamp")+"\nafter\n")
	assert.Contains(t, out, "before")
	assert.Contains(t, out, "STAMPED")
	assert.Contains(t, out, "after")
	assert.NotContains(t, out, "```")
	assert.NotContains(t, out, "embedm")
}

func TestCompile_PassOrderBeatsDocumentOrder(t *testing.T) {
	var calls []string
	record := func(name string) func(*plan.Node, []directive.Fragment, *plan.Context) (string, error) {
		return func(*plan.Node, []directive.Fragment, *plan.Context) (string, error) {
			calls = append(calls, name)
			return name + "\n", nil
		}
	}

	f := newFixture(t,
		&stubCapability{name: "alpha", dtype: "alpha", transform: record("alpha")},
		&stubCapability{name: "beta", dtype: "beta", transform: record("beta")},
	)
	f.cfg.PassOrder = []string{"beta", "alpha"}

	// beta appears second in the document, but its pass runs first
	out := f.compile(t, block("alpha")+"\n"+block("beta"))

	assert.Equal(t, []string{"beta", "alpha"}, calls)
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "beta")
}

func TestCompile_LaterPassSeesEarlierResults(t *testing.T) {
	var unresolved int
	f := newFixture(t,
		&stubCapability{
			name:  "early",
			dtype: "early",
			transform: func(*plan.Node, []directive.Fragment, *plan.Context) (string, error) {
				return "EARLY\n", nil
			},
		},
		&stubCapability{
			name:  "scanner",
			dtype: "scanner",
			transform: func(_ *plan.Node, parentDoc []directive.Fragment, _ *plan.Context) (string, error) {
				for _, frag := range parentDoc {
					if _, ok := frag.(*directive.Directive); ok {
						unresolved++
					}
				}
				return "SCANNED\n", nil
			},
		},
	)
	f.cfg.PassOrder = []string{"early", "scanner"}

	f.compile(t, block("early")+"\n"+block("scanner"))

	// only the scanner directive itself is still unresolved in its pass
	assert.Equal(t, 1, unresolved)
}

func TestCompile_TransformErrorBecomesMarker(t *testing.T) {
	f := newFixture(t, &stubCapability{
		name:  "broken",
		dtype: "broken",
		transform: func(*plan.Node, []directive.Fragment, *plan.Context) (string, error) {
			return "", errors.New("boom")
		},
	})

	out := f.compile(t, "before\n\n"+block("broken"))
	assert.Contains(t, out, "> [!CAUTION]")
	assert.Contains(t, out, "> **embedm:** boom")
	assert.Contains(t, out, "before")
}

func TestCompile_PanicBecomesMarkerAndSiblingsSurvive(t *testing.T) {
	f := newFixture(t,
		&stubCapability{
			name:  "panicky",
			dtype: "panicky",
			transform: func(*plan.Node, []directive.Fragment, *plan.Context) (string, error) {
				panic("kaboom")
			},
		},
		&stubCapability{
			name:  "calm",
			dtype: "calm",
			transform: func(*plan.Node, []directive.Fragment, *plan.Context) (string, error) {
				return "CALM\n", nil
			},
		},
	)

	out := f.compile(t, block("panicky")+"\n"+block("calm"))
	assert.Contains(t, out, `capability "panicky" failed: kaboom`)
	assert.Contains(t, out, "CALM")
}

func TestCompile_MaxEmbedSizeEnforced(t *testing.T) {
	f := newFixture(t, &stubCapability{
		name:  "huge",
		dtype: "huge",
		transform: func(*plan.Node, []directive.Fragment, *plan.Context) (string, error) {
			return strings.Repeat("x", 100), nil
		},
	})
	f.cfg.MaxEmbedSize = 50

	out := f.compile(t, block("huge"))
	assert.Contains(t, out, "exceeds max embed size (50 bytes)")
	assert.NotContains(t, out, "xxx")
}

func TestCompile_BlockedChildRendersItsStatuses(t *testing.T) {
	f := newFixture(t, &stubCapability{name: "embed", dtype: "file", recurses: true})

	out := f.compile(t, block("file", "source: missing.md"))
	assert.Contains(t, out, "> [!CAUTION]")
	assert.Contains(t, out, "does not exist")
}

func TestCompile_NilDocumentRendersRootStatuses(t *testing.T) {
	f := newFixture(t)
	root := &plan.Node{
		Directive: &directive.Directive{Type: "file", Source: "/gone.md"},
		Status:    []status.Status{status.Fatalf("path is not in allowed paths: %q", "/gone.md")},
	}

	out := Compile(root, plan.NewContext(f.cache, f.reg, f.cfg, nil))
	assert.Contains(t, out, "> [!CAUTION]")
	assert.Contains(t, out, "not in allowed paths")
}

func TestPassOrder(t *testing.T) {
	reg := plan.NewRegistry()
	reg.MustRegister(&stubCapability{name: "f", dtype: "file"})
	reg.MustRegister(&stubCapability{name: "t", dtype: "toc"})
	reg.MustRegister(&stubCapability{name: "c", dtype: "comment"})

	// configured order wins, unknown and duplicate entries drop out,
	// unlisted types follow sorted
	got := PassOrder([]string{"toc", "bogus", "toc", "comment"}, reg)
	assert.Equal(t, []string{"toc", "comment", "file"}, got)

	got = PassOrder(nil, reg)
	assert.Equal(t, []string{"comment", "file", "toc"}, got)
}

func TestErrorNote(t *testing.T) {
	assert.Equal(t, "> [!CAUTION]\n> **embedm:** boom\n", ErrorNote([]string{"boom"}))
	assert.Equal(t,
		"> [!CAUTION]\n> **embedm:** one\n> **embedm:** two\n",
		ErrorNote([]string{"one", "two"}))
}
