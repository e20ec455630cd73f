package extract

import (
	"strings"
	"testing"
)

const sample = "one\ntwo\nthree\nfour\nfive"

func TestLineRange_Single(t *testing.T) {
	lines, ok := LineRange(sample, "3")
	if !ok {
		t.Fatal("expected single line to resolve")
	}
	if len(lines) != 1 || lines[0] != "three" {
		t.Errorf("got %v", lines)
	}
}

func TestLineRange_Inclusive(t *testing.T) {
	lines, ok := LineRange(sample, "2..4")
	if !ok {
		t.Fatal("expected range to resolve")
	}
	if strings.Join(lines, ",") != "two,three,four" {
		t.Errorf("got %v", lines)
	}
}

func TestLineRange_OpenEnded(t *testing.T) {
	lines, ok := LineRange(sample, "4..")
	if !ok || strings.Join(lines, ",") != "four,five" {
		t.Errorf("4.. got %v ok=%v", lines, ok)
	}

	lines, ok = LineRange(sample, "..2")
	if !ok || strings.Join(lines, ",") != "one,two" {
		t.Errorf("..2 got %v ok=%v", lines, ok)
	}
}

func TestLineRange_EndClamped(t *testing.T) {
	lines, ok := LineRange(sample, "4..99")
	if !ok {
		t.Fatal("end past EOF should clamp, not fail")
	}
	if strings.Join(lines, ",") != "four,five" {
		t.Errorf("got %v", lines)
	}
}

func TestLineRange_Invalid(t *testing.T) {
	for _, expr := range []string{"0", "99", "5..2", "abc", "1...3", "-1..2", ""} {
		if _, ok := LineRange(sample, expr); ok {
			t.Errorf("expression %q should not resolve", expr)
		}
	}
}

func TestValidLineRange(t *testing.T) {
	valid := []string{"1", "42", "1..5", "3..", "..7", ".."}
	for _, expr := range valid {
		if !ValidLineRange(expr) {
			t.Errorf("%q should be valid syntax", expr)
		}
	}
	invalid := []string{"", "a", "1...2", "1-2"}
	for _, expr := range invalid {
		if ValidLineRange(expr) {
			t.Errorf("%q should be invalid syntax", expr)
		}
	}
}

func TestRegion_HashComment(t *testing.T) {
	content := "a\n# md.start: intro\nhello\nworld\n# md.end: intro\nb\n"
	lines, found, err := Region(content, "intro", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("region should be found")
	}
	if strings.Join(lines, ",") != "hello,world" {
		t.Errorf("got %v", lines)
	}
}

func TestRegion_SlashAndHTMLComments(t *testing.T) {
	content := "// md.start: x\ncode\n// md.end: x\n"
	lines, found, _ := Region(content, "x", "", "")
	if !found || len(lines) != 1 || lines[0] != "code" {
		t.Errorf("// comment markers: got %v found=%v", lines, found)
	}

	content = "<!-- md.start: y -->\ntext\n<!-- md.end: y -->\n"
	lines, found, _ = Region(content, "y", "", "")
	if !found || len(lines) != 1 || lines[0] != "text" {
		t.Errorf("html comment markers: got %v found=%v", lines, found)
	}
}

func TestRegion_MarkerOutsideCommentIgnored(t *testing.T) {
	content := "md.start: bare\nnope\nmd.end: bare\n"
	_, found, _ := Region(content, "bare", "", "")
	if found {
		t.Error("markers outside comments must not be honored")
	}
}

func TestRegion_Unterminated(t *testing.T) {
	content := "# md.start: open\nstuff\n"
	_, found, _ := Region(content, "open", "", "")
	if found {
		t.Error("unterminated region should report not found")
	}
}

func TestRegion_WrongName(t *testing.T) {
	content := "# md.start: one\nstuff\n# md.end: one\n"
	_, found, _ := Region(content, "other", "", "")
	if found {
		t.Error("name mismatch should report not found")
	}
}

func TestRegion_CustomTemplates(t *testing.T) {
	content := "# region: demo\nbody\n# endregion: demo\n"
	lines, found, err := Region(content, "demo", "region:{tag}", "endregion:{tag}")
	if err != nil {
		t.Fatal(err)
	}
	if !found || len(lines) != 1 || lines[0] != "body" {
		t.Errorf("custom templates: got %v found=%v", lines, found)
	}
}

func TestRegion_TemplateMissingTag(t *testing.T) {
	_, _, err := Region("x", "a", "no-placeholder", "")
	if err == nil {
		t.Error("template without {tag} must error")
	}
}

func TestDedent(t *testing.T) {
	lines := []string{"    def f():", "        return 1", "", "    # done"}
	got := Dedent(lines)
	want := []string{"def f():", "    return 1", "", "# done"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestDedent_NoCommonMargin(t *testing.T) {
	lines := []string{"a", "  b"}
	got := Dedent(lines)
	if got[0] != "a" || got[1] != "  b" {
		t.Errorf("mixed margins should leave lines unchanged, got %v", got)
	}
}

func TestDedent_BlankLinesEmptied(t *testing.T) {
	lines := []string{"  a", "   ", "  b"}
	got := Dedent(lines)
	if got[1] != "" {
		t.Errorf("whitespace-only lines should become empty, got %q", got[1])
	}
}

func TestLineRange_CRLFNormalized(t *testing.T) {
	lines, ok := LineRange("a\r\nb\r\nc", "2")
	if !ok || lines[0] != "b" {
		t.Errorf("CRLF input: got %v ok=%v", lines, ok)
	}
}
