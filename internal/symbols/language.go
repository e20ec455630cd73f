// Package symbols locates named code declarations inside source text using
// declarative per-language configuration: comment styles, symbol patterns,
// and block-closing rules. It is a comment/string-aware scanner, not a
// parser; adding a language means adding configuration, not engine code.
package symbols

import (
	"path/filepath"
	"sort"
	"strings"
)

// CommentStyle defines how a language delimits comments and string literals.
type CommentStyle struct {
	LineComment       string
	BlockCommentStart string
	BlockCommentEnd   string
	StringDelimiters  string // each byte is a delimiter character
	TripleQuote       bool   // python-style """ and ''' multi-line strings
}

// BlockStyle selects how a declaration's body span is resolved.
type BlockStyle int

const (
	// BlockBrace scans forward counting { and } until the depth returns to zero.
	BlockBrace BlockStyle = iota
	// BlockIndent captures subsequent lines indented deeper than the declaration.
	BlockIndent
	// BlockParen counts ( and ) for lisp-family declarations.
	BlockParen
	// BlockKeyword scans forward for a configured terminating keyword token.
	BlockKeyword
	// BlockRestOfFile extends the span to the end of the file.
	BlockRestOfFile
)

// Pattern matches one symbol kind within a language. Template is a regular
// expression containing the placeholder {name}.
type Pattern struct {
	Kind       string
	Template   string
	Block      BlockStyle
	Nestable   bool
	EndKeyword string // required for BlockKeyword
}

// Language is a complete declarative definition for symbol extraction.
type Language struct {
	Name       string
	Extensions []string
	Comments   CommentStyle
	Patterns   []Pattern
}

var cComments = CommentStyle{
	LineComment:       "//",
	BlockCommentStart: "/*",
	BlockCommentEnd:   "*/",
	StringDelimiters:  `"'`,
}

var languages = []*Language{
	{
		Name:       "C/C++",
		Extensions: []string{"c", "cpp", "h", "hpp", "cc", "cxx"},
		Comments:   cComments,
		Patterns: []Pattern{
			{Kind: "namespace", Template: `^\s*namespace\s+{name}\b`, Block: BlockBrace, Nestable: true},
			{Kind: "class", Template: `^\s*class\s+{name}\b`, Block: BlockBrace, Nestable: true},
			{Kind: "struct", Template: `^\s*(?:typedef\s+)?struct\s+{name}\b`, Block: BlockBrace, Nestable: true},
			{Kind: "enum", Template: `^\s*(?:typedef\s+)?enum\s+(?:class\s+)?{name}\b`, Block: BlockBrace},
			{Kind: "function", Template: `^\s*\S+[\s\*]+(?:\w+::)*{name}\s*\(`, Block: BlockBrace},
		},
	},
	{
		Name:       "C#",
		Extensions: []string{"cs"},
		Comments:   cComments,
		Patterns: []Pattern{
			{Kind: "namespace_file_scoped", Template: `^\s*namespace\s+{name}\s*;`, Block: BlockRestOfFile, Nestable: true},
			{Kind: "namespace", Template: `^\s*namespace\s+{name}\b`, Block: BlockBrace, Nestable: true},
			{
				Kind: "class",
				Template: `^\s*(?:public\s+|private\s+|protected\s+|internal\s+)?` +
					`(?:static\s+)?(?:abstract\s+)?(?:sealed\s+)?(?:partial\s+)?class\s+{name}\b`,
				Block:    BlockBrace,
				Nestable: true,
			},
			{
				Kind:     "struct",
				Template: `^\s*(?:public\s+|private\s+|protected\s+|internal\s+)?(?:readonly\s+)?struct\s+{name}\b`,
				Block:    BlockBrace,
				Nestable: true,
			},
			{
				Kind:     "interface",
				Template: `^\s*(?:public\s+|private\s+|protected\s+|internal\s+)?interface\s+{name}\b`,
				Block:    BlockBrace,
				Nestable: true,
			},
			{Kind: "enum", Template: `^\s*(?:public\s+|private\s+|protected\s+|internal\s+)?enum\s+{name}\b`, Block: BlockBrace},
			{
				Kind: "method",
				Template: `^\s*(?:public\s+|private\s+|protected\s+|internal\s+)?` +
					`(?:static\s+)?(?:abstract\s+)?(?:virtual\s+)?(?:override\s+)?(?:async\s+)?` +
					`\S+\s+{name}\s*[\(<]`,
				Block: BlockBrace,
			},
		},
	},
	{
		Name:       "Java",
		Extensions: []string{"java"},
		Comments:   cComments,
		Patterns: []Pattern{
			{
				Kind:     "class",
				Template: `^\s*(?:public\s+|private\s+|protected\s+)?(?:static\s+)?(?:abstract\s+)?(?:final\s+)?class\s+{name}\b`,
				Block:    BlockBrace,
				Nestable: true,
			},
			{
				Kind:     "interface",
				Template: `^\s*(?:public\s+|private\s+|protected\s+)?interface\s+{name}\b`,
				Block:    BlockBrace,
				Nestable: true,
			},
			{Kind: "enum", Template: `^\s*(?:public\s+|private\s+|protected\s+)?enum\s+{name}\b`, Block: BlockBrace},
			{
				Kind:     "method",
				Template: `^\s*(?:public\s+|private\s+|protected\s+)?(?:static\s+)?(?:abstract\s+)?(?:final\s+)?\S+\s+{name}\s*\(`,
				Block:    BlockBrace,
			},
		},
	},
	{
		Name:       "Go",
		Extensions: []string{"go"},
		Comments:   CommentStyle{LineComment: "//", BlockCommentStart: "/*", BlockCommentEnd: "*/", StringDelimiters: "\"'`"},
		Patterns: []Pattern{
			{Kind: "struct", Template: `^type\s+{name}\s+struct\b`, Block: BlockBrace, Nestable: true},
			{Kind: "interface", Template: `^type\s+{name}\s+interface\b`, Block: BlockBrace, Nestable: true},
			{Kind: "function", Template: `^func\s+(?:\([^)]*\)\s+)?{name}\s*[\(\[]`, Block: BlockBrace},
		},
	},
	{
		Name:       "Python",
		Extensions: []string{"py", "pyi"},
		Comments:   CommentStyle{LineComment: "#", StringDelimiters: `"'`, TripleQuote: true},
		Patterns: []Pattern{
			{Kind: "class", Template: `^\s*class\s+{name}\b`, Block: BlockIndent, Nestable: true},
			{Kind: "function", Template: `^\s*(?:async\s+)?def\s+{name}\s*\(`, Block: BlockIndent, Nestable: true},
		},
	},
	{
		Name:       "Ruby",
		Extensions: []string{"rb"},
		Comments:   CommentStyle{LineComment: "#", StringDelimiters: `"'`},
		Patterns: []Pattern{
			{Kind: "module", Template: `^\s*module\s+{name}\b`, Block: BlockKeyword, Nestable: true, EndKeyword: "end"},
			{Kind: "class", Template: `^\s*class\s+{name}\b`, Block: BlockKeyword, Nestable: true, EndKeyword: "end"},
			{Kind: "method", Template: `^\s*def\s+(?:self\.)?{name}\b`, Block: BlockKeyword, EndKeyword: "end"},
		},
	},
	{
		Name:       "Lisp",
		Extensions: []string{"clj", "cljs", "cljc", "lisp", "el"},
		Comments:   CommentStyle{LineComment: ";", StringDelimiters: `"`},
		Patterns: []Pattern{
			{Kind: "definition", Template: `^\s*\(def(?:n|un|record|macro|method|protocol)?\s+(?:\^\S+\s+)?{name}\b`, Block: BlockParen},
		},
	},
}

var extensionMap = func() map[string]*Language {
	m := make(map[string]*Language)
	for _, lang := range languages {
		for _, ext := range lang.Extensions {
			m[ext] = lang
		}
	}
	return m
}()

// ConfigForPath returns the language configuration for a file path, keyed
// by extension.
func ConfigForPath(path string) (*Language, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	lang, ok := extensionMap[ext]
	return lang, ok
}

// SupportedExtensions returns every configured extension, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensionMap))
	for ext := range extensionMap {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
