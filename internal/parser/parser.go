// Package parser scans markdown content for fenced embedm directive blocks
// and decomposes the document into an ordered sequence of fragments.
//
// The wire format is a fenced code block whose info string is "yaml embedm";
// the body is a restricted YAML mapping with a required "type" key. This
// block convention is the one bit-exact external contract of the compiler.
package parser

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/embedm/internal/directive"
	"github.com/leapstack-labs/embedm/internal/status"
)

var (
	openingFencePattern = regexp.MustCompile("(?m)^```yaml embedm[ \t]*$")
	closingFencePattern = regexp.MustCompile("(?m)^```[ \t]*$")
)

const (
	typeKey   = "type"
	sourceKey = "source"
)

// rawBlock is one embedm block located in the content, before YAML parsing.
type rawBlock struct {
	body  string
	start int // offset of the opening fence
	end   int // offset just past the closing fence and its newline
}

// Parse decomposes content into a Document of literal spans interleaved
// with parsed directives. baseDir must be the absolute directory of the
// file; relative directive sources are resolved against it immediately so
// every path carried downstream is already absolute.
//
// All malformed blocks, including an unclosed fence, surface as ERROR
// statuses; they are never silently dropped.
func Parse(content, fileName, baseDir string) (*directive.Document, []status.Status) {
	doc := &directive.Document{FileName: fileName}
	if content == "" {
		// a directive-free file is still a one-span document
		doc.Fragments = append(doc.Fragments, directive.Span{})
		return doc, nil
	}

	blocks, statuses, contentEnd := findRawBlocks(content)

	pos := 0
	for _, b := range blocks {
		if b.start > pos {
			doc.Fragments = append(doc.Fragments, directive.Span{Offset: pos, Length: b.start - pos})
		}

		d, blockStatuses := parseBlock(b.body, baseDir)
		if d != nil {
			doc.Fragments = append(doc.Fragments, d)
		}
		statuses = append(statuses, blockStatuses...)

		pos = b.end
	}

	if contentEnd > pos {
		doc.Fragments = append(doc.Fragments, directive.Span{Offset: pos, Length: contentEnd - pos})
	}

	return doc, statuses
}

// findRawBlocks locates every embedm block. An opening fence with no
// closing fence is an error; scanning stops there and the unclosed tail is
// excluded from the returned content end.
func findRawBlocks(content string) ([]rawBlock, []status.Status, int) {
	var blocks []rawBlock
	var statuses []status.Status

	pos := 0
	for pos < len(content) {
		loc := openingFencePattern.FindStringIndex(content[pos:])
		if loc == nil {
			break
		}
		openStart := pos + loc[0]
		bodyStart := pos + loc[1]
		if bodyStart < len(content) && content[bodyStart] == '\n' {
			bodyStart++ // skip the newline after the opening fence
		}

		closeLoc := closingFencePattern.FindStringIndex(content[bodyStart:])
		if closeLoc == nil {
			statuses = append(statuses, status.Errorf("unclosed embedm block at offset %d", openStart))
			return blocks, statuses, openStart
		}

		blockEnd := bodyStart + closeLoc[1]
		if blockEnd < len(content) && content[blockEnd] == '\n' {
			blockEnd++
		}

		blocks = append(blocks, rawBlock{
			body:  content[bodyStart : bodyStart+closeLoc[0]],
			start: openStart,
			end:   blockEnd,
		})
		pos = blockEnd
	}

	return blocks, statuses, len(content)
}

// parseBlock parses one block body into a Directive. The body must be a
// YAML mapping whose values are scalars or nested mappings; nested mapping
// keys flatten to dotted option keys (filter: {age: ">30"} becomes option
// "filter.age"). Scalar values keep their raw text so nothing is lost to
// YAML's type coercion.
func parseBlock(body, baseDir string) (*directive.Directive, []status.Status) {
	if strings.TrimSpace(body) == "" {
		return nil, []status.Status{status.Errorf("empty embedm block")}
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(body), &root); err != nil {
		return nil, []status.Status{status.Errorf("invalid YAML in embedm block: %v", err)}
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, []status.Status{status.Errorf("embedm block must contain YAML key-value pairs")}
	}

	options, err := flattenMapping(root.Content[0], "")
	if err != nil {
		return nil, []status.Status{status.Errorf("%v", err)}
	}

	d := &directive.Directive{BaseDir: baseDir}
	var rest []directive.Option
	for _, o := range options {
		switch o.Key {
		case typeKey:
			d.Type = o.Value
		case sourceKey:
			d.Source = o.Value
		default:
			rest = append(rest, o)
		}
	}
	d.Options = rest

	if d.Type == "" {
		return nil, []status.Status{status.Errorf("embedm block is missing required 'type' field")}
	}

	if d.Source != "" && !filepath.IsAbs(d.Source) {
		d.Source = filepath.Clean(filepath.Join(baseDir, d.Source))
	}

	return d, nil
}

// flattenMapping converts a YAML mapping node into ordered options,
// recursing into nested mappings with dotted key prefixes. Duplicate keys
// are preserved in order; lookups resolve them last-wins.
func flattenMapping(node *yaml.Node, prefix string) ([]directive.Option, error) {
	var options []directive.Option
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		key := keyNode.Value
		if prefix != "" {
			key = prefix + "." + key
		}

		switch valueNode.Kind {
		case yaml.ScalarNode:
			options = append(options, directive.Option{Key: key, Value: valueNode.Value})
		case yaml.MappingNode:
			nested, err := flattenMapping(valueNode, key)
			if err != nil {
				return nil, err
			}
			options = append(options, nested...)
		default:
			return nil, fmt.Errorf("embedm block key %q must have a scalar or mapping value", key)
		}
	}
	return options, nil
}
