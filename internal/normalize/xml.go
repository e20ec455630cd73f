package normalize

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Reserved keys in the normalized XML tree. A child element whose tag
// collides with one of these is stored with its tag wrapped in backticks.
const (
	xmlAttributesKey = "attributes"
	xmlValueKey      = "value"
)

type xmlElement struct {
	tag      string
	attrs    []xml.Attr
	text     strings.Builder
	children []*xmlElement
}

// XML parses XML content into the normalized tree. Element attributes
// live under "attributes", trimmed text content under "value", and
// repeated child tags collapse into a list.
func XML(content string) (any, error) {
	root, err := parseXML(content)
	if err != nil {
		return nil, fmt.Errorf("invalid XML: %w", err)
	}
	return map[string]any{root.tag: normalizeXMLElement(root)}, nil
}

func parseXML(content string) (*xmlElement, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	var stack []*xmlElement
	var root *xmlElement

	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &xmlElement{tag: t.Name.Local, attrs: t.Attr}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			} else if root == nil {
				root = el
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("no root element")
	}
	return root, nil
}

func normalizeXMLElement(el *xmlElement) map[string]any {
	result := make(map[string]any)

	if len(el.attrs) > 0 {
		attrs := make(map[string]any, len(el.attrs))
		for _, a := range el.attrs {
			attrs[a.Name.Local] = a.Value
		}
		result[xmlAttributesKey] = attrs
	}

	if text := strings.TrimSpace(el.text.String()); text != "" {
		result[xmlValueKey] = text
	}

	byTag := make(map[string][]*xmlElement)
	var tagOrder []string
	for _, child := range el.children {
		if _, seen := byTag[child.tag]; !seen {
			tagOrder = append(tagOrder, child.tag)
		}
		byTag[child.tag] = append(byTag[child.tag], child)
	}

	for _, tag := range tagOrder {
		key := tag
		if tag == xmlAttributesKey || tag == xmlValueKey {
			key = "`" + tag + "`"
		}
		children := byTag[tag]
		if len(children) == 1 {
			result[key] = normalizeXMLElement(children[0])
			continue
		}
		list := make([]any, len(children))
		for i, c := range children {
			list[i] = normalizeXMLElement(c)
		}
		result[key] = list
	}
	return result
}
