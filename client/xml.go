package client

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// XMLOptions controls how an XML body is turned into nested maps.
// The field names and semantics follow the xml2js conventions the
// device documentation is written against.
type XMLOptions struct {
	// ExplicitArray wraps every child element (and merged attribute) in a
	// slice, even when it occurs once.
	ExplicitArray bool
	// MergeAttrs stores attributes as ordinary keys next to child
	// elements instead of under AttrKey.
	MergeAttrs bool
	// Trim removes leading and trailing whitespace from text nodes.
	Trim bool
	// NormalizeTags lower-cases element names.
	NormalizeTags bool
	// ExplicitRoot keeps the root element name as the single top-level key.
	// Without it a root holding only text is returned as {CharKey: text},
	// since the result is always a map.
	ExplicitRoot bool
	// AttrKey holds attributes when MergeAttrs is false. Default "$".
	AttrKey string
	// CharKey holds text of elements that also carry attributes or
	// children. Default "_".
	CharKey string
}

// DefaultXMLOptions returns the settings used when a fetch does not
// specify [WithXMLOptions].
func DefaultXMLOptions() XMLOptions {
	return XMLOptions{
		ExplicitArray: false,
		MergeAttrs:    true,
		Trim:          true,
		NormalizeTags: false,
		ExplicitRoot:  true,
		AttrKey:       "$",
		CharKey:       "_",
	}
}

func (o XMLOptions) withDefaults() XMLOptions {
	d := DefaultXMLOptions()
	if o.AttrKey == "" {
		o.AttrKey = d.AttrKey
	}
	if o.CharKey == "" {
		o.CharKey = d.CharKey
	}

	return o
}

// xmlNode collects one open element while its end tag is pending.
type xmlNode struct {
	name     string
	obj      map[string]any
	text     strings.Builder
	hasChild bool
}

// parseXML converts body into nested maps. Element text becomes a string
// when the element has neither attributes nor children; repeated child
// names collect into []any.
func parseXML(body string, opts XMLOptions) (map[string]any, error) {
	opts = opts.withDefaults()

	d := xml.NewDecoder(strings.NewReader(body))
	d.Strict = true
	d.CharsetReader = charset.NewReaderLabel

	var (
		stack    []*xmlNode
		root     any
		rootName string
		seenRoot bool
	)

	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 && seenRoot {
				return nil, errors.New("unexpected element after root element")
			}
			n := &xmlNode{
				name: opts.tagName(t.Name),
				obj:  make(map[string]any),
			}
			opts.addAttrs(n.obj, t.Attr)
			if len(stack) > 0 {
				stack[len(stack)-1].hasChild = true
			}
			stack = append(stack, n)

		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, errors.New("text data outside of root element")
				}
				continue
			}
			stack[len(stack)-1].text.Write(t)

		case xml.EndElement:
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			v := opts.finish(n)

			if len(stack) == 0 {
				root, rootName, seenRoot = v, n.name, true
				continue
			}
			opts.assign(stack[len(stack)-1].obj, n.name, v)
		}
	}

	if !seenRoot {
		return nil, errors.New("no root element")
	}

	if opts.ExplicitRoot {
		return map[string]any{rootName: root}, nil
	}
	if m, ok := root.(map[string]any); ok {
		return m, nil
	}

	return map[string]any{opts.CharKey: root}, nil
}

func (o XMLOptions) tagName(n xml.Name) string {
	if o.NormalizeTags {
		return strings.ToLower(n.Local)
	}

	return n.Local
}

func (o XMLOptions) addAttrs(obj map[string]any, attrs []xml.Attr) {
	if len(attrs) == 0 {
		return
	}

	if o.MergeAttrs {
		for _, a := range attrs {
			o.assign(obj, a.Name.Local, a.Value)
		}
		return
	}

	set := make(map[string]any, len(attrs))
	for _, a := range attrs {
		set[a.Name.Local] = a.Value
	}
	obj[o.AttrKey] = set
}

// finish turns a closed element into its value.
func (o XMLOptions) finish(n *xmlNode) any {
	text := n.text.String()

	if strings.TrimSpace(text) == "" {
		if len(n.obj) == 0 {
			if o.Trim {
				return ""
			}
			return text
		}
		return n.obj
	}

	if o.Trim {
		text = strings.TrimSpace(text)
	}
	if len(n.obj) == 0 && !n.hasChild {
		return text
	}
	n.obj[o.CharKey] = text

	return n.obj
}

// assign stores v under key, turning repeated keys into a slice.
func (o XMLOptions) assign(obj map[string]any, key string, v any) {
	existing, ok := obj[key]
	switch {
	case !ok && o.ExplicitArray:
		obj[key] = []any{v}
	case !ok:
		obj[key] = v
	default:
		if list, isList := existing.([]any); isList {
			obj[key] = append(list, v)
			return
		}
		obj[key] = []any{existing, v}
	}
}

func bodyParseError(err error) *Error {
	return newError(KindBodyParse, "", fmt.Errorf("failed to parse XML: %w", err))
}
