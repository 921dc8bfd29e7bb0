// Package clipcodec converts cells and ranges to clipboard text and back.
//
// Simple types travel as their display text. Relationship, multi-choice and
// tag-list cells use a tagged form that carries the machine value next to the
// display text:
//
//	[[lac:<cell type>:<json value>]]<display text>
//
// Ranges are tab separated rows joined by newlines, so external spreadsheet
// tools read the display text of every cell.
package clipcodec

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/sheet"
)

var tagPattern = regexp.MustCompile(`^\[\[lac:([a-z-]+):`)

const tagClose = "]]"

// Payload is one decoded clipboard cell.
type Payload struct {
	Tagged bool
	Type   catalog.CellType
	Value  catalog.Value
	Text   string
}

// EncodeCell serializes one cell.
func EncodeCell(c sheet.Cell) string {
	text := flatten(c.Text)
	if !c.Type.IsComplex() {
		return text
	}
	data, err := json.Marshal(machineValue(c.Value))
	if err != nil {
		return text
	}
	return fmt.Sprintf("[[lac:%s:%s%s%s", c.Type, data, tagClose, text)
}

func machineValue(v catalog.Value) any {
	switch v := v.(type) {
	case catalog.Ref:
		return v
	case catalog.RefList:
		if v == nil {
			return catalog.RefList{}
		}
		return v
	case catalog.Tags:
		if v == nil {
			return catalog.Tags{}
		}
		return v
	}
	return nil
}

// flatten replaces characters that would break the grid structure.
func flatten(s string) string {
	if !strings.ContainsAny(s, "\t\r\n") {
		return s
	}
	return strings.NewReplacer("\r\n", " ", "\t", " ", "\n", " ", "\r", " ").Replace(s)
}

// Decode parses one clipboard cell. Anything that is not a well-formed tagged
// value is returned as plain text.
func Decode(s string) Payload {
	plain := Payload{Text: s}
	m := tagPattern.FindStringSubmatch(s)
	if m == nil {
		return plain
	}
	typ, err := catalog.ParseCellType(m[1])
	if err != nil || !typ.IsComplex() {
		return plain
	}

	rest := s[len(m[0]):]
	dec := json.NewDecoder(strings.NewReader(rest))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return plain
	}
	tail := rest[dec.InputOffset():]
	if !strings.HasPrefix(tail, tagClose) {
		return plain
	}

	v, err := decodeValue(typ, raw)
	if err != nil {
		return plain
	}
	return Payload{Tagged: true, Type: typ, Value: v, Text: tail[len(tagClose):]}
}

func decodeValue(t catalog.CellType, raw json.RawMessage) (catalog.Value, error) {
	switch t {
	case catalog.TypeRelationship:
		if string(raw) == "null" {
			return nil, nil
		}
		var ref catalog.Ref
		if err := json.Unmarshal(raw, &ref); err != nil {
			return nil, err
		}
		return ref, nil
	case catalog.TypeMultiRelationship:
		refs := catalog.RefList{}
		if err := json.Unmarshal(raw, &refs); err != nil {
			return nil, err
		}
		return refs, nil
	case catalog.TypeTagList:
		tags := catalog.Tags{}
		if err := json.Unmarshal(raw, &tags); err != nil {
			return nil, err
		}
		return tags, nil
	}
	return nil, fmt.Errorf("type %s has no tagged form", t)
}

// For converts the payload into a value for col. Tagged values are accepted
// when the types match or are array compatible (a reference and a
// one-element reference list). Everything else is parsed from the display
// text, which for relationship columns yields an invalid raw value.
func (p Payload) For(col catalog.Column) (catalog.Value, string) {
	if p.Tagged {
		switch {
		case p.Type == col.Type:
			return catalog.Clone(p.Value), p.Text
		case p.Type == catalog.TypeRelationship && col.Type == catalog.TypeMultiRelationship:
			refs := catalog.RefList{}
			if ref, ok := p.Value.(catalog.Ref); ok {
				refs = append(refs, ref)
			}
			return refs, catalog.Format(refs)
		case p.Type == catalog.TypeMultiRelationship && col.Type == catalog.TypeRelationship:
			refs, _ := p.Value.(catalog.RefList)
			switch len(refs) {
			case 0:
				return nil, ""
			case 1:
				return refs[0], catalog.Format(refs[0])
			}
		}
	}
	v := catalog.Parse(col, p.Text)
	return v, catalog.Format(v)
}
