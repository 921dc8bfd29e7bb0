package catalog

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// Value is a semantic cell value. A nil Value is the null sentinel used by
// relationship and boolean cells.
type Value interface {
	isValue()
}

// Text is a plain string value (text, single-choice and read-only cells).
type Text string

// Number keeps numeric input as typed so "1.50" renders as entered.
type Number string

// Ref points at a record of another kind.
type Ref struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// RefList is an unordered set of references.
type RefList []Ref

// Tags is an unordered set of free-form, case-sensitive tags.
type Tags []string

// Bool is a set boolean. Unset is nil.
type Bool bool

// Raw holds input that could not be parsed into the cell's type. It is kept
// verbatim so the user can see and fix it, and it never validates.
type Raw string

func (Text) isValue()    {}
func (Number) isValue()  {}
func (Ref) isValue()     {}
func (RefList) isValue() {}
func (Tags) isValue()    {}
func (Bool) isValue()    {}
func (Raw) isValue()     {}

// Empty returns the empty sentinel for t.
func Empty(t CellType) Value {
	switch t {
	case TypeText, TypeSingleChoice, TypeReadOnly:
		return Text("")
	case TypeNumeric:
		return Number("")
	case TypeRelationship, TypeBoolean:
		return nil
	case TypeMultiRelationship:
		return RefList{}
	case TypeTagList:
		return Tags{}
	}
	return nil
}

// IsEmpty reports whether v is the empty value for t.
func IsEmpty(t CellType, v Value) bool {
	return Equal(t, v, Empty(t))
}

// Equal compares two values under the equality rule of t.
func Equal(t CellType, a, b Value) bool {
	ra, aRaw := a.(Raw)
	rb, bRaw := b.(Raw)
	if aRaw || bRaw {
		return aRaw && bRaw && ra == rb
	}

	switch t {
	case TypeText, TypeSingleChoice, TypeReadOnly:
		return textOf(a) == textOf(b)
	case TypeNumeric:
		return numbersEqual(textOf(a), textOf(b))
	case TypeRelationship:
		x, xok := a.(Ref)
		y, yok := b.(Ref)
		if !xok || !yok {
			return a == nil && b == nil
		}
		return x.ID == y.ID
	case TypeMultiRelationship:
		return slices.Equal(refIDSet(a), refIDSet(b))
	case TypeTagList:
		return slices.Equal(tagSet(a), tagSet(b))
	case TypeBoolean:
		x, xok := a.(Bool)
		y, yok := b.(Bool)
		if !xok || !yok {
			return a == nil && b == nil
		}
		return x == y
	}
	return false
}

func textOf(v Value) string {
	switch v := v.(type) {
	case Text:
		return string(v)
	case Number:
		return string(v)
	case nil:
		return ""
	}
	return Format(v)
}

func numbersEqual(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == b {
		return true
	}
	x, errA := strconv.ParseFloat(a, 64)
	y, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return false
	}
	if math.IsNaN(x) || math.IsNaN(y) {
		return false
	}
	return x == y
}

func refIDSet(v Value) []int64 {
	var refs RefList
	switch v := v.(type) {
	case RefList:
		refs = v
	case Ref:
		refs = RefList{v}
	}
	ids := make([]int64, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

func tagSet(v Value) []string {
	tags, _ := v.(Tags)
	out := slices.Clone([]string(tags))
	if out == nil {
		out = []string{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Format renders v as display text. It is the single source of a cell's
// text for every value not supplied with its own label.
func Format(v Value) string {
	switch v := v.(type) {
	case nil:
		return ""
	case Text:
		return string(v)
	case Number:
		return string(v)
	case Raw:
		return string(v)
	case Ref:
		return v.display()
	case RefList:
		labels := make([]string, len(v))
		for i, r := range v {
			labels[i] = r.display()
		}
		return strings.Join(labels, ", ")
	case Tags:
		return strings.Join(v, ", ")
	case Bool:
		if v {
			return "Yes"
		}
		return "No"
	}
	return ""
}

func (r Ref) display() string {
	if r.Label != "" {
		return r.Label
	}
	return "#" + strconv.FormatInt(r.ID, 10)
}

// Clone returns a copy of v that shares no backing arrays with it.
func Clone(v Value) Value {
	switch v := v.(type) {
	case RefList:
		if v == nil {
			return RefList{}
		}
		return slices.Clone(v)
	case Tags:
		if v == nil {
			return Tags{}
		}
		return slices.Clone(v)
	}
	return v
}

// ParseBool accepts the spellings spreadsheets commonly produce.
func ParseBool(s string) (Value, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return nil, true
	case "yes", "y", "true", "t", "1":
		return Bool(true), true
	case "no", "n", "false", "f", "0":
		return Bool(false), true
	}
	return nil, false
}

// SplitTags splits free text on commas and semicolons, dropping blanks.
func SplitTags(s string) Tags {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	tags := Tags{}
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" && !slices.Contains(tags, f) {
			tags = append(tags, f)
		}
	}
	return tags
}

// Parse converts plain external text into a value for col. Text that cannot
// be a value of the column's type becomes Raw. Relationship columns never
// accept plain text: a label alone is not a valid reference.
func Parse(col Column, text string) Value {
	switch col.Type {
	case TypeText, TypeReadOnly:
		return Text(text)
	case TypeNumeric:
		return Number(strings.TrimSpace(text))
	case TypeSingleChoice:
		trimmed := strings.TrimSpace(text)
		for _, opt := range col.Options {
			if strings.EqualFold(opt, trimmed) {
				return Text(opt)
			}
		}
		return Text(trimmed)
	case TypeRelationship, TypeMultiRelationship:
		if strings.TrimSpace(text) == "" {
			return Empty(col.Type)
		}
		return Raw(text)
	case TypeTagList:
		return SplitTags(text)
	case TypeBoolean:
		if v, ok := ParseBool(text); ok {
			return v
		}
		return Raw(text)
	}
	return Raw(text)
}
