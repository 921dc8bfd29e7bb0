// Package catalog defines the closed set of cell types, their semantic values
// and the record schemas edited by the batch grid.
package catalog

import "fmt"

// CellType identifies how a column's values are stored, compared, edited and
// serialized. The set is closed: every switch over CellType is exhaustive.
type CellType int

const (
	TypeText CellType = iota
	TypeNumeric
	TypeSingleChoice
	TypeRelationship
	TypeMultiRelationship
	TypeTagList
	TypeBoolean
	TypeReadOnly
)

var typeNames = [...]string{
	TypeText:              "text",
	TypeNumeric:           "numeric",
	TypeSingleChoice:      "single-choice",
	TypeRelationship:      "relationship",
	TypeMultiRelationship: "multi-choice-relationship",
	TypeTagList:           "tag-list",
	TypeBoolean:           "boolean",
	TypeReadOnly:          "read-only",
}

func (t CellType) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("CellType(%d)", int(t))
	}
	return typeNames[t]
}

// ParseCellType is the inverse of CellType.String.
func ParseCellType(s string) (CellType, error) {
	for i, name := range typeNames {
		if name == s {
			return CellType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown cell type %q", s)
}

// IsList reports whether values of t are collections.
func (t CellType) IsList() bool {
	return t == TypeMultiRelationship || t == TypeTagList
}

// IsComplex reports whether values of t carry machine data that differs from
// their display text (and therefore use the tagged clipboard format).
func (t CellType) IsComplex() bool {
	return t == TypeRelationship || t == TypeMultiRelationship || t == TypeTagList
}
