package content

import "sort"

// PropertyKind is the destination column type of a property.
type PropertyKind string

const (
	KindTitle    PropertyKind = "title"
	KindRichText PropertyKind = "rich_text"
	KindSelect   PropertyKind = "select"
	KindNumber   PropertyKind = "number"
	KindDate     PropertyKind = "date"
	KindRelation PropertyKind = "relation"
)

// Property is one typed destination value. Only the field matching Kind is meaningful.
type Property struct {
	Kind   PropertyKind `json:"kind"`
	Text   string       `json:"text,omitempty"`
	Number int64        `json:"number,omitempty"`
	IDs    []string     `json:"ids,omitempty"`
}

// Properties maps destination field names to values.
type Properties map[string]Property

// TitleProperty builds a title value.
func TitleProperty(text string) Property { return Property{Kind: KindTitle, Text: text} }

// RichTextProperty builds a rich text value.
func RichTextProperty(text string) Property { return Property{Kind: KindRichText, Text: text} }

// SelectProperty builds a select value.
func SelectProperty(name string) Property { return Property{Kind: KindSelect, Text: name} }

// NumberProperty builds an integer value.
func NumberProperty(n int64) Property { return Property{Kind: KindNumber, Number: n} }

// DateProperty builds a date value; the start string is passed through unchanged.
func DateProperty(start string) Property { return Property{Kind: KindDate, Text: start} }

// RelationProperty builds a relation list.
func RelationProperty(ids []string) Property {
	cp := make([]string, len(ids))
	copy(cp, ids)
	return Property{Kind: KindRelation, IDs: cp}
}

// Names returns the property names in sorted order.
func (p Properties) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
