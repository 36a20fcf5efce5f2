package models

import "fmt"

// Category identifies one of the three source pickers
type Category string

const (
	CategoryLaw           Category = "law"
	CategoryDoctrine      Category = "doctrine"
	CategoryJurisprudence Category = "jurisprudence"
)

// Categories lists every category in the order documents are sent to the model
var Categories = []Category{CategoryLaw, CategoryDoctrine, CategoryJurisprudence}

// ParseCategory converts a path or form value into a Category
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryLaw, CategoryDoctrine, CategoryJurisprudence:
		return Category(s), nil
	default:
		return "", fmt.Errorf("unknown document category: %q", s)
	}
}

// Cumulative reports whether new selections append to the set.
// The law category holds a single statute, so a new selection replaces it.
func (c Category) Cumulative() bool {
	return c != CategoryLaw
}

// EncodedFile is a user-selected file in transport-safe form
type EncodedFile struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Payload  string `json:"-"` // base64, no data-URL prefix
}

// DocumentSet is the ordered collection of files for one category
type DocumentSet []EncodedFile

// Names returns the file names in order
func (d DocumentSet) Names() []string {
	names := make([]string, 0, len(d))
	for _, f := range d {
		names = append(names, f.Name)
	}
	return names
}

// Clone returns a copy that does not share the backing array
func (d DocumentSet) Clone() DocumentSet {
	if d == nil {
		return DocumentSet{}
	}
	out := make(DocumentSet, len(d))
	copy(out, d)
	return out
}
