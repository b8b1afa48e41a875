// Package types provides the shared data model of the book catalog.
// This package contains shared types to avoid circular dependencies between packages.
package types

import "strings"

// Book is a single catalog record. Every field is kept as the raw string the
// visitor submitted; year, isbn and pages are never parsed.
type Book struct {
	// ID is the opaque unique identifier assigned on creation
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Year   string `json:"year"`
	Genre  string `json:"genre"`
	ISBN   string `json:"isbn"`
	Pages  string `json:"pages"`
}

// BookForm carries the six editable fields submitted by the create and edit forms.
type BookForm struct {
	Title  string
	Author string
	Year   string
	Genre  string
	ISBN   string
	Pages  string
}

// BookFormFields lists the form field names in display order.
var BookFormFields = []string{"title", "author", "year", "genre", "isbn", "pages"}

// Values returns the form values keyed by field name.
func (f BookForm) Values() map[string]string {
	return map[string]string{
		"title":  f.Title,
		"author": f.Author,
		"year":   f.Year,
		"genre":  f.Genre,
		"isbn":   f.ISBN,
		"pages":  f.Pages,
	}
}

// MissingFields returns the names of the fields left empty, in display order.
func (f BookForm) MissingFields() []string {
	values := f.Values()
	var missing []string
	for _, name := range BookFormFields {
		if values[name] == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// Complete reports whether all six fields are non-empty.
func (f BookForm) Complete() bool {
	return len(f.MissingFields()) == 0
}

// ToBook builds a book with the given id from the form values.
func (f BookForm) ToBook(id string) Book {
	return Book{
		ID:     id,
		Title:  f.Title,
		Author: f.Author,
		Year:   f.Year,
		Genre:  f.Genre,
		ISBN:   f.ISBN,
		Pages:  f.Pages,
	}
}

// Fields returns the book as a flat key/value map suitable for template data.
func (b Book) Fields() map[string]any {
	return map[string]any{
		"id":     b.ID,
		"title":  b.Title,
		"author": b.Author,
		"year":   b.Year,
		"genre":  b.Genre,
		"isbn":   b.ISBN,
		"pages":  b.Pages,
	}
}

// String returns a short human-readable description.
func (b Book) String() string {
	var sb strings.Builder
	sb.WriteString(b.Title)
	if b.Author != "" {
		sb.WriteString(" (")
		sb.WriteString(b.Author)
		sb.WriteString(")")
	}
	return sb.String()
}
