// Package messages holds the post-redirect feedback messages shown after a
// book is created, updated or deleted, or when a form is rejected.
package messages

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/conneroisu/knygynas/internal/types"
)

// Message keys carried in the msg query parameter.
const (
	CreateSuccess   = "create_success"
	EditSuccess     = "edit_success"
	DeleteSuccess   = "delete_success"
	ValidationError = "validation_error"
)

type entry struct {
	key  string
	text string
	kind types.MessageType
}

var lithuanian = []entry{
	{CreateSuccess, "Knyga sėkmingai sukurta!", types.MessageSuccess},
	{EditSuccess, "Knyga sėkmingai atnaujinta!", types.MessageSuccess},
	{DeleteSuccess, "Knyga sėkmingai ištrinta!", types.MessageSuccess},
	{ValidationError, "Užpildykite visus laukus!", types.MessageDanger},
}

// Catalog is an immutable key to message lookup built once at startup.
type Catalog struct {
	lang     language.Tag
	messages map[string]types.Message
}

// New builds the Lithuanian catalog.
func New() (*Catalog, error) {
	return NewForLanguage(language.Lithuanian)
}

// NewForLanguage builds the catalog and resolves every entry for tag. Tags
// without translations fall back to Lithuanian.
func NewForLanguage(tag language.Tag) (*Catalog, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.Lithuanian))
	for _, e := range lithuanian {
		if err := b.SetString(language.Lithuanian, e.key, e.text); err != nil {
			return nil, err
		}
	}

	matched, _, _ := b.Matcher().Match(tag)
	p := message.NewPrinter(matched, message.Catalog(b))

	msgs := make(map[string]types.Message, len(lithuanian))
	for _, e := range lithuanian {
		msgs[e.key] = types.Message{
			Key:  e.key,
			Msg:  p.Sprintf(e.key),
			Type: e.kind,
		}
	}

	return &Catalog{lang: tag, messages: msgs}, nil
}

// MustNew is New for package initialisation and tests.
func MustNew() *Catalog {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}

// Resolve looks up a message by key. An empty or unknown key yields false.
func (c *Catalog) Resolve(key string) (types.Message, bool) {
	if key == "" {
		return types.Message{}, false
	}
	m, ok := c.messages[key]
	return m, ok
}

// Keys returns every known message key.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(lithuanian))
	for _, e := range lithuanian {
		keys = append(keys, e.key)
	}
	return keys
}

// Language returns the tag the catalog was resolved for.
func (c *Catalog) Language() language.Tag { return c.lang }
