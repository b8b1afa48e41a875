//go:build property
// +build property

package server

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/knygynas/internal/types"
)

func formFrom(values []string) url.Values {
	form := url.Values{}
	for i, name := range types.BookFormFields {
		form.Set(name, values[i])
	}
	return form
}

func fieldsGen() gopter.Gen {
	return gen.SliceOfN(len(types.BookFormFields), gen.Identifier())
}

// TestBookMutationProperties checks how each mutating route changes the
// collection for arbitrary form input.
func TestBookMutationProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("a complete form appends exactly one book", prop.ForAll(
		func(values []string) bool {
			s, repo := setupTestServer(t, solaris)

			w := do(t, s.Handler(), http.MethodPost, "/store", formFrom(values))
			books := loadBooks(t, repo)

			return w.Code == http.StatusFound &&
				w.Header().Get("Location") == "/?msg=create_success" &&
				len(books) == 2 &&
				books[0] == solaris &&
				books[1].Title == values[0] &&
				books[1].Pages == values[5]
		},
		fieldsGen(),
	))

	properties.Property("an incomplete form leaves the collection unchanged", prop.ForAll(
		func(values []string, blank int) bool {
			s, repo := setupTestServer(t, solaris)

			values[blank] = ""
			w := do(t, s.Handler(), http.MethodPost, "/store", formFrom(values))
			books := loadBooks(t, repo)

			return w.Header().Get("Location") == "/create?msg=validation_error" &&
				len(books) == 1 &&
				books[0] == solaris
		},
		fieldsGen(),
		gen.IntRange(0, len(types.BookFormFields)-1),
	))

	properties.Property("update keeps the id and the collection size", prop.ForAll(
		func(values []string) bool {
			s, repo := setupTestServer(t, dune, solaris)

			w := do(t, s.Handler(), http.MethodPost, "/update/b2", formFrom(values))
			books := loadBooks(t, repo)

			return w.Code == http.StatusFound &&
				len(books) == 2 &&
				books[0] == dune &&
				books[1].ID == "b2" &&
				books[1].Author == values[1]
		},
		fieldsGen(),
	))

	properties.Property("unknown ids never change the collection", prop.ForAll(
		func(id string) bool {
			s, repo := setupTestServer(t, dune)

			w := do(t, s.Handler(), http.MethodPost, "/destroy/x"+id, nil)
			books := loadBooks(t, repo)

			return w.Code == http.StatusNotFound &&
				w.Body.String() == NotFoundBody &&
				len(books) == 1
		},
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
