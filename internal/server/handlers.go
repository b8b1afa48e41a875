package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/conneroisu/knygynas/internal/errors"
	"github.com/conneroisu/knygynas/internal/messages"
	"github.com/conneroisu/knygynas/internal/monitoring"
	"github.com/conneroisu/knygynas/internal/security"
	"github.com/conneroisu/knygynas/internal/store"
	"github.com/conneroisu/knygynas/internal/types"
)

// NotFoundBody is the plain-text body of every missing-book response.
const NotFoundBody = "Tokios knygos nėra"

// Page titles.
const (
	titleList   = "Knygų sąrašas"
	titleCreate = "Nauja knyga"
	titleEdit   = "Redaguoti knygą "
	titleDelete = "Trynimo patvirtinimas"
	titleShow   = "Rodyti knygą "
)

// lastViewedKey is the session key recording the most recently shown book.
const lastViewedKey = "last_viewed"

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	books, err := s.books.LoadBooks(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.SetBooks(len(books))

	data := s.page(r, titleList)
	data["books"] = books
	s.render(w, r, "read", data)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "create", s.page(r, titleCreate))
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	form := readForm(r)
	if missing := form.MissingFields(); len(missing) > 0 {
		fve := &apperrors.FieldValidationError{Fields: missing}
		s.errors.Handle(r.Context(), fve.ToAppError())
		s.metrics.BookOperation(monitoring.OpCreate, monitoring.ResultRejected)
		s.redirect(w, r, "/create?msg="+messages.ValidationError)
		return
	}

	books, err := s.books.LoadBooks(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	book := form.ToBook(s.newID())
	books = append(books, book)
	if err := s.books.SaveBooks(r.Context(), books); err != nil {
		s.metrics.BookOperation(monitoring.OpCreate, monitoring.ResultError)
		s.fail(w, r, err)
		return
	}

	s.metrics.BookOperation(monitoring.OpCreate, monitoring.ResultSuccess)
	s.metrics.SetBooks(len(books))
	s.logger.Info(r.Context(), "Book created", "id", book.ID, "title", book.Title)
	s.redirect(w, r, "/?msg="+messages.CreateSuccess)
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	book, ok := s.findBook(w, r)
	if !ok {
		return
	}
	s.render(w, r, "edit", s.bookPage(r, titleEdit+book.Title, book))
}

// handleUpdate replaces every field but the id. Unlike store it accepts
// empty fields.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	books, err := s.books.LoadBooks(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	if store.FindBook(books, id) < 0 {
		s.metrics.BookOperation(monitoring.OpUpdate, monitoring.ResultNotFound)
		s.notFound(w, r, id)
		return
	}

	book := readForm(r).ToBook(id)
	books = store.ReplaceBook(books, book)
	if err := s.books.SaveBooks(r.Context(), books); err != nil {
		s.metrics.BookOperation(monitoring.OpUpdate, monitoring.ResultError)
		s.fail(w, r, err)
		return
	}

	s.metrics.BookOperation(monitoring.OpUpdate, monitoring.ResultSuccess)
	s.logger.Info(r.Context(), "Book updated", "id", id)
	s.redirect(w, r, "/?msg="+messages.EditSuccess)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	book, ok := s.findBook(w, r)
	if !ok {
		return
	}
	s.render(w, r, "delete", s.bookPage(r, titleDelete, book))
}

func (s *Server) handleDestroy(w http.ResponseWriter, r *http.Request) {
	books, err := s.books.LoadBooks(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	if store.FindBook(books, id) < 0 {
		s.metrics.BookOperation(monitoring.OpDestroy, monitoring.ResultNotFound)
		s.notFound(w, r, id)
		return
	}

	books = store.RemoveBook(books, id)
	if err := s.books.SaveBooks(r.Context(), books); err != nil {
		s.metrics.BookOperation(monitoring.OpDestroy, monitoring.ResultError)
		s.fail(w, r, err)
		return
	}

	s.metrics.BookOperation(monitoring.OpDestroy, monitoring.ResultSuccess)
	s.metrics.SetBooks(len(books))
	s.logger.Info(r.Context(), "Book deleted", "id", id)
	s.redirect(w, r, "/?msg="+messages.DeleteSuccess)
}

func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	book, ok := s.findBook(w, r)
	if !ok {
		return
	}

	if err := s.sessions.SetValue(r.Context(), lastViewedKey, book.ID); err != nil {
		s.fail(w, r, err)
		return
	}

	s.render(w, r, "show", s.bookPage(r, titleShow+book.Title, book))
}

// findBook loads the collection and looks up the id route parameter. It
// writes the 404 or 500 response itself when the book cannot be returned.
func (s *Server) findBook(w http.ResponseWriter, r *http.Request) (types.Book, bool) {
	books, err := s.books.LoadBooks(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return types.Book{}, false
	}

	id := chi.URLParam(r, "id")
	i := store.FindBook(books, id)
	if i < 0 {
		s.notFound(w, r, id)
		return types.Book{}, false
	}
	return books[i], true
}

func readForm(r *http.Request) types.BookForm {
	return types.BookForm{
		Title:  r.PostFormValue("title"),
		Author: r.PostFormValue("author"),
		Year:   r.PostFormValue("year"),
		Genre:  r.PostFormValue("genre"),
		ISBN:   r.PostFormValue("isbn"),
		Pages:  r.PostFormValue("pages"),
	}
}

// page builds the context shared by every view.
func (s *Server) page(r *http.Request, title string) map[string]any {
	data := map[string]any{
		"pageTitle": title,
		"domain":    s.domain,
		"message":   nil,
		"hotReload": s.hub != nil && s.config.Development.HotReload,
		"nonce":     security.NonceFromContext(r.Context()),
	}
	if msg, ok := s.messages.Resolve(r.URL.Query().Get("msg")); ok {
		data["message"] = msg
	}
	return data
}

// bookPage is page with the book's fields merged in at the top level.
func (s *Server) bookPage(r *http.Request, title string, book types.Book) map[string]any {
	data := s.page(r, title)
	for k, v := range book.Fields() {
		data[k] = v
	}
	return data
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, fragment string, data map[string]any) {
	// The component buffers the page, so a failure leaves w untouched.
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Component(fragment, data).Render(r.Context(), w); err != nil {
		w.Header().Del("Content-Type")
		s.fail(w, r, err)
	}
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, s.domain+path, http.StatusFound)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request, id string) {
	s.errors.Handle(r.Context(),
		apperrors.NewNotFoundError(apperrors.ErrCodeBookNotFound, "book not found").WithContext("id", id))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(NotFoundBody))
}

// fail logs err and answers 500. Storage and template failures are never
// recovered from on the request path.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.errors.Handle(r.Context(), err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
