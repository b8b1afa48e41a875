// Package renderer builds HTML pages from a shared header, a page fragment
// and a shared footer.
//
// The header and footer are read once when the renderer is created and again
// on Reload, which the fragment watcher calls during development. Page
// fragments are read from disk on every render so edits show up without a
// restart. The concatenated page is executed as an html/template, so every
// substituted value is HTML-escaped.
package renderer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/a-h/templ"

	apperrors "github.com/conneroisu/knygynas/internal/errors"
)

const fragmentExt = ".html"

// Renderer renders page fragments between the shared header and footer.
type Renderer struct {
	dir        string
	headerName string
	footerName string

	mu     sync.RWMutex
	header string
	footer string
}

// New loads the header and footer from dir. A missing file yields a
// template load error.
func New(dir, header, footer string) (*Renderer, error) {
	r := &Renderer{
		dir:        dir,
		headerName: header,
		footerName: footer,
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Dir returns the fragment directory.
func (r *Renderer) Dir() string { return r.dir }

// Reload re-reads the header and footer. On failure the previously loaded
// copies stay in use.
func (r *Renderer) Reload() error {
	header, err := r.readFile(r.headerName)
	if err != nil {
		return err
	}
	footer, err := r.readFile(r.footerName)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.header = header
	r.footer = footer
	r.mu.Unlock()

	return nil
}

// Render reads the named fragment and executes header+fragment+footer with
// data. The fragment name may omit the .html extension.
func (r *Renderer) Render(fragment string, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := r.render(&buf, fragment, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Component wraps a render as a templ component so handlers can stream it
// with Render(ctx, w).
func (r *Renderer) Component(fragment string, data map[string]any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return r.render(w, fragment, data)
	})
}

func (r *Renderer) render(w io.Writer, fragment string, data map[string]any) error {
	name := fragment
	if !strings.HasSuffix(name, fragmentExt) {
		name += fragmentExt
	}

	body, err := r.readFile(name)
	if err != nil {
		return err
	}

	r.mu.RLock()
	page := r.header + body + r.footer
	r.mu.RUnlock()

	tmpl, err := template.New(name).Parse(page)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeTemplate, apperrors.ErrCodeTemplateRender,
			"failed to parse page").WithFile(filepath.Join(r.dir, name))
	}

	// Execute into a buffer so a failing page never writes half a response.
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeTemplate, apperrors.ErrCodeTemplateRender,
			"failed to render page").WithFile(filepath.Join(r.dir, name))
	}

	_, err = buf.WriteTo(w)
	return err
}

func (r *Renderer) readFile(name string) (string, error) {
	if err := validateFragmentName(name); err != nil {
		return "", apperrors.NewTemplateLoadError(name, err)
	}

	path := filepath.Join(r.dir, name)
	content, err := os.ReadFile(path)
	if err != nil {
		return "", apperrors.NewTemplateLoadError(path, err)
	}
	return string(content), nil
}

// validateFragmentName keeps fragment lookups inside the fragment directory.
func validateFragmentName(name string) error {
	if name == "" {
		return fmt.Errorf("empty fragment name")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("fragment name %q must be a plain file name", name)
	}
	return nil
}
