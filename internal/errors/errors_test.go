package errors

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorError(t *testing.T) {
	t.Run("code and message", func(t *testing.T) {
		err := NewNotFoundError(ErrCodeBookNotFound, "book not found")
		assert.Equal(t, "[ERR_BOOK_NOT_FOUND] book not found", err.Error())
	})

	t.Run("file and cause", func(t *testing.T) {
		cause := errors.New("unexpected end of JSON input")
		err := NewStorageCorruptionError("data/books.json", cause)

		assert.Contains(t, err.Error(), "[ERR_STORAGE_CORRUPT]")
		assert.Contains(t, err.Error(), "data/books.json")
		assert.Contains(t, err.Error(), "unexpected end of JSON input")
	})
}

func TestAppErrorUnwrap(t *testing.T) {
	err := NewTemplateLoadError("web/html/show.html", os.ErrNotExist)

	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, os.ErrNotExist, err.Unwrap())
}

func TestAppErrorIs(t *testing.T) {
	a := NewNotFoundError(ErrCodeBookNotFound, "first")
	b := NewNotFoundError(ErrCodeBookNotFound, "second")
	c := NewNotFoundError(ErrCodeSessionNotFound, "third")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		notFound  bool
		valid     bool
		corrupt   bool
		storage   bool
		template  bool
		recovered bool
	}{
		{"not found", NewNotFoundError(ErrCodeBookNotFound, "x"), true, false, false, false, false, true},
		{"validation", NewValidationError(ErrCodeValidationFailed, "x"), false, true, false, false, false, true},
		{"corrupt", NewStorageCorruptionError("f", nil), false, false, true, true, false, false},
		{"write", NewStorageWriteError("f", nil), false, false, false, true, false, false},
		{"template", NewTemplateLoadError("f", nil), false, false, false, false, true, false},
		{"plain", errors.New("x"), false, false, false, false, false, false},
		{"wrapped", fmt.Errorf("ctx: %w", NewNotFoundError(ErrCodeBookNotFound, "x")), true, false, false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
			assert.Equal(t, tt.valid, IsValidation(tt.err))
			assert.Equal(t, tt.corrupt, IsStorageCorruption(tt.err))
			assert.Equal(t, tt.storage, IsStorage(tt.err))
			assert.Equal(t, tt.template, IsTemplateLoad(tt.err))
			assert.Equal(t, tt.recovered, IsRecoverable(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, ErrorTypeInternal, ErrCodeInternalError, "x"))
	})

	t.Run("plain error", func(t *testing.T) {
		cause := errors.New("disk full")
		err := WrapStorage(cause, ErrCodeStorageWrite, "save failed")

		require.NotNil(t, err)
		assert.Equal(t, ErrorTypeStorage, err.Type)
		assert.False(t, err.Recoverable)
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("keeps file of wrapped app error", func(t *testing.T) {
		inner := NewStorageCorruptionError("data/session.json", nil)
		err := WrapInternal(inner, "session lookup failed")

		assert.Equal(t, "data/session.json", err.FilePath)
		assert.True(t, IsStorageCorruption(err))
	})
}

func TestCombine(t *testing.T) {
	assert.NoError(t, Combine(nil, nil))

	single := errors.New("one")
	assert.Equal(t, single, Combine(nil, single))

	err := Combine(errors.New("one"), errors.New("two"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple errors")
}

func TestFieldValidationError(t *testing.T) {
	fve := &FieldValidationError{Fields: []string{"title", "isbn"}}

	assert.Equal(t, "validation failed: missing title, isbn", fve.Error())

	appErr := fve.ToAppError()
	assert.True(t, IsValidation(appErr))
	assert.Equal(t, []string{"title", "isbn"}, appErr.Context["fields"])
}

type recordingLogger struct {
	errors []string
	warns  []string
}

func (l *recordingLogger) Error(_ context.Context, _ error, msg string, _ ...interface{}) {
	l.errors = append(l.errors, msg)
}

func (l *recordingLogger) Warn(_ context.Context, _ error, msg string, _ ...interface{}) {
	l.warns = append(l.warns, msg)
}

func TestErrorHandler(t *testing.T) {
	logger := &recordingLogger{}
	handler := NewErrorHandler(logger)
	ctx := context.Background()

	handler.Handle(ctx, nil)
	handler.Handle(ctx, NewNotFoundError(ErrCodeBookNotFound, "x"))
	handler.Handle(ctx, NewStorageCorruptionError("f", nil))
	handler.Handle(ctx, errors.New("boom"))

	assert.Equal(t, []string{"Request rejected"}, logger.warns)
	assert.Equal(t, []string{"File access failed", "Unhandled error occurred"}, logger.errors)
}

func TestServerStartSuggestions(t *testing.T) {
	busy := ServerStartError(errors.New("listen tcp :80: bind: address already in use"), 80)
	require.Len(t, busy, 2)
	assert.Equal(t, "knygynas serve --port 1080", busy[1].Command)

	denied := ServerStartError(errors.New("listen tcp :80: permission denied"), 80)
	require.Len(t, denied, 2)
	assert.Equal(t, "Use unprivileged port", denied[1].Title)

	assert.Empty(t, ServerStartError(errors.New("boom"), 8080))
}

func TestStorageOpenSuggestions(t *testing.T) {
	plain := StorageOpenError(errors.New("permission denied"), "file", "data/books.json")
	corrupt := StorageOpenError(NewStorageCorruptionError("data/books.json", errors.New("bad json")), "file", "data/books.json")

	assert.Len(t, plain, 2)
	require.Len(t, corrupt, 3)
	assert.Equal(t, "Repair the data file", corrupt[1].Title)
}

func TestEnhancedError(t *testing.T) {
	cause := errors.New("open web/html/top.html: no such file or directory")
	err := NewEnhancedError("Failed to load fragments", cause, FragmentLoadError("web/html"))

	assert.ErrorIs(t, err, cause)
	msg := err.Error()
	assert.Contains(t, msg, "Failed to load fragments: open web/html/top.html")
	assert.Contains(t, msg, "Suggestions:\n  1. Check the fragment directory\n")
	assert.Contains(t, msg, "     Run: ls web/html\n")

	assert.Equal(t, "title", FormatSuggestions("title", nil))
}

func TestErrorHandlerRoutesByRecoverability(t *testing.T) {
	logger := &recordingLogger{}
	handler := NewErrorHandler(logger)
	ctx := context.Background()

	handler.Handle(ctx, Wrap(NewValidationError(ErrCodeValidationFailed, "empty title"), ErrorTypeInternal, "ERR_X", "outer"))
	handler.Handle(ctx, NewConfigError(ErrCodeConfigInvalid, "invalid configuration", errors.New("port")))
	handler.Handle(ctx, NewInternalError(ErrCodeInternalError, "building message catalog", errors.New("x")))

	assert.Equal(t, []string{"Request rejected"}, logger.warns)
	assert.Equal(t, []string{"Error occurred", "Error occurred"}, logger.errors)
}

func TestConfigError(t *testing.T) {
	cause := errors.New("server config: port 70000 is not in valid range 0-65535")
	err := NewConfigError(ErrCodeConfigInvalid, "invalid configuration", cause)

	assert.True(t, IsConfig(err))
	assert.False(t, IsStorage(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "[ERR_CONFIG_INVALID] invalid configuration: "+cause.Error(), err.Error())
	assert.False(t, IsRecoverable(err))
}
