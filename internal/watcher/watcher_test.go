package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestFilters(t *testing.T) {
	assert.True(t, HTMLFilter("web/html/top.html"))
	assert.False(t, HTMLFilter("web/html/notes.txt"))

	assert.True(t, NoEditorTempFilter("web/html/top.html"))
	assert.False(t, NoEditorTempFilter("web/html/.top.html.swx"))
	assert.False(t, NoEditorTempFilter("web/html/top.html~"))
	assert.False(t, NoEditorTempFilter("web/html/top.html.swp"))
}

func TestDebouncerCollapsesPerPath(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	d.Add(ChangeEvent{Type: EventTypeCreated, Path: "b.html"})
	d.Add(ChangeEvent{Type: EventTypeModified, Path: "a.html"})
	d.Add(ChangeEvent{Type: EventTypeModified, Path: "b.html"})

	select {
	case events := <-d.Output():
		require.Len(t, events, 2)
		assert.Equal(t, "a.html", events[0].Path)
		assert.Equal(t, "b.html", events[1].Path)
		assert.Equal(t, EventTypeModified, events[1].Type)
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer did not flush")
	}
}

func TestDebouncerKeepsBatchWhileConsumerIsBehind(t *testing.T) {
	d := &Debouncer{delay: 10 * time.Millisecond, output: make(chan []ChangeEvent, 1)}
	defer d.Stop()

	d.Add(ChangeEvent{Type: EventTypeModified, Path: "a.html"})
	require.Eventually(t, func() bool { return len(d.output) == 1 }, 2*time.Second, 5*time.Millisecond)

	// The channel is full, so this batch has to wait for the reader.
	d.Add(ChangeEvent{Type: EventTypeModified, Path: "b.html"})
	time.Sleep(50 * time.Millisecond)

	first := <-d.Output()
	require.Len(t, first, 1)
	assert.Equal(t, "a.html", first[0].Path)

	select {
	case second := <-d.Output():
		require.Len(t, second, 1)
		assert.Equal(t, "b.html", second[0].Path)
	case <-time.After(2 * time.Second):
		t.Fatal("held batch was never delivered")
	}
}

func TestDebouncerStopDropsPending(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	d.Add(ChangeEvent{Path: "a.html"})
	d.Stop()
	d.Add(ChangeEvent{Path: "b.html"})

	select {
	case events := <-d.Output():
		t.Fatalf("unexpected flush: %v", events)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestAddPathRejectsFiles(t *testing.T) {
	fw, err := NewFileWatcher(10*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Close()

	dir := t.TempDir()
	file := filepath.Join(dir, "top.html")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	assert.Error(t, fw.AddPath(file))
	assert.Error(t, fw.AddPath(filepath.Join(dir, "missing")))
	assert.NoError(t, fw.AddPath(dir))
}

func TestRunDeliversFilteredChanges(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	fw, err := NewFileWatcher(20*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, fw.AddPath(dir))
	fw.AddFilter(HTMLFilter)
	fw.AddFilter(NoEditorTempFilter)

	batches := make(chan []ChangeEvent, 10)
	fw.AddHandler(func(_ context.Context, events []ChangeEvent) error {
		batches <- events
		return nil
	})
	fw.AddHandler(func(context.Context, []ChangeEvent) error {
		return errors.New("handler errors are logged, not fatal")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fw.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "top.html"), []byte("<h1></h1>"), 0644))

	select {
	case events := <-batches:
		require.NotEmpty(t, events)
		for _, e := range events {
			assert.Equal(t, "top.html", filepath.Base(e.Path))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
