package call

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
)

func TestIsSupportedFile(t *testing.T) {
	require.True(t, isSupportedFile("/in/call.ogg"))
	require.True(t, isSupportedFile("/in/CALL.WAV"))
	require.True(t, isSupportedFile("/in/meeting.mkv"))
	require.False(t, isSupportedFile("/in/notes.txt"))
	require.False(t, isSupportedFile("/in/noext"))
}

func TestActionableEvent(t *testing.T) {
	tcs := []struct {
		name     string
		event    fsnotify.Event
		expected bool
	}{
		{
			name:     "created recording",
			event:    fsnotify.Event{Name: "/in/call.wav", Op: fsnotify.Create},
			expected: true,
		},
		{
			name:     "created unsupported file",
			event:    fsnotify.Event{Name: "/in/notes.txt", Op: fsnotify.Create},
			expected: false,
		},
		{
			// Rename fires for the old path of a file moved out of the
			// directory; the path no longer exists.
			name:     "renamed away",
			event:    fsnotify.Event{Name: "/in/call.wav", Op: fsnotify.Rename},
			expected: false,
		},
		{
			name:     "write to existing file",
			event:    fsnotify.Event{Name: "/in/call.wav", Op: fsnotify.Write},
			expected: false,
		},
		{
			name:     "removed",
			event:    fsnotify.Event{Name: "/in/call.wav", Op: fsnotify.Remove},
			expected: false,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, actionableEvent(tc.event))
		})
	}
}

func TestWaitForSettle(t *testing.T) {
	t.Run("stable file settles", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "call.wav")
		require.NoError(t, os.WriteFile(path, []byte("audio data"), 0600))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, waitForSettle(ctx, path))
	})

	t.Run("stable empty file settles", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.wav")
		require.NoError(t, os.WriteFile(path, nil, 0600))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, waitForSettle(ctx, path))
	})

	t.Run("missing file errors", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := waitForSettle(ctx, filepath.Join(t.TempDir(), "nope.wav"))
		require.ErrorContains(t, err, "failed to stat file")
	})

	t.Run("canceled context", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "call.wav")
		require.NoError(t, os.WriteFile(path, []byte("audio data"), 0600))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.ErrorIs(t, waitForSettle(ctx, path), context.Canceled)
	})
}
