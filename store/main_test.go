package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"nyiyui.ca/hato/railroad/tal/layout/preset"
)

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	s, err := Open(path)
	require.NoError(t, err)

	initial := preset.Initial()
	require.NoError(t, s.Save("initial", initial))
	require.NoError(t, s.Save("loop", preset.PassingLoop()))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	names, err := s.List()
	require.NoError(t, err)
	require.Equal(t, []string{"initial", "loop"}, names)

	got, err := s.Load("initial")
	require.NoError(t, err)
	require.Equal(t, initial.SwitchState, got.SwitchState)
	require.Equal(t, initial.Trains, got.Trains)
	require.Equal(t, len(initial.Layout.Graph.Edges()), len(got.Layout.Graph.Edges()))

	require.NoError(t, s.Delete("loop"))
	_, err = s.Load("loop")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, s.Delete("loop"), ErrNotFound)
}

func TestSaveRawRejects(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.Error(t, s.SaveRaw("broken", []byte(`{"layout":{}}`)))
	require.ErrorIs(t, s.SaveRaw("bad:name", []byte(`{}`)), ErrInvalidName)
	require.ErrorIs(t, s.Save("", preset.Initial()), ErrInvalidName)

	names, err := s.List()
	require.NoError(t, err)
	require.Empty(t, names)
}
