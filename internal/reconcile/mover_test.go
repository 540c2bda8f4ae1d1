package reconcile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"romorganizer/internal/fsmove/mocks"
)

// TestRebuildPropagatesMoverFailure exercises the Mover seam with a mock
// rather than the real filesystem: when the underlying move of a matched
// staged file fails, Rebuild must surface that error rather than silently
// dropping the file or reporting a successful absorption.
func TestRebuildPropagatesMoverFailure(t *testing.T) {
	paths := newTestPaths(t)
	writeFile(t, filepath.Join(paths.StagingDir, "a.bin"), payloadA)

	mover := new(mocks.Mover)
	boom := errors.New("boom")
	dst := filepath.Join(paths.ScratchDir, "Game A", "a.bin")
	mover.On("Move", mock.Anything, dst).Return(boom)

	r := New(mover, zap.NewNop(), func() bool { return true }, 6)
	_, err := r.Rebuild(paths, true)

	require.ErrorIs(t, err, boom)
	mover.AssertExpectations(t)

	_, statErr := os.Stat(filepath.Join(paths.RomsetDir, "Game A.zip"))
	require.True(t, os.IsNotExist(statErr), "no archive should be written when the absorbing move fails")
}
