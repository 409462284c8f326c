package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodesAreDistinct(t *testing.T) {
	t.Parallel()

	seen := make(map[int]Kind)
	for kind := Unknown; kind <= PlanError; kind++ {
		code := ExitCode(New(kind, "op", nil))
		if other, dup := seen[code]; dup {
			t.Fatalf("kinds %v and %v share exit code %d", other, kind, code)
		}
		seen[code] = kind
	}
	assert.Equal(t, 0, ExitCode(nil))
}

func TestKindOfWrapped(t *testing.T) {
	t.Parallel()

	base := WithPath(DiskWriteError, "store", "/tmp/x", errors.New("no space"))
	wrapped := fmt.Errorf("update: %w", base)

	assert.Equal(t, DiskWriteError, KindOf(wrapped))
	assert.True(t, Is(wrapped, DiskWriteError))
	assert.False(t, Is(wrapped, NetworkError))
	assert.Equal(t, 16, ExitCode(wrapped))
	assert.Contains(t, wrapped.Error(), "/tmp/x")
	assert.Equal(t, Unknown, KindOf(errors.New("plain")))
	assert.Equal(t, 1, ExitCode(errors.New("plain")))
}

func TestExitCodeInterrupted(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ExitInterrupted, ExitCode(context.Canceled))
	assert.Equal(t, ExitInterrupted, ExitCode(fmt.Errorf("detect: %w", context.Canceled)))
	assert.Equal(t, ExitInterrupted, ExitCode(New(NetworkError, "download", context.Canceled)))
	assert.Equal(t, 13, ExitCode(New(NetworkError, "download", context.DeadlineExceeded)))
}
