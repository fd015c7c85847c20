package rt_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/oscfx/internal/rt"
)

func TestLockMemory(t *testing.T) {
	err := rt.LockMemory()
	if errors.Is(err, rt.ErrUnsupported) {
		t.Skip(err)
	}
	if err != nil {
		// unprivileged processes may have no memlock quota.
		t.Skipf("memory lock is not permitted: %v", err)
	}
	assert.NoError(t, rt.UnlockMemory())
}
