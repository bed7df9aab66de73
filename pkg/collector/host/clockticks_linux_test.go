//go:build linux

package host

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemClockTicks(t *testing.T) {
	orig := clockTicks
	t.Cleanup(func() { clockTicks = orig })

	clockTicks = func() (int64, error) { return 250, nil }
	assert.Equal(t, uint64(250), systemClockTicks())

	clockTicks = func() (int64, error) { return 0, errors.New("unsupported") }
	assert.Equal(t, uint64(UserHZ), systemClockTicks())

	clockTicks = func() (int64, error) { return -1, nil }
	assert.Equal(t, uint64(UserHZ), systemClockTicks())
}
