package problem

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	p := &List{}
	assert.True(t, p.Empty())
	assert.NoError(t, p.Err())

	cause := errors.New("cause")
	p.Add("target %s is %s", "i-1", "unhealthy").Add("wrapped: %w", cause)

	assert.False(t, p.Empty())
	require.Len(t, p.Errors(), 2)
	assert.EqualError(t, p.Errors()[0], "target i-1 is unhealthy")

	err := p.Err()
	assert.ErrorIs(t, err, cause)
	assert.EqualError(t, err, "target i-1 is unhealthy\nwrapped: cause")
}
