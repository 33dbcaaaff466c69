package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExhaustionPolicy(t *testing.T) {
	p, err := ParseExhaustionPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ExhaustFail, p)

	p, err = ParseExhaustionPolicy(" Degrade ")
	require.NoError(t, err)
	assert.Equal(t, ExhaustDegrade, p)

	_, err = ParseExhaustionPolicy("retry-forever")
	require.Error(t, err)
}
