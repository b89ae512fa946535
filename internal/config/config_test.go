package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	require.False(t, c.Verbose)
	require.False(t, c.Foreground)
	require.False(t, c.SingleThreaded)
	require.False(t, c.ReadOnly)
}
