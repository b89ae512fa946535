package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)

	l.Debugf("should not appear")
	l.Infof("should not appear either")
	l.Warnf("a warning %d", 1)
	l.Errorf("an error %d", 2)

	out := buf.String()
	require.NotContains(t, out, "should not appear")
	require.Contains(t, out, "WARN a warning 1")
	require.Contains(t, out, "ERROR an error 2")
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelError)
	l.Infof("hidden")
	require.Empty(t, buf.String())

	l.SetLevel(LevelInfo)
	l.Infof("visible")
	require.True(t, strings.Contains(buf.String(), "visible"))
}
