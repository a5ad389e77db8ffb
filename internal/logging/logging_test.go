package logging

import (
	"bufio"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)

	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()
	require.NoError(t, w.Close())

	scanner := bufio.NewScanner(r)
	var out strings.Builder
	for scanner.Scan() {
		out.WriteString(scanner.Text())
		out.WriteString("\n")
	}
	return out.String()
}

func TestCompactFormatIncludesComponentAndFields(t *testing.T) {
	out := captureStdout(t, func() {
		New("vyryd", "").Info("listening", "addr", "0.0.0.0:8000")
	})
	require.Contains(t, out, "[vyryd]")
	require.Contains(t, out, "listening")
	require.Contains(t, out, "addr=0.0.0.0:8000")
}

func TestJSONFormatEmitsStructuredLine(t *testing.T) {
	out := captureStdout(t, func() {
		New("vyryd", "json").Warn("consul registration failed", "error", "dial tcp: refused")
	})
	require.Contains(t, out, `"level":"WARN"`)
	require.Contains(t, out, `"component":"vyryd"`)
	require.Contains(t, out, `"error":"dial tcp: refused"`)
}
