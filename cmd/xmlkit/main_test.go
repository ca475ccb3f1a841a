package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.xml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFormatFromFile(t *testing.T) {
	path := writeTempFile(t, "<root><a>1</a></root>")
	out, err := run(t, "format", path)
	require.NoError(t, err)
	require.Contains(t, out, "<root>")
	require.Contains(t, out, "<a>1</a>")
}

func TestValidateRejectsMalformed(t *testing.T) {
	path := writeTempFile(t, "<root><a></root>")
	_, err := run(t, "validate", path)
	require.Error(t, err)
}

func TestValidateAcceptsWellFormed(t *testing.T) {
	path := writeTempFile(t, "<root><a/></root>")
	out, err := run(t, "validate", path)
	require.NoError(t, err)
	require.Contains(t, out, "valid")
}

func TestQuerySelectsElements(t *testing.T) {
	path := writeTempFile(t, "<library><book><title>Go</title></book></library>")
	out, err := run(t, "query", "/library/book/title", path)
	require.NoError(t, err)
	require.Contains(t, out, "<title>Go</title>")
}

func TestQueryScalarResult(t *testing.T) {
	path := writeTempFile(t, "<library><book/><book/></library>")
	out, err := run(t, "query", "count(/library/book)", path)
	require.NoError(t, err)
	require.Equal(t, "2", strings.TrimSpace(out))
}
