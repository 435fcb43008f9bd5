package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var checkNow = time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "alerts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRun_BuiltIn(t *testing.T) {
	var out bytes.Buffer
	code := run(&out, "", clockwork.NewFakeClockAt(checkNow))

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "4 alert(s) loaded")
	assert.Contains(t, out.String(), "3 of 4 with coordinates")
	assert.Contains(t, out.String(), "OK")
}

func TestRun_ReportsProblems(t *testing.T) {
	path := writeSeed(t, `
alerts:
  - id: "1"
    title: "Road closed"
    description: "Main St"
    category: infrastructure
    severity: low
  - id: "1"
    title: "Duplicate"
    description: "Same id"
    category: safety
    severity: high
  - id: "2"
    title: "   "
    description: "No title"
    category: weather
    severity: medium
`)

	var out bytes.Buffer
	code := run(&out, path, clockwork.NewFakeClockAt(checkNow))

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "alert 2: missing required field: title")
	assert.Contains(t, out.String(), "1 alert(s) dropped for duplicate ids")
	assert.Contains(t, out.String(), "FAIL: 2 problem(s)")
}

func TestRun_InvalidFile(t *testing.T) {
	path := writeSeed(t, "alerts:\n  - id: \"1\"\n    category: volcano\n    severity: low\n")

	var out bytes.Buffer
	code := run(&out, path, clockwork.NewFakeClockAt(checkNow))

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), `invalid category "volcano"`)
}
