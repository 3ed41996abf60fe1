package audit

import (
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAllMissingFile(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "blackbox.log"))
	_, ok := l.ReadAll()
	assert.False(t, ok)
}

func TestClearThenReadAllEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blackbox.log")
	l := New(path)
	l.RecordCritical("Sentinel-RT", "CRITICAL FAULT DETECTED")

	l.Clear()

	content, ok := l.ReadAll()
	require.False(t, ok)
	assert.Empty(t, content)
}

func TestRecordCriticalFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blackbox.log")
	l := New(path)
	l.RecordCritical("Sentinel-RT", "CRITICAL FAULT DETECTED")

	content, ok := l.ReadAll()
	require.True(t, ok)

	want := regexp.MustCompile(`\[.+\] CRITICAL ALERT \| Unit: Sentinel-RT \| CRITICAL FAULT DETECTED\n`)
	assert.Regexp(t, want, content)
}

func TestRecordCriticalAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blackbox.log")
	l := New(path)
	l.RecordCritical("Sentinel-RT", "CRITICAL FAULT DETECTED")
	l.RecordCritical("Sentinel-RT", "CRITICAL FAULT DETECTED")

	content, ok := l.ReadAll()
	require.True(t, ok)

	lines := regexp.MustCompile(`CRITICAL ALERT`).FindAllString(content, -1)
	assert.Len(t, lines, 2)
}
