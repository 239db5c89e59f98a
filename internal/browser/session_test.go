package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSnapshot(t *testing.T) {
	snap := formatSnapshot("https://vendor.example.com/login.do", "Sign In",
		"Welcome back.\n\n  Please   enter your credentials.")

	assert.Contains(t, snap, "url=https://vendor.example.com/login.do")
	assert.Contains(t, snap, `title="Sign In"`)
	// Whitespace runs collapse so the one-liner stays a one-liner.
	assert.Contains(t, snap, `text="Welcome back. Please enter your credentials."`)
}

func TestFormatSnapshot_CapsPreview(t *testing.T) {
	long := strings.Repeat("x", 2*snapshotPreviewLen)
	snap := formatSnapshot("https://vendor.example.com", "Loading", long)

	assert.Contains(t, snap, strings.Repeat("x", snapshotPreviewLen))
	assert.NotContains(t, snap, strings.Repeat("x", snapshotPreviewLen+1))
}
