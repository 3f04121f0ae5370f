package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDataDirIsNonEmpty(t *testing.T) {
	dir := DataDir("quantvision")
	assert.NotEmpty(t, dir)
	assert.Contains(t, dir, "quantvision")
}

func TestLogDirIsNonEmpty(t *testing.T) {
	dir := LogDir("quantvision")
	assert.NotEmpty(t, dir)
}

func TestRuntimeDirIsNonEmpty(t *testing.T) {
	dir := RuntimeDir("quantvision")
	assert.NotEmpty(t, dir)
	assert.Contains(t, dir, "quantvision")
}

func TestOpenExternalRejectsNonHTTP(t *testing.T) {
	assert.Error(t, OpenExternal(""))
	assert.Error(t, OpenExternal("file:///etc/passwd"))
	assert.Error(t, OpenExternal("javascript:alert(1)"))
}
