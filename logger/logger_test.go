package logger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/driftdata/drift/logger"
	"github.com/stretchr/testify/assert"
)

func TestStandardLogger(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewStandardLogger(&buf)

	l.Infof("visible %d", 1)
	l.Debugf("hidden %d", 2)
	l.Errorf("visible %d", 3)

	out := buf.String()
	assert.Contains(t, out, "INFO:  visible 1")
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "ERROR: visible 3")
}

func TestVerboseLogger(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewVerboseLogger(&buf)

	l.Debugf("now visible")
	assert.Contains(t, buf.String(), "DEBUG: now visible")
}

func TestBufferLogger(t *testing.T) {
	l := logger.NewBufferLogger()
	l.Warnf("buffered %s", "message")

	b, err := l.ReadAll()
	assert.NoError(t, err)
	assert.True(t, strings.Contains(string(b), "buffered message"))
}
