package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("debug", "json", &buf)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	WithComponent(log, "publisher").WithField("program_id", "willard-tigers").Info("Published")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "publisher", line["component"])
	assert.Equal(t, "willard-tigers", line["program_id"])
	assert.Equal(t, "Published", line["msg"])
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("", "TEXT", &buf)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("loud", "json", &buf)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.Contains(t, buf.String(), "invalid_level")
}
