package logger

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, parseLevel("Debug"))
	assert.Equal(t, logrus.WarnLevel, parseLevel("warning"))
	assert.Equal(t, logrus.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, logrus.ErrorLevel, parseLevel("error"))
	assert.Equal(t, logrus.InfoLevel, parseLevel(""))
	assert.Equal(t, logrus.InfoLevel, parseLevel("verbose"))
}

func TestInitSetsLevel(t *testing.T) {
	t.Cleanup(func() { Init(Config{}) })

	Init(Config{Level: "debug", File: filepath.Join(t.TempDir(), "proxy.log")})
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())

	Init(Config{})
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
}
