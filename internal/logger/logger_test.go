package logger

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booklookup/internal/config"
)

func TestFor_AttachesRequestID(t *testing.T) {
	ctx := ContextWithID(context.Background(), "abc")
	assert.Equal(t, "abc", For(ctx).Data["request_id"])
	assert.Empty(t, For(context.Background()).Data)
}

func TestNewRequest_UniqueIDs(t *testing.T) {
	a := RequestID(NewRequest(context.Background()))
	b := RequestID(NewRequest(context.Background()))
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
	assert.Empty(t, RequestID(context.Background()))
}

func TestTrack_LogsCompletion(t *testing.T) {
	var buf bytes.Buffer
	std := logrus.StandardLogger()
	prevOut, prevLvl := std.Out, std.GetLevel()
	t.Cleanup(func() {
		std.SetOutput(prevOut)
		std.SetLevel(prevLvl)
	})
	std.SetOutput(&buf)
	std.SetLevel(logrus.DebugLevel)

	Track(ContextWithID(context.Background(), "req-1"), "search")()
	assert.Contains(t, buf.String(), "search completed")
	assert.Contains(t, buf.String(), "req-1")
}

func TestSetup(t *testing.T) {
	std := logrus.StandardLogger()
	prevOut, prevLvl, prevFmt := std.Out, std.GetLevel(), std.Formatter
	t.Cleanup(func() {
		std.SetOutput(prevOut)
		std.SetLevel(prevLvl)
		std.SetFormatter(prevFmt)
	})

	_, err := Setup(config.LogConfig{Level: "nope"})
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "booklookup.log")
	c, err := Setup(config.LogConfig{Level: "info", Path: path, JSON: true})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, std.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, std.Formatter)
	require.NoError(t, c.Close())
}
