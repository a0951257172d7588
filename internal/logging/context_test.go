package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestWithComponentTagsEntries(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: zerolog.DebugLevel, Format: "json", Output: &buf})

	ctx := WithContext(context.Background(), logger)
	ctx = WithComponent(ctx, "watch")

	FromContext(ctx).Info().Msg("detection")

	assert.Contains(t, buf.String(), `"component":"watch"`)
	assert.Contains(t, buf.String(), "detection")
}

func TestWithURLTagsEntries(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: zerolog.DebugLevel, Format: "json", Output: &buf})

	ctx := WithContext(context.Background(), logger)
	ctx = WithURL(ctx, "https://example.com/")

	FromContext(ctx).Info().Msg("visit")

	assert.Contains(t, buf.String(), `"url":"https://example.com/"`)
}

func TestFromContextWithoutLoggerIsDisabled(t *testing.T) {
	logger := FromContext(context.Background())
	// Must not panic; the fallback logger is a no-op.
	logger.Info().Msg("dropped")
}
