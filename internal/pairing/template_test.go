package pairing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	out, err := renderTemplate("railway ssh --service {{service_id}} -- {{command}}", map[string]string{
		"service_id": "svc-1",
		"command":    "openclaw pairing approve telegram ABC123",
	})
	require.NoError(t, err)
	assert.Equal(t, "railway ssh --service 'svc-1' -- 'openclaw pairing approve telegram ABC123'", out)
}

func TestRenderTemplate_UnknownPlaceholder(t *testing.T) {
	_, err := renderTemplate("run {{nope}}", map[string]string{"command": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestRenderTemplate_QuotesHostileValues(t *testing.T) {
	out, err := renderTemplate("exec {{code}}", map[string]string{
		"code": "'; rm -rf / #",
	})
	require.NoError(t, err)
	// The single quotes must be escaped so the value stays one shell word.
	assert.Equal(t, `exec ''\''; rm -rf / #'`, out)
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "'plain'", shellQuote("plain"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
	assert.Equal(t, "''", shellQuote(""))
}
