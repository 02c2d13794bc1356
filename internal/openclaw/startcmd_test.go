package openclaw

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/clawhost/internal/model"
)

func TestBuildStartCommand(t *testing.T) {
	cmd := BuildStartCommand("openclaw")

	steps := strings.Split(cmd, " && ")
	require.Len(t, steps, 6)
	assert.Equal(t, "mkdir -p /tmp/.openclaw", steps[0])
	assert.Contains(t, steps[1], "$OPENCLAW_CONFIG")
	assert.Contains(t, steps[2], "base64 -d")
	assert.Equal(t, "node /tmp/pairing-server.js &", steps[3])
	assert.Equal(t, "sleep 1", steps[4])
	assert.Equal(t, "exec openclaw --config /tmp/.openclaw/openclaw.json", steps[5])
}

func TestBuildStartCommand_DefaultGatewayCmd(t *testing.T) {
	cmd := BuildStartCommand("")
	assert.Contains(t, cmd, "exec openclaw --config")
}

func TestSidecarScriptB64_DecodesToScript(t *testing.T) {
	raw, err := base64.StdEncoding.DecodeString(SidecarScriptB64())
	require.NoError(t, err)

	script := string(raw)
	assert.Contains(t, script, "/pairing/approve")
	assert.Contains(t, script, "/pairing/list/")
	assert.Contains(t, script, "18800")
}

func TestValidateEnv(t *testing.T) {
	cfg := &model.UserConfiguration{
		Provider: model.ProviderAnthropic,
		APIKey:   "k",
		Channels: []model.ChannelEntry{
			{Type: model.ChannelTelegram, Config: map[string]any{"botToken": "x"}},
		},
	}

	valid := map[string]string{
		EnvConfig:            `{"gateway":{"port":18789}}`,
		"ANTHROPIC_API_KEY":  "k",
		"TELEGRAM_BOT_TOKEN": "x",
	}
	assert.NoError(t, ValidateEnv(cfg, valid))

	missingConfig := map[string]string{
		"ANTHROPIC_API_KEY":  "k",
		"TELEGRAM_BOT_TOKEN": "x",
	}
	err := ValidateEnv(cfg, missingConfig)
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvConfig)

	missingToken := map[string]string{
		EnvConfig:           `{"gateway":{"port":18789}}`,
		"ANTHROPIC_API_KEY": "k",
	}
	err = ValidateEnv(cfg, missingToken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")
}
