package openclaw

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/clawhost/internal/model"
)

func TestGenerateConfig_TelegramScenario(t *testing.T) {
	cfg := &model.UserConfiguration{
		Provider: model.ProviderAnthropic,
		APIKey:   "sk-ant-secret",
		Channels: []model.ChannelEntry{
			{Type: model.ChannelTelegram, Config: map[string]any{
				"botToken":  "12345:abcdef",
				"allowlist": "111, 222",
			}},
		},
	}

	doc := GenerateConfig(cfg, "gw-token")

	require.Contains(t, doc.Channels, "telegram")
	tg := doc.Channels["telegram"].(TelegramChannel)
	assert.True(t, tg.Enabled)
	assert.Equal(t, []string{"111", "222"}, tg.AllowFrom)
	assert.Equal(t, "pairing", tg.DMPolicy)

	assert.Equal(t, "gw-token", doc.Gateway.Auth.Token)
	assert.Equal(t, GatewayPort, doc.Gateway.Port)
	assert.Equal(t, "anthropic/claude-opus-4-5", doc.Agents.Defaults.Model.Primary)
}

func TestGenerateConfig_SecretsNeverInDocument(t *testing.T) {
	cfg := &model.UserConfiguration{
		Provider:         model.ProviderOpenAI,
		APIKey:           "sk-oai-secret",
		BraveAPIKey:      "brave-secret",
		TTSEnabled:       true,
		ElevenLabsAPIKey: "eleven-secret",
		Channels: []model.ChannelEntry{
			{Type: model.ChannelTelegram, Config: map[string]any{"botToken": "tg-secret"}},
			{Type: model.ChannelDiscord, Config: map[string]any{"token": "dc-secret", "applicationId": "app-1"}},
			{Type: model.ChannelSlack, Config: map[string]any{"botToken": "xoxb-secret", "appToken": "xapp-secret"}},
			{Type: model.ChannelMatrix, Config: map[string]any{"accessToken": "mx-secret", "homeserverUrl": "https://matrix.org"}},
		},
	}

	doc := GenerateConfig(cfg, "gw-token")
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	for _, secret := range []string{"sk-oai-secret", "brave-secret", "eleven-secret", "tg-secret", "dc-secret", "xoxb-secret", "xapp-secret", "mx-secret"} {
		assert.NotContains(t, string(raw), secret)
	}

	// Every secret must instead be present in the env map.
	env := BuildSecrets(cfg)
	assert.Equal(t, "sk-oai-secret", env["OPENAI_API_KEY"])
	assert.Equal(t, "tg-secret", env["TELEGRAM_BOT_TOKEN"])
	assert.Equal(t, "dc-secret", env["DISCORD_TOKEN"])
	assert.Equal(t, "app-1", env["DISCORD_APPLICATION_ID"])
	assert.Equal(t, "xoxb-secret", env["SLACK_BOT_TOKEN"])
	assert.Equal(t, "xapp-secret", env["SLACK_APP_TOKEN"])
	assert.Equal(t, "mx-secret", env["MATRIX_ACCESS_TOKEN"])
	assert.Equal(t, "brave-secret", env["BRAVE_API_KEY"])
	assert.Equal(t, "eleven-secret", env["ELEVENLABS_API_KEY"])
}

func TestGenerateConfig_ChannelFanOut(t *testing.T) {
	cfg := &model.UserConfiguration{
		Provider: model.ProviderAnthropic,
		APIKey:   "sk-ant-secret",
		Channels: []model.ChannelEntry{
			{Type: model.ChannelWhatsApp, Config: map[string]any{}},
			{Type: model.ChannelTelegram, Config: map[string]any{"botToken": "x"}},
			{Type: model.ChannelDiscord, Config: map[string]any{"guilds": "g1,g2"}},
			{Type: model.ChannelSlack, Config: map[string]any{}},
			{Type: model.ChannelSignal, Config: map[string]any{"phoneNumber": "+123"}},
			{Type: model.ChannelGoogleChat, Config: map[string]any{}},
			{Type: model.ChannelMatrix, Config: map[string]any{"homeserverUrl": "https://hs", "userId": "@bot:hs"}},
		},
	}

	doc := GenerateConfig(cfg, "gw-token")
	assert.Len(t, doc.Channels, 7)

	dc := doc.Channels["discord"].(DiscordChannel)
	require.NotNil(t, dc.Guilds)
	assert.Contains(t, dc.Guilds, "g1")
	assert.Contains(t, dc.Guilds, "g2")

	sig := doc.Channels["signal"].(SignalChannel)
	assert.Equal(t, "+123", sig.PhoneNumber)

	mx := doc.Channels["matrix"].(MatrixChannel)
	assert.Equal(t, "https://hs", mx.HomeserverURL)
	assert.Equal(t, "@bot:hs", mx.UserID)
}

func TestGenerateConfig_UnsupportedChannelDropped(t *testing.T) {
	cfg := &model.UserConfiguration{
		Provider: model.ProviderAnthropic,
		APIKey:   "sk-ant-secret",
		Channels: []model.ChannelEntry{
			{Type: "IRC", Config: map[string]any{}},
			{Type: model.ChannelTelegram, Config: map[string]any{"botToken": "x"}},
		},
	}

	doc := GenerateConfig(cfg, "gw-token")
	assert.Len(t, doc.Channels, 1)
	assert.Contains(t, doc.Channels, "telegram")
}

func TestGenerateConfig_DMPolicyOverrides(t *testing.T) {
	channelLevel := &model.UserConfiguration{
		Provider: model.ProviderAnthropic,
		APIKey:   "k",
		DMPolicy: "open",
		Channels: []model.ChannelEntry{
			{Type: model.ChannelTelegram, Config: map[string]any{"dmPolicy": "closed"}},
		},
	}
	doc := GenerateConfig(channelLevel, "t")
	assert.Equal(t, "closed", doc.Channels["telegram"].(TelegramChannel).DMPolicy)

	globalLevel := &model.UserConfiguration{
		Provider: model.ProviderAnthropic,
		APIKey:   "k",
		DMPolicy: "open",
		Channels: []model.ChannelEntry{
			{Type: model.ChannelTelegram, Config: map[string]any{}},
		},
	}
	doc = GenerateConfig(globalLevel, "t")
	assert.Equal(t, "open", doc.Channels["telegram"].(TelegramChannel).DMPolicy)

	defaulted := &model.UserConfiguration{
		Provider: model.ProviderAnthropic,
		APIKey:   "k",
		Channels: []model.ChannelEntry{
			{Type: model.ChannelTelegram, Config: map[string]any{}},
		},
	}
	doc = GenerateConfig(defaulted, "t")
	assert.Equal(t, "pairing", doc.Channels["telegram"].(TelegramChannel).DMPolicy)
}

func TestGenerateConfig_ModelDefaults(t *testing.T) {
	anthropic := &model.UserConfiguration{Provider: model.ProviderAnthropic, APIKey: "k"}
	assert.Equal(t, "anthropic/claude-opus-4-5", GenerateConfig(anthropic, "t").Agents.Defaults.Model.Primary)

	openai := &model.UserConfiguration{Provider: model.ProviderOpenAI, APIKey: "k"}
	assert.Equal(t, "openai/gpt-5.2", GenerateConfig(openai, "t").Agents.Defaults.Model.Primary)

	explicit := &model.UserConfiguration{Provider: model.ProviderAnthropic, APIKey: "k", Model: "anthropic/claude-haiku-4-5"}
	assert.Equal(t, "anthropic/claude-haiku-4-5", GenerateConfig(explicit, "t").Agents.Defaults.Model.Primary)
}

func TestGenerateConfig_FeatureToggles(t *testing.T) {
	cfg := &model.UserConfiguration{
		Provider:         model.ProviderAnthropic,
		APIKey:           "k",
		WebSearchEnabled: true,
		BrowserEnabled:   true,
		CronEnabled:      true,
		TTSEnabled:       true,
		ElevenLabsAPIKey: "el-key",
	}

	doc := GenerateConfig(cfg, "t")
	assert.True(t, doc.Tools.Web.Search.Enabled)
	require.NotNil(t, doc.Browser)
	assert.True(t, doc.Browser.Enabled)
	require.NotNil(t, doc.Cron)
	assert.True(t, doc.Cron.Enabled)
	require.NotNil(t, doc.TTS)
	assert.Equal(t, "elevenlabs", doc.TTS.Provider)
	assert.Nil(t, doc.Canvas)
	assert.Nil(t, doc.Memory)
}

func TestGenerateConfig_TTSRequiresKey(t *testing.T) {
	cfg := &model.UserConfiguration{
		Provider:   model.ProviderAnthropic,
		APIKey:     "k",
		TTSEnabled: true,
	}
	assert.Nil(t, GenerateConfig(cfg, "t").TTS)
}

func TestNormalizeAllowlist(t *testing.T) {
	assert.Equal(t, []string{}, normalizeAllowlist(nil))
	assert.Equal(t, []string{"a", "b"}, normalizeAllowlist("a, b"))
	assert.Equal(t, []string{"a", "b"}, normalizeAllowlist([]any{"a", "", "b"}))
	assert.Equal(t, []string{"a"}, normalizeAllowlist([]string{"a", ""}))
	// Whatever the input shape, the result is never nil: the gateway treats
	// a missing allowlist differently from an empty one.
	assert.NotNil(t, normalizeAllowlist(42))
}

func TestBuildSecrets_SkipsBlankTokens(t *testing.T) {
	cfg := &model.UserConfiguration{
		Provider: model.ProviderAnthropic,
		APIKey:   "k",
		Channels: []model.ChannelEntry{
			{Type: model.ChannelTelegram, Config: map[string]any{"botToken": ""}},
			{Type: model.ChannelDiscord, Config: map[string]any{}},
		},
	}

	env := BuildSecrets(cfg)
	_, hasTelegram := env["TELEGRAM_BOT_TOKEN"]
	_, hasDiscord := env["DISCORD_TOKEN"]
	assert.False(t, hasTelegram)
	assert.False(t, hasDiscord)
}

func TestDocumentJSONShape(t *testing.T) {
	cfg := &model.UserConfiguration{
		Provider: model.ProviderAnthropic,
		APIKey:   "k",
		Channels: []model.ChannelEntry{
			{Type: model.ChannelTelegram, Config: map[string]any{"botToken": "x"}},
		},
	}

	raw, err := json.Marshal(GenerateConfig(cfg, "tok"))
	require.NoError(t, err)

	s := string(raw)
	assert.True(t, strings.Contains(s, `"gateway"`))
	assert.True(t, strings.Contains(s, `"channels"`))
	// Optional blocks stay absent when unset.
	assert.False(t, strings.Contains(s, `"tts"`))
	assert.False(t, strings.Contains(s, `"session"`))
}
