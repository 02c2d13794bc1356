package openclaw

import "github.com/openclaw/clawhost/internal/model"

// Environment variable names injected into the instance.
const (
	EnvConfig       = "OPENCLAW_CONFIG"
	EnvGatewayToken = "OPENCLAW_GATEWAY_TOKEN"
	EnvSidecarB64   = "_PAIRING_SCRIPT_B64"
)

// BuildSecrets extracts every secret value from the user configuration into
// environment variable form: the provider credential, per-channel tokens,
// and tool API keys. Nothing returned here may also appear in the document
// produced by GenerateConfig.
func BuildSecrets(cfg *model.UserConfiguration) map[string]string {
	env := map[string]string{}

	switch cfg.Provider {
	case model.ProviderAnthropic:
		env["ANTHROPIC_API_KEY"] = cfg.APIKey
	case model.ProviderOpenAI:
		env["OPENAI_API_KEY"] = cfg.APIKey
	}

	for _, ch := range cfg.Channels {
		switch ch.Type {
		case model.ChannelTelegram:
			setIfPresent(env, "TELEGRAM_BOT_TOKEN", ch.Config["botToken"])
		case model.ChannelDiscord:
			setIfPresent(env, "DISCORD_TOKEN", ch.Config["token"])
			setIfPresent(env, "DISCORD_APPLICATION_ID", ch.Config["applicationId"])
		case model.ChannelSlack:
			setIfPresent(env, "SLACK_BOT_TOKEN", ch.Config["botToken"])
			setIfPresent(env, "SLACK_APP_TOKEN", ch.Config["appToken"])
		case model.ChannelGoogleChat:
			setIfPresent(env, "GOOGLE_CHAT_SERVICE_ACCOUNT", ch.Config["serviceAccount"])
		case model.ChannelMatrix:
			setIfPresent(env, "MATRIX_ACCESS_TOKEN", ch.Config["accessToken"])
		}
	}

	if cfg.BraveAPIKey != "" {
		env["BRAVE_API_KEY"] = cfg.BraveAPIKey
	}
	if cfg.ElevenLabsAPIKey != "" {
		env["ELEVENLABS_API_KEY"] = cfg.ElevenLabsAPIKey
	}

	return env
}

func setIfPresent(env map[string]string, key string, value any) {
	if s, ok := value.(string); ok && s != "" {
		env[key] = s
	}
}
