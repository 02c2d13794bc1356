package openclaw

import (
	_ "embed"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/openclaw/clawhost/internal/model"
)

// The pairing sidecar: a minimal Node HTTP server wrapping the gateway's
// `openclaw pairing` CLI. It runs inside the instance next to the gateway
// and answers on SidecarPort.
//
//go:embed sidecar.js
var sidecarScript string

// SidecarScriptB64 returns the sidecar script base64-encoded for transport
// inside an environment variable.
func SidecarScriptB64() string {
	return base64.StdEncoding.EncodeToString([]byte(sidecarScript))
}

// BuildStartCommand builds the service start command that writes the
// serialized configuration document to the gateway's config path, launches
// the pairing sidecar in the background, and execs the gateway.
//
// The platform runs containers as non-root, so everything lives under /tmp.
func BuildStartCommand(gatewayCmd string) string {
	if gatewayCmd == "" {
		gatewayCmd = "openclaw"
	}
	const configDir = "/tmp/.openclaw"
	steps := []string{
		fmt.Sprintf("mkdir -p %s", configDir),
		fmt.Sprintf(`printf '%%s' "$%s" > %s/openclaw.json`, EnvConfig, configDir),
		fmt.Sprintf(`printf '%%s' "$%s" | base64 -d > /tmp/pairing-server.js`, EnvSidecarB64),
		"node /tmp/pairing-server.js &",
		"sleep 1",
		fmt.Sprintf("exec %s --config %s/openclaw.json", gatewayCmd, configDir),
	}
	return strings.Join(steps, " && ")
}

// ValidateEnv sanity-checks the assembled environment before the platform
// service is created, so a broken configuration fails the deploy up front
// instead of crash-looping inside the instance.
func ValidateEnv(cfg *model.UserConfiguration, env map[string]string) error {
	var errs []string

	if len(env[EnvConfig]) < 10 {
		errs = append(errs, EnvConfig+" is missing or too small")
	}
	if cfg.Provider == model.ProviderOpenAI && env["OPENAI_API_KEY"] == "" {
		errs = append(errs, "OPENAI_API_KEY is missing")
	}
	if cfg.Provider == model.ProviderAnthropic && env["ANTHROPIC_API_KEY"] == "" {
		errs = append(errs, "ANTHROPIC_API_KEY is missing")
	}
	for _, ch := range cfg.Channels {
		if ch.Type == model.ChannelTelegram && env["TELEGRAM_BOT_TOKEN"] == "" {
			errs = append(errs, "TELEGRAM_BOT_TOKEN is missing")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid instance environment: %s", strings.Join(errs, "; "))
	}
	return nil
}
