package openclaw

import (
	"strings"

	"github.com/openclaw/clawhost/internal/model"
)

// GatewayPort is the port the gateway process listens on inside the
// instance. SidecarPort is the companion pairing server next to it.
const (
	GatewayPort = 18789
	SidecarPort = 18800
)

const defaultDMPolicy = "pairing"

// Document is the configuration document delivered to the gateway process.
// Secret values (channel tokens, provider keys) are never embedded here;
// they travel separately as environment variables.
type Document struct {
	Gateway  GatewaySettings  `json:"gateway"`
	Agents   AgentSettings    `json:"agents"`
	Session  *SessionSettings `json:"session,omitempty"`
	Channels map[string]any   `json:"channels"`
	Tools    ToolSettings     `json:"tools"`
	Skills   SkillSettings    `json:"skills"`
	TTS      *TTSSettings     `json:"tts,omitempty"`
	Browser  *FeatureToggle   `json:"browser,omitempty"`
	Canvas   *FeatureToggle   `json:"canvas,omitempty"`
	Cron     *FeatureToggle   `json:"cron,omitempty"`
	Memory   *FeatureToggle   `json:"memory,omitempty"`
}

type GatewaySettings struct {
	Bind string      `json:"bind"`
	Port int         `json:"port"`
	Mode string      `json:"mode"`
	Auth GatewayAuth `json:"auth"`
}

type GatewayAuth struct {
	Mode  string `json:"mode"`
	Token string `json:"token"`
}

type AgentSettings struct {
	Defaults AgentDefaults `json:"defaults"`
}

type AgentDefaults struct {
	Workspace    string         `json:"workspace"`
	Model        ModelSelection `json:"model"`
	Identity     *AgentIdentity `json:"identity,omitempty"`
	SystemPrompt string         `json:"systemPrompt,omitempty"`
	Thinking     string         `json:"thinking,omitempty"`
}

type ModelSelection struct {
	Primary string `json:"primary"`
}

type AgentIdentity struct {
	Name string `json:"name"`
}

type SessionSettings struct {
	Mode string `json:"mode"`
}

type ToolSettings struct {
	Web WebTools `json:"web"`
}

type WebTools struct {
	Search WebSearch `json:"search"`
}

type WebSearch struct {
	Enabled bool `json:"enabled"`
}

type SkillSettings struct {
	Entries map[string]any `json:"entries"`
}

type TTSSettings struct {
	Enabled  bool   `json:"enabled"`
	Provider string `json:"provider"`
}

type FeatureToggle struct {
	Enabled bool `json:"enabled"`
}

// Per-channel document blocks. Token fields are deliberately absent: the
// gateway reads them from the environment variables built by BuildSecrets.

type WhatsAppChannel struct {
	AllowFrom    []string `json:"allowFrom"`
	DMPolicy     string   `json:"dmPolicy"`
	Groups       any      `json:"groups,omitempty"`
	SelfChatMode bool     `json:"selfChatMode,omitempty"`
}

type TelegramChannel struct {
	Enabled   bool     `json:"enabled"`
	AllowFrom []string `json:"allowFrom"`
	DMPolicy  string   `json:"dmPolicy"`
}

type DiscordChannel struct {
	Enabled bool           `json:"enabled"`
	DM      DMSettings     `json:"dm"`
	Guilds  map[string]any `json:"guilds,omitempty"`
}

type SlackChannel struct {
	Enabled bool       `json:"enabled"`
	DM      DMSettings `json:"dm"`
}

type SignalChannel struct {
	Enabled     bool     `json:"enabled"`
	PhoneNumber string   `json:"phoneNumber"`
	AllowFrom   []string `json:"allowFrom"`
}

type GoogleChatChannel struct {
	Enabled bool `json:"enabled"`
}

type MatrixChannel struct {
	Enabled       bool   `json:"enabled"`
	HomeserverURL string `json:"homeserverUrl"`
	UserID        string `json:"userId"`
}

type DMSettings struct {
	Policy    string   `json:"policy"`
	AllowFrom []string `json:"allowFrom"`
}

// GenerateConfig maps a validated user configuration to the gateway's
// configuration document. Pure and deterministic: no I/O, no clock.
// Channel types outside the supported set are omitted without error.
func GenerateConfig(cfg *model.UserConfiguration, gatewayToken string) *Document {
	doc := &Document{
		Gateway: GatewaySettings{
			Bind: "lan",
			Port: GatewayPort,
			Mode: "local",
			Auth: GatewayAuth{Mode: "token", Token: gatewayToken},
		},
		Agents: AgentSettings{
			Defaults: AgentDefaults{
				Workspace: cfg.Workspace,
				Model:     ModelSelection{Primary: resolveModel(cfg)},
			},
		},
		Channels: map[string]any{},
		Tools: ToolSettings{
			Web: WebTools{Search: WebSearch{Enabled: cfg.WebSearchEnabled}},
		},
		Skills: SkillSettings{Entries: map[string]any{}},
	}

	if doc.Agents.Defaults.Workspace == "" {
		doc.Agents.Defaults.Workspace = "~/.openclaw/workspace"
	}
	if cfg.AgentName != "" {
		doc.Agents.Defaults.Identity = &AgentIdentity{Name: cfg.AgentName}
	}
	if cfg.SystemPrompt != "" {
		doc.Agents.Defaults.SystemPrompt = cfg.SystemPrompt
	}
	if cfg.ThinkingMode != "" {
		doc.Agents.Defaults.Thinking = cfg.ThinkingMode
	}
	if cfg.SessionMode != "" {
		doc.Session = &SessionSettings{Mode: cfg.SessionMode}
	}

	for _, ch := range cfg.Channels {
		switch ch.Type {
		case model.ChannelWhatsApp:
			doc.Channels["whatsapp"] = WhatsAppChannel{
				AllowFrom:    normalizeAllowlist(ch.Config["allowlist"]),
				DMPolicy:     resolveDMPolicy(ch, cfg),
				Groups:       ch.Config["groups"],
				SelfChatMode: asBool(ch.Config["selfChatMode"]),
			}
		case model.ChannelTelegram:
			doc.Channels["telegram"] = TelegramChannel{
				Enabled:   true,
				AllowFrom: normalizeAllowlist(ch.Config["allowlist"]),
				DMPolicy:  resolveDMPolicy(ch, cfg),
			}
		case model.ChannelDiscord:
			doc.Channels["discord"] = DiscordChannel{
				Enabled: true,
				DM: DMSettings{
					Policy:    resolveDMPolicy(ch, cfg),
					AllowFrom: normalizeAllowlist(ch.Config["allowlist"]),
				},
				Guilds: normalizeGuilds(ch.Config["guilds"]),
			}
		case model.ChannelSlack:
			doc.Channels["slack"] = SlackChannel{
				Enabled: true,
				DM: DMSettings{
					Policy:    resolveDMPolicy(ch, cfg),
					AllowFrom: normalizeAllowlist(ch.Config["allowlist"]),
				},
			}
		case model.ChannelSignal:
			doc.Channels["signal"] = SignalChannel{
				Enabled:     true,
				PhoneNumber: asString(ch.Config["phoneNumber"]),
				AllowFrom:   normalizeAllowlist(ch.Config["allowlist"]),
			}
		case model.ChannelGoogleChat:
			doc.Channels["googlechat"] = GoogleChatChannel{Enabled: true}
		case model.ChannelMatrix:
			doc.Channels["matrix"] = MatrixChannel{
				Enabled:       true,
				HomeserverURL: asString(ch.Config["homeserverUrl"]),
				UserID:        asString(ch.Config["userId"]),
			}
		}
	}

	if cfg.TTSEnabled && cfg.ElevenLabsAPIKey != "" {
		doc.TTS = &TTSSettings{Enabled: true, Provider: "elevenlabs"}
	}
	if cfg.BrowserEnabled {
		doc.Browser = &FeatureToggle{Enabled: true}
	}
	if cfg.CanvasEnabled {
		doc.Canvas = &FeatureToggle{Enabled: true}
	}
	if cfg.CronEnabled {
		doc.Cron = &FeatureToggle{Enabled: true}
	}
	if cfg.MemoryEnabled {
		doc.Memory = &FeatureToggle{Enabled: true}
	}

	return doc
}

func resolveModel(cfg *model.UserConfiguration) string {
	if cfg.Model != "" {
		return cfg.Model
	}
	if cfg.Provider == model.ProviderAnthropic {
		return "anthropic/claude-opus-4-5"
	}
	return "openai/gpt-5.2"
}

// resolveDMPolicy applies the three-level override: channel value, then
// global configuration value, then the hardcoded default.
func resolveDMPolicy(ch model.ChannelEntry, cfg *model.UserConfiguration) string {
	if v := asString(ch.Config["dmPolicy"]); v != "" {
		return v
	}
	if cfg.DMPolicy != "" {
		return cfg.DMPolicy
	}
	return defaultDMPolicy
}

// normalizeAllowlist accepts a list or a comma-separated string and always
// yields a non-nil slice.
func normalizeAllowlist(value any) []string {
	out := []string{}
	switch v := value.(type) {
	case nil:
		return out
	case []string:
		for _, s := range v {
			if s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, e := range v {
			if s := asString(e); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, part := range strings.Split(v, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// normalizeGuilds accepts a map, a list of IDs, or a comma-separated string
// and produces the gateway's guilds map. Nil when nothing usable is given.
func normalizeGuilds(value any) map[string]any {
	switch v := value.(type) {
	case nil:
		return nil
	case map[string]any:
		if len(v) == 0 {
			return nil
		}
		return v
	}

	var ids []string
	switch v := value.(type) {
	case []string:
		ids = v
	case []any:
		for _, e := range v {
			if s := asString(e); s != "" {
				ids = append(ids, s)
			}
		}
	case string:
		for _, part := range strings.Split(v, ",") {
			if s := strings.TrimSpace(part); s != "" {
				ids = append(ids, s)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	guilds := make(map[string]any, len(ids))
	for _, id := range ids {
		guilds[id] = map[string]any{"enabled": true}
	}
	return guilds
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}
