package model

// AI provider identifiers.
const (
	ProviderAnthropic = "ANTHROPIC"
	ProviderOpenAI    = "OPENAI"
)

// Channel type identifiers as submitted by the onboarding flow.
const (
	ChannelWhatsApp   = "WHATSAPP"
	ChannelTelegram   = "TELEGRAM"
	ChannelDiscord    = "DISCORD"
	ChannelSlack      = "SLACK"
	ChannelSignal     = "SIGNAL"
	ChannelGoogleChat = "GOOGLE_CHAT"
	ChannelMatrix     = "MATRIX"
)

// ChannelEntry is one messaging channel selected by the user, with its
// freeform per-channel settings (tokens, allowlists, guild IDs, ...).
type ChannelEntry struct {
	Type   string         `json:"type"`
	Config map[string]any `json:"config"`
}

// UserConfiguration is the validated configuration handed to the
// orchestrator after checkout. It is an immutable snapshot consumed once
// per deploy.
type UserConfiguration struct {
	Provider string         `json:"provider"`
	APIKey   string         `json:"api_key"`
	Model    string         `json:"model,omitempty"`
	Channels []ChannelEntry `json:"channels"`

	WebSearchEnabled bool   `json:"web_search_enabled,omitempty"`
	BraveAPIKey      string `json:"brave_api_key,omitempty"`
	BrowserEnabled   bool   `json:"browser_enabled,omitempty"`
	TTSEnabled       bool   `json:"tts_enabled,omitempty"`
	ElevenLabsAPIKey string `json:"elevenlabs_api_key,omitempty"`
	CanvasEnabled    bool   `json:"canvas_enabled,omitempty"`
	CronEnabled      bool   `json:"cron_enabled,omitempty"`
	MemoryEnabled    bool   `json:"memory_enabled,omitempty"`

	Workspace    string `json:"workspace,omitempty"`
	AgentName    string `json:"agent_name,omitempty"`
	SystemPrompt string `json:"system_prompt,omitempty"`
	ThinkingMode string `json:"thinking_mode,omitempty"`
	SessionMode  string `json:"session_mode,omitempty"`
	DMPolicy     string `json:"dm_policy,omitempty"`
}
