package request

import "github.com/openclaw/clawhost/internal/model"

// DeployInstance is the payload for deploying (or redeploying) the caller's
// gateway instance.
type DeployInstance struct {
	Provider string          `json:"provider" validate:"required,oneof=ANTHROPIC OPENAI"`
	APIKey   string          `json:"api_key" validate:"required"`
	Model    string          `json:"model"`
	Channels []DeployChannel `json:"channels" validate:"required,min=1,dive"`

	WebSearchEnabled bool   `json:"web_search_enabled"`
	BraveAPIKey      string `json:"brave_api_key"`
	BrowserEnabled   bool   `json:"browser_enabled"`
	TTSEnabled       bool   `json:"tts_enabled"`
	ElevenLabsAPIKey string `json:"elevenlabs_api_key"`
	CanvasEnabled    bool   `json:"canvas_enabled"`
	CronEnabled      bool   `json:"cron_enabled"`
	MemoryEnabled    bool   `json:"memory_enabled"`

	Workspace    string `json:"workspace"`
	AgentName    string `json:"agent_name"`
	SystemPrompt string `json:"system_prompt"`
	ThinkingMode string `json:"thinking_mode"`
	SessionMode  string `json:"session_mode"`
	DMPolicy     string `json:"dm_policy" validate:"omitempty,oneof=pairing open closed"`
}

type DeployChannel struct {
	Type   string         `json:"type" validate:"required"`
	Config map[string]any `json:"config"`
}

// UserConfiguration converts the request into the orchestrator's snapshot.
func (r *DeployInstance) UserConfiguration() *model.UserConfiguration {
	channels := make([]model.ChannelEntry, 0, len(r.Channels))
	for _, ch := range r.Channels {
		channels = append(channels, model.ChannelEntry{Type: ch.Type, Config: ch.Config})
	}
	return &model.UserConfiguration{
		Provider:         r.Provider,
		APIKey:           r.APIKey,
		Model:            r.Model,
		Channels:         channels,
		WebSearchEnabled: r.WebSearchEnabled,
		BraveAPIKey:      r.BraveAPIKey,
		BrowserEnabled:   r.BrowserEnabled,
		TTSEnabled:       r.TTSEnabled,
		ElevenLabsAPIKey: r.ElevenLabsAPIKey,
		CanvasEnabled:    r.CanvasEnabled,
		CronEnabled:      r.CronEnabled,
		MemoryEnabled:    r.MemoryEnabled,
		Workspace:        r.Workspace,
		AgentName:        r.AgentName,
		SystemPrompt:     r.SystemPrompt,
		ThinkingMode:     r.ThinkingMode,
		SessionMode:      r.SessionMode,
		DMPolicy:         r.DMPolicy,
	}
}

// ApprovePairing is the payload for approving a channel pairing request.
type ApprovePairing struct {
	Channel string `json:"channel" validate:"required"`
	Code    string `json:"code" validate:"required,pairingcode"`
}
