package vapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Vendor payload models.
//
// The vendor's REST API is loosely typed: nearly every field is optional and
// several fields change shape between call types (inbound phone, outbound
// phone, web call) and API versions. Timestamps are kept as RFC3339 strings
// and parsed leniently by consumers so one malformed value never sinks a
// whole record.

type Call struct {
	ID        string `json:"id"`
	OrgID     string `json:"orgId,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`

	// Type is one of inboundPhoneCall, outboundPhoneCall, webCall.
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`

	StartedAt   string `json:"startedAt,omitempty"`
	EndedAt     string `json:"endedAt,omitempty"`
	EndedReason string `json:"endedReason,omitempty"`

	Cost          float64        `json:"cost,omitempty"`
	CostBreakdown *CostBreakdown `json:"costBreakdown,omitempty"`
	Costs         []CostItem     `json:"costs,omitempty"`

	Analysis *Analysis `json:"analysis,omitempty"`
	Artifact *Artifact `json:"artifact,omitempty"`
	Messages []Message `json:"messages,omitempty"`

	AssistantID        string     `json:"assistantId,omitempty"`
	Assistant          *Assistant `json:"assistant,omitempty"`
	AssistantOverrides *Assistant `json:"assistantOverrides,omitempty"`

	PhoneNumberID string       `json:"phoneNumberId,omitempty"`
	PhoneNumber   *PhoneNumber `json:"phoneNumber,omitempty"`
	Customer      *Customer    `json:"customer,omitempty"`

	// Legacy top-level fields still emitted for older orgs.
	RecordingURL string `json:"recordingUrl,omitempty"`
	Transcript   string `json:"transcript,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

type Customer struct {
	Number    string `json:"number,omitempty"`
	Extension string `json:"extension,omitempty"`
	Name      string `json:"name,omitempty"`
}

type CostItem struct {
	Type     string  `json:"type,omitempty"`
	Provider string  `json:"provider,omitempty"`
	Minutes  float64 `json:"minutes,omitempty"`
	Cost     float64 `json:"cost,omitempty"`
}

type CostBreakdown struct {
	Transport float64 `json:"transport,omitempty"`
	STT       float64 `json:"stt,omitempty"`
	LLM       float64 `json:"llm,omitempty"`
	TTS       float64 `json:"tts,omitempty"`
	Vapi      float64 `json:"vapi,omitempty"`
	Chat      float64 `json:"chat,omitempty"`
	Total     float64 `json:"total,omitempty"`

	// Older payloads use these names instead of stt/llm/tts/transport.
	Model     float64 `json:"model,omitempty"`
	Voice     float64 `json:"voice,omitempty"`
	Telephony float64 `json:"telephony,omitempty"`

	LLMPromptTokens     float64 `json:"llmPromptTokens,omitempty"`
	LLMCompletionTokens float64 `json:"llmCompletionTokens,omitempty"`
	TTSCharacters       float64 `json:"ttsCharacters,omitempty"`

	AnalysisCostBreakdown *AnalysisCostBreakdown `json:"analysisCostBreakdown,omitempty"`
}

type AnalysisCostBreakdown struct {
	Summary           float64 `json:"summary,omitempty"`
	StructuredData    float64 `json:"structuredData,omitempty"`
	SuccessEvaluation float64 `json:"successEvaluation,omitempty"`
	StructuredOutput  float64 `json:"structuredOutput,omitempty"`
}

type Analysis struct {
	Summary            string         `json:"summary,omitempty"`
	StructuredData     map[string]any `json:"structuredData,omitempty"`
	SuccessEvaluation  TriState       `json:"successEvaluation,omitempty"`
}

// TriState models the vendor's success evaluation, which arrives as a JSON
// bool, the strings "true"/"false", or not at all. Zero value is "unknown".
type TriState struct {
	known bool
	value bool
}

func TriTrue() TriState    { return TriState{known: true, value: true} }
func TriFalse() TriState   { return TriState{known: true, value: false} }
func TriUnknown() TriState { return TriState{} }

func (t TriState) Known() bool { return t.known }
func (t TriState) True() bool  { return t.known && t.value }
func (t TriState) False() bool { return t.known && !t.value }

func (t *TriState) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch s {
	case "null", `""`:
		*t = TriState{}
		return nil
	case "true", `"true"`:
		*t = TriTrue()
		return nil
	case "false", `"false"`:
		*t = TriFalse()
		return nil
	}
	// Anything else (numbers, rubric strings) is treated as unknown.
	*t = TriState{}
	return nil
}

func (t TriState) MarshalJSON() ([]byte, error) {
	if !t.known {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatBool(t.value)), nil
}

type Artifact struct {
	Transcript string `json:"transcript,omitempty"`
	Summary    string `json:"summary,omitempty"`

	Recording          *Recording `json:"recording,omitempty"`
	RecordingURL       string     `json:"recordingUrl,omitempty"`
	StereoRecordingURL string     `json:"stereoRecordingUrl,omitempty"`

	Messages []Message `json:"messages,omitempty"`

	PerformanceMetrics *PerformanceMetrics `json:"performanceMetrics,omitempty"`
	DetailedLatencies  any                 `json:"detailedLatencies,omitempty"`
	StructuredOutputs  map[string]any      `json:"structuredOutputs,omitempty"`
	Scorecards         any                 `json:"scorecards,omitempty"`
	VariableValues     map[string]any      `json:"variableValues,omitempty"`
	Nodes              []Node              `json:"nodes,omitempty"`
	Transfers          []Transfer          `json:"transfers,omitempty"`
}

type Recording struct {
	StereoURL   string         `json:"stereoUrl,omitempty"`
	VideoURL    string         `json:"videoUrl,omitempty"`
	CombinedURL string         `json:"combinedUrl,omitempty"`
	Mono        *MonoRecording `json:"mono,omitempty"`
}

type MonoRecording struct {
	CombinedURL  string `json:"combinedUrl,omitempty"`
	AssistantURL string `json:"assistantUrl,omitempty"`
	CustomerURL  string `json:"customerUrl,omitempty"`
}

type Node struct {
	Name     string  `json:"name,omitempty"`
	Endpoint string  `json:"endpoint,omitempty"`
	URL      string  `json:"url,omitempty"`
	Status   string  `json:"status,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// Transfer arrives either as a bare destination string or as an object
// with destination/number/time fields, depending on the event source.
type Transfer struct {
	Destination string `json:"destination,omitempty"`
	Number      string `json:"number,omitempty"`
	Time        string `json:"time,omitempty"`
}

func (tr *Transfer) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*tr = Transfer{Destination: s}
		return nil
	}
	type alias Transfer
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*tr = Transfer(a)
	return nil
}

type Message struct {
	Role    string `json:"role,omitempty"`
	Message string `json:"message,omitempty"`

	// Time and EndTime are epoch milliseconds; Duration is milliseconds.
	Time             float64 `json:"time,omitempty"`
	EndTime          float64 `json:"endTime,omitempty"`
	SecondsFromStart float64 `json:"secondsFromStart,omitempty"`
	Duration         float64 `json:"duration,omitempty"`

	ModelLatency       float64 `json:"modelLatency,omitempty"`
	VoiceLatency       float64 `json:"voiceLatency,omitempty"`
	TranscriberLatency float64 `json:"transcriberLatency,omitempty"`
}

type PerformanceMetrics struct {
	ModelLatencyAverage         float64 `json:"modelLatencyAverage,omitempty"`
	VoiceLatencyAverage         float64 `json:"voiceLatencyAverage,omitempty"`
	TranscriberLatencyAverage   float64 `json:"transcriberLatencyAverage,omitempty"`
	TurnLatencyAverage          float64 `json:"turnLatencyAverage,omitempty"`
	EndpointingLatencyAverage   float64 `json:"endpointingLatencyAverage,omitempty"`
	FromTransportLatencyAverage float64 `json:"fromTransportLatencyAverage,omitempty"`
	ToTransportLatencyAverage   float64 `json:"toTransportLatencyAverage,omitempty"`
	NumAssistantInterrupted     int     `json:"numAssistantInterrupted,omitempty"`
	NumUserInterrupted          int     `json:"numUserInterrupted,omitempty"`

	TurnLatencies     []float64 `json:"turnLatencies,omitempty"`
	DetailedLatencies any       `json:"detailedLatencies,omitempty"`
}

type Assistant struct {
	ID        string `json:"id,omitempty"`
	OrgID     string `json:"orgId,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`

	Name         string `json:"name,omitempty"`
	FirstMessage string `json:"firstMessage,omitempty"`

	Model       *ModelConfig       `json:"model,omitempty"`
	Voice       *VoiceConfig       `json:"voice,omitempty"`
	Transcriber *TranscriberConfig `json:"transcriber,omitempty"`

	VoicemailMessage   string   `json:"voicemailMessage,omitempty"`
	EndCallMessage     string   `json:"endCallMessage,omitempty"`
	EndCallPhrases     []string `json:"endCallPhrases,omitempty"`
	MaxDurationSeconds int      `json:"maxDurationSeconds,omitempty"`
	BackgroundSound    string   `json:"backgroundSound,omitempty"`

	ServerURL     string         `json:"serverUrl,omitempty"`
	PhoneNumberID string         `json:"phoneNumberId,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// ModelConfig is usually an object but some payloads carry a bare model
// name string; both decode.
type ModelConfig struct {
	Provider    string  `json:"provider,omitempty"`
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
}

func (m *ModelConfig) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*m = ModelConfig{Model: s}
		return nil
	}
	type alias ModelConfig
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*m = ModelConfig(a)
	return nil
}

// VoiceConfig is usually an object but may be a bare voice id string.
type VoiceConfig struct {
	Provider        string  `json:"provider,omitempty"`
	VoiceID         string  `json:"voiceId,omitempty"`
	Speed           float64 `json:"speed,omitempty"`
	Stability       float64 `json:"stability,omitempty"`
	SimilarityBoost float64 `json:"similarityBoost,omitempty"`
}

func (v *VoiceConfig) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = VoiceConfig{VoiceID: s}
		return nil
	}
	type alias VoiceConfig
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*v = VoiceConfig(a)
	return nil
}

type TranscriberConfig struct {
	Provider    string `json:"provider,omitempty"`
	Model       string `json:"model,omitempty"`
	SpeechModel string `json:"speechModel,omitempty"`
	Language    string `json:"language,omitempty"`
}

type PhoneNumber struct {
	ID          string `json:"id"`
	Number      string `json:"number,omitempty"`
	Name        string `json:"name,omitempty"`
	AssistantID string `json:"assistantId,omitempty"`
	Provider    string `json:"provider,omitempty"`
}
