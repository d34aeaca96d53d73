package callrecord

import (
	"context"
	"strings"
	"time"

	"receptionist-platform/internal/vapi"
)

// Metadata keys of the calls row's metadata blob. Consumers treat every key
// as optional; only vapi_call_id is relied on for identity.
const (
	MetaVendorCallID      = "vapi_call_id"
	MetaVendorAssistantID = "vapi_assistant_id"
)

// Default assistant configuration reported when a call carries only an
// assistant id and no config object could be resolved.
var defaultAssistantInfo = map[string]any{
	"name":           "Grace Assistant",
	"model":          "meta-llama/llama-4-maverick-17b-128e-instruct",
	"model_provider": "groq",
	"voice_id":       "Kylie",
	"voice_provider": "vapi",
	"stt_provider":   "deepgram",
	"stt_model":      "nova-3",
}

func (n *Normalizer) metadata(ctx context.Context, call *vapi.Call, started time.Time, cost float64) map[string]any {
	meta := map[string]any{}
	if call.ID != "" {
		meta[MetaVendorCallID] = call.ID
	}
	if id := assistantID(call); id != "" {
		meta[MetaVendorAssistantID] = id
	}
	if call.Status != "" {
		meta["status"] = call.Status
	}
	if call.Type != "" {
		meta["call_type"] = call.Type
	}
	if call.PhoneNumberID != "" {
		meta["vapi_phone_number_id"] = call.PhoneNumberID
	}
	if call.EndedReason != "" {
		meta["ended_reason"] = call.EndedReason
	}
	if url := RecordingURL(call); url != "" {
		meta["recording_url"] = url
	}
	if bd := CostBreakdownMeta(call, cost); bd != nil {
		meta["cost_breakdown"] = bd
	}
	if s := summaryText(call); s != "" {
		meta["summary"] = s
	}
	if se := successEvaluation(call); se.Known() {
		meta["success_evaluation"] = se.True()
	}
	if info := n.assistantInfo(ctx, call); info != nil {
		meta["assistant_info"] = info
	}
	if pm := performanceMeta(call); pm != nil {
		meta["performance_metrics"] = pm
	}
	if lb := LatencyBreakdown(artifactMessages(call), started); len(lb) > 0 {
		meta["latency_breakdown"] = lb
	}
	if art := call.Artifact; art != nil {
		if dl := detailedLatencies(art); dl != nil {
			meta["detailed_latencies"] = dl
		}
		if len(art.StructuredOutputs) > 0 {
			meta["structured_outputs"] = art.StructuredOutputs
		}
		if len(art.Nodes) > 0 {
			meta["tool_calls"] = toolCallsMeta(art.Nodes)
		}
		if art.Scorecards != nil {
			meta["scorecards"] = art.Scorecards
		}
		if len(art.VariableValues) > 0 {
			meta["variables"] = art.VariableValues
		}
	}
	meta["transfers"] = transfersMeta(call)
	return meta
}

func assistantID(call *vapi.Call) string {
	if call.AssistantID != "" {
		return call.AssistantID
	}
	if call.Assistant != nil {
		return call.Assistant.ID
	}
	return ""
}

// CostBreakdownMeta flattens the vendor cost breakdown into the fixed set of
// component keys the app reads, coalescing across the field spellings the
// vendor has used over time (stt/llm/tts/transport vs model/voice/telephony).
// Both spellings are emitted so old and new consumers read the same figures.
// Returns nil when there is neither a breakdown nor a positive total.
func CostBreakdownMeta(call *vapi.Call, total float64) map[string]any {
	bd := call.CostBreakdown
	if bd == nil && len(call.Costs) > 0 {
		bd = breakdownFromItems(call.Costs)
	}
	if bd == nil {
		if total <= 0 {
			return nil
		}
		bd = &vapi.CostBreakdown{}
	}

	out := map[string]any{
		"total":     coalesce(bd.Total, total),
		"stt":       bd.STT,
		"llm":       coalesce(bd.LLM, bd.Model),
		"tts":       coalesce(bd.TTS, bd.Voice),
		"vapi":      bd.Vapi,
		"transport": coalesce(bd.Transport, bd.Telephony),

		// Legacy spellings the mobile app still reads.
		"voice":     coalesce(bd.Voice, bd.TTS),
		"model":     coalesce(bd.Model, bd.LLM),
		"telephony": coalesce(bd.Telephony, coalesce(bd.Vapi, bd.Transport)),

		"analysis_summary":            0.0,
		"analysis_structured_output":  0.0,
		"analysis_success_evaluation": 0.0,
	}
	if a := bd.AnalysisCostBreakdown; a != nil {
		out["analysis_summary"] = a.Summary
		out["analysis_structured_output"] = coalesce(a.StructuredOutput, a.StructuredData)
		out["analysis_success_evaluation"] = a.SuccessEvaluation
	}
	return out
}

// breakdownFromItems folds the per-item costs list into breakdown components
// by item type.
func breakdownFromItems(items []vapi.CostItem) *vapi.CostBreakdown {
	var bd vapi.CostBreakdown
	for _, item := range items {
		bd.Total += item.Cost
		switch strings.ToLower(item.Type) {
		case "transcriber", "stt":
			bd.STT += item.Cost
		case "model", "llm":
			bd.LLM += item.Cost
		case "voice", "tts":
			bd.TTS += item.Cost
		case "vapi":
			bd.Vapi += item.Cost
		case "transport", "telephony":
			bd.Transport += item.Cost
		}
	}
	return &bd
}

// assistantInfo resolves the assistant configuration shown on the call
// detail screen: the embedded assistant object first, then overrides, then a
// lookup by id, then account defaults. Returns nil when the call names no
// assistant at all.
func (n *Normalizer) assistantInfo(ctx context.Context, call *vapi.Call) map[string]any {
	src := call.Assistant
	if src == nil {
		src = call.AssistantOverrides
	}
	id := assistantID(call)
	if src == nil && id != "" && n.Assistants != nil {
		if fetched, err := n.Assistants.GetAssistant(ctx, id); err == nil {
			src = fetched
		}
	}
	if src == nil {
		if id == "" {
			return nil
		}
		info := map[string]any{"id": id}
		for k, v := range defaultAssistantInfo {
			info[k] = v
		}
		return info
	}

	info := map[string]any{
		"id":   coalesceStr(src.ID, id),
		"name": coalesceStr(src.Name, defaultAssistantInfo["name"].(string)),
	}
	if m := src.Model; m != nil {
		putStr(info, "model", m.Model)
		putStr(info, "model_provider", m.Provider)
	}
	if v := src.Voice; v != nil {
		putStr(info, "voice_id", v.VoiceID)
		putStr(info, "voice_provider", v.Provider)
	}
	if t := src.Transcriber; t != nil {
		putStr(info, "stt_provider", t.Provider)
		putStr(info, "stt_model", coalesceStr(t.Model, t.SpeechModel))
	}
	return info
}

func performanceMeta(call *vapi.Call) map[string]any {
	var pm *vapi.PerformanceMetrics
	if call.Artifact != nil {
		pm = call.Artifact.PerformanceMetrics
	}
	if pm == nil {
		return nil
	}
	out := map[string]any{
		"model_latency_average":       pm.ModelLatencyAverage,
		"voice_latency_average":       pm.VoiceLatencyAverage,
		"transcriber_latency_average": pm.TranscriberLatencyAverage,
		"turn_latency_average":        pm.TurnLatencyAverage,
		"num_assistant_interrupted":   pm.NumAssistantInterrupted,
		"num_user_interrupted":        pm.NumUserInterrupted,
		"turn_latencies":              pm.TurnLatencies,
		"endpointing_latency":         pm.EndpointingLatencyAverage,
		"from_transport_latency":      pm.FromTransportLatencyAverage,
		"to_transport_latency":        pm.ToTransportLatencyAverage,
	}
	if pm.TurnLatencies == nil {
		out["turn_latencies"] = []float64{}
	}
	return out
}

func detailedLatencies(art *vapi.Artifact) any {
	if art.PerformanceMetrics != nil && art.PerformanceMetrics.DetailedLatencies != nil {
		return art.PerformanceMetrics.DetailedLatencies
	}
	return art.DetailedLatencies
}

// Turn is one entry of the per-turn latency breakdown derived from the
// artifact messages array.
type Turn struct {
	Turn               int     `json:"turn"`
	Role               string  `json:"role"`
	Timestamp          string  `json:"timestamp"`
	TimeRelative       float64 `json:"time_relative"`
	DurationSeconds    float64 `json:"duration,omitempty"`
	ModelLatency       float64 `json:"model_latency,omitempty"`
	VoiceLatency       float64 `json:"voice_latency,omitempty"`
	TranscriberLatency float64 `json:"transcriber_latency,omitempty"`
}

// LatencyBreakdown orders the artifact messages into turns with absolute and
// call-relative timing. Message times are epoch milliseconds; callStart may
// be zero, in which case the first message's time anchors relative figures.
func LatencyBreakdown(msgs []vapi.Message, callStart time.Time) []Turn {
	if len(msgs) == 0 {
		return nil
	}
	startMs := float64(0)
	if !callStart.IsZero() {
		startMs = float64(callStart.UnixMilli())
	} else if msgs[0].Time > 0 {
		startMs = msgs[0].Time
	}

	turns := make([]Turn, 0, len(msgs))
	for i, msg := range msgs {
		msgMs := msg.Time
		relative := msg.SecondsFromStart
		if relative == 0 && msgMs > 0 && startMs > 0 {
			relative = (msgMs - startMs) / 1000
		}
		if msgMs == 0 && relative > 0 && startMs > 0 {
			msgMs = startMs + relative*1000
		}

		var duration float64
		if msg.Duration > 0 {
			duration = msg.Duration / 1000
		} else if msg.EndTime > 0 && msgMs > 0 {
			duration = (msg.EndTime - msgMs) / 1000
		}

		if msg.Role == "" && msgMs == 0 && msg.SecondsFromStart == 0 {
			continue
		}
		role := msg.Role
		if role == "" {
			role = "unknown"
		}
		var stamp string
		if msgMs > 0 {
			stamp = time.UnixMilli(int64(msgMs)).UTC().Format(time.RFC3339Nano)
		}
		turns = append(turns, Turn{
			Turn:               i + 1,
			Role:               role,
			Timestamp:          stamp,
			TimeRelative:       relative,
			DurationSeconds:    duration,
			ModelLatency:       msg.ModelLatency,
			VoiceLatency:       msg.VoiceLatency,
			TranscriberLatency: msg.TranscriberLatency,
		})
	}
	return turns
}

func toolCallsMeta(nodes []vapi.Node) []map[string]any {
	out := make([]map[string]any, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, map[string]any{
			"name":     node.Name,
			"endpoint": coalesceStr(node.Endpoint, node.URL),
			"status":   node.Status,
			"time_ms":  node.Duration,
		})
	}
	return out
}

// transfersMeta always produces a value, an empty list when the call had no
// transfers, so consumers can range without a presence check.
func transfersMeta(call *vapi.Call) []map[string]any {
	out := []map[string]any{}
	if call.Artifact == nil {
		return out
	}
	for _, tr := range call.Artifact.Transfers {
		out = append(out, map[string]any{
			"transferred":    true,
			"transferred_to": coalesceStr(tr.Destination, tr.Number),
			"transfer_time":  coalesceStr(tr.Time, call.StartedAt),
		})
	}
	return out
}

func coalesceStr(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}

func putStr(m map[string]any, key, val string) {
	if val != "" {
		m[key] = val
	}
}
