// Package highlights mines call transcripts and AI summaries for caller
// details with ordered regex heuristics. It is deliberately best-effort
// pattern matching: rule order encodes priority and must be preserved, not
// "improved" into smarter text analysis.
package highlights

import (
	"regexp"
	"strings"
)

type Urgency string

const (
	UrgencyHigh   Urgency = "High"
	UrgencyMedium Urgency = "Medium"
	UrgencyLow    Urgency = "Low"
)

type Intent string

const (
	IntentInspection  Intent = "Inspection"
	IntentQuote       Intent = "Quote"
	IntentRepair      Intent = "Repair"
	IntentAppointment Intent = "Appointment"
	IntentTest        Intent = "Test"
)

// Highlights is what the extractor could find; every field is optional.
type Highlights struct {
	CallerName string   `json:"caller_name,omitempty"`
	Address    string   `json:"address,omitempty"`
	City       string   `json:"city,omitempty"`
	Urgency    Urgency  `json:"urgency,omitempty"`
	Intent     Intent   `json:"intent,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
}

// Extract scans a transcript and/or summary for caller name, address, city,
// urgency and intent. The summary is preferred wherever both exist: it is
// shorter and more regularly phrased than the raw transcript, so every
// pattern runs against the summary first and falls through to the transcript
// only when the summary yields nothing. excludeAssistantName removes the
// receptionist's own name from name candidates.
//
// Both inputs empty returns the zero Highlights, never an error.
func Extract(transcript, summary, excludeAssistantName string) Highlights {
	if transcript == "" && summary == "" {
		return Highlights{}
	}

	primary := summary
	if primary == "" {
		primary = transcript
	}
	text := strings.ToLower(primary)

	var h Highlights
	exclusions := nameExclusionSet(excludeAssistantName)

	if summary != "" {
		h.CallerName = firstName(summaryNameRules, summary, exclusions)
	}
	if h.CallerName == "" && transcript != "" {
		h.CallerName = firstName(transcriptNameRules, callerLines(transcript), exclusions)
	}

	h.Address = firstAddress(addressRules, primary)
	h.City = firstCity(primary, cityContextRule)

	h.Urgency, h.Keywords = urgency(text)
	h.Intent = intent(text)
	return h
}

func nameExclusionSet(assistantName string) map[string]struct{} {
	if assistantName == "" {
		return nameExclusions
	}
	set := make(map[string]struct{}, len(nameExclusions)+2)
	for k := range nameExclusions {
		set[k] = struct{}{}
	}
	lower := strings.ToLower(assistantName)
	set[lower] = struct{}{}
	for _, part := range strings.Fields(lower) {
		set[part] = struct{}{}
	}
	return set
}

// firstName walks the rule table in order and returns the first captured
// token that survives the exclusion filter.
func firstName(rules []*regexp.Regexp, text string, exclusions map[string]struct{}) string {
	for _, rule := range rules {
		for _, match := range rule.FindAllStringSubmatch(text, -1) {
			name := strings.TrimSpace(match[1])
			if len(name) > 2 {
				if _, excluded := exclusions[strings.ToLower(name)]; !excluded {
					return name
				}
			}
		}
	}
	return ""
}

// callerLines keeps only transcript lines plausibly spoken by the caller:
// explicit user/customer/caller prefixes or untagged lines, never the
// assistant's own turns.
func callerLines(transcript string) string {
	var kept []string
	for _, line := range strings.Split(transcript, "\n") {
		lower := strings.ToLower(strings.TrimSpace(line))
		if strings.HasPrefix(lower, "assistant:") ||
			strings.HasPrefix(lower, "bot:") ||
			strings.HasPrefix(lower, "grace:") {
			continue
		}
		if strings.HasPrefix(lower, "user:") ||
			strings.HasPrefix(lower, "customer:") ||
			strings.HasPrefix(lower, "caller:") ||
			!strings.Contains(lower, ":") {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, " ")
}

func firstAddress(rules []*regexp.Regexp, text string) string {
	for _, rule := range rules {
		match := rule.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		addr := match[0]
		if len(match) > 1 && match[1] != "" {
			addr = match[1]
		}
		addr = cleanAddress(addr)
		if addr != "" {
			return addr
		}
	}
	return ""
}

func cleanAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	for _, prefix := range addressPrefixCleanup {
		addr = prefix.ReplaceAllString(addr, "")
	}
	return strings.TrimSpace(addr)
}

func firstCity(text string, contextRule *regexp.Regexp) string {
	if match := cityGazetteer.FindStringSubmatch(text); match != nil {
		return strings.TrimSpace(match[1])
	}
	if match := contextRule.FindStringSubmatch(text); match != nil {
		city := strings.TrimSpace(match[1])
		if _, bad := cityFalsePositives[city]; !bad && len(city) > 2 {
			return city
		}
	}
	return ""
}

// urgency buckets the text by keyword presence: any high-urgency keyword
// wins over any medium one; everything else is Low. Matched keywords are
// returned de-duplicated in table order.
func urgency(text string) (Urgency, []string) {
	if hits := keywordHits(text, highUrgencyKeywords); len(hits) > 0 {
		return UrgencyHigh, hits
	}
	if hits := keywordHits(text, mediumUrgencyKeywords); len(hits) > 0 {
		return UrgencyMedium, hits
	}
	return UrgencyLow, nil
}

func keywordHits(text string, keywords []string) []string {
	var hits []string
	seen := map[string]struct{}{}
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			if _, dup := seen[kw]; !dup {
				seen[kw] = struct{}{}
				hits = append(hits, kw)
			}
		}
	}
	return hits
}

func intent(text string) Intent {
	for _, rule := range intentRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				return rule.Intent
			}
		}
	}
	return ""
}
