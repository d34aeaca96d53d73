package highlights

import "strings"

// ClientInfo is the contact card assembled from a call; every field is
// optional. Structured vendor fields (the caller's number) are preferred
// over anything regex-extracted from text.
type ClientInfo struct {
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Location string `json:"location,omitempty"`
}

// ExtractClientInfo assembles a contact card from the transcript and
// summary. callerNumber, when present and not the "Unknown" sentinel, is
// taken as-is; only then does the phone pattern run against the text.
func ExtractClientInfo(transcript, summary, callerNumber string) ClientInfo {
	var info ClientInfo

	primary := summary
	if primary == "" {
		primary = transcript
	}

	if callerNumber != "" && callerNumber != "Unknown" {
		info.Phone = callerNumber
	} else {
		for _, rule := range phoneRules {
			if match := rule.FindStringSubmatch(primary); match != nil {
				info.Phone = match[1]
				break
			}
		}
	}

	if match := emailRule.FindStringSubmatch(primary); match != nil {
		info.Email = match[1]
	}

	info.Location = location(primary)

	if summary != "" {
		info.Name = bestClientName(summary)
	}
	if info.Name == "" && transcript != "" {
		info.Name = firstName(transcriptNameRules, nonAssistantLines(transcript), nameExclusions)
	}
	return info
}

// location joins the best address and city matches, either of which may be
// absent, into one display string.
func location(text string) string {
	var parts []string
	for _, rule := range locationAddressRules {
		found := ""
		for _, match := range rule.FindAllStringSubmatch(text, -1) {
			addr := match[0]
			if len(match) > 1 && match[1] != "" {
				addr = match[1]
			}
			addr = cleanAddress(addr)
			if digitCheck.MatchString(addr) && streetTypeCheck.MatchString(addr) {
				found = addr
				break
			}
		}
		if found != "" {
			parts = append(parts, found)
			break
		}
	}

	if city := firstCity(text, locationCityContextRule); city != "" &&
		!strings.Contains(strings.ToLower(city), "assistant") {
		parts = append(parts, city)
	}
	return strings.Join(parts, ", ")
}

// bestClientName collects candidates from every summary pattern and prefers
// a proper two-word name (first and last) over a single token. Exclusion is
// by substring here: "Grace Assistant" must not survive as a name.
func bestClientName(summary string) string {
	var candidates []string
	for _, rule := range clientNameRules {
		for _, match := range rule.FindAllStringSubmatch(summary, -1) {
			name := strings.TrimSpace(match[1])
			if len(name) > 3 {
				candidates = append(candidates, name)
			}
		}
	}

	for _, name := range candidates {
		if excludedBySubstring(name) {
			continue
		}
		parts := strings.Fields(name)
		if len(parts) >= 2 && allProperTokens(parts) {
			return name
		}
	}
	for _, name := range candidates {
		lower := strings.ToLower(name)
		if _, excluded := nameExclusions[lower]; excluded {
			continue
		}
		if len(name) > 3 && properNameToken.MatchString(name) {
			return name
		}
	}
	return ""
}

func excludedBySubstring(name string) bool {
	lower := strings.ToLower(name)
	for excluded := range nameExclusions {
		if strings.Contains(lower, excluded) {
			return true
		}
	}
	return false
}

func allProperTokens(parts []string) bool {
	for _, part := range parts {
		if len(part) < 2 || !properNameToken.MatchString(part) {
			return false
		}
	}
	return true
}

// nonAssistantLines drops only the assistant's turns, keeping every other
// line including untagged ones.
func nonAssistantLines(transcript string) string {
	var kept []string
	for _, line := range strings.Split(transcript, "\n") {
		lower := strings.ToLower(strings.TrimSpace(line))
		if strings.HasPrefix(lower, "assistant:") ||
			strings.HasPrefix(lower, "bot:") ||
			strings.HasPrefix(lower, "grace:") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, " ")
}
