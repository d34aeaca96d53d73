package highlights

import "regexp"

// The extraction rules are ordered heuristics, not a grammar. Rule order is
// load-bearing: every matcher takes the first hit in table order, so changing
// the order changes behavior. Keep new patterns at the end unless they must
// shadow an existing one.

// nameExclusions filters tokens the name patterns routinely capture that are
// role words or fragments of the business name rather than caller names.
var nameExclusions = map[string]struct{}{
	"grace": {}, "assistant": {}, "ai": {}, "bot": {}, "automated": {},
	"system": {}, "vapi": {}, "receptionist": {}, "agent": {}, "trusted": {},
	"kc": {}, "roofing": {}, "customer": {}, "caller": {}, "client": {}, "user": {},
}

// Summary name patterns, tried in order against the AI-generated summary.
// Summaries phrase callers predictably ("Customer Jane Doe called ...").
var summaryNameRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:customer|caller|client|contact)\s+(?:named\s+)?([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`),
	regexp.MustCompile(`(?i)([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)\s+(?:called|calling|contacted|reached out)`),
	regexp.MustCompile(`(?i)(?:call from|caller is|name is)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`),
}

// Transcript name patterns, applied only to lines spoken by the caller.
var transcriptNameRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:i'?m|this is|my name is|it'?s|call me|you can call me|name'?s)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`),
	regexp.MustCompile(`(?im)(?:^|\n)\s*(?:user|customer|caller|client):\s*(?:i'?m|this is|my name is)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`),
}

const streetTypes = `street|st|road|rd|avenue|ave|drive|dr|lane|ln|way|boulevard|blvd|terrace|terr|circle|cir|trail|trl|highway|hwy|route|rt|court|ct|place|pl|parkway|pkwy`

const directions = `north|south|east|west|northeast|northwest|southeast|southwest|n|s|e|w|ne|nw|se|sw`

// Address patterns: number, optional directional, word tokens, street type.
var addressRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\d+\s+[\w\s]+(?:` + streetTypes + `)\b`),
	regexp.MustCompile(`(?i)(?:address|located at|location|at)[:\s]+(\d+\s+[\w\s]+(?:` + streetTypes + `)\b)`),
	regexp.MustCompile(`(?i)(\d+\s+[\w\s]+(?:` + streetTypes + `)\b)`),
}

// Richer address patterns used for the client-info location field, which also
// recognizes directional words ("1114 Southeast Second Terrace").
var locationAddressRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\d+\s+(?:` + directions + `)\s+[\w\s]+(?:` + streetTypes + `)\b`),
	regexp.MustCompile(`(?i)\d+\s+[\w\s]+(?:` + streetTypes + `)\b`),
	regexp.MustCompile(`(?i)(?:address|located at|location|at|property at|property is at)\s*[:\s]*(\d+\s+(?:(?:` + directions + `)\s+)?[\w\s]+(?:` + streetTypes + `)\b)`),
}

var addressPrefixCleanup = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^address[:\s]+`),
	regexp.MustCompile(`(?i)^located at[:\s]+`),
	regexp.MustCompile(`(?i)^at[:\s]+`),
}

var streetTypeCheck = regexp.MustCompile(`(?i)\b(?:` + streetTypes + `)\b`)
var digitCheck = regexp.MustCompile(`\d`)

// cityGazetteer lists the service area's known cities; tried before the
// generic "in <Capitalized>" pattern.
var cityGazetteer = regexp.MustCompile(`(?i)\b(kansas city|overland park|lee'?s summit|olathe|liberty|shawnee|brookside|independence|gladstone|raytown|kansas city mo|kansas city ks|kc mo|kc ks)\b`)

// cityContextRule is the generic fallback; deliberately case-sensitive so it
// only fires on properly capitalized place names.
var cityContextRule = regexp.MustCompile(`(?:in|at|near|located in|city of)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)(?:\s|,|\.|$)`)

var locationCityContextRule = regexp.MustCompile(`(?:in|at|near|located in|city of|from)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)(?:\s|,|\.|$)`)

// cityFalsePositives are capitalized words the generic rule captures that are
// never cities on their own.
var cityFalsePositives = map[string]struct{}{
	"Grace": {}, "Assistant": {}, "Kansas": {}, "City": {}, "Customer": {}, "Caller": {},
}

var highUrgencyKeywords = []string{
	"leak", "leaking", "emergency", "urgent", "asap", "immediately",
	"storm", "damage", "flood", "water",
}

var mediumUrgencyKeywords = []string{"soon", "quickly", "important", "concerned", "worried"}

// intentRules are checked in priority order; the first category with any
// keyword present in the text wins.
var intentRules = []struct {
	Intent   Intent
	Keywords []string
}{
	{IntentInspection, []string{"inspection", "inspect", "assess", "look at", "check"}},
	{IntentQuote, []string{"quote", "estimate", "pricing", "cost", "price", "how much"}},
	{IntentRepair, []string{"repair", "fix", "replace", "work needed"}},
	{IntentAppointment, []string{"schedule", "appointment", "book", "meeting", "when"}},
	{IntentTest, []string{"test", "testing", "just testing", "demo"}},
}

var phoneRules = []*regexp.Regexp{
	regexp.MustCompile(`\b(\d{3}[-.\s]?\d{3}[-.\s]?\d{4})\b`),
	regexp.MustCompile(`(\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4})\b`),
}

var emailRule = regexp.MustCompile(`\b([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})\b`)

// clientNameRules is the wider net used for client info; candidates are
// collected from every rule and then filtered, two-word names first.
var clientNameRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:customer|caller|client|contact|person)\s+(?:named\s+)?([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`),
	regexp.MustCompile(`(?i)([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)\s+(?:called|calling|contacted|reached out|spoke with)`),
	regexp.MustCompile(`(?i)(?:call from|caller is|name is|my name is|this is|caller'?s name is|the caller,?)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`),
	regexp.MustCompile(`(?i)(?:customer|caller|client)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)(?:\s|,|\.|$)`),
	regexp.MustCompile(`(?i)([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)\s+(?:mentioned|provided|gave|requested)`),
	regexp.MustCompile(`\b([A-Z][a-z]+\s+[A-Z][a-z]+)\b`),
}

var properNameToken = regexp.MustCompile(`^[A-Z][a-z]+$`)
