package query

import (
	"regexp"
	"strings"
)

// Mode is the processing strategy chosen for a question.
type Mode string

// SubMode refines VECTOR_SEARCH into whole-dataset analysis vs. top-k lookup.
type SubMode string

const (
	ModeStatistical  Mode = "STATISTICAL"
	ModeSmartFull    Mode = "SMART_FULL"
	ModeVectorSearch Mode = "VECTOR_SEARCH"

	SubModeAnalytical SubMode = "ANALYTICAL"
	SubModeSpecific   SubMode = "SPECIFIC"
)

// Classification pattern tables, evaluated short-circuit in priority order:
// statistical intent first, then full-data intent, then the vector-search
// analytical/specific split. Extending coverage (a new language, a new
// phrasing) means adding a row here, not touching DetectMode.
var statisticalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\btotal\s+(?:spend|spent|spending|amount|expenses?|kharcha?)\b`),
	regexp.MustCompile(`(?i)\bwhat(?:'s| is)?\s+(?:my|the)\s+total\b`),
	regexp.MustCompile(`(?i)\bhow much\b.*\b(?:spend|spent|paid|received|earned)\b`),
	regexp.MustCompile(`(?i)\b(?:average|avg|mean)\s+(?:amount|spend|spending|transaction)\b`),
	regexp.MustCompile(`(?i)\bsum of\b`),
	regexp.MustCompile(`(?i)\b(?:highest|largest|biggest|maximum|lowest|smallest|minimum)\s+(?:transaction|amount|spend|expense)\b`),
	regexp.MustCompile(`(?i)\bkitna\s+(?:kharcha?|paisa|amount)\b`),
	regexp.MustCompile(`(?i)\bhow many\s+transactions?\s+(?:do|did|have)\b`),
}

var fullDataPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:show|list|display|view|give)\s+(?:me\s+)?(?:all|every|saa?ri|sabhi|sab|full)\b`),
	regexp.MustCompile(`(?i)\ball\s+(?:my\s+|the\s+)?transactions?\b`),
	regexp.MustCompile(`(?i)\bfull\s+(?:data|list|history|statement)\b`),
	regexp.MustCompile(`(?i)(?:सारी|सारे|सभी|सब)\s*(?:transactions?|ट्रांज)`),
	regexp.MustCompile(`(?i)\b(?:saa?ri|sabhi|sab)\s+transactions?\b.*\b(?:dikhao|dikhaiye|batao)\b`),
	regexp.MustCompile(`(?i)\b(?:dikhao|dikhaiye)\b`),
}

var analyticalKeywords = []string{
	"summarize", "summarise", "summary", "analyze", "analyse",
	"overview", "insights", "patterns", "trends", "breakdown",
}

var countingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:how many|kitne|count|total)\s+.*?transaction`),
	regexp.MustCompile(`(?i)transaction.*?\b(?:how many|kitne|count|total)`),
	// no \b around Devanagari: RE2 word boundaries are ASCII-only
	regexp.MustCompile(`(?i)(?:कितने|कितनी)\s+.*?(?:transaction|ट्रांज)`),
	regexp.MustCompile(`(?i)(?:transaction|ट्रांज).*?(?:कितने|कितनी)`),
	regexp.MustCompile(`(?i)\bnumber of\s+transaction`),
}

// DetectMode classifies a question into a processing strategy. It is
// deterministic and side-effect free; datasetSize mirrors the caller
// contract and lets pattern rows discriminate on collection size, though
// none of the current rows do.
func DetectMode(question string, datasetSize int) (Mode, SubMode) {
	q := strings.ToLower(question)

	for _, re := range statisticalPatterns {
		if re.MatchString(q) {
			return ModeStatistical, ""
		}
	}
	for _, re := range fullDataPatterns {
		if re.MatchString(q) {
			return ModeSmartFull, ""
		}
	}
	return ModeVectorSearch, detectVectorSub(q)
}

func detectVectorSub(q string) SubMode {
	for _, kw := range analyticalKeywords {
		if strings.Contains(q, kw) {
			return SubModeAnalytical
		}
	}
	for _, re := range countingPatterns {
		if re.MatchString(q) {
			return SubModeAnalytical
		}
	}
	return SubModeSpecific
}

// ResolveMode applies the caller's tri-state full-data override on top of
// the textual classification. The override short-circuits to SMART_FULL or
// VECTOR_SEARCH regardless of what the text suggests.
func ResolveMode(question string, datasetSize int, useFullData *bool) (Mode, SubMode) {
	if useFullData != nil {
		if *useFullData {
			return ModeSmartFull, ""
		}
		return ModeVectorSearch, detectVectorSub(strings.ToLower(question))
	}
	return DetectMode(question, datasetSize)
}
