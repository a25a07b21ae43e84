package services

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/cropmind/cropmind-engine/pkg/jsonutil"
	"github.com/cropmind/cropmind-engine/pkg/models"
)

// The provider's report format is not contractually guaranteed. The prompt
// asks for three labeled sections, but models drift: numbering, bold markers,
// casing and label wording all vary, and some models answer in JSON despite
// being asked for prose. Parsing is therefore total - any input yields a
// draft, with missing sections left empty.

// sectionRe locates a section label. A colon is required (before or after a
// closing bold marker) to avoid matching the label words in running prose.
var sectionRe = regexp.MustCompile(`(?i)\*{0,2}\s*(?:\d+\s*[.)]\s*)?(detected\s+pest|pest\s+name|suggested\s+treatment|treatment|remedies|remedy|pest)\s*(?::\s*\*{0,2}|\*{0,2}\s*:)\s*`)

// bulletRe strips list markers from itemized remedy lines.
var bulletRe = regexp.MustCompile(`^\s*(?:[-*•]+|\d+\s*[.)])\s*`)

// ParseDetectionReport converts the inference provider's free-text report
// into a detection draft. It never fails: malformed or missing sections
// yield empty fields.
func ParseDetectionReport(text string) *models.DetectionDraft {
	draft := &models.DetectionDraft{Remedies: []string{}}

	cleaned := stripFences(text)
	if cleaned == "" {
		return draft
	}

	if jsonDraft, ok := tryParseJSONDraft(cleaned); ok {
		return jsonDraft
	}

	matches := sectionRe.FindAllStringSubmatchIndex(cleaned, -1)
	for i, m := range matches {
		label := strings.ToLower(cleaned[m[2]:m[3]])

		end := len(cleaned)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		content := cleaned[m[1]:end]

		switch {
		case strings.Contains(label, "remed"):
			if len(draft.Remedies) == 0 {
				draft.Remedies = splitRemedies(content)
			}
		case strings.Contains(label, "treat"):
			if draft.Treatment == "" {
				draft.Treatment = cleanSection(content)
			}
		default: // pest
			if draft.PestName == "" {
				draft.PestName = firstLine(cleanSection(content))
			}
		}
	}

	return draft
}

// stripFences removes a surrounding markdown code block if present.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// tryParseJSONDraft handles providers that answer in JSON. Key names and
// value types are not trusted; anything unusable falls back to prose parsing.
func tryParseJSONDraft(text string) (*models.DetectionDraft, bool) {
	if !strings.HasPrefix(text, "{") {
		return nil, false
	}

	var payload struct {
		PestName           json.RawMessage `json:"pest_name"`
		Pest               json.RawMessage `json:"pest"`
		DetectedPest       json.RawMessage `json:"detected_pest"`
		Remedies           json.RawMessage `json:"remedies"`
		Treatment          json.RawMessage `json:"treatment"`
		SuggestedTreatment json.RawMessage `json:"suggested_treatment"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, false
	}

	pest := jsonutil.FlexibleStringValue(payload.PestName)
	if pest == "" {
		pest = jsonutil.FlexibleStringValue(payload.DetectedPest)
	}
	if pest == "" {
		pest = jsonutil.FlexibleStringValue(payload.Pest)
	}

	treatment := jsonutil.FlexibleStringValue(payload.Treatment)
	if treatment == "" {
		treatment = jsonutil.FlexibleStringValue(payload.SuggestedTreatment)
	}

	remedies := jsonutil.FlexibleStringList(payload.Remedies)
	if len(remedies) == 1 {
		// A single entry may itself be a delimited list.
		remedies = splitDelimited(remedies[0])
	}

	if pest == "" && treatment == "" && len(remedies) == 0 {
		return nil, false
	}

	return &models.DetectionDraft{
		PestName:  strings.TrimSpace(pest),
		Remedies:  remedies,
		Treatment: strings.TrimSpace(treatment),
	}, true
}

// splitRemedies turns a remedies section into discrete entries: itemized
// lines when the section is a list, delimiter-separated otherwise.
func splitRemedies(section string) []string {
	entries := make([]string, 0)
	for _, line := range strings.Split(section, "\n") {
		line = cleanSection(bulletRe.ReplaceAllString(line, ""))
		if line != "" {
			entries = append(entries, line)
		}
	}

	if len(entries) == 1 {
		return splitDelimited(entries[0])
	}
	return entries
}

func splitDelimited(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';'
	})

	entries := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = cleanSection(p); p != "" {
			entries = append(entries, p)
		}
	}
	return entries
}

func cleanSection(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*")
	return strings.TrimSpace(s)
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
