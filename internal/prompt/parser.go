package prompt

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/yeonho/movie-suggester-go/internal/constants"
	"github.com/yeonho/movie-suggester-go/internal/domain"
	"github.com/yeonho/movie-suggester-go/pkg/errors"
)

// Parse extracts a list of draft suggestions from raw model output. It is
// lenient on structure (code fences, surrounding prose) but strict on
// emptiness: zero valid records is a parse error.
func Parse(rawText string) ([]domain.DraftSuggestion, error) {
	jsonText := extractJSON(stripCodeFences(rawText))
	if jsonText == "" {
		return nil, errors.NewParseError("no JSON structure in model output", map[string]any{
			"preview": preview(rawText),
		})
	}

	var decoded any
	if err := json.Unmarshal([]byte(jsonText), &decoded); err != nil {
		return nil, errors.NewParseError("model output is not valid JSON", map[string]any{
			"preview": preview(jsonText),
		}).WithCause(err)
	}

	var records []any
	switch v := decoded.(type) {
	case []any:
		records = v
	case map[string]any:
		records = []any{v}
	default:
		return nil, errors.NewParseError("model output is not an array or object", nil)
	}

	drafts := make([]domain.DraftSuggestion, 0, len(records))
	for _, record := range records {
		if draft, ok := coerceDraft(record); ok {
			drafts = append(drafts, draft)
		}
	}

	if len(drafts) == 0 {
		return nil, errors.NewParseError("no valid suggestions in model output", map[string]any{
			"records": len(records),
		})
	}

	return drafts, nil
}

// coerceDraft validates one loosely-typed record. Missing title or reason
// drops the record; an implausible year is cleared rather than dropping it.
func coerceDraft(record any) (domain.DraftSuggestion, bool) {
	m, ok := record.(map[string]any)
	if !ok {
		return domain.DraftSuggestion{}, false
	}

	title := stringField(m, "title")
	reason := stringField(m, "reason")
	if title == "" || reason == "" {
		return domain.DraftSuggestion{}, false
	}

	kindRaw, _ := m["content_type"].(string)
	draft := domain.DraftSuggestion{
		Title:       title,
		Reason:      reason,
		Description: stringField(m, "description"),
		Genres:      genreField(m),
		Year:        yearField(m),
		Kind:        domain.ParseContentKind(strings.ToLower(strings.TrimSpace(kindRaw))),
	}

	// Chat replies carry no catalog semantics.
	if draft.Kind == domain.KindChat {
		draft.Genres = nil
		draft.Year = nil
	}

	return draft, true
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func genreField(m map[string]any) []string {
	switch v := m["genre"].(type) {
	case []any:
		genres := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					genres = append(genres, trimmed)
				}
			}
		}
		return genres
	case string:
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return []string{trimmed}
		}
	}
	return nil
}

func yearField(m map[string]any) *int {
	f, ok := m["year"].(float64)
	if !ok {
		return nil
	}

	year := int(f)
	maxYear := time.Now().Year() + constants.PromptLimits.MaxYearSlack
	if year < constants.PromptLimits.MinYear || year > maxYear {
		return nil
	}
	return &year
}

// stripCodeFences removes a surrounding markdown code fence if present.
func stripCodeFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "```json"))
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "```"))
	}
	if strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "```"))
	}
	return cleaned
}

// extractJSON returns the first balanced top-level array or object in the
// text, quote- and escape-aware, or "" when none closes.
func extractJSON(text string) string {
	start := -1
	var open, close byte
	for i := 0; i < len(text); i++ {
		if text[i] == '[' || text[i] == '{' {
			start = i
			open = text[i]
			if open == '[' {
				close = ']'
			} else {
				close = '}'
			}
			break
		}
	}
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	return ""
}

func preview(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) > 200 {
		return trimmed[:200]
	}
	return trimmed
}
