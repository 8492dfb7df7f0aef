package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"gamo-keyword-api/models"
)

const (
	// DefaultWeight is used when a reply lists a keyword without a weight.
	DefaultWeight = 1

	// MaxKeywordRunes matches the keyword column width.
	MaxKeywordRunes = 255
)

type keywordItem struct {
	Keyword *string     `json:"keyword"`
	Text    *string     `json:"text"`
	Weight  json.Number `json:"weight"`
}

// ParseKeywordReply turns an extraction reply into (keyword, weight) pairs.
//
// Accepted shapes, optionally wrapped in ``` fences or surrounded by prose:
//
//	[{"keyword": "...", "weight": 4}, ...]   ("text" is accepted for "keyword")
//	["...", "..."]                           (weight defaults to DefaultWeight)
//	{"keywords": [...]}                      (either of the above, nested)
//
// Anything else fails with ErrMalformedExtraction.
func ParseKeywordReply(raw string) ([]models.ExtractedKeyword, error) {
	items, err := decodeFirstArray(stripCodeFences(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExtraction, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty keyword list", ErrMalformedExtraction)
	}

	out := make([]models.ExtractedKeyword, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		kw, err := parseKeywordItem(item)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrMalformedExtraction, i, err)
		}
		if _, dup := seen[kw.Text]; dup {
			continue
		}
		seen[kw.Text] = struct{}{}
		out = append(out, kw)
	}
	return out, nil
}

func parseKeywordItem(item json.RawMessage) (models.ExtractedKeyword, error) {
	trimmed := bytes.TrimSpace(item)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return models.ExtractedKeyword{}, err
		}
		return newExtracted(text, DefaultWeight)
	}

	var obj keywordItem
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return models.ExtractedKeyword{}, err
	}

	var text string
	switch {
	case obj.Keyword != nil:
		text = *obj.Keyword
	case obj.Text != nil:
		text = *obj.Text
	default:
		return models.ExtractedKeyword{}, fmt.Errorf("missing keyword")
	}

	weight := DefaultWeight
	if obj.Weight != "" {
		w, err := parseWeight(obj.Weight)
		if err != nil {
			return models.ExtractedKeyword{}, err
		}
		weight = w
	}
	return newExtracted(text, weight)
}

func newExtracted(text string, weight int) (models.ExtractedKeyword, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ExtractedKeyword{}, fmt.Errorf("empty keyword")
	}
	if utf8.RuneCountInString(text) > MaxKeywordRunes {
		text = truncateRunes(text, MaxKeywordRunes)
	}
	return models.ExtractedKeyword{Text: text, Weight: weight}, nil
}

// parseWeight accepts integers and integral floats ("4", 4, 4.0).
func parseWeight(n json.Number) (int, error) {
	if i, err := n.Int64(); err == nil {
		if i < math.MinInt32 || i > math.MaxInt32 {
			return 0, fmt.Errorf("weight %s out of range", n)
		}
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("weight %q is not an integer", n.String())
	}
	return int(f), nil
}

// ParseSentenceReply keeps the first non-empty line of a rendering reply,
// without surrounding quotes or list markers.
func ParseSentenceReply(raw string) (string, error) {
	for _, line := range strings.Split(stripCodeFences(raw), "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• ")
		line = strings.Trim(line, "\"'“”‘’` ")
		if line != "" {
			return line, nil
		}
	}
	return "", fmt.Errorf("%w: empty sentence", ErrMalformedRender)
}

// ParseLetterReply returns the corrected letter with fences and outer
// whitespace removed; paragraph breaks are kept.
func ParseLetterReply(raw string) (string, error) {
	letter := stripCodeFences(raw)
	if letter == "" {
		return "", fmt.Errorf("%w: empty letter", ErrMalformedRender)
	}
	return letter, nil
}

// stripCodeFences drops a leading ``` line (with or without a language tag)
// and a trailing ``` line.
func stripCodeFences(src string) string {
	s := strings.TrimSpace(src)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return strings.TrimSpace(strings.Trim(s, "`"))
	}
	body := lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		body = lines[1 : len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(body, "\n"))
}

// decodeFirstArray decodes the first JSON array in s. Text after the array,
// such as a closing fence or a note from the model, is ignored.
func decodeFirstArray(s string) ([]json.RawMessage, error) {
	err := errors.New("no JSON array in reply")
	for offset := 0; ; {
		i := strings.IndexByte(s[offset:], '[')
		if i < 0 {
			return nil, err
		}
		start := offset + i

		var items []json.RawMessage
		if err = json.NewDecoder(strings.NewReader(s[start:])).Decode(&items); err == nil {
			return items, nil
		}
		offset = start + 1
	}
}
