package lesson

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Parse decodes a lesson file. Only a document that is not a JSON object is
// rejected; every field is read leniently so a single badly typed value
// degrades to its zero value instead of failing the lesson. Strings are kept,
// numbers are formatted, and anything else reads as empty.
func Parse(slug string, data []byte) (Document, error) {
	if slug == "" {
		return Document{}, ErrEmptySlug
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, err
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return Document{}, ErrNotObject
	}

	doc := Document{
		Slug:    slug,
		Title:   asString(obj["title"]),
		Summary: asString(obj["summary"]),
		Tags:    asStrings(obj["tags"]),
	}
	if list, ok := obj["blocks"].([]any); ok {
		for _, item := range list {
			fields, ok := item.(map[string]any)
			if !ok {
				continue
			}
			doc.Blocks = append(doc.Blocks, decodeBlock(fields))
		}
	}
	return doc, nil
}

func decodeBlock(f map[string]any) Block {
	b := Block{
		Kind:        strings.ToLower(asString(f["type"])),
		Text:        asString(f["text"]),
		Language:    strings.ToLower(asString(f["language"])),
		Code:        asString(f["code"]),
		Items:       asStrings(f["items"]),
		Ordered:     Truthy(f["ordered"]),
		Headers:     asStrings(f["headers"]),
		Src:         asString(f["src"]),
		Alt:         asString(f["alt"]),
		URL:         asString(f["url"]),
		Title:       asString(f["title"]),
		Aspect:      asString(f["aspect"]),
		Callout:     strings.ToLower(asString(f["kind"])),
		Runnable:    Truthy(f["runnable"]),
		Question:    asString(f["question"]),
		Choices:     asStrings(f["choices"]),
		Explanation: asString(f["explanation"]),
	}
	if n, ok := asInt(f["level"]); ok {
		b.Level = n
	}
	if h, ok := f["height"].(float64); ok {
		b.Height = h
	}
	if n, ok := asInt(f["correctIndex"]); ok {
		b.CorrectIndex = &n
	}
	if rows, ok := f["rows"].([]any); ok {
		for _, row := range rows {
			cells, ok := row.([]any)
			if !ok {
				continue
			}
			b.Rows = append(b.Rows, asStrings(cells))
		}
	}
	return b
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func asStrings(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, asString(item))
	}
	return out
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	}
	return 0, false
}

// Truthy reports whether a decoded JSON value counts as set: false, 0, "",
// null and empty arrays or objects do not.
func Truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return false
}
