package mcp

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ContextEntry is one normalized research result, shaped like a retriever
// hit so web and tool results mix freely downstream.
type ContextEntry struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// LLMAnalysisURL marks the entry holding the model's own synthesis of a tool
// session.
const LLMAnalysisURL = "mcp://llm_analysis"

// NormalizeResult converts an arbitrary tool payload into context entries.
// It is idempotent: feeding an already-normalized entry back through yields
// the same entry.
func NormalizeResult(payload any, toolName string) []ContextEntry {
	switch v := payload.(type) {
	case map[string]any:
		if sc, ok := v["structured_content"]; ok {
			return normalizeStructured(sc, toolName)
		}
		if sc, ok := v["structuredContent"]; ok {
			return normalizeStructured(sc, toolName)
		}
		if content, ok := v["content"]; ok {
			// A map that also carries a title is an already-shaped entry,
			// not a tool envelope. Folding it would mangle its provenance.
			if _, hasTitle := v["title"]; !hasTitle {
				return []ContextEntry{{
					Title:   "Result from " + toolName,
					URL:     "mcp://" + toolName,
					Content: foldContent(content),
				}}
			}
		}
		return []ContextEntry{entryFromMap(v, toolName)}
	case []any:
		entries := make([]ContextEntry, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				entries = append(entries, entryFromMap(m, toolName))
				continue
			}
			entries = append(entries, ContextEntry{
				Title:   "Result from " + toolName,
				URL:     "mcp://" + toolName,
				Content: stringify(item),
			})
		}
		return entries
	default:
		return []ContextEntry{{
			Title:   "Result from " + toolName,
			URL:     "mcp://" + toolName,
			Content: stringify(payload),
		}}
	}
}

// normalizeStructured handles the structured_content branch: a mapping with
// a results list fans out one entry per item; anything else collapses to a
// single entry.
func normalizeStructured(sc any, toolName string) []ContextEntry {
	m, ok := sc.(map[string]any)
	if !ok {
		return []ContextEntry{{
			Title:   "Result from " + toolName,
			URL:     "mcp://" + toolName,
			Content: stringify(sc),
		}}
	}
	if results, ok := m["results"].([]any); ok {
		entries := make([]ContextEntry, 0, len(results))
		for _, item := range results {
			if rm, ok := item.(map[string]any); ok {
				entries = append(entries, entryFromMap(rm, toolName))
			} else {
				entries = append(entries, ContextEntry{
					Title:   "Result from " + toolName,
					URL:     "mcp://" + toolName,
					Content: stringify(item),
				})
			}
		}
		return entries
	}
	return []ContextEntry{entryFromMap(m, toolName)}
}

// entryFromMap builds one entry from a mapping, with field fallbacks:
// title, href|url, body|content.
func entryFromMap(m map[string]any, toolName string) ContextEntry {
	entry := ContextEntry{
		Title: stringField(m, "title"),
		URL:   stringField(m, "href", "url"),
	}
	if entry.Title == "" {
		entry.Title = "Result from " + toolName
	}
	if entry.URL == "" {
		entry.URL = "mcp://" + toolName
	}
	if content := stringField(m, "body", "content"); content != "" {
		entry.Content = content
	} else {
		entry.Content = stringify(m)
	}
	return entry
}

// foldContent flattens an MCP content value: part lists join their text
// blocks with blank lines, strings pass through, anything else stringifies.
func foldContent(content any) string {
	switch v := content.(type) {
	case []any:
		parts := make([]string, 0, len(v))
		for _, part := range v {
			if m, ok := part.(map[string]any); ok {
				if text, ok := m["text"].(string); ok {
					parts = append(parts, text)
					continue
				}
			}
			parts = append(parts, stringify(part))
		}
		return strings.Join(parts, "\n\n")
	case string:
		return v
	default:
		return stringify(v)
	}
}

func stringField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
