package llm

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestDecodeJSONStrict(t *testing.T) {
	var got map[string]any
	if err := DecodeJSON(`{"server": "researcher", "score": 2}`, &got); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if got["server"] != "researcher" {
		t.Errorf("server = %v", got["server"])
	}
}

func TestDecodeJSONMatchesStrictParser(t *testing.T) {
	// On structurally valid JSON the tolerant parser must behave like a
	// strict one.
	raw := `{"selected_tools": [{"index": 0, "name": "search", "relevance_score": 9}]}`
	var tolerant, strict map[string]any
	if err := DecodeJSON(raw, &tolerant); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	mustUnmarshalStrict(t, raw, &strict)
	if !reflect.DeepEqual(tolerant, strict) {
		t.Errorf("tolerant parse diverged: %v vs %v", tolerant, strict)
	}
}

func TestDecodeJSONRepairsTrailingComma(t *testing.T) {
	var got []string
	if err := DecodeJSON(`["alpha", "beta",]`, &got); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if len(got) != 2 || got[1] != "beta" {
		t.Errorf("got %v", got)
	}
}

func TestDecodeJSONExtractsEmbeddedObject(t *testing.T) {
	raw := "Sure! Here is the result you asked for:\n" +
		`{"server": "analyst", "agent_role_prompt": "You are an analyst."}` +
		"\nLet me know if you need anything else."
	var got struct {
		Server string `json:"server"`
	}
	if err := DecodeJSON(raw, &got); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if got.Server != "analyst" {
		t.Errorf("server = %q", got.Server)
	}
}

func TestDecodeJSONCodeFence(t *testing.T) {
	raw := "```json\n[\"one\", \"two\", \"three\"]\n```"
	got, err := DecodeStringArray(raw)
	if err != nil {
		t.Fatalf("DecodeStringArray: %v", err)
	}
	want := []string{"one", "two", "three"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDecodeJSONGivesUp(t *testing.T) {
	var got map[string]any
	if err := DecodeJSON("not-json", &got); err == nil {
		t.Fatal("expected error for unparseable input")
	}
}

func TestExtractBalancedRespectsStrings(t *testing.T) {
	text := `prefix {"a": "closing } inside string", "b": {"c": 1}} suffix`
	got := ExtractBalanced(text, '{')
	want := `{"a": "closing } inside string", "b": {"c": 1}}`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	if got := ExtractBalanced(`{"never closed": 1`, '{'); got != "" {
		t.Errorf("expected empty for unbalanced input, got %q", got)
	}
}

func TestDecodeStringArraySkipsNonStrings(t *testing.T) {
	got, err := DecodeStringArray(`["keep", 42, " trimmed ", null]`)
	if err != nil {
		t.Fatalf("DecodeStringArray: %v", err)
	}
	want := []string{"keep", "trimmed"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func mustUnmarshalStrict(t *testing.T, raw string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		t.Fatalf("strict unmarshal: %v", err)
	}
}
