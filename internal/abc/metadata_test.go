package abc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMetaDataSerializeSortsKeys(t *testing.T) {
	metaData := NewMetaData(map[string]string{"schema": XformSchemaTitle, "_ai_Application": "demo", "a": "1"})
	expected := "_ai_Application=demo;a=1;schema=AbcGeom_Xform_v3"
	if serialized := metaData.Serialize(); serialized != expected {
		t.Fatalf("expected %q, got %q", expected, serialized)
	}
}

func TestParseMetaData(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expected    map[string]string
		expectError bool
	}{
		{name: "empty", input: "", expected: map[string]string{}},
		{name: "single", input: "schema=AbcGeom_Points_v1", expected: map[string]string{"schema": PointsSchemaTitle}},
		{name: "empty_value", input: "a=;b=2", expected: map[string]string{"a": "", "b": "2"}},
		{name: "trailing_separator", input: "a=1;", expected: map[string]string{"a": "1"}},
		{name: "missing_assign", input: "a=1;broken", expectError: true},
		{name: "empty_key", input: "=value", expectError: true},
		{name: "escaped_separator", input: `note=a\;b`, expected: map[string]string{"note": "a;b"}},
		{name: "unescaped_assign_in_value", input: "a=b=c", expected: map[string]string{"a": "b=c"}},
		{name: "dangling_escape", input: `a=b\`, expectError: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			metaData, err := ParseMetaData(testCase.input)
			if testCase.expectError {
				if err == nil {
					t.Fatalf("expected error for %q", testCase.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(testCase.expected, metaDataEntries(metaData)); diff != "" {
				t.Fatalf("metadata mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMetaDataRoundTrip(t *testing.T) {
	testCases := []struct {
		name  string
		pairs map[string]string
	}{
		{name: "plain", pairs: map[string]string{"geoScope": "fvr", "interpretation": "normal"}},
		{name: "separator_in_value", pairs: map[string]string{"note": "a;b"}},
		{name: "assign_in_key_and_value", pairs: map[string]string{"x=y": "1=2"}},
		{name: "backslashes", pairs: map[string]string{"path": `C:\scenes\`, "tail": `\`}},
		{name: "empty_value", pairs: map[string]string{"a": ""}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			original := NewMetaData(testCase.pairs)
			parsed, err := ParseMetaData(original.Serialize())
			if err != nil {
				t.Fatalf("parse %q: %v", original.Serialize(), err)
			}
			if diff := cmp.Diff(testCase.pairs, metaDataEntries(parsed)); diff != "" {
				t.Fatalf("metadata mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMetaDataSerializeEscapes(t *testing.T) {
	metaData := NewMetaData(map[string]string{"note": "a;b", "k=v": `x\y`})
	expected := `k\=v=x\\y;note=a\;b`
	if serialized := metaData.Serialize(); serialized != expected {
		t.Fatalf("expected %q, got %q", expected, serialized)
	}
}

func TestMetaDataZeroValue(t *testing.T) {
	var metaData MetaData
	if metaData.Len() != 0 || metaData.Serialize() != "" || metaData.Get("schema") != "" {
		t.Fatalf("zero metadata should be empty")
	}
	metaData.Set("schema", XformSchemaTitle)
	if !MatchesXform(ObjectHeader{MetaData: metaData}) {
		t.Fatalf("expected header to match transform schema")
	}
}

func metaDataEntries(metaData MetaData) map[string]string {
	entries := make(map[string]string, metaData.Len())
	for _, key := range metaData.Keys() {
		entries[key] = metaData.Get(key)
	}
	return entries
}
