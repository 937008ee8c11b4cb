package testutil

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/heaptrace/pkg/model"
)

// AssertJSONEqual asserts that two JSON strings are semantically equal.
func AssertJSONEqual(t *testing.T, expected, actual string) {
	t.Helper()

	var expectedJSON, actualJSON interface{}

	if err := json.Unmarshal([]byte(expected), &expectedJSON); err != nil {
		t.Fatalf("failed to parse expected JSON: %v", err)
	}

	if err := json.Unmarshal([]byte(actual), &actualJSON); err != nil {
		t.Fatalf("failed to parse actual JSON: %v", err)
	}

	if !reflect.DeepEqual(expectedJSON, actualJSON) {
		expectedPretty, _ := json.MarshalIndent(expectedJSON, "", "  ")
		actualPretty, _ := json.MarshalIndent(actualJSON, "", "  ")
		t.Errorf("JSON not equal:\nExpected:\n%s\n\nActual:\n%s", expectedPretty, actualPretty)
	}
}

// AssertKinds asserts the sequence of action kinds in events.
func AssertKinds(t *testing.T, events []model.ParsedEvent, kinds ...model.ActionKind) {
	t.Helper()

	got := make([]model.ActionKind, len(events))
	for i, e := range events {
		got[i] = e.Action.Kind()
	}
	if len(kinds) != len(got) || (len(got) > 0 && !reflect.DeepEqual(kinds, got)) {
		t.Errorf("action kinds = %v, want %v", got, kinds)
	}
}
