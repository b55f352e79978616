package models

import (
	"encoding/json"
	"testing"
)

func TestTriStateUnmarshal(t *testing.T) {
	tests := []struct {
		input string
		want  TriState
	}{
		{`null`, TriUnknown},
		{`true`, TriTrue},
		{`false`, TriFalse},
		{`"2024-03-01T10:00:00Z"`, TriTrue},
		{`""`, TriUnknown},
	}

	for _, tt := range tests {
		var payload struct {
			Watched TriState `json:"Watched"`
		}
		if err := json.Unmarshal([]byte(`{"Watched":`+tt.input+`}`), &payload); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.input, err)
		}
		if payload.Watched != tt.want {
			t.Errorf("input %s: expected %s, got %s", tt.input, tt.want, payload.Watched)
		}
	}
}

func TestTriStateMissingFieldIsUnknown(t *testing.T) {
	var payload struct {
		Watched TriState `json:"Watched"`
	}
	if err := json.Unmarshal([]byte(`{}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Watched.Known() {
		t.Errorf("expected unknown, got %s", payload.Watched)
	}
}

func TestTriStateRejectsNumbers(t *testing.T) {
	var ts TriState
	if err := json.Unmarshal([]byte(`1`), &ts); err == nil {
		t.Error("expected error for numeric watched flag")
	}
}
