package domain

import (
	"encoding/json"
	"testing"
)

func TestMessage_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantTag  ActionTag
		wantName any
		hasName  bool
		wantErr  bool
	}{
		{name: "Bare Tag", input: `{"type":"OPEN_MENU"}`, wantTag: TagOpenMenu},
		{name: "Payload Flattened", input: `{"type":"UPDATE_NAME","name":"Ada"}`, wantTag: TagUpdateName, wantName: "Ada", hasName: true},
		{name: "Unknown Tag Accepted", input: `{"type":"NOOP_TAG"}`, wantTag: "NOOP_TAG"},
		{name: "Missing Type", input: `{"name":"Ada"}`, wantErr: true},
		{name: "Non String Type", input: `{"type":42}`, wantErr: true},
		{name: "Not An Object", input: `[]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg Message
			err := json.Unmarshal([]byte(tt.input), &msg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got message %+v", msg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if msg.Type != tt.wantTag {
				t.Errorf("Type = %q, want %q", msg.Type, tt.wantTag)
			}
			name, ok := msg.Lookup(KeyName)
			if ok != tt.hasName || name != tt.wantName {
				t.Errorf("Lookup(name) = (%v, %v), want (%v, %v)", name, ok, tt.wantName, tt.hasName)
			}
		})
	}
}

func TestMessage_MarshalJSON(t *testing.T) {
	bytes, err := json.Marshal(UpdateName("Ada"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var flat map[string]any
	if err := json.Unmarshal(bytes, &flat); err != nil {
		t.Fatalf("output is not an object: %v", err)
	}
	if flat["type"] != "UPDATE_NAME" || flat["name"] != "Ada" {
		t.Errorf("unexpected wire form: %s", string(bytes))
	}
}

func TestCardsQuery_Projection(t *testing.T) {
	q := CardsQuery()
	if q.Collection != CardsCollection {
		t.Fatalf("Collection = %q", q.Collection)
	}

	nested := map[string]int{}
	for _, f := range q.Fields {
		nested[f.Name] = len(f.Children)
	}
	if nested["image"] != 8 || nested["logo"] != 8 {
		t.Errorf("image/logo must project all 8 asset fields, got %v", nested)
	}
	if _, ok := nested["content"]; !ok {
		t.Error("content field missing from projection")
	}
}
