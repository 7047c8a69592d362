package meeting

import "testing"

func TestParseID(t *testing.T) {
	if _, err := ParseID("  "); err == nil {
		t.Fatalf("blank id must be rejected")
	}
	id, err := ParseID("m-123")
	if err != nil || id.String() != "m-123" {
		t.Fatalf("parse: %v %q", err, id)
	}
}

func TestParseRecordingType(t *testing.T) {
	cases := map[string]RecordingType{
		"cloud":   RecordingCloud,
		"CLOUD":   RecordingCloud,
		" local ": RecordingLocal,
		"none":    RecordingNone,
		"":        RecordingNone,
		"webm":    RecordingNone,
	}
	for raw, want := range cases {
		if got := ParseRecordingType(raw); got != want {
			t.Fatalf("%q: expected %s, got %s", raw, want, got)
		}
	}
}
