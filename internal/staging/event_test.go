package staging

import (
	"errors"
	"testing"
)

func TestEventBuilder_Build(t *testing.T) {
	t.Parallel()
	b := NewEventBuilder("")

	staged := &Report{
		RunID:            "run-1",
		Status:           StatusStaged,
		Project:          "app_skin",
		Variant:          "debug",
		Intent:           "explicit",
		Source:           "materialized-early",
		Path:             "/ws/app_skin/build/outputs/apk/debug/app_skin-debug.apk",
		MaterializedFrom: "/ws/app_skin/build/intermediates/apk/debug/app_skin-debug.apk",
		Destination:      "/ws/app/src/main/assets/skin.apk",
		Bytes:            42,
		SHA256:           "abc",
	}
	event := b.Build(staged, nil)

	if event.Type != EventTypeStaged {
		t.Errorf("Type = %q, want %q", event.Type, EventTypeStaged)
	}
	if event.Source != EventSource {
		t.Errorf("Source = %q, want %q", event.Source, EventSource)
	}
	if event.Subject != ":app_skin" {
		t.Errorf("Subject = %q, want :app_skin", event.Subject)
	}
	if event.ID == "" {
		t.Error("expected a generated event ID")
	}
	if event.Data["bytes"] != int64(42) {
		t.Errorf("bytes = %v, want 42", event.Data["bytes"])
	}
	if event.Data["materializedFrom"] != staged.MaterializedFrom {
		t.Errorf("materializedFrom = %v", event.Data["materializedFrom"])
	}
	if _, ok := event.Data["error"]; ok {
		t.Error("staged event should not carry an error")
	}
}

func TestEventBuilder_TypesByStatus(t *testing.T) {
	t.Parallel()
	b := NewEventBuilder("custom")
	tests := []struct {
		status Status
		want   string
	}{
		{StatusStaged, EventTypeStaged},
		{StatusMissing, EventTypeMissing},
		{StatusSkipped, EventTypeSkipped},
		{StatusFailed, EventTypeFailed},
	}
	for _, tt := range tests {
		event := b.Build(&Report{Status: tt.status, Project: "app_skin"}, nil)
		if event.Type != tt.want {
			t.Errorf("Build(%s).Type = %q, want %q", tt.status, event.Type, tt.want)
		}
		if event.Source != "custom" {
			t.Errorf("Source = %q, want custom", event.Source)
		}
	}
}

func TestEventBuilder_FailedCarriesError(t *testing.T) {
	t.Parallel()
	event := NewEventBuilder("").Build(&Report{Status: StatusFailed, Project: "app_skin"}, errors.New("disk full"))
	if event.Data["error"] != "disk full" {
		t.Errorf("error = %v, want 'disk full'", event.Data["error"])
	}
	if _, ok := event.Data["path"]; ok {
		t.Error("failed event should not carry a path")
	}
}

func TestEventBuilder_UniqueIDs(t *testing.T) {
	t.Parallel()
	b := NewEventBuilder("")
	r := &Report{Status: StatusMissing, Project: "app_skin"}
	if b.Build(r, nil).ID == b.Build(r, nil).ID {
		t.Error("expected distinct event IDs")
	}
}
