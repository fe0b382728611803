package staging

import (
	"artifactstager/pkg/cloudevent"

	"github.com/google/uuid"
)

// Event types posted to the callback URL, one per run outcome.
const (
	EventTypeStaged  = "stager.artifact.staged"
	EventTypeMissing = "stager.artifact.missing"
	EventTypeSkipped = "stager.artifact.skipped"
	EventTypeFailed  = "stager.artifact.failed"
)

// EventSource is the CloudEvent source of every stager event.
const EventSource = "artifactstager"

func eventType(s Status) string {
	switch s {
	case StatusStaged:
		return EventTypeStaged
	case StatusMissing:
		return EventTypeMissing
	case StatusSkipped:
		return EventTypeSkipped
	default:
		return EventTypeFailed
	}
}

// EventBuilder builds CloudEvents for run reports.
type EventBuilder struct {
	source string
}

// NewEventBuilder creates a new EventBuilder.
func NewEventBuilder(source string) *EventBuilder {
	if source == "" {
		source = EventSource
	}
	return &EventBuilder{source: source}
}

// Build creates a CloudEvent for a report. The subject is the producer
// project path.
func (b *EventBuilder) Build(report *Report, err error) *cloudevent.CloudEvent {
	data := map[string]any{
		"runId":   report.RunID,
		"status":  string(report.Status),
		"project": report.Project,
		"variant": report.Variant,
		"intent":  report.Intent,
	}
	if report.Status == StatusStaged {
		data["source"] = report.Source
		data["path"] = report.Path
		data["destination"] = report.Destination
		data["bytes"] = report.Bytes
		data["sha256"] = report.SHA256
		if report.MaterializedFrom != "" {
			data["materializedFrom"] = report.MaterializedFrom
		}
	}
	if err != nil {
		data["error"] = err.Error()
	}
	return cloudevent.New(eventType(report.Status), b.source, ":"+report.Project, uuid.NewString(), data)
}
