// Package cloudevent posts staging outcomes as CloudEvents 1.0 in structured
// JSON mode, with the event attributes mirrored into Ce-* headers.
package cloudevent

import (
	"errors"
	"time"
)

const (
	// SpecVersion is the only CloudEvents version produced.
	SpecVersion = "1.0"
	// ContentTypeJSON is the datacontenttype of every event payload.
	ContentTypeJSON = "application/json"
)

// CloudEvent is one outcome notification. Type is a stager.artifact.*
// name (staged, missing, skipped, failed) and Subject the producer project
// in build path form, e.g. ":app_skin". Data carries the run report fields.
type CloudEvent struct {
	SpecVersion     string         `json:"specversion"`
	Type            string         `json:"type"`
	Source          string         `json:"source"`
	Subject         string         `json:"subject,omitempty"`
	ID              string         `json:"id"`
	Time            time.Time      `json:"time"`
	DataContentType string         `json:"datacontenttype"`
	Data            map[string]any `json:"data,omitempty"`
}

// New stamps an event with the current UTC time.
func New(eventType, source, subject, id string, data map[string]any) *CloudEvent {
	return &CloudEvent{
		SpecVersion:     SpecVersion,
		Type:            eventType,
		Source:          source,
		Subject:         subject,
		ID:              id,
		Time:            time.Now().UTC(),
		DataContentType: ContentTypeJSON,
		Data:            data,
	}
}

// Validate checks the attributes a receiver needs to route and deduplicate
// the event.
func (e *CloudEvent) Validate() error {
	var errs []error
	if e.SpecVersion != SpecVersion {
		errs = append(errs, errors.New("cloudevent: unsupported specversion "+e.SpecVersion))
	}
	if e.ID == "" {
		errs = append(errs, errors.New("cloudevent: id is required"))
	}
	if e.Source == "" {
		errs = append(errs, errors.New("cloudevent: source is required"))
	}
	if e.Type == "" {
		errs = append(errs, errors.New("cloudevent: type is required"))
	}
	return errors.Join(errs...)
}
