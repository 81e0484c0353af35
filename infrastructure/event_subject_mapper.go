package infrastructure

import (
	"archedvibes/events"
)

// EventSubjectMapper maps bus events to NATS subjects
type EventSubjectMapper struct {
	prefix string
}

// NewEventSubjectMapper creates a mapper rooted at the community prefix
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{prefix: CommunitySubjectPrefix}
}

// MapEventToSubject returns the subject an event is published on
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	return m.SubjectFor(event.Type())
}

// SubjectFor returns the subject for an event type
func (m *EventSubjectMapper) SubjectFor(eventType events.EventType) string {
	return m.prefix + "." + string(eventType)
}

// GetAllSubjects returns every subject the mapper can produce
func (m *EventSubjectMapper) GetAllSubjects() []string {
	subjects := make([]string, 0, len(events.AllEventTypes))
	for _, t := range events.AllEventTypes {
		subjects = append(subjects, m.SubjectFor(t))
	}
	return subjects
}
