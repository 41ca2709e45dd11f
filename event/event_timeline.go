package event

const (
	EventJourneyRegistered     = "journey.registered"
	EventTimelineCreated       = "timeline.created"
	EventTimelineEventExecuted = "timeline.event.executed"
	EventTimelineEventFailed   = "timeline.event.failed"
)
