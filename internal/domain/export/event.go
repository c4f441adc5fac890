package export

import "context"

// EventRecorded is published once per newly created record.
const EventRecorded = "export.recorded"

// Publisher distributes domain events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, eventType string, rec *Record) error
}
