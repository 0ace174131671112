package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "DOC_INGESTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the generic implementation services publish directly.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// DocumentIngested announces that a document finished embedding and is
// searchable in its collection.
func DocumentIngested(collectionName, documentName string, chunkCount int) Event {
	return BaseEvent{
		Type: "DOC_INGESTED",
		Data: map[string]interface{}{
			"collection_name": collectionName,
			"document_name":   documentName,
			"chunk_count":     chunkCount,
		},
		OccurredAt: time.Now(),
	}
}

// DocumentDeleted announces that a document's chunks were removed.
func DocumentDeleted(collectionName, documentName string) Event {
	return BaseEvent{
		Type: "DOC_DELETED",
		Data: map[string]interface{}{
			"collection_name": collectionName,
			"document_name":   documentName,
		},
		OccurredAt: time.Now(),
	}
}

// CollectionDeleted announces that a collection and all its content are gone.
func CollectionDeleted(collectionName string) Event {
	return BaseEvent{
		Type: "COLLECTION_DELETED",
		Data: map[string]interface{}{
			"collection_name": collectionName,
		},
		OccurredAt: time.Now(),
	}
}
