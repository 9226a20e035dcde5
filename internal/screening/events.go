package screening

import (
	"github.com/spigell/resume-screener/internal/report"
)

// EventKind identifies a pipeline event.
type EventKind int

const (
	// EventExtractionFailed is emitted when text extraction returned an error.
	EventExtractionFailed EventKind = iota + 1
	// EventEmptyText is emitted when a document has no extractable text.
	EventEmptyText
	// EventScoringFailed is emitted when the scorer failed or panicked.
	EventScoringFailed
	// EventRecordReady is emitted after every record, in input order.
	EventRecordReady
)

func (k EventKind) String() string {
	switch k {
	case EventExtractionFailed:
		return "extraction_failed"
	case EventEmptyText:
		return "empty_text"
	case EventScoringFailed:
		return "scoring_failed"
	case EventRecordReady:
		return "record_ready"
	default:
		return "unknown"
	}
}

// Event describes progress on one document.
type Event struct {
	Kind     EventKind
	Index    int
	Total    int
	Document string
	Err      error
	// Record is set for EventRecordReady.
	Record *report.Record
}

// Observer receives pipeline events synchronously.
type Observer interface {
	Notify(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) Notify(e Event) { f(e) }

type nopObserver struct{}

func (nopObserver) Notify(Event) {}
