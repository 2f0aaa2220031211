package batch

import (
	"time"

	"pixbatch/internal/handle"
	"pixbatch/internal/imaging"
	"pixbatch/internal/transform"
)

// ItemID identifies an item for the controller's lifetime.
type ItemID string

// Status represents the lifecycle of a batch item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConverting Status = "converting"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// Eligible reports whether a run should pick up an item in this status.
func (s Status) Eligible() bool {
	return s == StatusPending || s == StatusError
}

// Source is the immutable input of an item.
type Source struct {
	Name      string
	MediaType string
	Content   []byte
}

// Size returns the content length in bytes.
func (s Source) Size() int64 {
	return int64(len(s.Content))
}

// Item is one tracked source with its preview and conversion result.
type Item struct {
	ID               ItemID
	Source           Source
	Preview          *handle.Handle
	SourceDimensions imaging.Dimensions
	Status           Status
	ErrorMessage     string
	Result           *handle.Handle
	ResultSize       int64
	ResultDimensions imaging.Dimensions
	AddedAt          time.Time
	UpdatedAt        time.Time
}

// HasPreview reports whether a preview handle is attached.
func (i Item) HasPreview() bool {
	return i.Preview != nil
}

// HasResult reports whether a conversion result is attached.
func (i Item) HasResult() bool {
	return i.Result != nil
}

// Batch is a consistent copy of the controller state.
type Batch struct {
	Items        []Item
	ActiveID     ItemID
	TargetFormat transform.Format
	Options      transform.Options
	Run          RunState
}

// Active returns the selected item, if any.
func (b Batch) Active() (Item, bool) {
	return b.Find(b.ActiveID)
}

// Find returns the item with id.
func (b Batch) Find(id ItemID) (Item, bool) {
	if id == "" {
		return Item{}, false
	}
	for _, item := range b.Items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// RunSummary reports what a single Run did.
type RunSummary struct {
	RunID     string        `json:"run_id"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Duration  time.Duration `json:"duration_ns"`
}

// Processed returns the number of entries that reached the converter.
func (s RunSummary) Processed() int {
	return s.Succeeded + s.Failed
}
