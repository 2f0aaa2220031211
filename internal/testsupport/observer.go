package testsupport

import (
	"sync"

	"pixbatch/internal/batch"
)

// Recorder is a batch.Observer that keeps every event.
type Recorder struct {
	mu     sync.Mutex
	events []batch.Event
}

// OnEvent implements batch.Observer.
func (r *Recorder) OnEvent(e batch.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []batch.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]batch.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Progress returns the run states of progress events in order.
func (r *Recorder) Progress() []batch.RunState {
	var out []batch.RunState
	for _, e := range r.Events() {
		if e.Kind == batch.EventProgress {
			out = append(out, e.Run)
		}
	}
	return out
}

// Statuses returns the item statuses recorded for id in order, starting with
// the status it was added with.
func (r *Recorder) Statuses(id batch.ItemID) []batch.Status {
	var out []batch.Status
	for _, e := range r.Events() {
		if e.Item.ID != id || e.Kind == batch.EventItemRemoved {
			continue
		}
		if len(out) == 0 || out[len(out)-1] != e.Item.Status {
			out = append(out, e.Item.Status)
		}
	}
	return out
}
