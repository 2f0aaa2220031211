package batch

// RunState is the aggregate run indicator: idle, or running with
// Current of Total entries finished.
type RunState struct {
	Running bool `json:"running"`
	Current int  `json:"current"`
	Total   int  `json:"total"`
}

// Idle returns the idle run state.
func Idle() RunState { return RunState{} }

// Running returns a running state with current of total entries finished.
func Running(current, total int) RunState {
	return RunState{Running: true, Current: current, Total: total}
}

// Fraction returns completion in [0, 1]; 0 when idle.
func (r RunState) Fraction() float64 {
	if !r.Running || r.Total <= 0 {
		return 0
	}
	return float64(r.Current) / float64(r.Total)
}

// Counts tallies items by status.
type Counts struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Converting int `json:"converting"`
	Done       int `json:"done"`
	Error      int `json:"error"`
}

// Counts derives per-status totals from the batch items.
func (b Batch) Counts() Counts {
	c := Counts{Total: len(b.Items)}
	for _, item := range b.Items {
		switch item.Status {
		case StatusPending:
			c.Pending++
		case StatusConverting:
			c.Converting++
		case StatusDone:
			c.Done++
		case StatusError:
			c.Error++
		}
	}
	return c
}

// Completed returns how many items are done out of how many are tracked.
func (b Batch) Completed() (done, total int) {
	c := b.Counts()
	return c.Done, c.Total
}

// EventKind classifies controller notifications.
type EventKind string

const (
	EventItemAdded   EventKind = "item_added"
	EventItemUpdated EventKind = "item_updated"
	EventItemRemoved EventKind = "item_removed"
	EventProgress    EventKind = "progress"
	EventReset       EventKind = "reset"
)

// Event is a committed state change. Item is a copy taken at commit time and
// is zero for progress and reset events.
type Event struct {
	Kind EventKind
	Item Item
	Run  RunState
}

// Observer receives events from the controller loop in commit order.
// Implementations must return promptly and must not call back into the
// controller.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }
