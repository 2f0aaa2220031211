package testsupport

import (
	"context"
	"sync"

	"pixbatch/internal/transform"
)

// Response is one scripted converter reply.
type Response struct {
	Data []byte
	Err  error
}

// Converter is a scripted conversion collaborator keyed by source name.
// Unscripted calls succeed with a small deterministic payload.
type Converter struct {
	gates

	mu          sync.Mutex
	scripts     map[string][]Response
	calls       []transform.Request
	inFlight    int
	maxInFlight int
	started     chan string
}

// NewConverter returns a converter with no scripted responses.
func NewConverter() *Converter {
	return &Converter{
		scripts: make(map[string][]Response),
		started: make(chan string, 64),
	}
}

// Script queues responses for calls naming source. Once the queue is
// drained, calls fall back to the default success.
func (c *Converter) Script(source string, responses ...Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scripts[source] = append(c.scripts[source], responses...)
}

// Fail queues a single failure for source.
func (c *Converter) Fail(source string, err error) {
	c.Script(source, Response{Err: err})
}

// Hold blocks calls for source until the returned function is called.
func (c *Converter) Hold(source string) func() {
	return c.hold(source)
}

// Started receives the source name of each call as it begins.
func (c *Converter) Started() <-chan string {
	return c.started
}

// Convert implements batch.Converter.
func (c *Converter) Convert(ctx context.Context, req transform.Request) ([]byte, error) {
	c.mu.Lock()
	c.calls = append(c.calls, req)
	c.inFlight++
	if c.inFlight > c.maxInFlight {
		c.maxInFlight = c.inFlight
	}
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.inFlight--
		c.mu.Unlock()
	}()

	signal(c.started, req.Name)
	if err := c.wait(ctx, req.Name); err != nil {
		return nil, err
	}

	c.mu.Lock()
	var resp *Response
	if queue := c.scripts[req.Name]; len(queue) > 0 {
		resp = &queue[0]
		c.scripts[req.Name] = queue[1:]
	}
	c.mu.Unlock()

	if resp != nil {
		return resp.Data, resp.Err
	}
	return []byte("converted:" + req.Name + "." + string(req.Format)), nil
}

// Calls returns every request seen so far.
func (c *Converter) Calls() []transform.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]transform.Request, len(c.calls))
	copy(out, c.calls)
	return out
}

// CallNames returns the source names of every call in order.
func (c *Converter) CallNames() []string {
	calls := c.Calls()
	names := make([]string, len(calls))
	for i, call := range calls {
		names[i] = call.Name
	}
	return names
}

// MaxInFlight returns the highest number of concurrent calls observed.
func (c *Converter) MaxInFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxInFlight
}
