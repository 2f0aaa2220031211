package batch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"pixbatch/internal/config"
	"pixbatch/internal/handle"
	"pixbatch/internal/imaging"
	"pixbatch/internal/logging"
	"pixbatch/internal/transform"
)

// Converter is the external conversion collaborator.
type Converter interface {
	Convert(ctx context.Context, req transform.Request) ([]byte, error)
}

// Decoder is the decode/probe collaborator used for previews and result
// dimensions. Decode returns a handle owned by the caller.
type Decoder interface {
	Decode(ctx context.Context, content []byte) (imaging.Decoded, error)
	Probe(ctx context.Context, content []byte) (imaging.Dimensions, error)
}

const defaultPreviewConcurrency = 4

// Option configures a Controller.
type Option func(*options)

type options struct {
	logger             *slog.Logger
	ids                IDGenerator
	alloc              *handle.Allocator
	format             transform.Format
	transform          transform.Options
	observers          []Observer
	previewConcurrency int
	clock              func() time.Time
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithIDGenerator replaces the UUID item id generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(o *options) { o.ids = gen }
}

// WithAllocator sets the allocator used for result handles. Pass the same
// allocator to the decoder so Outstanding covers every handle.
func WithAllocator(alloc *handle.Allocator) Option {
	return func(o *options) { o.alloc = alloc }
}

// WithDefaults sets the target format and options a fresh or reset batch
// starts with.
func WithDefaults(format transform.Format, opts transform.Options) Option {
	return func(o *options) {
		o.format = format
		o.transform = opts
	}
}

// WithObserver registers an observer for committed state changes.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithPreviewConcurrency bounds concurrent decode and probe calls.
func WithPreviewConcurrency(n int) Option {
	return func(o *options) { o.previewConcurrency = n }
}

// WithClock overrides the time source for item timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// Controller owns one batch from creation until Close.
type Controller struct {
	conv      Converter
	dec       Decoder
	alloc     *handle.Allocator
	ids       IDGenerator
	logger    *slog.Logger
	observers []Observer
	clock     func() time.Time

	defaultFormat  transform.Format
	defaultOptions transform.Options

	previews *semaphore.Weighted

	cmds     chan command
	jobs     chan *runJob
	done     chan struct{}
	loopDone chan struct{}

	baseCtx context.Context
	cancel  context.CancelFunc

	closeOnce sync.Once
	wg        sync.WaitGroup

	// st is touched only by the loop goroutine.
	st *state
}

type command func(*state)

// state is the batch as seen by the loop goroutine.
type state struct {
	items      []*Item
	index      map[ItemID]*Item
	issued     map[ItemID]struct{}
	activeID   ItemID
	format     transform.Format
	options    transform.Options
	run        RunState
	activeRun  *runJob
	generation uint64
	closed     bool
}

// New starts a controller. conv and dec must be non-nil.
func New(conv Converter, dec Decoder, opts ...Option) *Controller {
	o := options{
		format:             transform.DefaultFormat,
		transform:          transform.Defaults(),
		previewConcurrency: defaultPreviewConcurrency,
		clock:              time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ids == nil {
		o.ids = UUIDGenerator{}
	}
	if o.alloc == nil {
		o.alloc = handle.NewAllocator()
	}
	if o.previewConcurrency < 1 {
		o.previewConcurrency = 1
	}
	if !o.format.Valid() {
		o.format = transform.DefaultFormat
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		conv:           conv,
		dec:            dec,
		alloc:          o.alloc,
		ids:            o.ids,
		logger:         logging.NewComponentLogger(o.logger, "batch"),
		observers:      o.observers,
		clock:          o.clock,
		defaultFormat:  o.format,
		defaultOptions: o.transform,
		previews:       semaphore.NewWeighted(int64(o.previewConcurrency)),
		cmds:           make(chan command),
		jobs:           make(chan *runJob),
		done:           make(chan struct{}),
		loopDone:       make(chan struct{}),
		baseCtx:        baseCtx,
		cancel:         cancel,
		st: &state{
			index:   make(map[ItemID]*Item),
			issued:  make(map[ItemID]struct{}),
			format:  o.format,
			options: o.transform,
		},
	}

	go c.loop()
	c.wg.Add(1)
	go c.work()
	return c
}

// NewFromConfig starts a controller using configured defaults and preview
// limits.
func NewFromConfig(cfg *config.Config, conv Converter, dec Decoder, logger *slog.Logger, opts ...Option) *Controller {
	base := []Option{WithLogger(logger)}
	if cfg != nil {
		base = append(base,
			WithDefaults(cfg.DefaultFormat(), cfg.Transform),
			WithPreviewConcurrency(cfg.Preview.Concurrency),
		)
	}
	return New(conv, dec, append(base, opts...)...)
}

// Allocator returns the allocator used for result handles.
func (c *Controller) Allocator() *handle.Allocator {
	return c.alloc
}

// Close releases every handle the batch holds, stops the loop and worker,
// and waits for outstanding decode, probe, and conversion calls. Handles
// produced by those late calls are released. Close is idempotent.
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		c.cmds <- func(s *state) {
			c.clearItems(s)
			s.activeRun = nil
			s.run = Idle()
			s.closed = true
		}
		<-c.loopDone
		close(c.done)
		c.wg.Wait()
		c.logger.Debug("batch controller closed",
			logging.Int64("outstanding_handles", c.alloc.Outstanding()),
		)
	})
	return nil
}

func (c *Controller) loop() {
	defer close(c.loopDone)
	for cmd := range c.cmds {
		cmd(c.st)
		if c.st.closed {
			return
		}
	}
}

// exec runs fn on the loop goroutine and waits for it to finish.
func (c *Controller) exec(ctx context.Context, fn command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	finished := make(chan struct{})
	wrapped := func(s *state) {
		defer close(finished)
		fn(s)
	}
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.cmds <- wrapped:
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

// post delivers an asynchronous result to the loop. It reports false when
// the controller has shut down, in which case the caller still owns any
// handle it was about to hand over.
func (c *Controller) post(fn command) bool {
	return c.exec(context.Background(), fn) == nil
}

func (c *Controller) emit(event Event) {
	for _, obs := range c.observers {
		obs.OnEvent(event)
	}
}

func (c *Controller) emitItem(kind EventKind, item *Item) {
	if len(c.observers) == 0 || item == nil {
		return
	}
	c.emit(Event{Kind: kind, Item: *item})
}

func (c *Controller) setRun(s *state, run RunState) {
	s.run = run
	c.emit(Event{Kind: EventProgress, Run: run})
}

func (c *Controller) now() time.Time {
	return c.clock()
}
