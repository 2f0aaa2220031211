package batch

import (
	"context"

	"github.com/google/uuid"

	"pixbatch/internal/handle"
	"pixbatch/internal/imaging"
	"pixbatch/internal/logging"
	"pixbatch/internal/services"
	"pixbatch/internal/transform"
)

// runJob is one Run invocation as handed to the worker. The format and
// options are captured when the run starts.
type runJob struct {
	id         string
	ctx        context.Context
	generation uint64
	entries    []ItemID
	format     transform.Format
	options    transform.Options

	done    chan struct{}
	summary RunSummary
	err     error
}

type entryOutcome int

const (
	outcomeSkipped entryOutcome = iota
	outcomeSucceeded
	outcomeFailed
)

// Run converts every item that is Pending or Error at the moment the run
// starts, strictly one at a time in batch order, and blocks until the run
// ends. Items added during the run wait for the next one. A failed item is
// recorded and the run moves on; call Run again to retry failures. Run
// returns ErrRunInProgress if another run is active and a zero summary when
// nothing is eligible.
func (c *Controller) Run(ctx context.Context) (RunSummary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var (
		job  *runJob
		busy bool
	)
	err := c.exec(ctx, func(s *state) {
		if s.activeRun != nil {
			busy = true
			return
		}
		entries := make([]ItemID, 0, len(s.items))
		for _, item := range s.items {
			if item.Status.Eligible() {
				entries = append(entries, item.ID)
			}
		}
		if len(entries) == 0 {
			return
		}
		job = &runJob{
			id:         uuid.NewString(),
			ctx:        ctx,
			generation: s.generation,
			entries:    entries,
			format:     s.format,
			options:    s.options,
			done:       make(chan struct{}),
		}
		job.summary = RunSummary{RunID: job.id, Total: len(entries)}
		s.activeRun = job
		c.setRun(s, Running(0, len(entries)))
	})
	if err != nil {
		return RunSummary{}, err
	}
	if busy {
		return RunSummary{}, ErrRunInProgress
	}
	if job == nil {
		return RunSummary{}, nil
	}

	logger := logging.WithContext(services.WithRunID(ctx, job.id), c.logger)
	logger.Info("conversion run started",
		logging.Int("items", len(job.entries)),
		logging.String("format", string(job.format)),
		logging.Int("quality", job.options.Quality),
	)

	select {
	case c.jobs <- job:
	case <-c.done:
		return job.summary, ErrClosed
	case <-ctx.Done():
		_ = c.exec(context.Background(), func(s *state) { c.finishRun(s, job) })
		job.summary.Skipped = job.summary.Total
		return job.summary, ctx.Err()
	}
	<-job.done

	summary := job.summary
	logger.Info("conversion run finished",
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped),
		logging.Duration("duration", summary.Duration),
	)
	return summary, job.err
}

// beginEntry moves an entry's item to Converting. It reports false when the
// item is gone or no longer eligible, in which case the entry is skipped
// without calling the converter.
func (c *Controller) beginEntry(s *state, id ItemID) (Source, bool) {
	item, ok := s.index[id]
	if !ok || !item.Status.Eligible() {
		return Source{}, false
	}
	item.Status = StatusConverting
	item.ErrorMessage = ""
	item.UpdatedAt = c.now()
	c.emitItem(EventItemUpdated, item)
	return item.Source, true
}

// commitEntry applies a conversion outcome to the current item and advances
// the run's progress. A result for an item that has left the batch is
// released instead of stored.
func (c *Controller) commitEntry(s *state, job *runJob, processed int, id ItemID, result *handle.Handle, convErr error) entryOutcome {
	defer c.advance(s, job, processed)

	item, ok := s.index[id]
	if !ok || item.Status != StatusConverting {
		c.discard(result, id, "result")
		return outcomeSkipped
	}
	item.UpdatedAt = c.now()

	if convErr != nil {
		details := services.Details(convErr)
		item.Status = StatusError
		item.ErrorMessage = services.FailureMessage(convErr)
		c.emitItem(EventItemUpdated, item)
		hint := details.Hint
		if hint == "" {
			hint = "check the conversion service logs"
		}
		logging.WarnWithContext(c.logger, "item conversion failed", "item_conversion_failed",
			logging.String(logging.FieldRunID, job.id),
			logging.String(logging.FieldItemID, string(id)),
			logging.String("error_message", item.ErrorMessage),
			logging.String(logging.FieldErrorKind, string(details.Kind)),
			logging.String(logging.FieldErrorHint, hint),
			logging.String(logging.FieldImpact, "item left in error; run again to retry"),
			logging.Error(convErr),
		)
		return outcomeFailed
	}

	if item.Result != nil {
		c.release(item.Result, id, "result")
	}
	item.Result = result
	item.ResultSize = result.Size()
	item.ResultDimensions = imaging.Dimensions{}
	item.Status = StatusDone
	c.startProbe(id, result)
	c.emitItem(EventItemUpdated, item)
	c.logger.Debug("item converted",
		logging.String(logging.FieldRunID, job.id),
		logging.String(logging.FieldItemID, string(id)),
		logging.Int64("source_bytes", item.Source.Size()),
		logging.Int64("result_bytes", item.ResultSize),
	)
	return outcomeSucceeded
}

// advance publishes Running(processed, total) if job is still the active run.
func (c *Controller) advance(s *state, job *runJob, processed int) {
	if s.activeRun != job || s.generation != job.generation {
		return
	}
	c.setRun(s, Running(processed, len(job.entries)))
}

// finishRun returns the batch to idle if job is still the active run.
func (c *Controller) finishRun(s *state, job *runJob) {
	if s.activeRun != job {
		return
	}
	s.activeRun = nil
	c.setRun(s, Idle())
}
