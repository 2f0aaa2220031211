package batch

import (
	"context"
	"time"

	"pixbatch/internal/handle"
	"pixbatch/internal/services"
	"pixbatch/internal/transform"
)

// work is the single conversion worker. It executes one run at a time, so
// there is never more than one converter call in flight.
func (c *Controller) work() {
	defer c.wg.Done()
	for {
		select {
		case job := <-c.jobs:
			c.execute(job)
		case <-c.done:
			return
		}
	}
}

func (c *Controller) execute(job *runJob) {
	defer close(job.done)

	ctx, cancel := context.WithCancel(job.ctx)
	defer cancel()
	stop := context.AfterFunc(c.baseCtx, cancel)
	defer stop()
	ctx = services.WithRunID(ctx, job.id)

	start := time.Now()
	for i, id := range job.entries {
		if err := ctx.Err(); err != nil {
			job.summary.Skipped += len(job.entries) - i
			job.err = c.abortReason(job)
			break
		}
		outcome, err := c.processEntry(ctx, job, i+1, id)
		if err != nil {
			job.summary.Skipped += len(job.entries) - i
			job.err = err
			break
		}
		switch outcome {
		case outcomeSucceeded:
			job.summary.Succeeded++
		case outcomeFailed:
			job.summary.Failed++
		default:
			job.summary.Skipped++
		}
	}
	job.summary.Duration = time.Since(start)
	c.post(func(s *state) { c.finishRun(s, job) })
}

func (c *Controller) abortReason(job *runJob) error {
	if c.baseCtx.Err() != nil {
		return ErrClosed
	}
	if err := job.ctx.Err(); err != nil {
		return err
	}
	return context.Canceled
}

// processEntry converts one snapshot entry. It returns an error only when
// the controller shut down mid-entry.
func (c *Controller) processEntry(ctx context.Context, job *runJob, processed int, id ItemID) (entryOutcome, error) {
	var (
		src   Source
		begun bool
	)
	if !c.post(func(s *state) { src, begun = c.beginEntry(s, id) }) {
		return outcomeSkipped, ErrClosed
	}
	if !begun {
		if !c.post(func(s *state) { c.advance(s, job, processed) }) {
			return outcomeSkipped, ErrClosed
		}
		return outcomeSkipped, nil
	}

	data, convErr := c.conv.Convert(services.WithItemID(ctx, string(id)), transform.Request{
		Name:      src.Name,
		MediaType: src.MediaType,
		Content:   src.Content,
		Format:    job.format,
		Options:   job.options,
	})
	var result *handle.Handle
	if convErr == nil {
		if len(data) == 0 {
			convErr = services.Wrap(services.ErrExternalTool, "batch", "convert", "conversion returned an empty result", nil)
		} else {
			result = c.alloc.New(data, job.format.MediaType())
		}
	}

	var outcome entryOutcome
	if !c.post(func(s *state) { outcome = c.commitEntry(s, job, processed, id, result, convErr) }) {
		_ = result.Release()
		return outcomeSkipped, ErrClosed
	}
	return outcome, nil
}
