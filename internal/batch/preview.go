package batch

import (
	"pixbatch/internal/handle"
	"pixbatch/internal/imaging"
	"pixbatch/internal/logging"
	"pixbatch/internal/services"
)

// startPreview decodes content in the background. Called from the loop.
func (c *Controller) startPreview(id ItemID, content []byte) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.preview(id, content)
	}()
}

func (c *Controller) preview(id ItemID, content []byte) {
	ctx := services.WithItemID(c.baseCtx, string(id))
	if err := c.previews.Acquire(ctx, 1); err != nil {
		return
	}
	decoded, err := c.dec.Decode(ctx, content)
	c.previews.Release(1)
	if err != nil {
		logging.WithContext(ctx, c.logger).Debug("preview decode failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, string(services.KindOf(err))),
		)
		return
	}
	if decoded.Handle == nil {
		return
	}
	if !c.post(func(s *state) { c.applyPreview(s, id, decoded) }) {
		_ = decoded.Handle.Release()
	}
}

// applyPreview attaches a decoded preview to the current item, or releases
// it when the item is gone.
func (c *Controller) applyPreview(s *state, id ItemID, decoded imaging.Decoded) {
	item, ok := s.index[id]
	if !ok || item.Preview != nil {
		c.discard(decoded.Handle, id, "preview")
		return
	}
	item.Preview = decoded.Handle
	item.SourceDimensions = decoded.Dimensions
	item.UpdatedAt = c.now()
	c.emitItem(EventItemUpdated, item)
}

// startProbe measures a fresh result in the background. Called from the loop.
func (c *Controller) startProbe(id ItemID, result *handle.Handle) {
	content, err := result.Bytes()
	if err != nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx := services.WithItemID(c.baseCtx, string(id))
		if err := c.previews.Acquire(ctx, 1); err != nil {
			return
		}
		dims, err := c.dec.Probe(ctx, content)
		c.previews.Release(1)
		if err != nil {
			logging.WithContext(ctx, c.logger).Debug("result probe failed", logging.Error(err))
			return
		}
		c.post(func(s *state) { c.applyResultDimensions(s, id, result, dims) })
	}()
}

// applyResultDimensions records dims only if the item still holds the result
// that was probed.
func (c *Controller) applyResultDimensions(s *state, id ItemID, result *handle.Handle, dims imaging.Dimensions) {
	item, ok := s.index[id]
	if !ok || item.Result != result {
		c.logger.Debug("stale result dimensions dropped",
			logging.String(logging.FieldItemID, string(id)),
		)
		return
	}
	item.ResultDimensions = dims
	item.UpdatedAt = c.now()
	c.emitItem(EventItemUpdated, item)
}

func (c *Controller) discard(h *handle.Handle, id ItemID, slot string) {
	if h == nil {
		return
	}
	c.release(h, id, slot)
	c.logger.Debug("late result discarded",
		logging.String(logging.FieldItemID, string(id)),
		logging.String("slot", slot),
	)
}
