package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pixbatch/internal/handle"
	"pixbatch/internal/logging"
	"pixbatch/internal/services"
	"pixbatch/internal/transform"
)

// AddItems appends one Pending item per source in call order and starts a
// preview decode for each. When the batch was empty the first new item
// becomes active. Sources are trusted; filter non-images before calling.
func (c *Controller) AddItems(ctx context.Context, sources ...Source) ([]ItemID, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	var ids []ItemID
	err := c.exec(ctx, func(s *state) {
		wasEmpty := len(s.items) == 0
		now := c.now()
		ids = make([]ItemID, 0, len(sources))
		for _, src := range sources {
			item := &Item{
				ID:        s.issueID(c.ids),
				Source:    normalizeSource(src),
				Status:    StatusPending,
				AddedAt:   now,
				UpdatedAt: now,
			}
			s.items = append(s.items, item)
			s.index[item.ID] = item
			ids = append(ids, item.ID)
			c.emitItem(EventItemAdded, item)
			c.startPreview(item.ID, item.Source.Content)
		}
		if wasEmpty {
			s.activeID = ids[0]
		}
		c.logger.Debug("items added",
			logging.Int("added", len(ids)),
			logging.Int("total", len(s.items)),
		)
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func normalizeSource(src Source) Source {
	src.Name = strings.TrimSpace(src.Name)
	src.MediaType = strings.TrimSpace(src.MediaType)
	return src
}

// RemoveItem drops an item and releases its handles. Removing an unknown id
// is a no-op. An in-flight preview or conversion for the item is not
// interrupted; its result is discarded when it arrives.
func (c *Controller) RemoveItem(ctx context.Context, id ItemID) error {
	return c.exec(ctx, func(s *state) {
		item, ok := s.index[id]
		if !ok {
			return
		}
		c.releaseItem(item)
		delete(s.index, id)
		for i, candidate := range s.items {
			if candidate.ID == id {
				s.items = append(s.items[:i], s.items[i+1:]...)
				break
			}
		}
		if s.activeID == id {
			s.activeID = ""
			if len(s.items) > 0 {
				s.activeID = s.items[0].ID
			}
		}
		c.emitItem(EventItemRemoved, item)
		c.logger.Debug("item removed", logging.String(logging.FieldItemID, string(id)))
	})
}

// SetActive selects an item. It fails with *NotFoundError for unknown ids.
func (c *Controller) SetActive(ctx context.Context, id ItemID) error {
	var missing bool
	if err := c.exec(ctx, func(s *state) {
		if _, ok := s.index[id]; !ok {
			missing = true
			return
		}
		s.activeID = id
	}); err != nil {
		return err
	}
	if missing {
		return &NotFoundError{ID: id}
	}
	return nil
}

// Reset releases every item's handles, empties the batch, restores the
// default format and options, and forces the run state to idle. A run still
// executing finds its items gone and skips them. Reset is idempotent.
func (c *Controller) Reset(ctx context.Context) error {
	return c.exec(ctx, func(s *state) {
		released := c.clearItems(s)
		s.format = c.defaultFormat
		s.options = c.defaultOptions
		s.generation++
		s.activeRun = nil
		s.run = Idle()
		c.emit(Event{Kind: EventReset, Run: s.run})
		c.logger.Debug("batch reset", logging.Int("released_handles", released))
	})
}

// clearItems releases all item handles and empties the batch. It returns the
// number of handles released.
func (c *Controller) clearItems(s *state) int {
	released := 0
	for _, item := range s.items {
		released += c.releaseItem(item)
	}
	s.items = nil
	s.index = make(map[ItemID]*Item)
	s.activeID = ""
	return released
}

// releaseItem releases and detaches the item's handles.
func (c *Controller) releaseItem(item *Item) int {
	released := 0
	if item.Preview != nil {
		c.release(item.Preview, item.ID, "preview")
		item.Preview = nil
		released++
	}
	if item.Result != nil {
		c.release(item.Result, item.ID, "result")
		item.Result = nil
		released++
	}
	return released
}

func (c *Controller) release(h *handle.Handle, id ItemID, slot string) {
	if err := h.Release(); err != nil {
		logging.ErrorWithContext(c.logger, "handle released twice", "handle_double_release",
			logging.String(logging.FieldItemID, string(id)),
			logging.String("slot", slot),
			logging.String("handle_id", h.ID()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "an owner kept a reference to a superseded handle"),
		)
	}
}

// SetFormat sets the target format for the next run.
func (c *Controller) SetFormat(ctx context.Context, format transform.Format) error {
	if !format.Valid() {
		return services.Wrap(services.ErrValidation, "batch", "set format", fmt.Sprintf("unsupported format %q", format), nil)
	}
	return c.exec(ctx, func(s *state) { s.format = format })
}

// SetOptions sets the transform options for the next run.
func (c *Controller) SetOptions(ctx context.Context, opts transform.Options) error {
	opts = opts.Normalize()
	if err := opts.Validate(); err != nil {
		return err
	}
	return c.exec(ctx, func(s *state) { s.options = opts })
}

// Batch returns a consistent copy of the current state.
func (c *Controller) Batch(ctx context.Context) (Batch, error) {
	var snapshot Batch
	err := c.exec(ctx, func(s *state) {
		snapshot = Batch{
			Items:        make([]Item, 0, len(s.items)),
			ActiveID:     s.activeID,
			TargetFormat: s.format,
			Options:      s.options,
			Run:          s.run,
		}
		for _, item := range s.items {
			snapshot.Items = append(snapshot.Items, *item)
		}
	})
	return snapshot, err
}

// Item returns a copy of one item, or *NotFoundError.
func (c *Controller) Item(ctx context.Context, id ItemID) (Item, error) {
	var (
		item  Item
		found bool
	)
	if err := c.exec(ctx, func(s *state) {
		if current, ok := s.index[id]; ok {
			item, found = *current, true
		}
	}); err != nil {
		return Item{}, err
	}
	if !found {
		return Item{}, &NotFoundError{ID: id}
	}
	return item, nil
}

// IgnoreNotFound returns nil for *NotFoundError and err otherwise.
func IgnoreNotFound(err error) error {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nil
	}
	return err
}
