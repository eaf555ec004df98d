package portal

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"job-portal/internal/domain/job"
	"job-portal/internal/notify"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Options struct {
	Clock            notify.Clock
	Logger           *zap.Logger
	NotificationTTL  time.Duration
	CelebrationTTL   time.Duration
	NewID            func() uuid.UUID
	OnChange         func(View)
	FailOnStaleIndex bool
}

// Controller is the workflow state machine of one editor session. Every
// exported method holds the controller lock for its whole transition, so
// requests are applied one at a time in arrival order.
type Controller struct {
	mu sync.Mutex

	store *job.Store
	notes *notify.Channel

	state       State
	filterText  string
	currentPage int
	form        job.Draft
	editID      uuid.UUID
	deleteID    uuid.UUID
	detail      *job.Record

	celebrating    bool
	celebrateGen   uint64
	celebrateTimer notify.Timer

	clock          notify.Clock
	celebrationTTL time.Duration
	logger         *zap.Logger
	newID          func() uuid.UUID
	onChange       func(View)
	strict         bool
}

func NewController(opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = notify.RealClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.New
	}
	if opts.CelebrationTTL <= 0 {
		opts.CelebrationTTL = CelebrationDuration
	}
	return &Controller{
		store:          job.NewStore(),
		notes:          notify.NewChannel(opts.Clock, opts.NotificationTTL),
		state:          StateBrowsing,
		currentPage:    1,
		clock:          opts.Clock,
		celebrationTTL: opts.CelebrationTTL,
		logger:         opts.Logger,
		newID:          opts.NewID,
		onChange:       opts.OnChange,
		strict:         opts.FailOnStaleIndex,
	}
}

// Notifications exposes the channel so callers can subscribe to it.
func (c *Controller) Notifications() *notify.Channel {
	return c.notes
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) RequestCreate() (View, error) {
	return c.apply(func() error {
		if c.state != StateBrowsing {
			return c.invalid("request create")
		}
		c.form = job.Draft{}
		c.editID = uuid.Nil
		c.state = StateCreating
		return nil
	})
}

func (c *Controller) RequestEdit(visibleIndex int) (View, error) {
	return c.apply(func() error {
		if c.state != StateBrowsing {
			return c.invalid("request edit")
		}
		rec, err := c.resolveVisible(visibleIndex)
		if err != nil {
			return err
		}
		c.form = rec.Draft
		c.editID = rec.ID
		c.state = StateEditing
		return nil
	})
}

// SubmitDraft commits d. From Browsing it behaves like a create, since the
// shell keeps the form on screen.
func (c *Controller) SubmitDraft(d job.Draft) (View, error) {
	return c.apply(func() error {
		switch c.state {
		case StateBrowsing, StateCreating, StateEditing:
		default:
			return c.invalid("submit draft")
		}

		if err := job.Validate(d); err != nil {
			c.form = d
			c.notes.Notify(MessageIncomplete, notify.KindDanger)
			return err
		}

		if c.state == StateEditing {
			return c.commitEdit(d)
		}
		c.commitCreate(d)
		return nil
	})
}

func (c *Controller) commitCreate(d job.Draft) {
	c.store.InsertFront(job.Record{ID: c.newID(), Draft: d, CreatedAt: c.clock.Now()})
	c.closeForm()
	c.notes.Notify(MessageCreated, notify.KindSuccess)
	c.startCelebration()
}

func (c *Controller) commitEdit(d job.Draft) error {
	id := c.editID
	idx := c.store.IndexOf(id)
	if idx < 0 {
		c.closeForm()
		return c.defect("submit edit", id)
	}
	if err := c.store.ReplaceAt(idx, job.Record{Draft: d}); err != nil {
		c.closeForm()
		return c.defect("submit edit", id)
	}
	c.closeForm()
	c.notes.Notify(MessageUpdated, notify.KindSuccess)
	return nil
}

func (c *Controller) CancelForm() (View, error) {
	return c.apply(func() error {
		if c.state != StateCreating && c.state != StateEditing {
			return c.invalid("cancel form")
		}
		c.closeForm()
		return nil
	})
}

func (c *Controller) RequestDelete(visibleIndex int) (View, error) {
	return c.apply(func() error {
		if c.state != StateBrowsing {
			return c.invalid("request delete")
		}
		rec, err := c.resolveVisible(visibleIndex)
		if err != nil {
			return err
		}
		c.deleteID = rec.ID
		c.state = StateConfirmingDelete
		return nil
	})
}

func (c *Controller) CancelDelete() (View, error) {
	return c.apply(func() error {
		if c.state != StateConfirmingDelete {
			return c.invalid("cancel delete")
		}
		c.deleteID = uuid.Nil
		c.state = StateBrowsing
		return nil
	})
}

func (c *Controller) ConfirmDelete() (View, error) {
	return c.apply(func() error {
		if c.state != StateConfirmingDelete {
			return c.invalid("confirm delete")
		}
		id := c.deleteID
		c.deleteID = uuid.Nil
		c.state = StateBrowsing

		idx := c.store.IndexOf(id)
		if idx < 0 {
			return c.defect("confirm delete", id)
		}
		if err := c.store.RemoveAt(idx); err != nil {
			return c.defect("confirm delete", id)
		}
		c.clampPage()
		c.notes.Notify(MessageDeleted, notify.KindDanger)
		return nil
	})
}

func (c *Controller) RequestView(visibleIndex int) (View, error) {
	return c.apply(func() error {
		if c.state != StateBrowsing {
			return c.invalid("request view")
		}
		rec, err := c.resolveVisible(visibleIndex)
		if err != nil {
			return err
		}
		c.detail = &rec
		c.state = StateViewingDetail
		return nil
	})
}

func (c *Controller) CloseView() (View, error) {
	return c.apply(func() error {
		if c.state != StateViewingDetail {
			return c.invalid("close view")
		}
		c.detail = nil
		c.state = StateBrowsing
		return nil
	})
}

// SetFilterText is accepted in every state and sends the view back to page 1.
func (c *Controller) SetFilterText(text string) (View, error) {
	return c.apply(func() error {
		c.filterText = text
		c.currentPage = 1
		return nil
	})
}

// SetPage is accepted in every state; n is clamped into the valid range.
func (c *Controller) SetPage(n int) (View, error) {
	return c.apply(func() error {
		c.currentPage = job.ClampPage(n, c.filteredCountLocked())
		return nil
	})
}

// Records returns a copy of the canonical store, newest first.
func (c *Controller) Records() []job.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Records()
}

// Restore replaces the whole store, e.g. after loading a snapshot. It is
// only allowed while browsing so no cursor can point into the old store.
func (c *Controller) Restore(records []job.Record) (View, error) {
	return c.apply(func() error {
		if c.state != StateBrowsing {
			return c.invalid("restore")
		}
		c.store.Reset(records)
		c.filterText = ""
		c.currentPage = 1
		c.notes.Notify(fmt.Sprintf("Loaded %d jobs", len(records)), notify.KindSuccess)
		return nil
	})
}

// apply runs fn under the lock and publishes the resulting view. Rejected
// transitions and bad row indexes leave the state untouched and publish
// nothing.
func (c *Controller) apply(fn func() error) (View, error) {
	c.mu.Lock()
	err := fn()
	v := c.viewLocked()
	c.mu.Unlock()

	if c.onChange != nil && !unchanged(err) {
		c.onChange(v)
	}
	return v, err
}

func unchanged(err error) bool {
	return errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrInvalidIndex)
}

func (c *Controller) closeForm() {
	c.form = job.Draft{}
	c.editID = uuid.Nil
	c.state = StateBrowsing
}

func (c *Controller) startCelebration() {
	if c.celebrateTimer != nil {
		c.celebrateTimer.Stop()
	}
	c.celebrateGen++
	gen := c.celebrateGen
	c.celebrating = true
	c.celebrateTimer = c.clock.AfterFunc(c.celebrationTTL, func() { c.endCelebration(gen) })
}

func (c *Controller) endCelebration(gen uint64) {
	c.mu.Lock()
	if gen != c.celebrateGen || !c.celebrating {
		c.mu.Unlock()
		return
	}
	c.celebrating = false
	c.celebrateTimer = nil
	v := c.viewLocked()
	c.mu.Unlock()

	if c.onChange != nil {
		c.onChange(v)
	}
}

func (c *Controller) resolveVisible(visibleIndex int) (job.Record, error) {
	p := c.projectLocked()
	id, err := p.Resolve(visibleIndex)
	if err != nil {
		return job.Record{}, fmt.Errorf("%w: %d", ErrInvalidIndex, visibleIndex)
	}
	rec, err := c.store.At(c.store.IndexOf(id))
	if err != nil {
		return job.Record{}, fmt.Errorf("%w: %d", ErrInvalidIndex, visibleIndex)
	}
	return rec, nil
}

func (c *Controller) clampPage() {
	c.currentPage = job.ClampPage(c.currentPage, c.filteredCountLocked())
}

func (c *Controller) filteredCountLocked() int {
	return len(job.Filter(c.store.Records(), c.filterText))
}

func (c *Controller) projectLocked() job.Projection {
	return job.Project(c.store.Records(), c.filterText, c.currentPage)
}

func (c *Controller) invalid(op string) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, op, c.state)
}

// defect handles a cursor that no longer resolves to a stored record. That
// cannot happen with serialized access, so strict mode surfaces it and
// production mode drops the request.
func (c *Controller) defect(op string, id uuid.UUID) error {
	err := fmt.Errorf("%s: record %s: %w", op, id, job.ErrIndexOutOfRange)
	if c.strict {
		c.logger.Error("stale cursor", zap.String("op", op), zap.Stringer("record_id", id), zap.Error(err))
		return err
	}
	c.logger.Warn("stale cursor ignored", zap.String("op", op), zap.Stringer("record_id", id))
	return nil
}

func (c *Controller) viewLocked() View {
	p := c.projectLocked()
	v := View{
		State:           c.state,
		Celebrating:     c.celebrating,
		FilterText:      c.filterText,
		CurrentPage:     c.currentPage,
		TotalPages:      p.TotalPages,
		ShowPagination:  p.ShowPagination(),
		FilteredCount:   len(p.Filtered),
		TotalCount:      c.store.Len(),
		Visible:         append([]job.Record(nil), p.Visible...),
		FormOpen:        c.state == StateCreating || c.state == StateEditing,
		Form:            c.form,
		EditingID:       c.editID,
		PendingDeleteID: c.deleteID,
		Notification:    c.notes.Current(),
	}
	if c.detail != nil {
		d := *c.detail
		v.Detail = &d
	}
	return v
}

// IsDefect reports whether err came from a stale cursor.
func IsDefect(err error) bool {
	return errors.Is(err, job.ErrIndexOutOfRange)
}
