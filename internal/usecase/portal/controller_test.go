package portal

import (
	"fmt"
	"testing"
	"time"

	"job-portal/internal/domain/job"
	"job-portal/internal/notify"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

func draft(company, title string) job.Draft {
	return job.Draft{
		CompanyName:         company,
		JobTitle:            title,
		JobDescription:      "Design and ship services",
		EligibilityCriteria: "Any graduate",
		SalaryPackage:       "10 LPA",
		Location:            "Remote",
		ApplicationDeadline: "2026-11-30",
		PostedAt:            "2026-10-01T09:00",
	}
}

func newTestController(t *testing.T, strict bool) (*Controller, *notify.ManualClock) {
	t.Helper()
	clock := notify.NewManualClock(epoch)
	return NewController(Options{Clock: clock, FailOnStaleIndex: strict}), clock
}

func mustSubmit(t *testing.T, c *Controller, d job.Draft) View {
	t.Helper()
	v, err := c.SubmitDraft(d)
	require.NoError(t, err)
	return v
}

func TestController_InitialState(t *testing.T) {
	c, _ := newTestController(t, true)
	v := c.View()
	assert.Equal(t, StateBrowsing, v.State)
	assert.Equal(t, 0, v.TotalCount)
	assert.Equal(t, 1, v.CurrentPage)
	assert.Equal(t, 1, v.TotalPages)
	assert.False(t, v.ShowPagination)
	assert.False(t, v.Notification.Visible)
}

func TestController_ValidationGate(t *testing.T) {
	c, _ := newTestController(t, true)
	mustSubmit(t, c, draft("Acme", "SDE"))

	_, err := c.RequestCreate()
	require.NoError(t, err)

	incomplete := draft("Globex", "")
	v, err := c.SubmitDraft(incomplete)
	require.ErrorIs(t, err, job.ErrIncompleteDraft)
	assert.Equal(t, 1, v.TotalCount)
	assert.Equal(t, StateCreating, v.State)
	assert.Equal(t, incomplete, v.Form, "form is kept for correction")
	assert.Equal(t, notify.KindDanger, v.Notification.Kind)
	assert.Equal(t, MessageIncomplete, v.Notification.Message)
	assert.True(t, v.Notification.Visible)
}

func TestController_CreatePrepends(t *testing.T) {
	c, _ := newTestController(t, true)
	first := draft("Acme", "SDE")
	v := mustSubmit(t, c, first)
	require.Equal(t, 1, v.TotalCount)
	assert.Equal(t, first, c.Records()[0].Draft)
	assert.Equal(t, notify.KindSuccess, v.Notification.Kind)
	assert.Equal(t, MessageCreated, v.Notification.Message)

	second := draft("Globex", "PM")
	_, err := c.RequestCreate()
	require.NoError(t, err)
	v = mustSubmit(t, c, second)
	require.Equal(t, 2, v.TotalCount)
	records := c.Records()
	assert.Equal(t, second, records[0].Draft)
	assert.Equal(t, first, records[1].Draft)
	assert.NotEqual(t, records[0].ID, records[1].ID)
	assert.Equal(t, StateBrowsing, v.State)
}

func TestController_CelebrationOverlay(t *testing.T) {
	c, clock := newTestController(t, true)
	v := mustSubmit(t, c, draft("Acme", "SDE"))
	assert.True(t, v.Celebrating)
	assert.Equal(t, StateBrowsing, v.State)

	// The overlay does not block other requests.
	_, err := c.RequestView(0)
	require.NoError(t, err)

	clock.Advance(1799 * time.Millisecond)
	assert.True(t, c.View().Celebrating)
	clock.Advance(time.Millisecond)
	assert.False(t, c.View().Celebrating)

	_, err = c.CloseView()
	require.NoError(t, err)
	_, err = c.RequestEdit(0)
	require.NoError(t, err)
	v = mustSubmit(t, c, draft("Acme", "SDE II"))
	assert.False(t, v.Celebrating, "updates do not celebrate")
}

func TestController_CelebrationRestartsOnNewCreate(t *testing.T) {
	c, clock := newTestController(t, true)
	mustSubmit(t, c, draft("Acme", "SDE"))
	clock.Advance(time.Second)
	mustSubmit(t, c, draft("Globex", "PM"))
	clock.Advance(time.Second)
	assert.True(t, c.View().Celebrating)
	clock.Advance(800 * time.Millisecond)
	assert.False(t, c.View().Celebrating)
}

func TestController_NotificationAutoHides(t *testing.T) {
	c, clock := newTestController(t, true)
	mustSubmit(t, c, draft("Acme", "SDE"))
	clock.Advance(2 * time.Second)
	_, err := c.SubmitDraft(job.Draft{})
	require.Error(t, err)
	clock.Advance(2 * time.Second)

	n := c.View().Notification
	assert.True(t, n.Visible, "second message gets its own full delay")
	assert.Equal(t, MessageIncomplete, n.Message)

	clock.Advance(time.Second)
	assert.False(t, c.View().Notification.Visible)
}

func TestController_PaginationScenario(t *testing.T) {
	c, _ := newTestController(t, true)

	v, err := c.SetFilterText("acme")
	require.NoError(t, err)
	assert.Empty(t, v.Visible)
	assert.Equal(t, 1, v.TotalPages)
	assert.False(t, v.ShowPagination)

	mustSubmit(t, c, draft("Acme", "SDE"))
	v, err = c.SetFilterText("")
	require.NoError(t, err)
	assert.Len(t, v.Visible, 1)

	for i := 1; i <= 5; i++ {
		mustSubmit(t, c, draft(fmt.Sprintf("Company %d", i), "Engineer"))
	}
	v = c.View()
	assert.Equal(t, 6, v.TotalCount)
	assert.Equal(t, 2, v.TotalPages)
	require.Len(t, v.Visible, 5)
	assert.Equal(t, "Company 5", v.Visible[0].Draft.CompanyName)
	assert.Equal(t, "Company 1", v.Visible[4].Draft.CompanyName)

	v, err = c.SetPage(2)
	require.NoError(t, err)
	require.Len(t, v.Visible, 1)
	assert.Equal(t, "Acme", v.Visible[0].Draft.CompanyName)
}

func TestController_DeleteClampsPage(t *testing.T) {
	c, _ := newTestController(t, true)
	for i := 0; i < 6; i++ {
		mustSubmit(t, c, draft(fmt.Sprintf("C%d", i), "Role"))
	}
	v, err := c.SetPage(2)
	require.NoError(t, err)
	require.Len(t, v.Visible, 1)

	v, err = c.RequestDelete(0)
	require.NoError(t, err)
	assert.Equal(t, StateConfirmingDelete, v.State)

	v, err = c.ConfirmDelete()
	require.NoError(t, err)
	assert.Equal(t, StateBrowsing, v.State)
	assert.Equal(t, 5, v.TotalCount)
	assert.Equal(t, 1, v.CurrentPage)
	assert.Equal(t, 1, v.TotalPages)
	assert.Equal(t, uuid.Nil, v.PendingDeleteID)
	assert.Equal(t, notify.KindDanger, v.Notification.Kind)
	assert.Equal(t, MessageDeleted, v.Notification.Message)
}

func TestController_DeleteCancel(t *testing.T) {
	c, _ := newTestController(t, true)
	mustSubmit(t, c, draft("Acme", "SDE"))
	before := c.Records()

	v, err := c.RequestDelete(0)
	require.NoError(t, err)
	assert.Equal(t, StateConfirmingDelete, v.State)
	assert.Equal(t, before[0].ID, v.PendingDeleteID)

	v, err = c.CancelDelete()
	require.NoError(t, err)
	assert.Equal(t, StateBrowsing, v.State)
	assert.Equal(t, before, c.Records())
}

func TestController_EditRoundTrip(t *testing.T) {
	c, _ := newTestController(t, true)
	for i := 0; i < 4; i++ {
		mustSubmit(t, c, draft(fmt.Sprintf("C%d", i), "Role"))
	}
	before := c.Records()
	const k = 2

	v, err := c.RequestEdit(k)
	require.NoError(t, err)
	assert.Equal(t, StateEditing, v.State)
	assert.True(t, v.FormOpen)
	assert.Equal(t, before[k].Draft, v.Form)
	assert.Equal(t, before[k].ID, v.EditingID)

	updated := draft("C1-renamed", "Lead")
	v = mustSubmit(t, c, updated)
	assert.Equal(t, StateBrowsing, v.State)
	assert.Equal(t, uuid.Nil, v.EditingID)
	assert.Equal(t, MessageUpdated, v.Notification.Message)

	after := c.Records()
	require.Len(t, after, len(before))
	for i := range before {
		if i == k {
			assert.Equal(t, before[i].ID, after[i].ID)
			assert.Equal(t, updated, after[i].Draft)
			continue
		}
		assert.Equal(t, before[i], after[i])
	}
}

func TestController_EditUnderFilterTargetsRightRecord(t *testing.T) {
	c, _ := newTestController(t, true)
	mustSubmit(t, c, draft("Acme", "SDE"))
	mustSubmit(t, c, draft("Globex", "PM"))
	mustSubmit(t, c, draft("Initech", "QA"))
	// store: Initech, Globex, Acme

	_, err := c.SetFilterText("acme")
	require.NoError(t, err)
	v, err := c.RequestEdit(0)
	require.NoError(t, err)
	assert.Equal(t, "Acme", v.Form.CompanyName)

	mustSubmit(t, c, draft("Acme", "Staff SDE"))
	records := c.Records()
	assert.Equal(t, "Initech", records[0].Draft.CompanyName)
	assert.Equal(t, "Globex", records[1].Draft.CompanyName)
	assert.Equal(t, "Staff SDE", records[2].Draft.JobTitle)

	_, err = c.RequestDelete(0)
	require.NoError(t, err)
	_, err = c.ConfirmDelete()
	require.NoError(t, err)
	records = c.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "Initech", records[0].Draft.CompanyName)
	assert.Equal(t, "Globex", records[1].Draft.CompanyName)
}

func TestController_ViewDetail(t *testing.T) {
	c, _ := newTestController(t, true)
	mustSubmit(t, c, draft("Acme", "SDE"))
	before := c.Records()

	v, err := c.RequestView(0)
	require.NoError(t, err)
	assert.Equal(t, StateViewingDetail, v.State)
	require.NotNil(t, v.Detail)
	assert.Equal(t, before[0], *v.Detail)

	v, err = c.CloseView()
	require.NoError(t, err)
	assert.Equal(t, StateBrowsing, v.State)
	assert.Nil(t, v.Detail)
	assert.Equal(t, before, c.Records())
}

func TestController_InvalidTransitions(t *testing.T) {
	c, _ := newTestController(t, true)
	mustSubmit(t, c, draft("Acme", "SDE"))

	_, err := c.ConfirmDelete()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = c.CancelDelete()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = c.CloseView()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = c.CancelForm()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = c.RequestDelete(0)
	require.NoError(t, err)
	_, err = c.SubmitDraft(draft("Globex", "PM"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = c.RequestEdit(0)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 1, len(c.Records()))

	v, err := c.SetFilterText("zzz")
	require.NoError(t, err, "filtering works in any state")
	assert.Equal(t, StateConfirmingDelete, v.State)
}

func TestController_BadVisibleIndex(t *testing.T) {
	c, _ := newTestController(t, true)
	mustSubmit(t, c, draft("Acme", "SDE"))

	for _, i := range []int{-1, 1, 7} {
		_, err := c.RequestEdit(i)
		assert.ErrorIs(t, err, ErrInvalidIndex)
		_, err = c.RequestDelete(i)
		assert.ErrorIs(t, err, ErrInvalidIndex)
		_, err = c.RequestView(i)
		assert.ErrorIs(t, err, ErrInvalidIndex)
	}
	assert.Equal(t, StateBrowsing, c.View().State)
}

func TestController_CancelForm(t *testing.T) {
	c, _ := newTestController(t, true)
	mustSubmit(t, c, draft("Acme", "SDE"))
	_, err := c.RequestEdit(0)
	require.NoError(t, err)

	v, err := c.CancelForm()
	require.NoError(t, err)
	assert.Equal(t, StateBrowsing, v.State)
	assert.False(t, v.FormOpen)
	assert.Equal(t, job.Draft{}, v.Form)
	assert.Equal(t, "SDE", c.Records()[0].Draft.JobTitle)
}

func TestController_SetPageClamps(t *testing.T) {
	c, _ := newTestController(t, true)
	for i := 0; i < 7; i++ {
		mustSubmit(t, c, draft(fmt.Sprintf("C%d", i), "Role"))
	}
	v, err := c.SetPage(10)
	require.NoError(t, err)
	assert.Equal(t, 2, v.CurrentPage)
	v, err = c.SetPage(-3)
	require.NoError(t, err)
	assert.Equal(t, 1, v.CurrentPage)

	_, err = c.SetPage(2)
	require.NoError(t, err)
	v, err = c.SetFilterText("C")
	require.NoError(t, err)
	assert.Equal(t, 1, v.CurrentPage, "filter change resets the page")
}

func TestController_StaleCursor(t *testing.T) {
	for _, strict := range []bool{true, false} {
		t.Run(fmt.Sprintf("strict=%v", strict), func(t *testing.T) {
			c, _ := newTestController(t, strict)
			mustSubmit(t, c, draft("Acme", "SDE"))
			_, err := c.RequestDelete(0)
			require.NoError(t, err)

			// Simulate a cursor that no longer resolves.
			c.mu.Lock()
			c.store.Reset(nil)
			c.mu.Unlock()

			v, err := c.ConfirmDelete()
			if strict {
				require.Error(t, err)
				assert.True(t, IsDefect(err))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, StateBrowsing, v.State)
			assert.Equal(t, uuid.Nil, v.PendingDeleteID)
			assert.Equal(t, 0, v.TotalCount)
		})
	}
}

func TestController_RapidDoubleSubmitIsTwoTransitions(t *testing.T) {
	c, _ := newTestController(t, true)
	d := draft("Acme", "SDE")
	mustSubmit(t, c, d)
	mustSubmit(t, c, d)
	records := c.Records()
	require.Len(t, records, 2)
	assert.NotEqual(t, records[0].ID, records[1].ID)
}

func TestController_Restore(t *testing.T) {
	c, _ := newTestController(t, true)
	mustSubmit(t, c, draft("Acme", "SDE"))
	_, err := c.SetFilterText("acme")
	require.NoError(t, err)

	restored := []job.Record{
		{ID: uuid.New(), Draft: draft("Globex", "PM"), CreatedAt: epoch},
		{ID: uuid.New(), Draft: draft("Initech", "QA"), CreatedAt: epoch},
	}
	v, err := c.Restore(restored)
	require.NoError(t, err)
	assert.Equal(t, 2, v.TotalCount)
	assert.Equal(t, "", v.FilterText)
	assert.Equal(t, restored, c.Records())
	assert.Equal(t, "Loaded 2 jobs", v.Notification.Message)

	_, err = c.RequestCreate()
	require.NoError(t, err)
	_, err = c.Restore(nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestController_OnChange(t *testing.T) {
	clock := notify.NewManualClock(epoch)
	var states []State
	var celebrating []bool
	c := NewController(Options{Clock: clock, OnChange: func(v View) {
		states = append(states, v.State)
		celebrating = append(celebrating, v.Celebrating)
	}})

	_, err := c.RequestCreate()
	require.NoError(t, err)
	mustSubmit(t, c, draft("Acme", "SDE"))
	clock.Advance(CelebrationDuration)

	assert.Equal(t, []State{StateCreating, StateBrowsing, StateBrowsing}, states)
	assert.Equal(t, []bool{false, true, false}, celebrating)
}

func TestController_OnChangeSkipsRejectedOperations(t *testing.T) {
	var published int
	c := NewController(Options{Clock: notify.NewManualClock(epoch), OnChange: func(View) { published++ }})

	_, err := c.ConfirmDelete()
	require.ErrorIs(t, err, ErrInvalidTransition)
	_, err = c.CloseView()
	require.ErrorIs(t, err, ErrInvalidTransition)
	_, err = c.RequestEdit(99)
	require.ErrorIs(t, err, ErrInvalidIndex)
	_, err = c.RequestDelete(-1)
	require.ErrorIs(t, err, ErrInvalidIndex)
	assert.Zero(t, published)

	_, err = c.RequestCreate()
	require.NoError(t, err)
	_, err = c.SubmitDraft(job.Draft{CompanyName: "Acme"})
	require.ErrorIs(t, err, job.ErrIncompleteDraft)
	assert.Equal(t, 2, published, "incomplete submit keeps the draft and raises a notification")
}
