package portal

import (
	"errors"
	"time"

	"job-portal/internal/domain/job"
	"job-portal/internal/notify"

	"github.com/google/uuid"
)

type State string

const (
	StateBrowsing         State = "browsing"
	StateCreating         State = "creating"
	StateEditing          State = "editing"
	StateConfirmingDelete State = "confirming_delete"
	StateViewingDetail    State = "viewing_detail"
)

const CelebrationDuration = 1800 * time.Millisecond

const (
	MessageCreated    = "Job posted successfully"
	MessageUpdated    = "Job updated successfully"
	MessageIncomplete = "Please fill in all fields"
	MessageDeleted    = "Job deleted"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidIndex      = errors.New("invalid row index")
	ErrSessionNotFound   = errors.New("session not found")
)

// View is everything the UI shell needs to render one frame.
type View struct {
	State           State
	Celebrating     bool
	FilterText      string
	CurrentPage     int
	TotalPages      int
	ShowPagination  bool
	FilteredCount   int
	TotalCount      int
	Visible         []job.Record
	FormOpen        bool
	Form            job.Draft
	EditingID       uuid.UUID
	PendingDeleteID uuid.UUID
	Detail          *job.Record
	Notification    notify.Notification
}

// Summary is the compact form of a View pushed to event subscribers.
type Summary struct {
	State         State `json:"state"`
	Celebrating   bool  `json:"celebrating"`
	CurrentPage   int   `json:"current_page"`
	TotalPages    int   `json:"total_pages"`
	FilteredCount int   `json:"filtered_count"`
	TotalCount    int   `json:"total_count"`
}

func (v View) Summary() Summary {
	return Summary{
		State:         v.State,
		Celebrating:   v.Celebrating,
		CurrentPage:   v.CurrentPage,
		TotalPages:    v.TotalPages,
		FilteredCount: v.FilteredCount,
		TotalCount:    v.TotalCount,
	}
}
