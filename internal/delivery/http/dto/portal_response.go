package dto

import (
	"time"

	"job-portal/internal/domain/job"
	"job-portal/internal/notify"
	"job-portal/internal/usecase/portal"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

type RecordResponse struct {
	Row int       `json:"row"`
	ID  uuid.UUID `json:"id"`
	job.Draft
	CreatedAt  time.Time `json:"created_at"`
	CreatedAgo string    `json:"created_ago"`
}

type ViewResponse struct {
	State          portal.State `json:"state"`
	Celebrating    bool         `json:"celebrating"`
	FilterText     string       `json:"filter_text"`
	CurrentPage    int          `json:"current_page"`
	TotalPages     int          `json:"total_pages"`
	ShowPagination bool         `json:"show_pagination"`
	FilteredCount  int          `json:"filtered_count"`
	TotalCount     int          `json:"total_count"`

	Records []RecordResponse `json:"records"`

	FormOpen        bool       `json:"form_open"`
	Form            *job.Draft `json:"form,omitempty"`
	EditingID       *uuid.UUID `json:"editing_id,omitempty"`
	PendingDeleteID *uuid.UUID `json:"pending_delete_id,omitempty"`

	Detail       *RecordResponse     `json:"detail,omitempty"`
	Notification notify.Notification `json:"notification"`
}

type SessionResponse struct {
	SessionID uuid.UUID    `json:"session_id"`
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expires_in"`
	View      ViewResponse `json:"view"`
}

type SnapshotResponse struct {
	Saved int          `json:"saved,omitempty"`
	View  ViewResponse `json:"view"`
}

// NewViewResponse renders v; now anchors the relative "created_ago" text.
func NewViewResponse(v portal.View, now time.Time) ViewResponse {
	out := ViewResponse{
		State:          v.State,
		Celebrating:    v.Celebrating,
		FilterText:     v.FilterText,
		CurrentPage:    v.CurrentPage,
		TotalPages:     v.TotalPages,
		ShowPagination: v.ShowPagination,
		FilteredCount:  v.FilteredCount,
		TotalCount:     v.TotalCount,
		Records:        make([]RecordResponse, 0, len(v.Visible)),
		FormOpen:       v.FormOpen,
		Notification:   v.Notification,
	}
	for i, r := range v.Visible {
		out.Records = append(out.Records, NewRecordResponse(i, r, now))
	}
	if v.FormOpen {
		f := v.Form
		out.Form = &f
	}
	if v.EditingID != uuid.Nil {
		id := v.EditingID
		out.EditingID = &id
	}
	if v.PendingDeleteID != uuid.Nil {
		id := v.PendingDeleteID
		out.PendingDeleteID = &id
	}
	if v.Detail != nil {
		d := NewRecordResponse(-1, *v.Detail, now)
		out.Detail = &d
	}
	return out
}

func NewRecordResponse(row int, r job.Record, now time.Time) RecordResponse {
	return RecordResponse{
		Row:        row,
		ID:         r.ID,
		Draft:      r.Draft,
		CreatedAt:  r.CreatedAt,
		CreatedAgo: humanize.RelTime(r.CreatedAt, now, "ago", "from now"),
	}
}
