package handler

import (
	"errors"
	"strconv"
	"time"

	"job-portal/internal/delivery/http/dto"
	"job-portal/internal/delivery/http/middleware"
	"job-portal/internal/domain/job"
	"job-portal/internal/pkg/response"
	"job-portal/internal/usecase/portal"
	"job-portal/internal/usecase/snapshot"

	"github.com/gofiber/fiber/v3"
)

// PortalHandler exposes one session's workflow controller. Every route
// answers with the full view after the transition, including on 4xx errors
// the controller reports.
type PortalHandler struct {
	snapshots snapshot.Store
	now       func() time.Time
}

type filterRequest struct {
	Text string `json:"text"`
}

type pageRequest struct {
	Page *int `json:"page"`
}

func NewPortalHandler(snapshots snapshot.Store, now func() time.Time) *PortalHandler {
	if snapshots == nil {
		snapshots = snapshot.Disabled{}
	}
	if now == nil {
		now = time.Now
	}
	return &PortalHandler{snapshots: snapshots, now: now}
}

func (h *PortalHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/", h.GetView)
	r.Post("/create", h.RequestCreate)
	r.Post("/submit", h.SubmitDraft)
	r.Post("/cancel", h.CancelForm)

	r.Post("/records/:index/edit", h.RequestEdit)
	r.Post("/records/:index/delete", h.RequestDelete)
	r.Post("/records/:index/view", h.RequestView)

	r.Post("/delete/confirm", h.ConfirmDelete)
	r.Post("/delete/cancel", h.CancelDelete)
	r.Post("/view/close", h.CloseView)

	r.Put("/filter", h.SetFilter)
	r.Put("/page", h.SetPage)

	r.Post("/snapshot/save", h.SaveSnapshot)
	r.Post("/snapshot/load", h.LoadSnapshot)
}

func (h *PortalHandler) GetView(c fiber.Ctx) error {
	sess, err := sessionFrom(c)
	if err != nil {
		return err
	}
	return h.respond(c, sess.Controller.View(), nil)
}

func (h *PortalHandler) RequestCreate(c fiber.Ctx) error {
	return h.transition(c, func(ctl *portal.Controller) (portal.View, error) {
		return ctl.RequestCreate()
	})
}

func (h *PortalHandler) SubmitDraft(c fiber.Ctx) error {
	var d job.Draft
	if err := c.Bind().Body(&d); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}
	return h.transition(c, func(ctl *portal.Controller) (portal.View, error) {
		return ctl.SubmitDraft(d)
	})
}

func (h *PortalHandler) CancelForm(c fiber.Ctx) error {
	return h.transition(c, func(ctl *portal.Controller) (portal.View, error) {
		return ctl.CancelForm()
	})
}

func (h *PortalHandler) RequestEdit(c fiber.Ctx) error {
	return h.indexed(c, (*portal.Controller).RequestEdit)
}

func (h *PortalHandler) RequestDelete(c fiber.Ctx) error {
	return h.indexed(c, (*portal.Controller).RequestDelete)
}

func (h *PortalHandler) RequestView(c fiber.Ctx) error {
	return h.indexed(c, (*portal.Controller).RequestView)
}

func (h *PortalHandler) ConfirmDelete(c fiber.Ctx) error {
	return h.transition(c, func(ctl *portal.Controller) (portal.View, error) {
		return ctl.ConfirmDelete()
	})
}

func (h *PortalHandler) CancelDelete(c fiber.Ctx) error {
	return h.transition(c, func(ctl *portal.Controller) (portal.View, error) {
		return ctl.CancelDelete()
	})
}

func (h *PortalHandler) CloseView(c fiber.Ctx) error {
	return h.transition(c, func(ctl *portal.Controller) (portal.View, error) {
		return ctl.CloseView()
	})
}

func (h *PortalHandler) SetFilter(c fiber.Ctx) error {
	var req filterRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}
	return h.transition(c, func(ctl *portal.Controller) (portal.View, error) {
		return ctl.SetFilterText(req.Text)
	})
}

func (h *PortalHandler) SetPage(c fiber.Ctx) error {
	var req pageRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}
	if req.Page == nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "page is required", nil, nil)
	}
	return h.transition(c, func(ctl *portal.Controller) (portal.View, error) {
		return ctl.SetPage(*req.Page)
	})
}

func (h *PortalHandler) SaveSnapshot(c fiber.Ctx) error {
	sess, err := sessionFrom(c)
	if err != nil {
		return err
	}

	records := sess.Controller.Records()
	if err := h.snapshots.Save(c.Context(), sess.ID, records); err != nil {
		return mapSnapshotError(err)
	}

	return response.Success(c, fiber.StatusOK, "Snapshot saved", dto.SnapshotResponse{
		Saved: len(records),
		View:  dto.NewViewResponse(sess.Controller.View(), h.now()),
	})
}

func (h *PortalHandler) LoadSnapshot(c fiber.Ctx) error {
	sess, err := sessionFrom(c)
	if err != nil {
		return err
	}

	records, err := h.snapshots.Load(c.Context(), sess.ID)
	if err != nil {
		return mapSnapshotError(err)
	}

	v, err := sess.Controller.Restore(records)
	if err != nil {
		return h.respond(c, v, err)
	}
	return response.Success(c, fiber.StatusOK, "Snapshot loaded", dto.SnapshotResponse{
		View: dto.NewViewResponse(v, h.now()),
	})
}

func (h *PortalHandler) indexed(c fiber.Ctx, op func(*portal.Controller, int) (portal.View, error)) error {
	idx, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid row index", nil, err)
	}
	return h.transition(c, func(ctl *portal.Controller) (portal.View, error) {
		return op(ctl, idx)
	})
}

func (h *PortalHandler) transition(c fiber.Ctx, op func(*portal.Controller) (portal.View, error)) error {
	sess, err := sessionFrom(c)
	if err != nil {
		return err
	}
	v, err := op(sess.Controller)
	return h.respond(c, v, err)
}

func (h *PortalHandler) respond(c fiber.Ctx, v portal.View, err error) error {
	body := dto.NewViewResponse(v, h.now())
	if err != nil {
		return mapPortalError(err, body)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, body)
}

func sessionFrom(c fiber.Ctx) (*portal.Session, error) {
	sess, ok := middleware.SessionFromCtx(c)
	if !ok {
		return nil, middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	return sess, nil
}

func mapPortalError(err error, view dto.ViewResponse) error {
	switch {
	case errors.Is(err, job.ErrIncompleteDraft):
		return middleware.NewAppError(fiber.StatusUnprocessableEntity, portal.MessageIncomplete, view, err)
	case errors.Is(err, portal.ErrInvalidTransition):
		return middleware.NewAppError(fiber.StatusConflict, "Action not allowed in current state", view, err)
	case errors.Is(err, portal.ErrInvalidIndex):
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid row index", view, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}

func mapSnapshotError(err error) error {
	switch {
	case errors.Is(err, snapshot.ErrPersistenceDisabled):
		return middleware.NewAppError(fiber.StatusServiceUnavailable, "Persistence is not configured", nil, err)
	case errors.Is(err, snapshot.ErrSaveInProgress):
		return middleware.NewAppError(fiber.StatusConflict, "Snapshot save already in progress", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
