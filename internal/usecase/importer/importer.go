package importer

import (
	"context"
	"errors"
	"fmt"

	"job-portal/internal/domain/job"
	"job-portal/internal/scraper"
	"job-portal/internal/usecase/portal"
	"job-portal/internal/usecase/snapshot"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSessionBusy = errors.New("session is not browsing")

// Source produces drafts for one careers site.
type Source interface {
	Scrape(ctx context.Context, target scraper.CareersTarget) ([]job.Draft, error)
}

type Request struct {
	Target    scraper.CareersTarget
	SessionID uuid.UUID
	// Save writes the resulting board back as the session snapshot.
	Save bool
}

type Skipped struct {
	Title   string   `json:"title"`
	Missing []string `json:"missing"`
}

type Report struct {
	SessionID uuid.UUID   `json:"session_id"`
	Restored  int         `json:"restored"`
	Scraped   int         `json:"scraped"`
	Imported  int         `json:"imported"`
	Skipped   []Skipped   `json:"skipped"`
	Saved     bool        `json:"saved"`
	View      portal.View `json:"-"`
}

// Importer feeds scraped drafts through a session controller, so imported
// postings pass the same validation gate as hand-entered ones.
type Importer struct {
	source Source
	store  snapshot.Store
	logger *zap.Logger
}

func New(source Source, store snapshot.Store, logger *zap.Logger) *Importer {
	if store == nil {
		store = snapshot.Disabled{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{source: source, store: store, logger: logger.Named("importer")}
}

// Import restores the session's saved board when there is one, then submits
// every scraped draft. Drafts are submitted last-to-first so the board lists
// them in the site's order. Incomplete drafts are skipped and reported.
func (i *Importer) Import(ctx context.Context, ctrl *portal.Controller, req Request) (Report, error) {
	rep := Report{SessionID: req.SessionID}
	if ctrl.View().State != portal.StateBrowsing {
		return rep, ErrSessionBusy
	}

	if req.SessionID != uuid.Nil {
		saved, err := i.store.Load(ctx, req.SessionID)
		switch {
		case errors.Is(err, snapshot.ErrPersistenceDisabled):
		case err != nil:
			return rep, fmt.Errorf("load snapshot: %w", err)
		case len(saved) > 0:
			if _, err := ctrl.Restore(saved); err != nil {
				return rep, err
			}
			rep.Restored = len(saved)
		}
	}

	drafts, err := i.source.Scrape(ctx, req.Target)
	if err != nil {
		return rep, fmt.Errorf("scrape %s: %w", req.Target.ListURL, err)
	}
	rep.Scraped = len(drafts)

	for n := len(drafts) - 1; n >= 0; n-- {
		d := drafts[n]
		_, err := ctrl.SubmitDraft(d)
		switch {
		case err == nil:
			rep.Imported++
		case errors.Is(err, job.ErrIncompleteDraft):
			rep.Skipped = append(rep.Skipped, Skipped{Title: d.JobTitle, Missing: job.MissingFields(d)})
			i.logger.Debug("skipping incomplete draft",
				zap.String("title", d.JobTitle),
				zap.Strings("missing", job.MissingFields(d)),
			)
		default:
			return rep, err
		}
	}
	rep.View = ctrl.View()

	if req.Save {
		if req.SessionID == uuid.Nil {
			return rep, fmt.Errorf("save requires a session id")
		}
		if err := i.store.Save(ctx, req.SessionID, ctrl.Records()); err != nil {
			return rep, fmt.Errorf("save snapshot: %w", err)
		}
		rep.Saved = true
	}

	i.logger.Info("import finished",
		zap.Stringer("session_id", req.SessionID),
		zap.Int("restored", rep.Restored),
		zap.Int("scraped", rep.Scraped),
		zap.Int("imported", rep.Imported),
		zap.Int("skipped", len(rep.Skipped)),
		zap.Bool("saved", rep.Saved),
	)
	return rep, nil
}
