package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/macandtoo/backend/internal/apperr"
	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/notify"
	"github.com/macandtoo/backend/internal/repository"
	"golang.org/x/sync/singleflight"
)

// BatchProcessor exports unprocessed submissions to the contacts workbook and
// tells the admin about them.
type BatchProcessor interface {
	ProcessContacts(ctx context.Context) (*model.BatchResult, error)
	CleanupTemp(ctx context.Context) (int, error)
}

// ArtifactExporter is satisfied by *report.Exporter.
type ArtifactExporter interface {
	UpdateArtifact(ctx context.Context, contacts []*model.ContactSubmission) (string, error)
	Buffer() ([]byte, error)
	CleanupBackups() (int, error)
	CleanupTemp() (int, error)
}

// BatchNotifier is satisfied by *notify.Service.
type BatchNotifier interface {
	SendBatchUpdate(ctx context.Context, count int, artifact []byte) error
}

// SheetAppender is satisfied by *report.SheetsMirror.
type SheetAppender interface {
	Append(ctx context.Context, contacts []*model.ContactSubmission) error
}

type batchProcessorImpl struct {
	repo       repository.ContactRepository
	exporter   ArtifactExporter
	notifier   BatchNotifier
	mirror     SheetAppender
	staleAfter time.Duration
	group      singleflight.Group
	now        func() time.Time
}

// NewBatchProcessor wires the pipeline. mirror is optional; pass a nil
// interface (not a nil *report.SheetsMirror) to disable it.
func NewBatchProcessor(repo repository.ContactRepository, exporter ArtifactExporter, notifier BatchNotifier, mirror SheetAppender, staleAfter time.Duration) BatchProcessor {
	return &batchProcessorImpl{
		repo:       repo,
		exporter:   exporter,
		notifier:   notifier,
		mirror:     mirror,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// ProcessContacts runs one batch. Calls that overlap an in-flight run share
// its result instead of starting another. Rows stored while that run was
// exporting were not claimed by it, so a shared run that did work is followed
// by one more pass.
func (p *batchProcessorImpl) ProcessContacts(ctx context.Context) (*model.BatchResult, error) {
	res, shared, err := p.do(ctx)
	if err != nil || !shared || res == nil || res.Processed == 0 {
		return res, err
	}
	slog.Debug("joined in-flight batch run, checking for rows it missed", "run_id", res.RunID)
	next, _, err := p.do(ctx)
	if err != nil {
		return nil, err
	}
	if next != nil && next.Processed > 0 {
		return next, nil
	}
	return res, nil
}

func (p *batchProcessorImpl) do(ctx context.Context) (*model.BatchResult, bool, error) {
	v, err, shared := p.group.Do("process_contacts", func() (any, error) {
		return p.run(ctx)
	})
	res, _ := v.(*model.BatchResult)
	return res, shared, err
}

func (p *batchProcessorImpl) run(ctx context.Context) (*model.BatchResult, error) {
	res := &model.BatchResult{RunID: uuid.NewString(), StartedAt: p.now().UTC()}
	log := slog.With("run_id", res.RunID)

	if p.staleAfter > 0 {
		n, err := p.repo.ResetStale(ctx, p.staleAfter)
		if err != nil {
			log.Warn("reset stale rows failed", "error", err)
		} else if n > 0 {
			log.Warn("stale in-flight rows returned to pending", "count", n)
		}
	}

	claimed, err := p.repo.ClaimPending(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "claim pending", err)
	}
	if len(claimed) == 0 {
		res.Skipped = true
		res.Message = "No new contacts to process"
		res.FinishedAt = p.now().UTC()
		log.Info("batch skipped, nothing pending")
		return res, nil
	}
	ids := contactIDs(claimed)
	log.Info("batch claimed rows", "count", len(ids))

	all, err := p.repo.ListAll(ctx)
	if err != nil {
		p.release(ctx, log, ids)
		return nil, apperr.Wrap(apperr.KindPersistence, "list contacts", err)
	}
	path, err := p.exporter.UpdateArtifact(ctx, all)
	if err != nil {
		p.release(ctx, log, ids)
		return nil, apperr.Wrap(apperr.KindExport, "update artifact", err)
	}
	res.ArtifactPath = path

	buf, err := p.exporter.Buffer()
	if err != nil {
		p.release(ctx, log, ids)
		return nil, apperr.Wrap(apperr.KindExport, "read artifact", err)
	}

	err = p.notifier.SendBatchUpdate(ctx, len(claimed), buf)
	switch {
	case err == nil:
		res.Notified = true
	case errors.Is(err, notify.ErrNotConfigured):
		log.Info("batch notification skipped, smtp not configured")
	default:
		p.release(ctx, log, ids)
		if !apperr.IsKind(err, apperr.KindNotification) {
			err = apperr.Wrap(apperr.KindNotification, "send batch update", err)
		}
		return nil, err
	}
	if err := p.repo.SetExportState(ctx, ids, model.ExportNotified); err != nil {
		log.Warn("mark notified failed", "error", err)
	}

	if p.mirror != nil {
		if err := p.mirror.Append(ctx, claimed); err != nil {
			log.Warn("sheet mirror failed", "error", apperr.Wrap(apperr.KindMirror, "append rows", err))
		} else {
			res.Mirrored = true
		}
	}

	n, markErr := p.repo.MarkProcessed(ctx, ids)
	p.cleanup(log)

	if markErr != nil {
		// Rows stay notified; ResetStale returns them to pending later.
		return nil, apperr.Wrap(apperr.KindPersistence, "mark processed", markErr)
	}
	res.Processed = int(n)
	res.Message = fmt.Sprintf("Processed %d new contacts", n)
	res.FinishedAt = p.now().UTC()
	log.Info("batch finished", "count", n, "notified", res.Notified, "mirrored", res.Mirrored)
	return res, nil
}

// release puts claimed rows back to pending so a later run retries them. It
// runs on a context detached from cancellation since a cancelled run is one
// of the reasons to release.
func (p *batchProcessorImpl) release(ctx context.Context, log *slog.Logger, ids []int64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := p.repo.SetExportState(ctx, ids, model.ExportPending); err != nil {
		log.Error("release claimed rows failed", "count", len(ids), "error", err)
		return
	}
	log.Warn("claimed rows returned to pending", "count", len(ids))
}

func (p *batchProcessorImpl) cleanup(log *slog.Logger) {
	if n, err := p.exporter.CleanupBackups(); err != nil {
		log.Warn("backup cleanup failed", "error", err)
	} else if n > 0 {
		log.Info("old backups removed", "count", n)
	}
	if n, err := p.exporter.CleanupTemp(); err != nil {
		log.Warn("temp cleanup failed", "error", err)
	} else if n > 0 {
		log.Info("temp files removed", "count", n)
	}
}

func (p *batchProcessorImpl) CleanupTemp(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.exporter.CleanupTemp()
	if err != nil {
		return n, apperr.Wrap(apperr.KindExport, "cleanup temp", err)
	}
	slog.Info("temp files removed", "count", n)
	return n, nil
}

func contactIDs(cs []*model.ContactSubmission) []int64 {
	ids := make([]int64, len(cs))
	for i, c := range cs {
		ids[i] = c.ID
	}
	return ids
}
