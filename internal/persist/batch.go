package persist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"commenttogame/internal/logging"
	"commenttogame/internal/metrics"
	"commenttogame/pkg/models"
)

type itemResult struct {
	id   string
	err  error
	done bool
}

// UpsertMany imports games and reports per-item results instead of failing
// the whole batch.
//
// Blank names fail immediately. The rest are first written in a single
// transaction; if that fails anywhere, each item is retried in its own
// transaction with bounded concurrency. Cancellation is checked between
// items: completed items stay written and the partial report comes back
// together with ctx.Err().
func (s *Service) UpsertMany(ctx context.Context, games []models.CanonicalGame) (Report, error) {
	log := logging.With("persist")
	results := make([]itemResult, len(games))

	pending := make([]int, 0, len(games))
	for i, g := range games {
		if strings.TrimSpace(g.Name) == "" {
			results[i] = itemResult{err: ErrBlankName, done: true}
			continue
		}
		pending = append(pending, i)
	}

	if len(pending) > 0 {
		if err := s.bulk(ctx, games, pending, results); err != nil {
			if ctx.Err() != nil {
				return buildReport(games, results), ctx.Err()
			}
			log.Warn().Err(err).Int("items", len(pending)).Msg("bulk import failed, retrying items one by one")
			s.oneByOne(ctx, games, pending, results)
		}
	}

	report := buildReport(games, results)
	for _, f := range report.Failed {
		log.Warn().Int("index", f.Index).Str("name", f.Name).Str("reason", f.Reason).Msg("import item failed")
	}
	log.Info().Int("succeeded", len(report.Succeeded)).Int("failed", len(report.Failed)).Msg("batch import finished")
	return report, ctx.Err()
}

// bulk writes all pending items in one transaction. On cancellation it
// commits what is done so far; on any item error it rolls back and leaves
// results untouched.
func (s *Service) bulk(ctx context.Context, games []models.CanonicalGame, pending []int, results []itemResult) error {
	// database/sql rolls a transaction back when its context is cancelled;
	// detach so finished items can still be committed.
	txCtx := context.WithoutCancel(ctx)

	tx, err := s.DB.BeginTx(txCtx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	ids := make(map[int]string, len(pending))
	for _, i := range pending {
		if ctx.Err() != nil {
			break
		}
		id, err := s.upsertTx(txCtx, tx, games[i])
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		ids[i] = id
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	for i, id := range ids {
		results[i] = itemResult{id: id, done: true}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

func (s *Service) oneByOne(ctx context.Context, games []models.CanonicalGame, pending []int, results []itemResult) {
	limit := s.Concurrency
	if limit <= 0 {
		limit = defaultWorkers
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for _, i := range pending {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			id, err := s.UpsertOne(ctx, games[i])
			if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				// interrupted mid-item; the transaction rolled back
				return nil
			}
			results[i] = itemResult{id: id, err: err, done: true}
			return nil
		})
	}
	_ = g.Wait()
}

func buildReport(games []models.CanonicalGame, results []itemResult) Report {
	report := emptyReport()
	for i, r := range results {
		if !r.done {
			continue
		}
		if r.err == nil {
			report.Succeeded = append(report.Succeeded, r.id)
			metrics.ImportItems.WithLabelValues("succeeded").Inc()
			continue
		}
		f := newFailure(i, games[i].Name, r.err)
		if f.Conflict != nil {
			metrics.ImportItems.WithLabelValues("conflict").Inc()
		} else {
			metrics.ImportItems.WithLabelValues("failed").Inc()
		}
		report.Failed = append(report.Failed, f)
	}
	return report
}
