// internal/syncer/syncer.go
package syncer

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	custom_errors "github.com/davidwang456/github-commit-query-system/internal/errors"
	"github.com/davidwang456/github-commit-query-system/internal/model"
	"github.com/davidwang456/github-commit-query-system/internal/provider"
	"github.com/davidwang456/github-commit-query-system/internal/store"
	"github.com/davidwang456/github-commit-query-system/internal/token"
)

// Syncer orchestrates one provider-to-store synchronization run per
// (token, date range). Projects are synced in parallel up to the
// configured limit; the first fetch error cancels the remaining work and
// fails the run, leaving already-persisted projects in place.
type Syncer struct {
	client      provider.Client
	store       store.Querier
	logger      *slog.Logger
	concurrency int
}

// New creates a Syncer. concurrency is the number of projects synced in
// parallel, floored at 1.
func New(client provider.Client, st store.Querier, logger *slog.Logger, concurrency int) *Syncer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Syncer{
		client:      client,
		store:       st,
		logger:      logger,
		concurrency: concurrency,
	}
}

// dateCounter accumulates per-day commit counts across project workers.
type dateCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func newDateCounter() *dateCounter {
	return &dateCounter{counts: make(map[string]int)}
}

func (c *dateCounter) add(date string) {
	c.mu.Lock()
	c.counts[date]++
	c.mu.Unlock()
}

// SyncLastYear syncs the trailing 365-day window ending today.
func (s *Syncer) SyncLastYear(ctx context.Context, accessToken string) (map[string]int, error) {
	end := time.Now()
	start := end.AddDate(-1, 0, 1)
	return s.SyncRange(ctx, accessToken, start, end)
}

// SyncRecent syncs a short trailing window: "today" covers the current
// day, "month" the trailing 30 days, anything else the trailing week.
func (s *Syncer) SyncRecent(ctx context.Context, accessToken, rng string) (map[string]int, error) {
	end := time.Now()
	var start time.Time
	switch rng {
	case "today":
		start = end
	case "month":
		start = end.AddDate(0, 0, -29)
	default:
		start = end.AddDate(0, 0, -6)
	}
	return s.SyncRange(ctx, accessToken, start, end)
}

// SyncRange runs one full sync of [start, end] (inclusive calendar days in
// local time) for the token and returns the per-day commit counts. A blank
// token is a no-op returning an empty map.
func (s *Syncer) SyncRange(ctx context.Context, accessToken string, start, end time.Time) (map[string]int, error) {
	if strings.TrimSpace(accessToken) == "" {
		return map[string]int{}, nil
	}

	startDate := model.Day(start)
	endDate := model.Day(end)
	if endDate < startDate {
		return nil, &custom_errors.ErrInvalidDateRange{Start: startDate, End: endDate}
	}

	// Provider-side window: start of the first day to start of the day
	// after the last. The provider's own filtering is advisory; every
	// commit date is re-checked locally below.
	since := startOfDay(start)
	until := startOfDay(end).AddDate(0, 0, 1)

	logger := s.logger.With("token", token.Mask(accessToken))
	logger.Info("Starting sync", "start", startDate, "end", endDate)

	projects, err := s.client.ListProjects(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	logger.Info("Projects to process", "count", len(projects))

	counter := newDateCounter()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, project := range projects {
		project := project
		g.Go(func() error {
			return s.syncProject(gctx, accessToken, project, since, until, startDate, endDate, counter)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.store.ReplaceDailyCounts(ctx, accessToken, startDate, endDate, counter.counts); err != nil {
		return nil, err
	}

	logger.Info("Sync finished", "days", len(counter.counts))
	return counter.counts, nil
}

// syncProject handles one project: metadata upsert, then a branch-by-branch
// commit walk with per-project sha dedup.
func (s *Syncer) syncProject(ctx context.Context, accessToken string, project provider.Project, since, until time.Time, startDate, endDate string, counter *dateCounter) error {
	if strings.TrimSpace(project.Name) == "" {
		s.logger.Debug("Skipping project without a name", "project_id", project.Ref.ID)
		return nil
	}
	logger := s.logger.With("project", project.Name)

	languages, err := s.client.ListLanguages(ctx, project.Ref, accessToken)
	if err != nil {
		return err
	}

	err = s.store.UpsertProject(ctx, model.Project{
		Token:       accessToken,
		ProjectID:   project.Ref.ID,
		Name:        project.Name,
		Visibility:  project.Visibility,
		TopLanguage: topLanguage(languages),
		SyncedAt:    time.Now(),
	})
	if err != nil {
		return err
	}

	branches, err := s.client.ListBranches(ctx, project.Ref, accessToken)
	if err != nil {
		return err
	}

	// A sha seen on an earlier branch is not recounted on a later one;
	// the stored branch is whichever branch the walk reached first.
	seen := make(map[string]struct{})
	for _, branch := range branches {
		commits, err := s.client.ListCommits(ctx, project.Ref, branch, since, until, accessToken)
		if err != nil {
			return err
		}
		for _, commit := range commits {
			if commit.SHA == "" {
				continue
			}
			if _, dup := seen[commit.SHA]; dup {
				continue
			}
			seen[commit.SHA] = struct{}{}
			if commit.CommittedAt == nil {
				continue
			}
			date := model.Day(*commit.CommittedAt)
			if date < startDate || date > endDate {
				continue
			}

			err := s.store.UpsertCommit(ctx, model.CommitRecord{
				Token:       accessToken,
				SHA:         commit.SHA,
				Repository:  project.Name,
				Branch:      branch,
				CommittedAt: *commit.CommittedAt,
				Author:      commit.Author,
				Message:     commit.Message,
				URL:         commit.URL,
			})
			if err != nil {
				return err
			}
			counter.add(date)
		}
	}

	logger.Info("Finished project", "branches", len(branches), "unique_commits", len(seen))
	return nil
}

// topLanguage picks the language with the largest weight. Equal weights
// keep whichever key map iteration reaches first.
func topLanguage(languages map[string]float64) *string {
	var top *string
	var best float64
	for lang, weight := range languages {
		if top == nil || weight > best {
			lang := lang
			top = &lang
			best = weight
		}
	}
	return top
}

func startOfDay(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}
