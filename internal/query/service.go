// internal/query/service.go
package query

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/davidwang456/github-commit-query-system/internal/model"
	"github.com/davidwang456/github-commit-query-system/internal/store"
	"github.com/davidwang456/github-commit-query-system/internal/token"
)

// Service is the read-side facade over the store. Every method treats a
// blank token as "no data" rather than an error.
type Service struct {
	store  store.Querier
	logger *slog.Logger
}

func New(st store.Querier, logger *slog.Logger) *Service {
	return &Service{store: st, logger: logger}
}

// HasData reports whether the token has any synced commits, which callers
// use to decide between serving cached data and triggering a sync.
func (s *Service) HasData(ctx context.Context, accessToken string) (bool, error) {
	if strings.TrimSpace(accessToken) == "" {
		return false, nil
	}
	exists, err := s.store.HasData(ctx, accessToken)
	if err != nil {
		return false, err
	}
	s.logger.Info("Checked cached data", "token", token.Mask(accessToken), "exists", exists)
	return exists, nil
}

// DailyCounts returns one entry per calendar day of [start, end] in
// ascending order, zero-filled for days with no stored count.
func (s *Service) DailyCounts(ctx context.Context, start, end time.Time, accessToken string) ([]model.DailyCount, error) {
	if strings.TrimSpace(accessToken) == "" {
		return []model.DailyCount{}, nil
	}

	startDate := model.Day(start)
	endDate := model.Day(end)
	stored, err := s.store.DailyCountsRange(ctx, accessToken, startDate, endDate)
	if err != nil {
		return nil, err
	}

	var results []model.DailyCount
	cursor := start.Local()
	cursor = time.Date(cursor.Year(), cursor.Month(), cursor.Day(), 0, 0, 0, 0, time.Local)
	for {
		date := cursor.Format(model.DateFormat)
		if date > endDate {
			break
		}
		results = append(results, model.DailyCount{Date: date, Count: stored[date]})
		cursor = cursor.AddDate(0, 0, 1)
	}
	return results, nil
}

// CommitPage answers the filtered, paginated commit query. Non-positive
// page or size values clamp to 1 instead of erroring.
func (s *Service) CommitPage(ctx context.Context, project, branch string, page, size int, accessToken string) (model.CommitPage, error) {
	safePage := max(page, 1)
	safeSize := max(size, 1)

	result := model.CommitPage{
		Page:    safePage,
		Size:    safeSize,
		Records: []model.CommitRecord{},
	}
	if strings.TrimSpace(accessToken) == "" {
		return result, nil
	}

	total, records, err := s.store.SearchCommits(ctx, store.CommitSearch{
		Token:      accessToken,
		Repository: strings.TrimSpace(project),
		Branch:     strings.TrimSpace(branch),
		Limit:      safeSize,
		Offset:     (safePage - 1) * safeSize,
	})
	if err != nil {
		return model.CommitPage{}, err
	}

	result.Total = total
	if records != nil {
		result.Records = records
	}
	s.logger.Info("Commit query finished",
		"token", token.Mask(accessToken), "project", project, "branch", branch, "total", total)
	return result, nil
}

// Projects lists the distinct repositories synced for the token, sorted
// case-insensitively.
func (s *Service) Projects(ctx context.Context, accessToken string) ([]string, error) {
	if strings.TrimSpace(accessToken) == "" {
		return []string{}, nil
	}
	projects, err := s.store.DistinctRepositories(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	sortFold(projects)
	if projects == nil {
		projects = []string{}
	}
	return projects, nil
}

// Branches lists the distinct branches recorded for one repository of the
// token, sorted case-insensitively.
func (s *Service) Branches(ctx context.Context, project, accessToken string) ([]string, error) {
	if strings.TrimSpace(project) == "" || strings.TrimSpace(accessToken) == "" {
		return []string{}, nil
	}
	branches, err := s.store.DistinctBranches(ctx, accessToken, project)
	if err != nil {
		return nil, err
	}
	sortFold(branches)
	if branches == nil {
		branches = []string{}
	}
	return branches, nil
}

func sortFold(values []string) {
	sort.Slice(values, func(i, j int) bool {
		return strings.ToLower(values[i]) < strings.ToLower(values[j])
	})
}
