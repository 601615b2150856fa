// internal/query/service_test.go
package query

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davidwang456/github-commit-query-system/internal/model"
	"github.com/davidwang456/github-commit-query-system/internal/store"
)

// MockQuerier is a mock of the store.Querier interface.
type MockQuerier struct {
	mock.Mock
}

func (m *MockQuerier) UpsertProject(ctx context.Context, p model.Project) error {
	return m.Called(ctx, p).Error(0)
}
func (m *MockQuerier) UpsertCommit(ctx context.Context, c model.CommitRecord) error {
	return m.Called(ctx, c).Error(0)
}
func (m *MockQuerier) ReplaceDailyCounts(ctx context.Context, token, startDate, endDate string, counts map[string]int) error {
	return m.Called(ctx, token, startDate, endDate, counts).Error(0)
}
func (m *MockQuerier) DailyCountsRange(ctx context.Context, token, startDate, endDate string) (map[string]int, error) {
	args := m.Called(ctx, token, startDate, endDate)
	return args.Get(0).(map[string]int), args.Error(1)
}
func (m *MockQuerier) HasData(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}
func (m *MockQuerier) SearchCommits(ctx context.Context, q store.CommitSearch) (int64, []model.CommitRecord, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(int64), args.Get(1).([]model.CommitRecord), args.Error(2)
}
func (m *MockQuerier) DistinctRepositories(ctx context.Context, token string) ([]string, error) {
	args := m.Called(ctx, token)
	return args.Get(0).([]string), args.Error(1)
}
func (m *MockQuerier) DistinctBranches(ctx context.Context, token, repository string) ([]string, error) {
	args := m.Called(ctx, token, repository)
	return args.Get(0).([]string), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func localDay(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local)
}

func TestDailyCounts_ZeroFill(t *testing.T) {
	mockQ := new(MockQuerier)
	mockQ.On("DailyCountsRange", mock.Anything, "tok", "2024-01-01", "2024-01-05").Return(map[string]int{
		"2024-01-02": 3,
		"2024-01-04": 1,
	}, nil)

	s := New(mockQ, testLogger())
	counts, err := s.DailyCounts(context.Background(), localDay(2024, 1, 1), localDay(2024, 1, 5), "tok")

	require.NoError(t, err)
	assert.Equal(t, []model.DailyCount{
		{Date: "2024-01-01", Count: 0},
		{Date: "2024-01-02", Count: 3},
		{Date: "2024-01-03", Count: 0},
		{Date: "2024-01-04", Count: 1},
		{Date: "2024-01-05", Count: 0},
	}, counts)
}

func TestDailyCounts_SingleDayRange(t *testing.T) {
	mockQ := new(MockQuerier)
	mockQ.On("DailyCountsRange", mock.Anything, "tok", "2024-06-15", "2024-06-15").Return(map[string]int{}, nil)

	s := New(mockQ, testLogger())
	counts, err := s.DailyCounts(context.Background(), localDay(2024, 6, 15), localDay(2024, 6, 15), "tok")

	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, model.DailyCount{Date: "2024-06-15", Count: 0}, counts[0])
}

func TestBlankTokenShortCircuits(t *testing.T) {
	mockQ := new(MockQuerier)
	s := New(mockQ, testLogger())
	ctx := context.Background()

	exists, err := s.HasData(ctx, "")
	require.NoError(t, err)
	assert.False(t, exists)

	counts, err := s.DailyCounts(ctx, localDay(2024, 1, 1), localDay(2024, 1, 5), " ")
	require.NoError(t, err)
	assert.Empty(t, counts)

	page, err := s.CommitPage(ctx, "", "", 2, 10, "")
	require.NoError(t, err)
	assert.Equal(t, model.CommitPage{Total: 0, Page: 2, Size: 10, Records: []model.CommitRecord{}}, page)

	projects, err := s.Projects(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, projects)

	branches, err := s.Branches(ctx, "acme/widgets", "")
	require.NoError(t, err)
	assert.Empty(t, branches)

	// The store is never touched for blank input.
	mockQ.AssertNotCalled(t, "HasData")
	mockQ.AssertNotCalled(t, "DailyCountsRange")
	mockQ.AssertNotCalled(t, "SearchCommits")
	mockQ.AssertNotCalled(t, "DistinctRepositories")
	mockQ.AssertNotCalled(t, "DistinctBranches")
}

func TestCommitPage_ClampsPageAndSize(t *testing.T) {
	mockQ := new(MockQuerier)
	mockQ.On("SearchCommits", mock.Anything, store.CommitSearch{
		Token: "tok",
		Limit: 1,
	}).Return(int64(7), []model.CommitRecord(nil), nil).Once()

	s := New(mockQ, testLogger())
	page, err := s.CommitPage(context.Background(), "", "", 0, -5, "tok")

	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.Size)
	assert.Equal(t, int64(7), page.Total)
	assert.NotNil(t, page.Records)
	mockQ.AssertExpectations(t)
}

func TestCommitPage_OffsetFromPage(t *testing.T) {
	mockQ := new(MockQuerier)
	mockQ.On("SearchCommits", mock.Anything, store.CommitSearch{
		Token:      "tok",
		Repository: "widgets",
		Branch:     "main",
		Limit:      20,
		Offset:     40,
	}).Return(int64(55), []model.CommitRecord{{SHA: "abc"}}, nil).Once()

	s := New(mockQ, testLogger())
	page, err := s.CommitPage(context.Background(), " widgets ", "main", 3, 20, "tok")

	require.NoError(t, err)
	assert.Equal(t, int64(55), page.Total)
	require.Len(t, page.Records, 1)
	mockQ.AssertExpectations(t)
}

func TestProjects_SortedCaseInsensitive(t *testing.T) {
	mockQ := new(MockQuerier)
	mockQ.On("DistinctRepositories", mock.Anything, "tok").Return([]string{"Zeta/one", "alpha/two", "Beta/three"}, nil)

	s := New(mockQ, testLogger())
	projects, err := s.Projects(context.Background(), "tok")

	require.NoError(t, err)
	assert.Equal(t, []string{"alpha/two", "Beta/three", "Zeta/one"}, projects)
}

func TestBranches_BlankProjectShortCircuits(t *testing.T) {
	mockQ := new(MockQuerier)
	s := New(mockQ, testLogger())

	branches, err := s.Branches(context.Background(), "  ", "tok")

	require.NoError(t, err)
	assert.Empty(t, branches)
	mockQ.AssertNotCalled(t, "DistinctBranches")
}

func TestBranches_Sorted(t *testing.T) {
	mockQ := new(MockQuerier)
	mockQ.On("DistinctBranches", mock.Anything, "tok", "acme/widgets").Return([]string{"main", "DEV", "feature/x"}, nil)

	s := New(mockQ, testLogger())
	branches, err := s.Branches(context.Background(), "acme/widgets", "tok")

	require.NoError(t, err)
	assert.Equal(t, []string{"DEV", "feature/x", "main"}, branches)
}
