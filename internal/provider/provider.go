// internal/provider/provider.go
package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/davidwang456/github-commit-query-system/internal/config"
	custom_errors "github.com/davidwang456/github-commit-query-system/internal/errors"
)

// pageSize is the fixed page size for every listing endpoint. Pagination
// starts at page 1 and stops the first time a page comes back empty.
const pageSize = 100

// ProjectRef identifies one project to its provider. GitHub addresses
// repositories by owner/name, GitLab by numeric id; both are carried so a
// ref round-trips through either variant.
type ProjectRef struct {
	ID       int64
	FullName string
}

// Project is a normalized project listing entry. Name is empty when the
// provider reported no usable name; callers skip such projects.
type Project struct {
	Ref        ProjectRef
	Name       string
	Visibility string
}

// Commit is a normalized commit payload. SHA and CommittedAt are required
// downstream; a commit missing either is skipped by the orchestrator.
// Optional fields are nil when the provider omitted every alternative.
type Commit struct {
	SHA         string
	CommittedAt *time.Time
	Author      *string
	Message     *string
	URL         *string
}

// Client is a paginated accessor for one provider family. A blank token
// means anonymous access: no auth header is sent and the provider decides
// what is visible.
type Client interface {
	ListProjects(ctx context.Context, token string) ([]Project, error)
	ListLanguages(ctx context.Context, ref ProjectRef, token string) (map[string]float64, error)
	ListBranches(ctx context.Context, ref ProjectRef, token string) ([]string, error)
	ListCommits(ctx context.Context, ref ProjectRef, branch string, since, until time.Time, token string) ([]Commit, error)
}

// New returns the client for the configured provider family.
func New(family, baseURL string, logger *slog.Logger) (Client, error) {
	switch family {
	case config.ProviderGithub:
		return NewGithub(baseURL, logger), nil
	case config.ProviderGitlab:
		return NewGitlab(baseURL, logger), nil
	default:
		return nil, &custom_errors.ErrUnknownProvider{Provider: family}
	}
}
