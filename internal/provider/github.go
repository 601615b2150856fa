// internal/provider/github.go
package provider

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
)

// Github is the GitHub-family client, a thin wrapper around go-github.
// Tokens arrive per request, so a fresh go-github client is built per call
// rather than once at startup.
type Github struct {
	baseURL string
	logger  *slog.Logger
}

// NewGithub creates a GitHub client. baseURL is empty for api.github.com.
func NewGithub(baseURL string, logger *slog.Logger) *Github {
	return &Github{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// api builds a token-scoped go-github client. A blank token yields an
// unauthenticated client with no Authorization header.
func (c *Github) api(ctx context.Context, token string) (*github.Client, error) {
	var gh *github.Client
	if strings.TrimSpace(token) == "" {
		gh = github.NewClient(nil)
	} else {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		gh = github.NewClient(oauth2.NewClient(ctx, ts))
	}

	if c.baseURL != "" && c.baseURL != "https://api.github.com" {
		base, err := url.Parse(c.baseURL + "/")
		if err != nil {
			return nil, err
		}
		gh.BaseURL = base
	}
	return gh, nil
}

// ListProjects fetches every repository visible to the token.
func (c *Github) ListProjects(ctx context.Context, token string) ([]Project, error) {
	gh, err := c.api(ctx, token)
	if err != nil {
		return nil, err
	}

	opts := &github.RepositoryListByAuthenticatedUserOptions{
		Visibility:  "all",
		Affiliation: "owner,collaborator,organization_member",
		ListOptions: github.ListOptions{PerPage: pageSize, Page: 1},
	}

	var projects []Project
	for {
		repos, _, err := gh.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			return nil, err
		}
		if len(repos) == 0 {
			break
		}
		for _, r := range repos {
			projects = append(projects, toProject(r))
		}
		c.logger.Debug("Fetched repositories page", "page", opts.Page, "count", len(repos))
		opts.Page++
	}
	return projects, nil
}

// ListLanguages returns the byte-weight per language for one repository.
func (c *Github) ListLanguages(ctx context.Context, ref ProjectRef, token string) (map[string]float64, error) {
	gh, err := c.api(ctx, token)
	if err != nil {
		return nil, err
	}

	owner, name := splitFullName(ref.FullName)
	langs, _, err := gh.Repositories.ListLanguages(ctx, owner, name)
	if err != nil {
		return nil, err
	}

	weights := make(map[string]float64, len(langs))
	for lang, bytes := range langs {
		weights[lang] = float64(bytes)
	}
	return weights, nil
}

// ListBranches returns all branch names of one repository.
func (c *Github) ListBranches(ctx context.Context, ref ProjectRef, token string) ([]string, error) {
	gh, err := c.api(ctx, token)
	if err != nil {
		return nil, err
	}

	owner, name := splitFullName(ref.FullName)
	opts := &github.BranchListOptions{
		ListOptions: github.ListOptions{PerPage: pageSize, Page: 1},
	}

	var branches []string
	for {
		page, _, err := gh.Repositories.ListBranches(ctx, owner, name, opts)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		for _, b := range page {
			if b.GetName() != "" {
				branches = append(branches, b.GetName())
			}
		}
		opts.Page++
	}
	return branches, nil
}

// ListCommits fetches commits on one branch within [since, until). The
// provider-side window is advisory; callers re-check dates locally.
func (c *Github) ListCommits(ctx context.Context, ref ProjectRef, branch string, since, until time.Time, token string) ([]Commit, error) {
	gh, err := c.api(ctx, token)
	if err != nil {
		return nil, err
	}

	owner, name := splitFullName(ref.FullName)
	opts := &github.CommitsListOptions{
		SHA:         branch,
		Since:       since,
		Until:       until,
		ListOptions: github.ListOptions{PerPage: pageSize, Page: 1},
	}

	var commits []Commit
	for {
		page, _, err := gh.Repositories.ListCommits(ctx, owner, name, opts)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		for _, rc := range page {
			commits = append(commits, toGithubCommit(rc))
		}
		c.logger.Debug("Fetched commits page", "repo", ref.FullName, "branch", branch, "page", opts.Page, "count", len(page))
		opts.Page++
	}
	return commits, nil
}

// toProject translates a go-github repository to the normalized shape.
// Display name is full_name, falling back to name.
func toProject(r *github.Repository) Project {
	name := r.GetFullName()
	if name == "" {
		name = r.GetName()
	}
	visibility := "public"
	if r.GetPrivate() {
		visibility = "private"
	}
	return Project{
		Ref:        ProjectRef{ID: r.GetID(), FullName: name},
		Name:       name,
		Visibility: visibility,
	}
}

// toGithubCommit applies the GitHub field-priority rules: date from
// commit.committer.date then commit.author.date, author from
// commit.author.name then commit.committer.name, message from
// commit.message, url from html_url.
func toGithubCommit(rc *github.RepositoryCommit) Commit {
	out := Commit{SHA: rc.GetSHA()}
	commit := rc.GetCommit()

	if d := commit.GetCommitter().GetDate(); !d.IsZero() {
		t := d.Time
		out.CommittedAt = &t
	} else if d := commit.GetAuthor().GetDate(); !d.IsZero() {
		t := d.Time
		out.CommittedAt = &t
	}

	if n := commit.GetAuthor().GetName(); n != "" {
		out.Author = &n
	} else if n := commit.GetCommitter().GetName(); n != "" {
		out.Author = &n
	}

	if m := commit.GetMessage(); m != "" {
		out.Message = &m
	}
	if u := rc.GetHTMLURL(); u != "" {
		out.URL = &u
	}
	return out
}

func splitFullName(fullName string) (owner, name string) {
	owner, name, found := strings.Cut(fullName, "/")
	if !found {
		return fullName, ""
	}
	return owner, name
}
