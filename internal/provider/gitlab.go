// internal/provider/gitlab.go
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Gitlab is the GitLab-family client. There is no GitLab SDK in use here;
// the API surface needed is four GET endpoints with per_page/page paging.
type Gitlab struct {
	baseURL string
	httpc   *http.Client
	logger  *slog.Logger
}

// NewGitlab creates a GitLab client. baseURL should point at the /api/v4
// root, e.g. https://gitlab.com/api/v4.
func NewGitlab(baseURL string, logger *slog.Logger) *Gitlab {
	return &Gitlab{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

type gitlabProject struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	PathWithNamespace string `json:"path_with_namespace"`
	Visibility        string `json:"visibility"`
}

type gitlabBranch struct {
	Name string `json:"name"`
}

type gitlabCommit struct {
	ID            string `json:"id"`
	CommittedDate string `json:"committed_date"`
	AuthoredDate  string `json:"authored_date"`
	Title         string `json:"title"`
	Message       string `json:"message"`
	AuthorName    string `json:"author_name"`
	CommitterName string `json:"committer_name"`
	WebURL        string `json:"web_url"`
}

// ListProjects fetches every project the token is a member of.
func (c *Gitlab) ListProjects(ctx context.Context, token string) ([]Project, error) {
	var projects []Project
	for page := 1; ; page++ {
		query := url.Values{
			"membership": {"true"},
			"per_page":   {strconv.Itoa(pageSize)},
			"page":       {strconv.Itoa(page)},
		}
		var body []gitlabProject
		if err := c.get(ctx, "/projects", query, token, &body); err != nil {
			return nil, err
		}
		if len(body) == 0 {
			break
		}
		for _, p := range body {
			projects = append(projects, toGitlabProject(p))
		}
		c.logger.Debug("Fetched projects page", "page", page, "count", len(body))
	}
	return projects, nil
}

// ListLanguages returns the percentage weight per language for one project.
func (c *Gitlab) ListLanguages(ctx context.Context, ref ProjectRef, token string) (map[string]float64, error) {
	var langs map[string]float64
	path := fmt.Sprintf("/projects/%d/languages", ref.ID)
	if err := c.get(ctx, path, nil, token, &langs); err != nil {
		return nil, err
	}
	return langs, nil
}

// ListBranches returns all branch names of one project.
func (c *Gitlab) ListBranches(ctx context.Context, ref ProjectRef, token string) ([]string, error) {
	path := fmt.Sprintf("/projects/%d/repository/branches", ref.ID)

	var branches []string
	for page := 1; ; page++ {
		query := url.Values{
			"per_page": {strconv.Itoa(pageSize)},
			"page":     {strconv.Itoa(page)},
		}
		var body []gitlabBranch
		if err := c.get(ctx, path, query, token, &body); err != nil {
			return nil, err
		}
		if len(body) == 0 {
			break
		}
		for _, b := range body {
			if b.Name != "" {
				branches = append(branches, b.Name)
			}
		}
	}
	return branches, nil
}

// ListCommits fetches commits on one branch within [since, until). The
// provider-side window is advisory; callers re-check dates locally.
func (c *Gitlab) ListCommits(ctx context.Context, ref ProjectRef, branch string, since, until time.Time, token string) ([]Commit, error) {
	path := fmt.Sprintf("/projects/%d/repository/commits", ref.ID)

	var commits []Commit
	for page := 1; ; page++ {
		query := url.Values{
			"ref_name": {branch},
			"since":    {since.Format(time.RFC3339)},
			"until":    {until.Format(time.RFC3339)},
			"per_page": {strconv.Itoa(pageSize)},
			"page":     {strconv.Itoa(page)},
		}
		var body []gitlabCommit
		if err := c.get(ctx, path, query, token, &body); err != nil {
			return nil, err
		}
		if len(body) == 0 {
			break
		}
		for _, gc := range body {
			commits = append(commits, toGitlabCommit(gc))
		}
		c.logger.Debug("Fetched commits page", "project_id", ref.ID, "branch", branch, "page", page, "count", len(body))
	}
	return commits, nil
}

// get performs one GET against the API and decodes the JSON body into out.
// A blank token sends no Private-Token header.
func (c *Gitlab) get(ctx context.Context, path string, query url.Values, token string, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Private-Token", token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("gitlab: GET %s: unexpected status %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gitlab: GET %s: decode response: %w", path, err)
	}
	return nil
}

// toGitlabProject normalizes a project entry. Display name is
// path_with_namespace, falling back to name; visibility defaults to
// private when the field is absent.
func toGitlabProject(p gitlabProject) Project {
	name := p.PathWithNamespace
	if name == "" {
		name = p.Name
	}
	visibility := p.Visibility
	if visibility == "" {
		visibility = "private"
	}
	return Project{
		Ref:        ProjectRef{ID: p.ID, FullName: name},
		Name:       name,
		Visibility: visibility,
	}
}

// toGitlabCommit applies the GitLab field-priority rules: date from
// committed_date then authored_date, message from title then message,
// author from author_name then committer_name, url from web_url. An
// unparseable date is treated as absent.
func toGitlabCommit(gc gitlabCommit) Commit {
	out := Commit{SHA: gc.ID}

	raw := gc.CommittedDate
	if raw == "" {
		raw = gc.AuthoredDate
	}
	if raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			out.CommittedAt = &t
		}
	}

	if gc.Title != "" {
		out.Message = &gc.Title
	} else if gc.Message != "" {
		out.Message = &gc.Message
	}

	if gc.AuthorName != "" {
		out.Author = &gc.AuthorName
	} else if gc.CommitterName != "" {
		out.Author = &gc.CommitterName
	}

	if gc.WebURL != "" {
		out.URL = &gc.WebURL
	}
	return out
}
