// internal/config/config_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custom_errors "github.com/davidwang456/github-commit-query-system/internal/errors"
)

func TestLoadConfig_GithubDefaults(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost:5432/app")
	t.Setenv("PROVIDER", "github")
	t.Setenv("PROVIDER_BASE_URL", "")
	t.Setenv("TOKEN_HEADER", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "github", cfg.Provider)
	assert.Equal(t, "https://api.github.com", cfg.ProviderBaseURL)
	assert.Equal(t, "X-Github-Token", cfg.TokenHeader)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 5, cfg.SyncConcurrency)
}

func TestLoadConfig_GitlabDefaults(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost:5432/app")
	t.Setenv("PROVIDER", "GitLab")
	t.Setenv("PROVIDER_BASE_URL", "")
	t.Setenv("TOKEN_HEADER", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "gitlab", cfg.Provider)
	assert.Equal(t, "https://gitlab.com/api/v4", cfg.ProviderBaseURL)
	assert.Equal(t, "X-Gitlab-Token", cfg.TokenHeader)
}

func TestLoadConfig_UnknownProvider(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost:5432/app")
	t.Setenv("PROVIDER", "bitbucket")

	_, err := LoadConfig()
	require.Error(t, err)
	var provErr *custom_errors.ErrUnknownProvider
	assert.ErrorAs(t, err, &provErr)
}

func TestLoadConfig_MissingDBURL(t *testing.T) {
	t.Setenv("DB_URL", "")
	t.Setenv("PROVIDER", "github")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_URL")
}
