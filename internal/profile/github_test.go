package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGitHubStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octo", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"login":        "octo",
			"name":         "Octo Cat",
			"bio":          "Backend engineer into Go and Kubernetes",
			"public_repos": 12,
			"followers":    80,
		})
	})
	mux.HandleFunc("/users/octo/repos", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{
				"name":             "orders",
				"description":      "Order service in Go",
				"language":         "Go",
				"stargazers_count": 42,
				"topics":           []string{"grpc", "postgres"},
			},
			{
				"name":             "charts",
				"description":      "Helm charts",
				"language":         "Smarty",
				"stargazers_count": 3,
				"topics":           []string{"kubernetes"},
			},
			{
				"name":             "forked-linter",
				"language":         "Go",
				"stargazers_count": 900,
				"fork":             true,
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyzeProfile_BuildsStatsAndScore(t *testing.T) {
	srv := newGitHubStub(t)
	analyzer := NewGitHubAnalyzerWithBaseURL("", srv.URL)

	analysis, err := analyzer.AnalyzeProfile(context.Background(), "octo", "Go Kubernetes Terraform")
	require.NoError(t, err)

	var stats profileStats
	require.NoError(t, json.Unmarshal(analysis.Stats, &stats))
	assert.Equal(t, "octo", stats.Login)
	assert.Equal(t, 12, stats.PublicRepos)
	assert.Equal(t, map[string]int{"Go": 1, "Smarty": 1}, stats.Languages, "forks are excluded")
	assert.Contains(t, stats.TopRepos, "orders")
	assert.NotContains(t, stats.TopRepos, "forked-linter")

	// "go" and "kubernetes" are covered by the footprint, "terraform" is not.
	require.NotNil(t, analysis.MatchScore)
	assert.InDelta(t, 2.0/3.0, *analysis.MatchScore, 1e-9)
	assert.GreaterOrEqual(t, *analysis.MatchScore, 0.0)
	assert.LessOrEqual(t, *analysis.MatchScore, 1.0)
}

func TestAnalyzeProfile_NoRequirementsMeansNoScore(t *testing.T) {
	srv := newGitHubStub(t)
	analyzer := NewGitHubAnalyzerWithBaseURL("", srv.URL)

	analysis, err := analyzer.AnalyzeProfile(context.Background(), "octo", "   ")
	require.NoError(t, err)
	assert.Nil(t, analysis.MatchScore)
	assert.NotEmpty(t, analysis.Stats)
}

func TestAnalyzeProfile_UnknownUser(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	analyzer := NewGitHubAnalyzerWithBaseURL("", srv.URL)

	_, err := analyzer.AnalyzeProfile(context.Background(), "ghost", "Go")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestAnalyzeProfile_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	analyzer := NewGitHubAnalyzerWithBaseURL("", srv.URL)

	_, err := analyzer.AnalyzeProfile(context.Background(), "octo", "Go")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestTermSet_KeepsLanguageSymbols(t *testing.T) {
	set := termSet("C++ and C# developer")
	assert.Contains(t, set, "c++")
	assert.Contains(t, set, "c#")
	assert.Contains(t, set, "developer")
	assert.NotContains(t, set, "c")
}
