// Package profile implements the profile analysis service against the GitHub
// REST API: public account statistics plus a normalized match score of the
// profile's technology footprint against job requirements.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/Abraxas-365/shortlist/ranking"
)

const defaultBaseURL = "https://api.github.com"

// GitHubAnalyzer resolves a login to public profile statistics.
type GitHubAnalyzer struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewGitHubAnalyzer creates an analyzer. The token is optional; without it
// requests run against the anonymous rate limit.
func NewGitHubAnalyzer(token string) *GitHubAnalyzer {
	return &GitHubAnalyzer{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultBaseURL,
		token:      token,
	}
}

// NewGitHubAnalyzerWithBaseURL creates an analyzer against a custom API base,
// e.g. a GitHub Enterprise host or a test server.
func NewGitHubAnalyzerWithBaseURL(token, baseURL string) *GitHubAnalyzer {
	a := NewGitHubAnalyzer(token)
	a.baseURL = strings.TrimSuffix(baseURL, "/")
	return a
}

type githubUser struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	Bio         string `json:"bio"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
}

type githubRepo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stargazers  int    `json:"stargazers_count"`
	Topics      []string `json:"topics"`
	Fork        bool   `json:"fork"`
}

// profileStats is the opaque pass-through payload stored in enrichment records.
type profileStats struct {
	Login       string         `json:"login"`
	Name        string         `json:"name,omitempty"`
	PublicRepos int            `json:"public_repos"`
	Followers   int            `json:"followers"`
	Languages   map[string]int `json:"languages"`
	TopRepos    []string       `json:"top_repos,omitempty"`
}

// AnalyzeProfile fetches the account and its repositories and, when job
// requirements are supplied, computes a [0,1] match score from the overlap
// between requirement terms and the profile's technology footprint.
func (a *GitHubAnalyzer) AnalyzeProfile(ctx context.Context, externalID string, jobRequirements string) (*ranking.ProfileAnalysis, error) {
	var user githubUser
	if err := a.get(ctx, "/users/"+externalID, &user); err != nil {
		return nil, err
	}

	var repos []githubRepo
	if err := a.get(ctx, "/users/"+externalID+"/repos?per_page=100&sort=updated", &repos); err != nil {
		return nil, err
	}

	stats := buildStats(user, repos)
	raw, err := json.Marshal(stats)
	if err != nil {
		return nil, fmt.Errorf("marshal profile stats: %w", err)
	}

	analysis := &ranking.ProfileAnalysis{Stats: raw}
	if strings.TrimSpace(jobRequirements) != "" {
		score := matchScore(jobRequirements, user, repos)
		analysis.MatchScore = &score
	}
	return analysis, nil
}

func (a *GitHubAnalyzer) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("github request %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("github profile not found: %s", path)
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("github rate limit exceeded: %s", resp.Status)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("github bad status for %s: %s", path, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read github response: %w", err)
	}
	return json.Unmarshal(body, out)
}

func buildStats(user githubUser, repos []githubRepo) profileStats {
	stats := profileStats{
		Login:       user.Login,
		Name:        user.Name,
		PublicRepos: user.PublicRepos,
		Followers:   user.Followers,
		Languages:   make(map[string]int),
	}

	type starred struct {
		name  string
		stars int
	}
	var ranked []starred
	for _, repo := range repos {
		if repo.Fork {
			continue
		}
		if repo.Language != "" {
			stats.Languages[repo.Language]++
		}
		ranked = append(ranked, starred{name: repo.Name, stars: repo.Stargazers})
	}

	sort.Slice(ranked, func(i, j int) bool { return ranked[i].stars > ranked[j].stars })
	for i := 0; i < len(ranked) && i < 5; i++ {
		stats.TopRepos = append(stats.TopRepos, ranked[i].name)
	}
	return stats
}

// matchScore computes the share of requirement terms covered by the profile's
// languages, repo names, descriptions and topics. The score is the covered
// fraction, already in [0,1]; upstream scales are never exposed to the fuser.
func matchScore(jobRequirements string, user githubUser, repos []githubRepo) float64 {
	required := termSet(jobRequirements)
	if len(required) == 0 {
		return 0
	}

	var sb strings.Builder
	sb.WriteString(user.Bio)
	for _, repo := range repos {
		sb.WriteString(" ")
		sb.WriteString(repo.Name)
		sb.WriteString(" ")
		sb.WriteString(repo.Description)
		sb.WriteString(" ")
		sb.WriteString(repo.Language)
		sb.WriteString(" ")
		sb.WriteString(strings.Join(repo.Topics, " "))
	}
	footprint := termSet(sb.String())

	covered := 0
	for term := range required {
		if _, ok := footprint[term]; ok {
			covered++
		}
	}
	return float64(covered) / float64(len(required))
}

func termSet(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		set[f] = struct{}{}
	}
	return set
}
