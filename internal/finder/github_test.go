package finder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/archminer/internal/logging"
)

func init() {
	// Tests should not pace themselves like production pagination does.
	searchInterval = time.Millisecond
}

type searchPage struct {
	TotalCount   int                  `json:"total_count"`
	Items        []*github.Repository `json:"items"`
	nextPageLink bool
}

func searchServer(t *testing.T, pages []searchPage, queries *[]string) *github.Client {
	t.Helper()
	mux := http.NewServeMux()
	page := 0
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		if queries != nil {
			*queries = append(*queries, r.URL.Query().Get("q"))
		}
		require.Less(t, page, len(pages), "unexpected extra search request")
		current := pages[page]
		page++
		if current.nextPageLink {
			w.Header().Set("Link", fmt.Sprintf(`<%s?page=%d>; rel="next"`, r.URL.Path, page+1))
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(current))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := github.NewClient(nil)
	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base
	return client
}

func repoFixture(fullName string, stars int) *github.Repository {
	archived := true
	language := "Java"
	pushed := github.Timestamp{Time: time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)}
	htmlURL := "https://github.com/" + fullName
	return &github.Repository{
		FullName:        &fullName,
		HTMLURL:         &htmlURL,
		StargazersCount: &stars,
		Language:        &language,
		Archived:        &archived,
		PushedAt:        &pushed,
	}
}

func TestFindProjects(t *testing.T) {
	var queries []string
	client := searchServer(t, []searchPage{
		{Items: []*github.Repository{
			repoFixture("Waikato/weka-3.8", 300),
			repoFixture("apache/ant-old", 150),
		}},
	}, &queries)

	f := NewGitHubFinderWithClient(client, Options{
		MinStars:     100,
		PushedBefore: "2021-01-01",
		Language:     "java",
		ArchivedOnly: true,
	}, logging.NewTestLogger().Logger)

	projects, err := f.FindProjects(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, projects, 2)

	assert.Equal(t, "Waikato|weka-3.8", projects[0].Name)
	assert.Equal(t, "https://github.com/Waikato/weka-3.8", projects[0].Remote)
	assert.Equal(t, 300, projects[0].Stars)
	assert.True(t, projects[0].Archived)
	require.NotNil(t, projects[0].PushedAt)

	require.Len(t, queries, 1)
	assert.Equal(t, "language:java stars:>=100 pushed:<2021-01-01 archived:true", queries[0])
}

func TestFindProjectsPaginates(t *testing.T) {
	client := searchServer(t, []searchPage{
		{Items: []*github.Repository{repoFixture("a/one", 120)}, nextPageLink: true},
		{Items: []*github.Repository{repoFixture("b/two", 110)}},
	}, nil)

	f := NewGitHubFinderWithClient(client, Options{MinStars: 100, Language: "java"},
		logging.NewTestLogger().Logger)

	projects, err := f.FindProjects(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "a|one", projects[0].Name)
	assert.Equal(t, "b|two", projects[1].Name)
}

func TestFindProjectsStopsWhenExhausted(t *testing.T) {
	client := searchServer(t, []searchPage{
		{Items: []*github.Repository{repoFixture("a/one", 120)}},
	}, nil)

	f := NewGitHubFinderWithClient(client, Options{MinStars: 100, Language: "java"},
		logging.NewTestLogger().Logger)

	projects, err := f.FindProjects(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestFindProjectsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client := github.NewClient(nil)
	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base

	f := NewGitHubFinderWithClient(client, Options{MinStars: 100, Language: "java"},
		logging.NewTestLogger().Logger)

	_, err = f.FindProjects(context.Background(), 5)
	assert.Error(t, err)
}
