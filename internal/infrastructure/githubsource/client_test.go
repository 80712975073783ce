package githubsource

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/rocket", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"rocket","full_name":"acme/rocket","html_url":"https://github.com/acme/rocket",
			"stargazers_count":42,"forks_count":7,"open_issues_count":3,"language":"Go",
			"created_at":"2023-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z","pushed_at":"2024-01-02T00:00:00Z"}`)
	})
	mux.HandleFunc("/repos/acme/rocket/commits", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("per_page") == "1" {
			w.Header().Set("Link", `<https://api.github.com/repositories/1/commits?per_page=1&page=2>; rel="next", <https://api.github.com/repositories/1/commits?per_page=1&page=1234>; rel="last"`)
			fmt.Fprint(w, `[{"sha":"a1"}]`)
			return
		}
		fmt.Fprint(w, `[
			{"sha":"a1","commit":{"message":"ship it","author":{"name":"Ada","date":"2024-01-02T00:00:00Z"}}},
			{"sha":"a0","commit":{"message":"init","author":{"name":"Bob","date":"2023-01-01T00:00:00Z"}}}
		]`)
	})
	mux.HandleFunc("/repos/acme/rocket/contributors", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"login":"ada","contributions":30,"html_url":"https://github.com/ada"}]`)
	})
	mux.HandleFunc("/repos/acme/rocket/languages", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Go":1000,"Shell":20}`)
	})
	mux.HandleFunc("/repos/acme/rocket/readme", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"type":"file","encoding":"base64","content":%q}`, base64.StdEncoding.EncodeToString([]byte("# Rocket")))
	})
	return httptest.NewServer(mux)
}

func TestFetchCodeData(t *testing.T) {
	t.Parallel()

	srv := newRepoServer(t)
	defer srv.Close()

	client, err := New("", srv.URL)
	require.NoError(t, err)

	data, err := client.FetchCodeData(context.Background(), "acme", "rocket")
	require.NoError(t, err)

	assert.Equal(t, "acme/rocket", data.Repository.FullName)
	assert.Equal(t, 42, data.Repository.Stars)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), data.Repository.CreatedAt.UTC())
	require.Len(t, data.Commits, 2)
	assert.Equal(t, "Ada", data.Commits[0].Author)
	assert.Equal(t, "ship it", data.Commits[0].Message)
	require.Len(t, data.Contributors, 1)
	assert.Equal(t, "ada", data.Contributors[0].Username)
	assert.Equal(t, map[string]int{"Go": 1000, "Shell": 20}, data.Languages)
	assert.Equal(t, "# Rocket", data.Readme)
	assert.Equal(t, 1234, data.TotalCommits)
}

func TestFetchCodeDataMissingReadme(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/tiny", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"tiny","full_name":"acme/tiny"}`)
	})
	mux.HandleFunc("/repos/acme/tiny/commits", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"sha":"x"}]`)
	})
	mux.HandleFunc("/repos/acme/tiny/contributors", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	mux.HandleFunc("/repos/acme/tiny/languages", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := New("", srv.URL)
	require.NoError(t, err)

	data, err := client.FetchCodeData(context.Background(), "acme", "tiny")
	require.NoError(t, err)
	assert.Empty(t, data.Readme)
	assert.Equal(t, 1, data.TotalCommits)
}

func TestFetchCodeDataUnauthorized(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Bad credentials"}`)
	}))
	defer srv.Close()

	client, err := New("bad-token", srv.URL)
	require.NoError(t, err)

	_, err = client.FetchCodeData(context.Background(), "acme", "rocket")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
