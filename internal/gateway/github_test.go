package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/naka-gawa/changelog-digest/internal/domain"
)

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, handler http.Handler) *GitHubGateway {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: githubv4.NewEnterpriseClient(server.URL, server.Client()),
		logger:        zap.NewNop().Sugar(),
	}
}

func TestGitHubGateway_FetchClosedPullRequests(t *testing.T) {
	testCases := []struct {
		name           string
		handlerFunc    func(w http.ResponseWriter, r *http.Request)
		expectedCount  int
		expectError    bool
		expectedErrMsg string
	}{
		{
			name: "happy path - decodes records including malformed fields",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/octo/widgets/pulls", r.URL.Path)
				assert.Equal(t, "closed", r.URL.Query().Get("state"))
				assert.Equal(t, "updated", r.URL.Query().Get("sort"))
				assert.Equal(t, "desc", r.URL.Query().Get("direction"))
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, `[
					{"number": 1, "title": "Add dark mode", "html_url": "https://github.com/octo/widgets/pull/1", "merged_at": "2024-03-14T10:00:00Z", "labels": [{"name": "changelog"}]},
					{"number": 2, "title": "Closed only", "html_url": "https://github.com/octo/widgets/pull/2", "merged_at": null, "labels": []},
					{"number": 3, "title": "Odd", "html_url": "https://github.com/octo/widgets/pull/3", "merged_at": "last tuesday", "labels": [{"color": "fff"}]}
				]`)
			},
			expectedCount: 3,
		},
		{
			name: "error case - GitHub API returns an error",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"message": "Internal Server Error"}`)
			},
			expectError:    true,
			expectedErrMsg: "failed to list closed pull requests",
		},
		{
			name: "error case - body is not a list",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, `{"message": "not a list"}`)
			},
			expectError:    true,
			expectedErrMsg: "failed to list closed pull requests",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway := setupTestGateway(t, http.HandlerFunc(tc.handlerFunc))
			records, err := gateway.FetchClosedPullRequests(context.Background(), "octo", "widgets")
			if tc.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
				return
			}
			require.NoError(t, err)
			require.Len(t, records, tc.expectedCount)
			assert.Equal(t, "Add dark mode", records[0].GetTitle())
			assert.Equal(t, "2024-03-14T10:00:00Z", *records[0].MergedAt)
			assert.Nil(t, records[1].MergedAt)
			assert.Empty(t, records[1].Labels)
			require.Len(t, records[2].Labels, 1)
			assert.Nil(t, records[2].Labels[0].Name)
		})
	}
}

func TestGitHubGateway_FetchStargazerCount(t *testing.T) {
	testCases := []struct {
		name           string
		responseBody   string
		expectedCount  int
		expectError    bool
		expectedErrMsg string
	}{
		{
			name:          "happy path",
			responseBody:  `{"data":{"repository":{"stargazerCount":1234}}}`,
			expectedCount: 1234,
		},
		{
			name:           "error case - GraphQL error",
			responseBody:   `{"errors":[{"message":"Could not resolve to a Repository"}]}`,
			expectError:    true,
			expectedErrMsg: "failed to execute GraphQL query",
		},
		{
			name:           "error case - negative count",
			responseBody:   `{"data":{"repository":{"stargazerCount":-1}}}`,
			expectError:    true,
			expectedErrMsg: "negative stargazer count",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				assert.Contains(t, string(body), "stargazerCount")
				assert.Contains(t, string(body), `"owner":"octo"`)
				assert.Contains(t, string(body), `"name":"widgets"`)

				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, tc.responseBody)
			}
			gateway := setupTestGateway(t, http.HandlerFunc(handler))

			count, err := gateway.FetchStargazerCount(context.Background(), "octo", "widgets")

			if tc.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expectedCount, count)
			}
		})
	}
}

func TestNewGitHubGateway_SendsTokenAndUserAgent(t *testing.T) {
	var gotAuth, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	gateway, err := NewGitHubGateway(GitHubOptions{
		Token:         "ghp_secret",
		UserAgent:     "digest-test",
		EnterpriseURL: server.URL,
	}, zap.NewNop().Sugar())
	require.NoError(t, err)

	records, err := gateway.FetchClosedPullRequests(context.Background(), "octo", "widgets")

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, "Bearer ghp_secret", gotAuth)
	assert.Equal(t, "digest-test", gotAgent)
}

func TestGitHubGateway_FetchClosedPullRequests_WrongShapes(t *testing.T) {
	const good = `{"number": 1, "title": "Add dark mode", "html_url": "https://github.com/octo/widgets/pull/1", "merged_at": "2024-03-14T10:00:00Z", "labels": [{"name": "changelog"}]}`
	testCases := []struct {
		name string
		bad  string
	}{
		{
			name: "merged_at is a number",
			bad:  `{"number": 2, "title": "Odd", "html_url": "https://github.com/octo/widgets/pull/2", "merged_at": 1710410400, "labels": []}`,
		},
		{
			name: "label name is a number",
			bad:  `{"number": 2, "title": "Odd", "html_url": "https://github.com/octo/widgets/pull/2", "merged_at": null, "labels": [{"name": 7}]}`,
		},
		{
			name: "label is not an object",
			bad:  `{"number": 2, "title": "Odd", "html_url": "https://github.com/octo/widgets/pull/2", "merged_at": null, "labels": ["changelog"]}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway := setupTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				fmt.Fprintf(w, "[%s, %s]", good, tc.bad)
			}))

			records, err := gateway.FetchClosedPullRequests(context.Background(), "octo", "widgets")

			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.NoError(t, records[0].DecodeErr)
			assert.Equal(t, "Add dark mode", records[0].GetTitle())
			assert.ErrorIs(t, records[1].DecodeErr, domain.ErrMalformedRecord)
			assert.Equal(t, 2, records[1].Number)
			assert.Equal(t, "https://github.com/octo/widgets/pull/2", records[1].GetHTMLURL())
		})
	}
}
