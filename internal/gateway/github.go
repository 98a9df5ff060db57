// Package gateway provides the collaborators around the digest: a gateway to
// the GitHub API, abstracting away the underlying REST and GraphQL clients,
// and the chat webhook the digest is delivered to.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"github.com/pkg/errors"
	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/naka-gawa/changelog-digest/internal/domain"
)

// closedPullsPerPage is the size of the single page of closed pull requests
// that is inspected. Older pages cannot hold merges from the last week unless
// more than this many pull requests were closed in it.
const closedPullsPerPage = 100

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	FetchStargazerCount(ctx context.Context, owner, name string) (int, error)
	FetchClosedPullRequests(ctx context.Context, owner, name string) ([]domain.PullRequestRecord, error)
}

// GitHubOptions configures NewGitHubGateway.
type GitHubOptions struct {
	Token     string
	UserAgent string
	Timeout   time.Duration
	// EnterpriseURL is the root URL of a GitHub Enterprise Server. Empty means github.com.
	EnterpriseURL string
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *zap.SugaredLogger
}

// stargazerQuery reads the star count of a single repository.
type stargazerQuery struct {
	Repository struct {
		StargazerCount int
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(opts GitHubOptions, logger *zap.SugaredLogger) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(
		newUserAgentTransport(nil, opts.UserAgent),
		github_ratelimit.WithSingleSleepLimit(5*time.Minute, nil),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create rate limit waiter")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
	httpClient := &http.Client{
		Timeout: opts.Timeout,
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}

	restClient := github.NewClient(httpClient)
	graphqlClient := githubv4.NewClient(httpClient)
	if opts.EnterpriseURL != "" {
		restClient, err = restClient.WithEnterpriseURLs(opts.EnterpriseURL, opts.EnterpriseURL)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid enterprise URL %q", opts.EnterpriseURL)
		}
		graphqlClient = githubv4.NewEnterpriseClient(strings.TrimSuffix(opts.EnterpriseURL, "/")+"/api/graphql", httpClient)
	}

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        logger,
	}, nil
}

// FetchStargazerCount returns the current number of stargazers of owner/name.
func (g *GitHubGateway) FetchStargazerCount(ctx context.Context, owner, name string) (int, error) {
	g.logger.Debugw("fetching stargazer count", "owner", owner, "name", name)
	variables := map[string]interface{}{
		"owner": githubv4.String(owner),
		"name":  githubv4.String(name),
	}
	var q stargazerQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return 0, errors.Wrap(err, "failed to execute GraphQL query for stargazer count")
	}
	count := q.Repository.StargazerCount
	if count < 0 {
		return 0, errors.Errorf("GraphQL returned a negative stargazer count: %d", count)
	}
	g.logger.Debugw("fetched stargazer count", "owner", owner, "name", name, "stargazer_count", count)
	return count, nil
}

// FetchClosedPullRequests lists the most recently updated closed pull requests
// of owner/name. Each element is decoded on its own so that one record of the
// wrong shape is reported through DecodeErr instead of failing the response.
func (g *GitHubGateway) FetchClosedPullRequests(ctx context.Context, owner, name string) ([]domain.PullRequestRecord, error) {
	g.logger.Debugw("fetching closed pull requests", "owner", owner, "name", name)
	u := fmt.Sprintf("repos/%s/%s/pulls?state=closed&sort=updated&direction=desc&per_page=%d", owner, name, closedPullsPerPage)
	req, err := g.restClient.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build pull request list request")
	}

	var raw []json.RawMessage
	if _, err := g.restClient.Do(ctx, req, &raw); err != nil {
		return nil, errors.Wrap(err, "failed to list closed pull requests with REST API")
	}
	records := make([]domain.PullRequestRecord, 0, len(raw))
	for _, element := range raw {
		records = append(records, domain.DecodeRecord(element))
	}
	g.logger.Debugw("fetched closed pull requests", "owner", owner, "name", name, "count", len(records))
	return records, nil
}
