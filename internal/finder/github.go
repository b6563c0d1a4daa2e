package finder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/archminer/internal/config"
	"github.com/fyrsmithlabs/archminer/internal/logging"
	"github.com/fyrsmithlabs/archminer/internal/project"
)

// GitHub's search API caps results per page.
const maxPerPage = 100

// The search endpoint allows 30 requests per minute when authenticated;
// pagination paces itself below that.
var searchInterval = 2 * time.Second

// Options are the eligibility criteria for discovered repositories.
type Options struct {
	// MinStars is the minimum stargazer count.
	MinStars int

	// PushedBefore (YYYY-MM-DD) is the last-activity cutoff.
	PushedBefore string

	// Language restricts results to one primary language.
	Language string

	// ArchivedOnly restricts results to archived repositories.
	ArchivedOnly bool
}

// GitHubFinder discovers abandoned repositories through the GitHub search
// API, paginating until the requested count is satisfied or the result set
// is exhausted.
type GitHubFinder struct {
	client  *github.Client
	limiter *rate.Limiter
	opts    Options
	logger  *logging.Logger
}

// NewGitHubFinder creates a finder authenticated with token. An unset
// token yields an unauthenticated client, which GitHub rate limits far
// more aggressively.
func NewGitHubFinder(ctx context.Context, token config.Secret, opts Options, logger *logging.Logger) *GitHubFinder {
	var client *github.Client
	if token.IsSet() {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token.Value()})
		client = github.NewClient(oauth2.NewClient(ctx, ts))
	} else {
		client = github.NewClient(nil)
	}
	return NewGitHubFinderWithClient(client, opts, logger)
}

// NewGitHubFinderWithClient creates a finder around an existing client.
func NewGitHubFinderWithClient(client *github.Client, opts Options, logger *logging.Logger) *GitHubFinder {
	return &GitHubFinder{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(searchInterval), 1),
		opts:    opts,
		logger:  logger.Named("finder"),
	}
}

// FindProjects retrieves up to count eligible projects.
func (f *GitHubFinder) FindProjects(ctx context.Context, count int) ([]*project.Project, error) {
	query := f.buildQuery()
	f.logger.Info(ctx, "searching repositories", zap.String("query", query), zap.Int("count", count))

	perPage := count
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	projects := make([]*project.Project, 0, count)
	for page := 1; len(projects) < count; page++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("finder: rate limit wait: %w", err)
		}

		result, resp, err := f.client.Search.Repositories(ctx, query, &github.SearchOptions{
			ListOptions: github.ListOptions{PerPage: perPage, Page: page},
		})
		if err != nil {
			return nil, fmt.Errorf("finder: searching repositories (page %d): %w", page, err)
		}

		for _, repo := range result.Repositories {
			p, err := fromRepository(repo)
			if err != nil {
				f.logger.Warn(ctx, "skipping malformed search result", zap.Error(err))
				continue
			}
			projects = append(projects, p)
			if len(projects) == count {
				break
			}
		}

		if resp.NextPage == 0 {
			break
		}
	}

	f.logger.Info(ctx, "finished repository search", zap.Int("found", len(projects)))
	return projects, nil
}

func (f *GitHubFinder) buildQuery() string {
	var b strings.Builder
	fmt.Fprintf(&b, "language:%s stars:>=%d", f.opts.Language, f.opts.MinStars)
	if f.opts.PushedBefore != "" {
		fmt.Fprintf(&b, " pushed:<%s", f.opts.PushedBefore)
	}
	if f.opts.ArchivedOnly {
		b.WriteString(" archived:true")
	}
	return b.String()
}

func fromRepository(repo *github.Repository) (*project.Project, error) {
	p, err := project.New(project.Sanitize(repo.GetFullName()), repo.GetHTMLURL())
	if err != nil {
		return nil, fmt.Errorf("finder: repository %q: %w", repo.GetFullName(), err)
	}
	p.Description = repo.GetDescription()
	p.Stars = repo.GetStargazersCount()
	p.Language = repo.GetLanguage()
	p.Archived = repo.GetArchived()
	if pushed := repo.GetPushedAt(); !pushed.IsZero() {
		t := pushed.Time
		p.PushedAt = &t
	}
	return p, nil
}
