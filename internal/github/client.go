// Package github fetches pull request files and maintains the single
// testhook summary comment on a pull request.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"testhook/internal/logging"
	"testhook/internal/scan"
)

const (
	perPage        = 100
	fetchWorkers   = 8
	requestTimeout = 30 * time.Second
)

// ErrNotPullRequest is returned when an event payload carries no pull request.
var ErrNotPullRequest = errors.New("event is not a pull request")

// PullRequest identifies a pull request. HeadSHA is filled by
// GetPullRequest and pins every content fetch to one commit.
type PullRequest struct {
	Owner   string
	Repo    string
	Number  int
	HeadSHA string
	BaseRef string
}

func (pr PullRequest) String() string {
	return fmt.Sprintf("%s/%s#%d", pr.Owner, pr.Repo, pr.Number)
}

// ChangedFile is one entry of a pull request's file list.
type ChangedFile struct {
	Path   string
	Status string // added, modified, renamed, copied, changed
}

// Client wraps the GitHub REST API.
type Client struct {
	gh     *gh.Client
	logger *zap.Logger
}

// NewClient creates an authenticated client. apiURL selects a GitHub
// Enterprise server; empty means github.com.
func NewClient(token, apiURL string, logger *zap.Logger) (*Client, error) {
	client := gh.NewClient(&http.Client{Timeout: requestTimeout})
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if apiURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", apiURL, err)
		}
	}
	return Wrap(client, logger), nil
}

// Wrap adapts an existing go-github client.
func Wrap(client *gh.Client, logger *zap.Logger) *Client {
	return &Client{gh: client, logger: logging.Named(logger, logging.CategoryGitHub)}
}

// ParseRepository splits "owner/name".
func ParseRepository(s string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid repository %q: want owner/name", s)
	}
	return owner, name, nil
}

// PullRequestFromEvent reads the pull request number from a GitHub
// Actions event payload (GITHUB_EVENT_PATH).
func PullRequestFromEvent(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read event: %w", err)
	}
	var event gh.PullRequestEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return 0, fmt.Errorf("failed to parse event: %w", err)
	}
	if n := event.GetNumber(); n > 0 {
		return n, nil
	}
	if n := event.GetPullRequest().GetNumber(); n > 0 {
		return n, nil
	}
	return 0, ErrNotPullRequest
}

// GetPullRequest resolves the head commit and base branch of a pull request.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return PullRequest{}, wrapAPIError("get pull request", err)
	}
	out := PullRequest{
		Owner:   owner,
		Repo:    repo,
		Number:  number,
		HeadSHA: pr.GetHead().GetSHA(),
		BaseRef: pr.GetBase().GetRef(),
	}
	c.logger.Debug("resolved pull request", zap.Stringer("pr", out), zap.String("head", out.HeadSHA))
	return out, nil
}

// ListPullRequestFiles lists the files of a pull request across all pages.
// Removed files are skipped since there is nothing left to scan.
func (c *Client) ListPullRequestFiles(ctx context.Context, pr PullRequest) ([]ChangedFile, error) {
	var files []ChangedFile
	opts := &gh.ListOptions{PerPage: perPage}
	for {
		page, resp, err := c.gh.PullRequests.ListFiles(ctx, pr.Owner, pr.Repo, pr.Number, opts)
		if err != nil {
			return nil, wrapAPIError("list pull request files", err)
		}
		for _, f := range page {
			if f.GetStatus() == "removed" {
				continue
			}
			files = append(files, ChangedFile{Path: f.GetFilename(), Status: f.GetStatus()})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	c.logger.Debug("listed pull request files", zap.Stringer("pr", pr), zap.Int("files", len(files)))
	return files, nil
}

// FetchContent returns a file's content at the pull request head.
func (c *Client) FetchContent(ctx context.Context, pr PullRequest, path string) ([]byte, error) {
	if pr.HeadSHA == "" {
		return nil, fmt.Errorf("%s: head commit not resolved", pr)
	}
	opts := &gh.RepositoryContentGetOptions{Ref: pr.HeadSHA}
	file, _, _, err := c.gh.Repositories.GetContents(ctx, pr.Owner, pr.Repo, path, opts)
	if err != nil {
		return nil, wrapAPIError("get "+path, err)
	}
	if file == nil {
		return nil, fmt.Errorf("get %s: not a file", path)
	}
	// Files over 1 MB come back without inline content.
	if file.GetEncoding() == "none" {
		rc, _, err := c.gh.Repositories.DownloadContents(ctx, pr.Owner, pr.Repo, path, opts)
		if err != nil {
			return nil, wrapAPIError("download "+path, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return []byte(content), nil
}

// FetchFiles fetches paths concurrently. Failures are recorded per file.
func (c *Client) FetchFiles(ctx context.Context, pr PullRequest, paths []string) ([]scan.File, error) {
	files := make([]scan.File, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchWorkers)
	for i, p := range paths {
		g.Go(func() error {
			content, err := c.FetchContent(gctx, pr, p)
			files[i] = scan.File{Path: p, Content: content, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return files, nil
}

// UpsertComment edits the pull request comment containing marker, or
// creates one when none exists. It returns the comment URL and whether a
// new comment was created.
func (c *Client) UpsertComment(ctx context.Context, pr PullRequest, marker, body string) (string, bool, error) {
	existing, err := c.findComment(ctx, pr, marker)
	if err != nil {
		return "", false, err
	}
	comment := &gh.IssueComment{Body: gh.String(body)}

	if existing != nil {
		if existing.GetBody() == body {
			c.logger.Debug("comment unchanged", zap.Int64("id", existing.GetID()))
			return existing.GetHTMLURL(), false, nil
		}
		updated, _, err := c.gh.Issues.EditComment(ctx, pr.Owner, pr.Repo, existing.GetID(), comment)
		if err != nil {
			return "", false, wrapAPIError("edit comment", err)
		}
		c.logger.Info("updated comment", zap.Stringer("pr", pr), zap.Int64("id", updated.GetID()))
		return updated.GetHTMLURL(), false, nil
	}

	created, _, err := c.gh.Issues.CreateComment(ctx, pr.Owner, pr.Repo, pr.Number, comment)
	if err != nil {
		return "", false, wrapAPIError("create comment", err)
	}
	c.logger.Info("created comment", zap.Stringer("pr", pr), zap.Int64("id", created.GetID()))
	return created.GetHTMLURL(), true, nil
}

// findComment returns the oldest comment containing marker.
func (c *Client) findComment(ctx context.Context, pr PullRequest, marker string) (*gh.IssueComment, error) {
	opts := &gh.IssueListCommentsOptions{ListOptions: gh.ListOptions{PerPage: perPage}}
	for {
		page, resp, err := c.gh.Issues.ListComments(ctx, pr.Owner, pr.Repo, pr.Number, opts)
		if err != nil {
			return nil, wrapAPIError("list comments", err)
		}
		for _, comment := range page {
			if strings.Contains(comment.GetBody(), marker) {
				return comment, nil
			}
		}
		if resp.NextPage == 0 {
			return nil, nil
		}
		opts.Page = resp.NextPage
	}
}

func wrapAPIError(op string, err error) error {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%s: rate limited until %s: %w", op, rateErr.Rate.Reset.Format(time.RFC3339), err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
