package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"testhook/internal/github"
	"testhook/internal/logging"
	"testhook/internal/report"
	"testhook/internal/scan"
)

type prFlags struct {
	repo           string
	number         int
	apiURL         string
	dryRun         bool
	failOnFindings bool
}

func newPRCmd(a *app) *cobra.Command {
	var f prFlags
	cmd := &cobra.Command{
		Use:   "pr",
		Short: "Scan a pull request and update its summary comment",
		Long: `Fetches the files changed by a pull request at its head commit, scans them,
and creates or updates a single summary comment on the pull request.

Inside GitHub Actions the repository, pull request number and token are taken
from GITHUB_REPOSITORY, GITHUB_EVENT_PATH and GITHUB_TOKEN.

Examples:
  testhook pr --repo octo/web --pr 42
  testhook pr --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPR(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&f.repo, "repo", "", "Repository as owner/name (default: github.repository or GITHUB_REPOSITORY)")
	cmd.Flags().IntVar(&f.number, "pr", 0, "Pull request number (default: from GITHUB_EVENT_PATH)")
	cmd.Flags().StringVar(&f.apiURL, "api-url", "", "GitHub API URL for GitHub Enterprise")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Print the comment body instead of posting it")
	cmd.Flags().BoolVar(&f.failOnFindings, "fail-on-findings", false, "Exit with status 1 when elements are missing hooks")
	return cmd
}

func (a *app) runPR(ctx context.Context, f prFlags) error {
	repo := f.repo
	if repo == "" {
		repo = a.cfg.GitHub.Repository
	}
	owner, name, err := github.ParseRepository(repo)
	if err != nil {
		return usageError(err)
	}

	number := f.number
	if number == 0 {
		eventPath := os.Getenv("GITHUB_EVENT_PATH")
		if eventPath == "" {
			return usageError(errors.New("--pr is required outside GitHub Actions"))
		}
		if number, err = github.PullRequestFromEvent(eventPath); err != nil {
			return usageError(err)
		}
	}

	token := a.cfg.GitHub.Token
	if token == "" && !f.dryRun {
		return usageError(errors.New("GITHUB_TOKEN is required to post a comment (or use --dry-run)"))
	}
	apiURL := f.apiURL
	if apiURL == "" {
		apiURL = a.cfg.GitHub.APIURL
	}
	client, err := github.NewClient(token, apiURL, a.logger)
	if err != nil {
		return usageError(err)
	}

	pr, err := client.GetPullRequest(ctx, owner, name, number)
	if err != nil {
		return runtimeError(err)
	}
	changed, err := client.ListPullRequestFiles(ctx, pr)
	if err != nil {
		return runtimeError(err)
	}

	filter, err := a.cfg.Filter()
	if err != nil {
		return usageError(err)
	}
	factory := a.factory()
	scanner := a.scanner(factory)

	paths := make([]string, 0, len(changed))
	for _, c := range changed {
		paths = append(paths, c.Path)
	}
	selected := scan.SelectPaths(paths, filter, scanner.Accepts)
	files, err := client.FetchFiles(ctx, pr, selected)
	if err != nil {
		return runtimeError(err)
	}

	result, err := scanner.ScanFiles(ctx, files)
	if err != nil {
		return runtimeError(err)
	}
	summary := report.Summarize(result)
	body := report.Markdown(result, a.reportOptions())

	ghLog := logging.Named(a.logger, logging.CategoryGitHub)
	ghLog.Info("pull request scanned",
		zap.Stringer("pr", pr),
		zap.Int("changed", len(changed)),
		zap.Int("scanned", len(selected)),
		zap.Int("candidates", summary.Candidates))

	if f.dryRun {
		fmt.Fprint(a.stdout, body)
	} else {
		link, created, err := client.UpsertComment(ctx, pr, report.DefaultCommentMarker, body)
		if err != nil {
			return runtimeError(err)
		}
		verb := "Updated"
		if created {
			verb = "Created"
		}
		fmt.Fprintf(a.stdout, "%s comment on %s: %s\n", verb, pr, link)
	}

	if f.failOnFindings && summary.Candidates > 0 {
		return &exitError{code: exitFindings, err: fmt.Errorf("%d elements are missing test hooks", summary.Candidates)}
	}
	return nil
}
