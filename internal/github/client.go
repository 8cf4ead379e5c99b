// Package github provides functionality for interacting with the GitHub API.
//
// All fetching lives here; the analysis pipeline itself never touches the
// network. The client fully materializes issues (with comments), pull
// requests and commits before handing them to the pipeline.
package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v41/github"
	"golang.org/x/oauth2"

	"github.com/danielolaszy/triage/internal/config"
	"github.com/danielolaszy/triage/internal/logging"
	"github.com/danielolaszy/triage/pkg/models"
)

// Client encapsulates the GitHub API client.
type Client struct {
	client *github.Client
}

// NewClient creates a new GitHub API client using configuration from
// environment variables. It initializes the client with the appropriate
// base URL, authenticates, and tests the connection.
func NewClient() (*Client, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.ValidateGitHubConfig(cfg); err != nil {
		return nil, err
	}

	domain := cfg.GitHub.Domain
	if domain == "" {
		domain = "github.com"
	}
	apiURL := apiURLForDomain(domain)

	logging.Info("github configuration",
		"domain", domain,
		"api_url", apiURL,
		"token", logging.MaskSensitive(cfg.GitHub.Token))

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.GitHub.Token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	client := github.NewClient(tc)
	if domain != "github.com" {
		parsedURL, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}
		client.BaseURL = parsedURL
		client.UploadURL = parsedURL
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("error testing github token: %w", err)
	}
	logging.Info("github authentication successful", "username", user.GetLogin())

	return &Client{client: client}, nil
}

// apiURLForDomain constructs the REST endpoint for a GitHub domain;
// anything other than github.com is treated as GitHub Enterprise.
func apiURLForDomain(domain string) string {
	if domain == "github.com" {
		return "https://api.github.com/"
	}
	return fmt.Sprintf("https://%s/api/v3/", domain)
}

// parseRepository splits "owner/repo" into its two parts.
func parseRepository(repository string) (string, string, error) {
	parts := strings.Split(repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository format: %s, expected format: owner/repo", repository)
	}
	return parts[0], parts[1], nil
}

// GetAllIssues retrieves issues in every state from a repository,
// including their comments, filtering out pull requests and converting to
// the internal model. The repository should be in the format "owner/repo".
func (c *Client) GetAllIssues(ctx context.Context, repository string, withComments bool) ([]models.Issue, error) {
	owner, repo, err := parseRepository(repository)
	if err != nil {
		return nil, err
	}

	opts := &github.IssueListByRepoOptions{
		State: "all",
		ListOptions: github.ListOptions{
			PerPage: 100,
		},
	}

	var allIssues []*github.Issue
	for {
		issues, resp, err := c.client.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			logging.Error("failed to fetch github issues", "error", err)
			return nil, fmt.Errorf("failed to fetch GitHub issues: %w", err)
		}

		allIssues = append(allIssues, issues...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	var result []models.Issue
	for _, issue := range allIssues {
		// Skip pull requests (they're also returned by the Issues API)
		if issue.PullRequestLinks != nil {
			continue
		}

		converted := convertIssue(issue)
		if withComments && issue.GetComments() > 0 {
			comments, err := c.getIssueComments(ctx, owner, repo, issue.GetNumber())
			if err != nil {
				logging.Warn("failed to fetch issue comments",
					"issue_number", issue.GetNumber(),
					"error", err)
			} else {
				converted.Comments = comments
			}
		}
		result = append(result, converted)
	}

	logging.Debug("fetched github issues", "repository", repository, "count", len(result))
	return result, nil
}

// GetPullRequests retrieves pull requests in every state.
func (c *Client) GetPullRequests(ctx context.Context, repository string) ([]models.PullRequest, error) {
	owner, repo, err := parseRepository(repository)
	if err != nil {
		return nil, err
	}

	opts := &github.PullRequestListOptions{
		State: "all",
		ListOptions: github.ListOptions{
			PerPage: 100,
		},
	}

	var result []models.PullRequest
	for {
		prs, resp, err := c.client.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			logging.Error("failed to fetch pull requests", "error", err)
			return nil, fmt.Errorf("failed to fetch pull requests: %w", err)
		}

		for _, pr := range prs {
			result = append(result, models.PullRequest{
				Number:    pr.GetNumber(),
				Title:     pr.GetTitle(),
				Body:      pr.GetBody(),
				Author:    convertAuthor(pr.GetUser()),
				State:     pr.GetState(),
				CreatedAt: timePtr(pr.GetCreatedAt()),
				UpdatedAt: timePtr(pr.GetUpdatedAt()),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	logging.Debug("fetched pull requests", "repository", repository, "count", len(result))
	return result, nil
}

// GetCommits retrieves the repository's commits (sha and message only;
// that is all the cross-reference extractor scans).
func (c *Client) GetCommits(ctx context.Context, repository string) ([]models.Commit, error) {
	owner, repo, err := parseRepository(repository)
	if err != nil {
		return nil, err
	}

	opts := &github.CommitsListOptions{
		ListOptions: github.ListOptions{
			PerPage: 100,
		},
	}

	var result []models.Commit
	for {
		commits, resp, err := c.client.Repositories.ListCommits(ctx, owner, repo, opts)
		if err != nil {
			logging.Error("failed to fetch commits", "error", err)
			return nil, fmt.Errorf("failed to fetch commits: %w", err)
		}

		for _, commit := range commits {
			result = append(result, models.Commit{
				SHA:     commit.GetSHA(),
				Message: commit.GetCommit().GetMessage(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	logging.Debug("fetched commits", "repository", repository, "count", len(result))
	return result, nil
}

// AddComment posts a comment on an issue. Only the automation layer
// calls this, and only outside dry-run mode.
func (c *Client) AddComment(ctx context.Context, repository string, issueNumber int, body string) error {
	owner, repo, err := parseRepository(repository)
	if err != nil {
		return err
	}

	_, _, err = c.client.Issues.CreateComment(ctx, owner, repo, issueNumber, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		logging.Error("error adding comment to issue",
			"repository", repository,
			"issue_number", issueNumber,
			"error", err)
		return fmt.Errorf("failed to comment on issue %s#%d: %w", repo, issueNumber, err)
	}

	logging.Debug("added comment", "repository", repository, "issue_number", issueNumber)
	return nil
}

func (c *Client) getIssueComments(ctx context.Context, owner, repo string, number int) ([]models.IssueComment, error) {
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var result []models.IssueComment
	for {
		comments, resp, err := c.client.Issues.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, err
		}
		for _, comment := range comments {
			result = append(result, models.IssueComment{
				ID:        comment.GetID(),
				Author:    convertAuthor(comment.GetUser()),
				Body:      comment.GetBody(),
				CreatedAt: timePtr(comment.GetCreatedAt()),
				UpdatedAt: timePtr(comment.GetUpdatedAt()),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return result, nil
}

// convertIssue maps a GitHub API issue to the internal model.
func convertIssue(issue *github.Issue) models.Issue {
	labelNames := make([]string, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		labelNames = append(labelNames, label.GetName())
	}

	return models.Issue{
		Number:    issue.GetNumber(),
		Title:     issue.GetTitle(),
		Body:      issue.GetBody(),
		Author:    convertAuthor(issue.GetUser()),
		State:     issue.GetState(),
		CreatedAt: timePtr(issue.GetCreatedAt()),
		UpdatedAt: timePtr(issue.GetUpdatedAt()),
		Labels:    labelNames,
	}
}

func convertAuthor(user *github.User) *models.IssueAuthor {
	if user == nil {
		return nil
	}
	return &models.IssueAuthor{Login: user.GetLogin()}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
