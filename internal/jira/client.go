// Package jira provides a Jira-backed issue source for the analysis
// pipeline. Jira issues are mapped into the same internal model the
// GitHub client produces, so the pipeline does not care which tracker
// the corpus came from.
package jira

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	jira "github.com/andygrunwald/go-jira"

	"github.com/danielolaszy/triage/internal/config"
	"github.com/danielolaszy/triage/internal/logging"
	"github.com/danielolaszy/triage/pkg/models"
)

var issueKeyRe = regexp.MustCompile(`^[A-Z][A-Z0-9]*-(\d+)$`)

// Client handles interactions with the JIRA API.
type Client struct {
	client *jira.Client
}

// NewClient creates a new JIRA client from environment configuration.
func NewClient() (*Client, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.ValidateJiraConfig(cfg); err != nil {
		return nil, err
	}

	tp := jira.BasicAuthTransport{
		Username: cfg.Jira.Username,
		Password: cfg.Jira.Token,
	}

	client, err := jira.NewClient(tp.Client(), cfg.Jira.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}

	logging.Info("jira configuration",
		"url", cfg.Jira.URL,
		"username", cfg.Jira.Username,
		"token", logging.MaskSensitive(cfg.Jira.Token))

	return &Client{client: client}, nil
}

// GetProjectIssues retrieves every issue of a Jira project and maps it
// into the internal issue model.
func (c *Client) GetProjectIssues(projectKey string) ([]models.Issue, error) {
	jql := fmt.Sprintf("project = '%s' ORDER BY created ASC", projectKey)
	opts := &jira.SearchOptions{MaxResults: 100}

	var result []models.Issue
	for {
		issues, resp, err := c.client.Issue.Search(jql, opts)
		if err != nil {
			logging.Error("failed to search jira issues", "project", projectKey, "error", err)
			return nil, fmt.Errorf("failed to search jira issues: %w", err)
		}

		for i := range issues {
			converted, err := ConvertIssue(&issues[i])
			if err != nil {
				logging.Warn("skipping unconvertible jira issue", "key", issues[i].Key, "error", err)
				continue
			}
			result = append(result, converted)
		}

		if resp.StartAt+len(issues) >= resp.Total || len(issues) == 0 {
			break
		}
		opts.StartAt = resp.StartAt + len(issues)
	}

	logging.Debug("fetched jira issues", "project", projectKey, "count", len(result))
	return result, nil
}

// ConvertIssue maps a Jira issue into the internal model. The numeric
// suffix of the issue key ("ABC-123" -> 123) becomes the issue number so
// downstream ordering and cross-referencing keep working.
func ConvertIssue(issue *jira.Issue) (models.Issue, error) {
	m := issueKeyRe.FindStringSubmatch(issue.Key)
	if m == nil {
		return models.Issue{}, fmt.Errorf("unexpected jira issue key %q", issue.Key)
	}
	number, err := strconv.Atoi(m[1])
	if err != nil || number <= 0 {
		return models.Issue{}, fmt.Errorf("unexpected jira issue key %q", issue.Key)
	}

	var author *models.IssueAuthor
	if issue.Fields.Reporter != nil {
		author = &models.IssueAuthor{Login: issue.Fields.Reporter.Name}
	}

	state := "open"
	if issue.Fields.Status != nil && issue.Fields.Status.StatusCategory.Key == "done" {
		state = "closed"
	}

	var comments []models.IssueComment
	if issue.Fields.Comments != nil {
		for i, comment := range issue.Fields.Comments.Comments {
			var commentAuthor *models.IssueAuthor
			if comment.Author.Name != "" {
				commentAuthor = &models.IssueAuthor{Login: comment.Author.Name}
			}
			comments = append(comments, models.IssueComment{
				ID:     int64(i + 1),
				Author: commentAuthor,
				Body:   comment.Body,
			})
		}
	}

	var labels []string
	labels = append(labels, issue.Fields.Labels...)

	created := time.Time(issue.Fields.Created)
	updated := time.Time(issue.Fields.Updated)

	return models.Issue{
		Number:    number,
		Title:     issue.Fields.Summary,
		Body:      issue.Fields.Description,
		Author:    author,
		State:     state,
		CreatedAt: nonZeroTime(created),
		UpdatedAt: nonZeroTime(updated),
		Labels:    labels,
		Comments:  comments,
	}, nil
}

func nonZeroTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
