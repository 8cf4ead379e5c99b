// Package config provides centralized configuration management for the application.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration parameters for the application.
type Config struct {
	GitHub   GitHubConfig
	Jira     JiraConfig
	Analysis AnalysisConfig
}

// GitHubConfig holds GitHub specific configuration.
type GitHubConfig struct {
	Token  string
	Domain string
}

// JiraConfig holds JIRA specific configuration.
type JiraConfig struct {
	URL      string
	Username string
	Token    string
}

// AnalysisConfig holds pipeline tunables.
type AnalysisConfig struct {
	// StalenessDays is the lifecycle staleness window.
	StalenessDays int

	// OutputDir is where artifacts are written.
	OutputDir string
}

// LoadConfig initializes and loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Map specific environment variables
	v.BindEnv("github.token", "GITHUB_TOKEN")
	v.BindEnv("github.domain", "GITHUB_DOMAIN")
	v.BindEnv("jira.url", "JIRA_URL")
	v.BindEnv("jira.username", "JIRA_USERNAME")
	v.BindEnv("jira.token", "JIRA_TOKEN")
	v.BindEnv("analysis.staleness_days", "TRIAGE_STALENESS_DAYS")
	v.BindEnv("analysis.output_dir", "TRIAGE_OUTPUT_DIR")

	v.SetDefault("github.domain", "github.com")
	v.SetDefault("analysis.staleness_days", 90)
	v.SetDefault("analysis.output_dir", "triage-output")

	config := &Config{
		GitHub: GitHubConfig{
			Token:  v.GetString("github.token"),
			Domain: v.GetString("github.domain"),
		},
		Jira: JiraConfig{
			URL:      v.GetString("jira.url"),
			Username: v.GetString("jira.username"),
			Token:    v.GetString("jira.token"),
		},
		Analysis: AnalysisConfig{
			StalenessDays: v.GetInt("analysis.staleness_days"),
			OutputDir:     v.GetString("analysis.output_dir"),
		},
	}

	if config.Analysis.StalenessDays <= 0 {
		return nil, fmt.Errorf("TRIAGE_STALENESS_DAYS must be positive, got %d", config.Analysis.StalenessDays)
	}

	return config, nil
}

// ValidateGitHubConfig validates GitHub-specific configuration, required
// only when fetching live from GitHub.
func ValidateGitHubConfig(config *Config) error {
	if config.GitHub.Token == "" {
		return fmt.Errorf("missing required environment variable: GITHUB_TOKEN")
	}
	return nil
}

// ValidateJiraConfig validates JIRA-specific configuration, required only
// when fetching from Jira.
func ValidateJiraConfig(config *Config) error {
	var missingVars []string

	if config.Jira.URL == "" {
		missingVars = append(missingVars, "JIRA_URL")
	}
	if config.Jira.Username == "" {
		missingVars = append(missingVars, "JIRA_USERNAME")
	}
	if config.Jira.Token == "" {
		missingVars = append(missingVars, "JIRA_TOKEN")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return nil
}
