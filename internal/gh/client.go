// Package gh wraps the GitHub REST API calls repogen makes after
// authentication: creating repositories and listing the license and
// gitignore templates offered during setup.
package gh

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/github"
	"golang.org/x/oauth2"
)

// ErrUnauthorized is returned when the API rejects the token with HTTP 401.
// Callers can check for it with errors.Is to trigger re-authentication.
var ErrUnauthorized = errors.New("unauthorized")

// ErrRepositoryExists is returned when a repository with the requested name
// already exists for the authenticated user.
var ErrRepositoryExists = errors.New("repository already exists")

// Client talks to the GitHub REST API on behalf of an authenticated user.
type Client struct {
	gh *github.Client
}

// NewClient creates a Client using the given OAuth or personal access token.
func NewClient(ctx context.Context, token string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Client{gh: github.NewClient(oauth2.NewClient(ctx, ts))}
}

// SetBaseURL points the client at a different API root. Pass a test server
// URL in tests.
func (c *Client) SetBaseURL(raw string) error {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing base URL: %w", err)
	}
	c.gh.BaseURL = u
	return nil
}

// CreateOptions describes the repository to create.
type CreateOptions struct {
	Name        string
	Description string
	Private     bool
	License     string // license template key, e.g. "mit"
	Gitignore   string // gitignore template name, e.g. "Go"
	AutoInit    bool   // create an initial commit with a README
}

// Repo is the subset of the created repository the CLI reports back.
type Repo struct {
	Name     string
	FullName string
	HTMLURL  string
	CloneURL string
	SSHURL   string
	Private  bool
}

// CreateRepository creates a repository for the authenticated user.
func (c *Client) CreateRepository(ctx context.Context, opts CreateOptions) (Repo, error) {
	if opts.Name == "" {
		return Repo{}, errors.New("repository name is required")
	}

	repo := &github.Repository{
		Name:     github.String(opts.Name),
		Private:  github.Bool(opts.Private),
		AutoInit: github.Bool(opts.AutoInit),
	}
	if opts.Description != "" {
		repo.Description = github.String(opts.Description)
	}
	if opts.License != "" {
		repo.LicenseTemplate = github.String(opts.License)
	}
	if opts.Gitignore != "" {
		repo.GitignoreTemplate = github.String(opts.Gitignore)
	}

	created, resp, err := c.gh.Repositories.Create(ctx, "", repo)
	if err != nil {
		return Repo{}, classifyError(resp, err)
	}

	return Repo{
		Name:     created.GetName(),
		FullName: created.GetFullName(),
		HTMLURL:  created.GetHTMLURL(),
		CloneURL: created.GetCloneURL(),
		SSHURL:   created.GetSSHURL(),
		Private:  created.GetPrivate(),
	}, nil
}

// GitignoreTemplates lists the gitignore template names GitHub offers.
func (c *Client) GitignoreTemplates(ctx context.Context) ([]string, error) {
	templates, resp, err := c.gh.Gitignores.List(ctx)
	if err != nil {
		return nil, classifyError(resp, err)
	}
	return templates, nil
}

// License is a license template offered by GitHub.
type License struct {
	Key  string // sent to the API, e.g. "apache-2.0"
	Name string // shown to the user, e.g. "Apache License 2.0"
}

// Licenses lists the commonly used license templates GitHub offers.
func (c *Client) Licenses(ctx context.Context) ([]License, error) {
	list, resp, err := c.gh.Licenses.List(ctx)
	if err != nil {
		return nil, classifyError(resp, err)
	}
	licenses := make([]License, len(list))
	for i, l := range list {
		licenses[i] = License{Key: l.GetKey(), Name: l.GetName()}
	}
	return licenses, nil
}

func classifyError(resp *github.Response, err error) error {
	if resp != nil {
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		case http.StatusUnprocessableEntity:
			if strings.Contains(err.Error(), "name already exists") {
				return ErrRepositoryExists
			}
		}
	}
	return fmt.Errorf("github api: %w", err)
}
