package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/waabox/repogen/internal/auth"
	"github.com/waabox/repogen/internal/config"
	"github.com/waabox/repogen/internal/creds"
	"github.com/waabox/repogen/internal/gh"
	"github.com/waabox/repogen/internal/tui"
)

// staticLicenses is the offline shortlist of license templates, keyed the
// way the GitHub API expects. When a credential is available the full list
// is fetched live instead.
var staticLicenses = []gh.License{
	{Key: "", Name: "None"},
	{Key: "mit", Name: "MIT"},
	{Key: "apache-2.0", Name: "Apache-2.0"},
	{Key: "gpl-3.0", Name: "GPL-3.0"},
	{Key: "bsd-3-clause", Name: "BSD-3-Clause"},
	{Key: "unlicense", Name: "Unlicense"},
}

var staticGitignores = []string{"None", "Go", "Node", "Python", "Rust", "Java", "C++", "Swift"}

var editorOptions = []string{"None", "VS Code", "Vim", "Emacs", "Sublime Text", "IntelliJ"}

// templateOptions returns the license and gitignore choices offered in
// prompts: the live GitHub lists when a credential is available, the static
// shortlists otherwise.
func templateOptions(ctx context.Context, cfg config.Config) ([]gh.License, []string) {
	licenses, gitignores := staticLicenses, staticGitignores
	token, err := resolveToken(cfg)
	if err != nil {
		return licenses, gitignores
	}
	client := gh.NewClient(ctx, token)
	if ls, err := client.Licenses(ctx); err == nil && len(ls) > 0 {
		licenses = append([]gh.License{{Key: "", Name: "None"}}, ls...)
	}
	if gs, err := client.GitignoreTemplates(ctx); err == nil && len(gs) > 0 {
		gitignores = append([]string{"None"}, gs...)
	}
	return licenses, gitignores
}

func newInitCommand(configPath *string) *cobra.Command {
	var authOnly, metaOnly bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up your profile, preferences, and GitHub connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if authOnly && metaOnly {
				return errors.New("--auth and --meta are mutually exclusive")
			}
			return runInit(cmd.Context(), *configPath, authOnly, metaOnly)
		},
	}
	cmd.Flags().BoolVarP(&authOnly, "auth", "a", false, "run only the GitHub authentication setup")
	cmd.Flags().BoolVarP(&metaOnly, "meta", "m", false, "run only the profile and preferences setup")
	return cmd
}

func runInit(ctx context.Context, configPath string, authOnly, metaOnly bool) error {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Welcome to repogen. Press Enter to keep the current value of any prompt.")

	if !authOnly {
		if err := editProfile(&cfg); err != nil {
			return err
		}
		licenses, gitignores := templateOptions(ctx, cfg)
		if err := editDefaults(&cfg, licenses, gitignores); err != nil {
			return err
		}
	}

	if !metaOnly {
		if err := setupAuth(ctx, &cfg); err != nil {
			return err
		}
	}

	if err := config.Save(configPath, cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Configuration saved to %s\n", configPath)
	fmt.Fprintln(os.Stderr, "Try: repogen new my-project")
	return nil
}

func editProfile(cfg *config.Config) error {
	username, err := tui.AskText("GitHub username", cfg.GitHub.Username, func(v string) error {
		if v == "" {
			return errors.New("GitHub username cannot be empty")
		}
		return nil
	})
	if err != nil {
		return err
	}
	cfg.GitHub.Username = username

	if cfg.Profile.Name, err = tui.AskText("Full name (for commits, optional)", cfg.Profile.Name, nil); err != nil {
		return err
	}
	if cfg.Profile.Email, err = tui.AskText("Email (for commits, optional)", cfg.Profile.Email, nil); err != nil {
		return err
	}
	return nil
}

func editDefaults(cfg *config.Config, licenses []gh.License, gitignores []string) error {
	private, err := tui.AskConfirm("Make repositories private by default?", cfg.Defaults.Private)
	if err != nil {
		return err
	}
	cfg.Defaults.Private = private

	labels := make([]string, len(licenses))
	current := 0
	for i, opt := range licenses {
		labels[i] = opt.Name
		if opt.Key == cfg.Defaults.License {
			current = i
		}
	}
	idx, err := tui.AskSelect("Default license for new repositories", labels, current)
	if err != nil {
		return err
	}
	cfg.Defaults.License = licenses[idx].Key

	idx, err = tui.AskSelect("Default .gitignore template", gitignores, indexOf(gitignores, cfg.Defaults.Gitignore))
	if err != nil {
		return err
	}
	cfg.Defaults.Gitignore = noneToEmpty(gitignores[idx])

	idx, err = tui.AskSelect("Preferred editor", editorOptions, indexOf(editorOptions, cfg.Defaults.Editor))
	if err != nil {
		return err
	}
	cfg.Defaults.Editor = noneToEmpty(editorOptions[idx])
	return nil
}

func setupAuth(ctx context.Context, cfg *config.Config) error {
	if hasCredential(cfg) {
		keep, err := tui.AskConfirm("A GitHub credential is already configured. Keep it?", true)
		if err != nil {
			return err
		}
		if keep {
			fmt.Fprintln(os.Stderr, "Keeping the existing credential.")
			return nil
		}
	}

	methods := []string{"Browser login (device flow)", "Personal access token"}
	method, err := tui.AskSelect("How would you like to authenticate with GitHub?", methods, 0)
	if err != nil {
		return err
	}

	flow := auth.NewDefaultFlow(cfg.GitHub.ClientID)

	var identity auth.Identity
	var token string
	switch method {
	case 0:
		identity, token, err = tui.RunLogin(ctx, flow)
	case 1:
		token, err = tui.AskSecret("GitHub personal access token", auth.CheckPATFormat)
		if err != nil {
			return err
		}
		identity, err = flow.ValidatePAT(ctx, token)
	}
	if err != nil {
		return describeAuthError(err)
	}

	cfg.GitHub.Username = identity.Login
	if cfg.Profile.Name == "" {
		cfg.Profile.Name = identity.Name
	}
	if cfg.Profile.Email == "" {
		cfg.Profile.Email = identity.Email
	}

	if err := creds.Save(identity.Login, token); err != nil {
		fmt.Fprintf(os.Stderr, "warning: no OS keychain available (%v); storing the token in the config file\n", err)
		cfg.GitHub.Token = token
	} else {
		cfg.GitHub.Token = ""
		fmt.Fprintln(os.Stderr, "Token stored in the OS keychain.")
	}
	fmt.Fprintf(os.Stderr, "Authenticated as %s.\n", identity.Login)
	return nil
}

// describeAuthError turns the auth package's terminal results into messages
// that tell the user what to do next. Expiry means "try again", denial means
// "you declined"; everything else surfaces its detail for diagnosis.
func describeAuthError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpired):
		return errors.New("the device code expired before authorization completed; run `repogen init --auth` to try again")
	case errors.Is(err, auth.ErrDenied):
		return errors.New("you declined the authorization request; no credential was stored")
	case errors.Is(err, tui.ErrPromptAborted), errors.Is(err, context.Canceled):
		return errors.New("authentication cancelled; no credential was stored")
	default:
		return fmt.Errorf("authentication failed: %w", err)
	}
}

func hasCredential(cfg *config.Config) bool {
	if cfg.GitHub.Token != "" {
		return true
	}
	if cfg.GitHub.Username == "" {
		return false
	}
	_, err := creds.Load(cfg.GitHub.Username)
	return err == nil
}

func indexOf(options []string, value string) int {
	if value == "" {
		return 0
	}
	for i, opt := range options {
		if opt == value {
			return i
		}
	}
	return 0
}

func noneToEmpty(v string) string {
	if v == "None" {
		return ""
	}
	return v
}
