package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/theckman/yacspin"

	"github.com/waabox/repogen/internal/config"
	"github.com/waabox/repogen/internal/creds"
	"github.com/waabox/repogen/internal/gh"
	"github.com/waabox/repogen/internal/git"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	fieldStyle  = lipgloss.NewStyle().Faint(true)
)

type newOptions struct {
	description string
	private     bool
	public      bool
	license     string
	gitignore   string
	readme      bool
	clone       bool
}

func newNewCommand(configPath *string) *cobra.Command {
	var opts newOptions

	cmd := &cobra.Command{
		Use:   "new NAME",
		Short: "Create a new repository on GitHub",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(cmd.Context(), *configPath, args[0], opts, cmd.Flags().Changed("private"), cmd.Flags().Changed("public"))
		},
	}
	cmd.Flags().StringVarP(&opts.description, "desc", "d", "", "description of the new repository")
	cmd.Flags().BoolVar(&opts.private, "private", false, "make the repository private")
	cmd.Flags().BoolVar(&opts.public, "public", false, "make the repository public")
	cmd.Flags().StringVarP(&opts.license, "license", "l", "", "license template (e.g. mit), or 'none'")
	cmd.Flags().StringVarP(&opts.gitignore, "gitignore", "g", "", "gitignore template (e.g. Go), or 'none'")
	cmd.Flags().BoolVar(&opts.readme, "readme", false, "initialize the repository with a README")
	cmd.Flags().BoolVar(&opts.clone, "clone", false, "clone the repository after creating it")
	return cmd
}

func runNew(ctx context.Context, configPath string, name string, opts newOptions, privateSet, publicSet bool) error {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	token, err := resolveToken(cfg)
	if err != nil {
		return err
	}

	create := gh.CreateOptions{
		Name:        name,
		Description: opts.description,
		Private:     resolveVisibility(privateSet && opts.private, publicSet && opts.public, cfg.Defaults.Private),
		License:     resolveTemplate(opts.license, cfg.Defaults.License),
		Gitignore:   resolveTemplate(opts.gitignore, cfg.Defaults.Gitignore),
		AutoInit:    opts.readme,
	}
	// License and gitignore templates need an initial commit to land in.
	if create.License != "" || create.Gitignore != "" {
		create.AutoInit = true
	}

	spin := newSpinner("creating repository " + name)
	client := gh.NewClient(ctx, token)
	repo, err := client.CreateRepository(ctx, create)
	if err != nil {
		stopSpinnerFail(spin)
		switch {
		case errors.Is(err, gh.ErrUnauthorized):
			return errors.New("GitHub rejected the stored credential; run `repogen init --auth` to re-authenticate")
		case errors.Is(err, gh.ErrRepositoryExists):
			return fmt.Errorf("a repository named %s already exists on your account", name)
		default:
			return err
		}
	}
	stopSpinner(spin)

	printRepoSummary(repo)

	if opts.clone || cfg.Clone.Auto {
		dest, err := git.Clone(ctx, repo.CloneURL, cfg.Clone.Directory)
		if err != nil {
			return fmt.Errorf("repository created but clone failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Cloned into %s\n", dest)
	}
	return nil
}

// resolveToken finds a usable credential: the config file (which the
// GITHUB_TOKEN env override feeds into) first, then the OS keychain.
func resolveToken(cfg config.Config) (string, error) {
	if cfg.GitHub.Token != "" {
		return cfg.GitHub.Token, nil
	}
	if cfg.GitHub.Username != "" {
		token, err := creds.Load(cfg.GitHub.Username)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, creds.ErrNotFound) {
			return "", err
		}
	}
	return "", errors.New("no GitHub credential found; run `repogen init --auth` to authenticate")
}

// resolveVisibility applies the precedence --public > --private > config
// default.
func resolveVisibility(privateFlag, publicFlag, configDefault bool) bool {
	if publicFlag {
		return false
	}
	if privateFlag {
		return true
	}
	return configDefault
}

// resolveTemplate applies the precedence flag > config default, with the
// literal "none" suppressing the config default.
func resolveTemplate(flag, configDefault string) string {
	if flag != "" {
		if strings.EqualFold(flag, "none") {
			return ""
		}
		return flag
	}
	return configDefault
}

func printRepoSummary(repo gh.Repo) {
	visibility := "public"
	if repo.Private {
		visibility = "private"
	}
	fmt.Fprintf(os.Stderr, "\n%s\n", headerStyle.Render("Created "+repo.FullName+" ("+visibility+")"))
	fmt.Fprintf(os.Stderr, "  %s %s\n", fieldStyle.Render("web:  "), repo.HTMLURL)
	fmt.Fprintf(os.Stderr, "  %s %s\n", fieldStyle.Render("https:"), repo.CloneURL)
	fmt.Fprintf(os.Stderr, "  %s %s\n", fieldStyle.Render("ssh:  "), repo.SSHURL)
}

func newSpinner(message string) *yacspin.Spinner {
	spin, err := yacspin.New(yacspin.Config{
		Frequency:         100 * time.Millisecond,
		CharSet:           yacspin.CharSets[14],
		Suffix:            " " + message,
		StopCharacter:     "✓",
		StopColors:        []string{"fgGreen"},
		StopFailCharacter: "✗",
		StopFailColors:    []string{"fgRed"},
		Writer:            os.Stderr,
	})
	if err != nil {
		return nil
	}
	_ = spin.Start()
	return spin
}

func stopSpinner(spin *yacspin.Spinner) {
	if spin != nil {
		_ = spin.Stop()
	}
}

func stopSpinnerFail(spin *yacspin.Spinner) {
	if spin != nil {
		_ = spin.StopFail()
	}
}
