package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/waabox/repogen/internal/config"
	"github.com/waabox/repogen/internal/creds"
	"github.com/waabox/repogen/internal/tui"
)

func newConfigCommand(configPath *string) *cobra.Command {
	var view, edit, clear bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and edit the repogen configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case edit:
				return runConfigEdit(cmd.Context(), *configPath)
			case clear:
				return runConfigClear(*configPath)
			default:
				return runConfigView(*configPath)
			}
		},
	}
	cmd.Flags().BoolVarP(&view, "view", "v", false, "view the current configuration (default)")
	cmd.Flags().BoolVarP(&edit, "edit", "e", false, "edit the configuration interactively")
	cmd.Flags().BoolVarP(&clear, "clear", "c", false, "reset the configuration to defaults")
	cmd.MarkFlagsMutuallyExclusive("view", "edit", "clear")
	return cmd
}

func runConfigView(configPath string) error {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	out := os.Stdout
	fmt.Fprintln(out, headerStyle.Render("repogen configuration"))

	fmt.Fprintln(out, "\nProfile")
	printField(out, "GitHub username", cfg.GitHub.Username)
	printField(out, "Full name", cfg.Profile.Name)
	printField(out, "Email", cfg.Profile.Email)

	fmt.Fprintln(out, "\nAuthentication")
	printField(out, "Token", describeCredential(cfg))

	fmt.Fprintln(out, "\nRepository defaults")
	printField(out, "Private by default", fmt.Sprintf("%t", cfg.Defaults.Private))
	printField(out, "License", cfg.Defaults.License)
	printField(out, "Gitignore", cfg.Defaults.Gitignore)
	printField(out, "Editor", cfg.Defaults.Editor)

	fmt.Fprintln(out, "\nClone")
	printField(out, "Auto-clone", fmt.Sprintf("%t", cfg.Clone.Auto))
	printField(out, "Directory", cfg.Clone.Directory)

	fmt.Fprintf(out, "\nConfig file: %s\n", configPath)
	return nil
}

func runConfigEdit(ctx context.Context, configPath string) error {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := editProfile(&cfg); err != nil {
		return err
	}
	licenses, gitignores := templateOptions(ctx, cfg)
	if err := editDefaults(&cfg, licenses, gitignores); err != nil {
		return err
	}

	auto, err := tui.AskConfirm("Clone repositories automatically after creating them?", cfg.Clone.Auto)
	if err != nil {
		return err
	}
	cfg.Clone.Auto = auto
	if cfg.Clone.Auto {
		if cfg.Clone.Directory, err = tui.AskText("Clone directory", cfg.Clone.Directory, nil); err != nil {
			return err
		}
	}

	if err := config.Save(configPath, cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Configuration saved to %s\n", configPath)
	return nil
}

func runConfigClear(configPath string) error {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	confirmed, err := tui.AskConfirm("Reset all configuration and remove the stored credential?", false)
	if err != nil {
		if errors.Is(err, tui.ErrPromptAborted) {
			return nil
		}
		return err
	}
	if !confirmed {
		fmt.Fprintln(os.Stderr, "Nothing changed.")
		return nil
	}

	if cfg.GitHub.Username != "" {
		if err := creds.Delete(cfg.GitHub.Username); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not remove the keychain credential: %v\n", err)
		}
	}
	if err := config.Clear(configPath); err != nil {
		return fmt.Errorf("clearing config: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Configuration reset.")
	return nil
}

// describeCredential reports where a token is stored without printing it.
// File-stored tokens are masked to their first characters.
func describeCredential(cfg config.Config) string {
	if cfg.GitHub.Token != "" {
		return maskToken(cfg.GitHub.Token) + " (config file or environment)"
	}
	if cfg.GitHub.Username != "" {
		if _, err := creds.Load(cfg.GitHub.Username); err == nil {
			return "stored in OS keychain"
		}
	}
	return "not configured"
}

func maskToken(token string) string {
	const visible = 7
	if len(token) <= visible {
		return "***"
	}
	return token[:visible] + "***"
}

func printField(out *os.File, label, value string) {
	if value == "" {
		value = "—"
	}
	fmt.Fprintf(out, "  %s %s\n", fieldStyle.Render(label+":"), value)
}
