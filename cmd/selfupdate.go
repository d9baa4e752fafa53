package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// githubRepoSlug is the GitHub repository (owner/repo) releases are fetched from.
const githubRepoSlug = "proctor-dev/proctor"

var errDevelopmentVersion = errors.New("cannot self-update a development version")

var selfUpdateCheckOnly bool

func newSelfUpdateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "self-update",
		Short: "Update proctor to the latest version",
		Long: `Checks for the latest release of proctor on GitHub and
replaces the running binary when a newer version exists.

Use --check to only report whether an update is available.`,
		RunE: runSelfUpdate,
	}
	c.Flags().BoolVar(&selfUpdateCheckOnly, "check", false, "Only report whether a newer release exists")
	return c
}

func runSelfUpdate(cmd *cobra.Command, _ []string) error {
	current := rootCmd.Version
	if current == "" || current == "dev" {
		return errDevelopmentVersion
	}

	var out io.Writer = os.Stdout
	ctx := context.Background()
	if cmd != nil {
		out = cmd.OutOrStdout()
		ctx = cmd.Context()
	}

	updater, err := selfupdate.NewUpdater(selfupdate.Config{})
	if err != nil {
		return fmt.Errorf("failed to create updater: %w", err)
	}

	release, err := newerRelease(ctx, updater, current)
	if err != nil {
		return err
	}
	if release == nil {
		fmt.Fprintf(out, "proctor %s is up to date\n", current)
		return nil
	}

	fmt.Fprintf(out, "proctor %s is available (installed: %s, published %s)\n",
		release.Version(), current, release.PublishedAt.Format("2006-01-02"))
	if release.ReleaseNotes != "" {
		fmt.Fprintf(out, "\n%s\n\n", release.ReleaseNotes)
	}
	if selfUpdateCheckOnly {
		return nil
	}
	return install(ctx, out, updater, release)
}

// newerRelease returns the latest release when it is newer than current,
// nil otherwise.
func newerRelease(ctx context.Context, updater *selfupdate.Updater, current string) (*selfupdate.Release, error) {
	latest, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(githubRepoSlug))
	if err != nil {
		return nil, fmt.Errorf("error detecting latest version: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("no release found for %s", githubRepoSlug)
	}
	if !latest.GreaterThan(current) {
		return nil, nil
	}
	return latest, nil
}

func install(ctx context.Context, out io.Writer, updater *selfupdate.Updater, release *selfupdate.Release) error {
	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}
	if err := updater.UpdateTo(ctx, release, exe); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	fmt.Fprintf(out, "Updated %s to %s\n", exe, release.Version())
	return nil
}
