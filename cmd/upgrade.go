package cmd

import (
	"fmt"
	"io"

	"github.com/blang/semver"
	"github.com/krau/remdit/config"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/spf13/cobra"
)

const repoSlug = "krau/remdit"

func newUpgradeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade remdit to the latest release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return Upgrade(cmd.OutOrStdout(), config.Version)
		},
	}
}

func Upgrade(out io.Writer, version string) error {
	v, err := semver.ParseTolerant(version)
	if err != nil {
		return fmt.Errorf("cannot upgrade a %q build: %w", version, err)
	}
	latest, err := selfupdate.UpdateSelf(v, repoSlug)
	if err != nil {
		return err
	}
	if latest.Version.Equals(v) {
		fmt.Fprintln(out, "You are already using the latest version:", v)
	} else {
		fmt.Fprintf(out, "Successfully updated to version %s\n", latest.Version)
		fmt.Fprintln(out, "Release note:\n", latest.ReleaseNotes)
	}
	return nil
}
