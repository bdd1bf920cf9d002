package cmd

import (
	"github.com/jmgilman/go/gitsource/core"
	"github.com/jmgilman/go/gitsource/source"
	"github.com/spf13/cobra"
)

var (
	updateBranch  string
	updateTag     string
	updateRev     string
	updatePrecise string
)

var updateCmd = &cobra.Command{
	Use:   "update <url>",
	Short: "Fetch a repository and list the packages at a reference",
	Long: `Resolves the reference against the cached repository database, fetching
when the reference is movable or the pinned revision is not cached, then
materializes a checkout and lists the packages found in it.

With --precise the given revision is used as is and the remote is not
contacted when it is already cached.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ref, err := referenceFromFlags(updateBranch, updateTag, updateRev)
		if err != nil {
			return err
		}
		id, err := core.NewGitSourceID(args[0], ref)
		if err != nil {
			return err
		}
		if updatePrecise != "" {
			id = id.WithPrecise(updatePrecise)
		}

		src, err := source.NewGitSource(id, cfg)
		if err != nil {
			return err
		}

		pkgs, err := src.ReadPackages(cmd.Context())
		if err != nil {
			return err
		}

		fp, err := src.Fingerprint(nil)
		if err != nil {
			return err
		}

		out(cmd, "source:      %s", src)
		out(cmd, "fingerprint: %s", fp)
		out(cmd, "checkout:    %s", src.CheckoutPath())
		if len(pkgs) == 0 {
			out(cmd, "no packages found")
			return nil
		}
		for _, pkg := range pkgs {
			out(cmd, "  %s %s", pkg.ID().Name, pkg.ID().Version)
		}
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateBranch, "branch", "", "branch to track")
	updateCmd.Flags().StringVar(&updateTag, "tag", "", "tag to use")
	updateCmd.Flags().StringVar(&updateRev, "rev", "", "revision to use")
	updateCmd.Flags().StringVar(&updatePrecise, "precise", "", "pinned revision from a previous update")
	updateCmd.MarkFlagsMutuallyExclusive("branch", "tag", "rev")
	rootCmd.AddCommand(updateCmd)
}
