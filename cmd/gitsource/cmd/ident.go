package cmd

import (
	"github.com/jmgilman/go/gitsource/git/cache"
	"github.com/spf13/cobra"
)

var identCmd = &cobra.Command{
	Use:   "ident <url>",
	Short: "Print the canonical URL and cache identity of a repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		canonical, err := cache.Canonicalize(args[0])
		if err != nil {
			return err
		}
		out(cmd, "canonical: %s", canonical)
		out(cmd, "ident:     %s", cache.IdentOf(canonical))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(identCmd)
}
