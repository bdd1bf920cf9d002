package cmd

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, l, err := openCache(cmd, cfg)
		if err != nil {
			return err
		}
		defer l.Unlock()

		stats, err := c.Stats()
		if err != nil {
			return err
		}

		out(cmd, "root:       %s", c.Root())
		out(cmd, "databases:  %d (%s)", stats.Databases, humanize.Bytes(uint64(stats.DatabaseSize)))
		out(cmd, "checkouts:  %d (%s)", stats.Checkouts, humanize.Bytes(uint64(stats.CheckoutsSize)))
		out(cmd, "total:      %s", humanize.Bytes(uint64(stats.TotalSize)))
		if stats.OldestCheckout != nil {
			out(cmd, "oldest:     %s", humanize.Time(*stats.OldestCheckout))
		}
		if stats.NewestCheckout != nil {
			out(cmd, "newest:     %s", humanize.Time(*stats.NewestCheckout))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
