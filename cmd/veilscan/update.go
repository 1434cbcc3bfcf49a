package veilscan

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/veilscan/veilscan/internal/update"
)

func init() {
	var check bool
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update veilscan to the latest release",
		RunE: func(_ *cobra.Command, _ []string) error {
			if check {
				latest, newer, err := update.Check(version, false)
				if err != nil {
					return fmt.Errorf("version check failed: %w", err)
				}
				if newer {
					fmt.Printf("veilscan v%s (latest: v%s)\n", version, latest)
					fmt.Println("Run 'veilscan update' to upgrade.")
				} else {
					fmt.Printf("veilscan v%s is up to date.\n", version)
				}
				return nil
			}
			got, err := selfUpdate()
			if err != nil {
				return fmt.Errorf("self-update failed: %w", err)
			}
			if strings.TrimPrefix(got, "v") == strings.TrimPrefix(version, "v") {
				fmt.Println("Already up to date.")
			} else {
				fmt.Printf("Updated to v%s. Restart to use the new binary.\n", got)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "check for a newer release without installing")
	rootCmd.AddCommand(cmd)
}
