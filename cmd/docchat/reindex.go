package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Queue a background reindex of every uploaded file",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.close()

			jobs, err := a.filesSvc.Reindex(cmd.Context())
			if err != nil {
				return err
			}
			for _, j := range jobs {
				fmt.Printf("%s\t%s\n", j.ID, j.Status)
			}
			fmt.Printf("queued %d jobs\n", len(jobs))
			return nil
		},
	}
}
