package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit <invoice-id>",
	Short: "Construye y envía la factura al portal, conciliando el estado",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		d, err := newDeps(ctx)
		if err != nil {
			return err
		}
		defer d.close()

		outcome, err := d.orchestrator.Submit(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(outcome)
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)
}
