package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <invoice-id>",
	Short: "Consulta el estado de envío de una factura",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		d, err := newDeps(ctx)
		if err != nil {
			return err
		}
		defer d.close()

		draft, err := d.statusUC.Execute(ctx, args[0])
		if err != nil {
			return err
		}

		out := map[string]any{
			"invoice_id":  draft.ID,
			"status":      draft.Status,
			"uuid":        draft.UUID,
			"icv":         draft.ICV,
			"external_id": draft.ExternalID,
			"qr_code":     draft.QRCode,
		}
		if draft.LastError != "" {
			out["last_error"] = draft.LastError
		}
		if draft.SubmittedAt != nil {
			out["submitted_at"] = draft.SubmittedAt.Format(time.RFC3339)
		}
		return printJSON(out)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
