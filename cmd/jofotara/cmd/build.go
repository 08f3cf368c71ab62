package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var buildXMLOnly bool

var buildCmd = &cobra.Command{
	Use:   "build <invoice-id>",
	Short: "Construye el documento UBL de una factura sin enviarlo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		d, err := newDeps(ctx)
		if err != nil {
			return err
		}
		defer d.close()

		result, err := d.buildUC.Execute(ctx, args[0])
		if err != nil {
			return err
		}

		if buildXMLOnly {
			fmt.Println(string(result.XML))
			return nil
		}
		return printJSON(map[string]any{
			"invoice_id": args[0],
			"uuid":       result.Document.UUID,
			"icv":        result.Document.ICV,
			"type_code":  result.Document.TypeCode,
			"xml":        string(result.XML),
		})
	},
}

func init() {
	buildCmd.Flags().BoolVar(&buildXMLOnly, "xml", false, "imprimir solo el XML")
	rootCmd.AddCommand(buildCmd)
}
