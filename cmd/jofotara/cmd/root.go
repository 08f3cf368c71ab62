// Package cmd implementa la CLI de operación del puente JoFotara: permite
// construir, enviar y consultar facturas desde la terminal usando la misma
// configuración (env vars / .env) que el servidor HTTP.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/application/einvoice"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/domain/jofotara"
	infrajofotara "github.com/mostafael3ref/erpnext-jordan-invoicing/internal/infrastructure/jofotara"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/infrastructure/postgres"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/infrastructure/ubl"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/pkg/config"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/pkg/logger"
)

var (
	version = "1.0.0"

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "jofotara",
	Short: "Operación del puente de facturación electrónica JoFotara",
	Long: `CLI de operación del puente JoFotara (Jordania).

Usa la misma configuración que el servidor (variables de entorno / .env):
credenciales del portal, número de actividad y conexión a PostgreSQL.

Ejemplos:
  # Construir el documento UBL de una factura (imprime el XML)
  jofotara build SINV-0042

  # Enviar una factura al portal y conciliar el estado
  jofotara submit SINV-0042

  # Consultar el estado de envío
  jofotara status SINV-0042`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute ejecuta el comando raíz.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "logging detallado (debug)")
}

// deps dependencias compartidas por los subcomandos.
type deps struct {
	cfg          *config.Config
	log          *logger.Logger
	buildUC      *einvoice.BuildUseCase
	orchestrator *einvoice.SubmitOrchestrator
	statusUC     *einvoice.StatusUseCase
	close        func()
}

// newDeps carga configuración, abre el pool y arma los casos de uso.
func newDeps(ctx context.Context) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cargar configuración: %w", err)
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: level})

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}

	invoiceRepo := postgres.NewInvoiceRepository(pool)
	buildUC := einvoice.NewBuildUseCase(invoiceRepo, ubl.NewXMLBuilderService(), jofotara.BuildOptions{
		DiscountMode:    jofotara.ParseDiscountMode(cfg.JoFotara.DiscountMode),
		ActivityNumber:  cfg.JoFotara.ActivityNumber,
		SellerName:      cfg.JoFotara.SellerName,
		SellerTaxNumber: cfg.JoFotara.SellerTaxNo,
	}, log)

	submitter := infrajofotara.NewClient(infrajofotara.Config{
		BaseURL:        cfg.JoFotara.BaseURL,
		SubmitPath:     cfg.JoFotara.SubmitPath,
		ClientID:       cfg.JoFotara.ClientID,
		SecretKey:      cfg.JoFotara.SecretKey,
		DeviceUser:     cfg.JoFotara.DeviceUser,
		DeviceSecret:   cfg.JoFotara.DeviceSecret,
		ActivityNumber: cfg.JoFotara.ActivityNumber,
		Timeout:        time.Duration(cfg.JoFotara.TimeoutSeconds) * time.Second,
	}, log)

	return &deps{
		cfg:          cfg,
		log:          log,
		buildUC:      buildUC,
		orchestrator: einvoice.NewSubmitOrchestrator(buildUC, invoiceRepo, submitter, einvoice.NewLogSink(log), log),
		statusUC:     einvoice.NewStatusUseCase(invoiceRepo),
		close:        pool.Close,
	}, nil
}

// printJSON imprime un resultado como JSON indentado en stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
