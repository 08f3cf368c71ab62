package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/application/einvoice"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/domain/jofotara"
	infrajofotara "github.com/mostafael3ref/erpnext-jordan-invoicing/internal/infrastructure/jofotara"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/infrastructure/postgres"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/infrastructure/ubl"
	httpRouter "github.com/mostafael3ref/erpnext-jordan-invoicing/internal/interfaces/http"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/pkg/config"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	invoiceRepo := postgres.NewInvoiceRepository(pool)
	xmlBuilder := ubl.NewXMLBuilderService()

	buildUC := einvoice.NewBuildUseCase(invoiceRepo, xmlBuilder, jofotara.BuildOptions{
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

	orchestrator := einvoice.NewSubmitOrchestrator(
		buildUC, invoiceRepo, submitter, einvoice.NewLogSink(log), log,
	)
	statusUC := einvoice.NewStatusUseCase(invoiceRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 60, // el envío al portal puede tardar
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		BuildUC:   buildUC,
		Submit:    orchestrator,
		StatusUC:  statusUC,
		JWTSecret: cfg.JWT.Secret,
		AutoSend:  cfg.JoFotara.SendOnSubmit,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
