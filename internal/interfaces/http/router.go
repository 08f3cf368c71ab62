// Package http expone el ciclo de facturación electrónica sobre Fiber:
// construcción del documento, envío al portal y consulta de estado.
package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/application/einvoice"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	BuildUC   *einvoice.BuildUseCase
	Submit    *einvoice.SubmitOrchestrator
	StatusUC  *einvoice.StatusUseCase
	JWTSecret string
	// AutoSend habilita el envío automático en /build (JOFOTARA_SEND_ON_SUBMIT).
	AutoSend bool
}

// Router registra las rutas de la API. Todas las rutas de facturación van
// protegidas con Bearer Token: el host (ERP) es el único cliente esperado.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	invoices := protected.Group("/invoices")
	handler := NewInvoiceHandler(deps.BuildUC, deps.Submit, deps.StatusUC, deps.AutoSend)
	invoices.Post("/:id/build", handler.Build)
	invoices.Post("/:id/submit", handler.Submit)
	invoices.Get("/:id/status", handler.Status)
}
