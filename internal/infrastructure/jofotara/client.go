// Package jofotara implementa el cliente HTTP del portal de facturación
// electrónica de Jordania (instructivo 1.4): POST JSON con el XML en Base64
// y autenticación por cabeceras Client-Id / Secret-Key.
package jofotara

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mostafael3ref/erpnext-jordan-invoicing/pkg/logger"
)

const (
	// DefaultBaseURL endpoint productivo del portal.
	DefaultBaseURL = "https://backend.jofotara.gov.jo"
	// DefaultSubmitPath ruta de entrega de facturas.
	DefaultSubmitPath = "/core/invoices/"

	// maxResponseBytes tope de lectura de la respuesta (1 MB).
	maxResponseBytes = 1 << 20
	// maxSnapshotChars tope del extracto de respuesta que se persiste.
	maxSnapshotChars = 1400
)

// ── Puerto (interfaz) ──────────────────────────────────────────────────────────

// SubmitResult resultado de la entrega al portal.
type SubmitResult struct {
	ExternalUUID string // UUID asignado por el portal (EINV_INV_UUID y alias)
	QRCode       string // cadena QR devuelta (EINV_QR y alias)
	Accepted     bool   // true si el portal aceptó el documento
	Errors       string // detalle de rechazo (puede ser vacío)
	StatusCode   int    // código HTTP de la respuesta
	Raw          string // extracto de la respuesta cruda, acotado a 1400 chars
}

// Submitter define el puerto de salida para la entrega de documentos al
// portal. La implementación concreta usa HTTP/JSON; para tests se puede
// inyectar un mock.
type Submitter interface {
	// SubmitInvoice envía el XML (ya minificado) del documento electrónico.
	// Un error de transporte se devuelve como error; un rechazo del portal
	// se devuelve como resultado con Accepted=false.
	SubmitInvoice(ctx context.Context, xmlDoc []byte) (*SubmitResult, error)
}

// ── Configuración ──────────────────────────────────────────────────────────────

// Config credenciales y destino del portal. Si ClientID/SecretKey están
// vacíos se usan DeviceUser/DeviceSecret como respaldo (autenticación de
// dispositivo).
type Config struct {
	BaseURL        string
	SubmitPath     string
	ClientID       string
	SecretKey      string
	DeviceUser     string
	DeviceSecret   string
	ActivityNumber string
	Timeout        time.Duration
}

// ── Implementación HTTP ────────────────────────────────────────────────────────

// Client implementa Submitter contra el API REST del portal.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient construye el cliente. El timeout por defecto es 30 s: el portal
// puede tardar varios segundos en validar el documento.
func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.SubmitPath == "" {
		cfg.SubmitPath = DefaultSubmitPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

// SubmitInvoice envía el documento según el instructivo: body JSON
// {"invoice": "<Base64(XML)>"} contra BaseURL+SubmitPath.
func (c *Client) SubmitInvoice(ctx context.Context, xmlDoc []byte) (*SubmitResult, error) {
	clientID, secretKey, err := c.credentials()
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]string{
		"invoice": base64.StdEncoding.EncodeToString(xmlDoc),
	})
	if err != nil {
		return nil, fmt.Errorf("jofotara: serializar payload: %w", err)
	}

	url := joinURL(c.cfg.BaseURL, c.cfg.SubmitPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("jofotara: crear request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "ar")
	req.Header.Set("Client-Id", clientID)
	req.Header.Set("Secret-Key", secretKey)
	if c.cfg.ActivityNumber != "" {
		req.Header.Set("Activity-Number", c.cfg.ActivityNumber)
		// algunos ambientes del portal esperan la actividad también en Key
		req.Header.Set("Key", c.cfg.ActivityNumber)
	}

	c.log.Info().
		Str("url", url).
		Str("client_id", maskCredential(clientID)).
		Int("payload_bytes", len(payload)).
		Msg("enviando documento al portal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("jofotara: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("jofotara: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("jofotara: leer respuesta: %w", err)
	}

	result := c.parseResponse(resp.StatusCode, rawBody)
	c.log.Info().
		Int("status", result.StatusCode).
		Bool("accepted", result.Accepted).
		Msg("respuesta del portal")
	return result, nil
}

// credentials resuelve el par Client-Id/Secret-Key con respaldo de dispositivo.
func (c *Client) credentials() (string, string, error) {
	id := strings.TrimSpace(c.cfg.ClientID)
	secret := strings.TrimSpace(c.cfg.SecretKey)
	if id == "" {
		id = strings.TrimSpace(c.cfg.DeviceUser)
	}
	if secret == "" {
		secret = strings.TrimSpace(c.cfg.DeviceSecret)
	}
	if id == "" || secret == "" {
		return "", "", fmt.Errorf("jofotara: credenciales incompletas: configurar Client ID/Secret o Device User/Secret")
	}
	return id, secret, nil
}

// parseResponse interpreta la respuesta con tolerancia: el portal devuelve
// el UUID y el QR bajo varios alias según el ambiente. La aceptación exige
// HTTP < 400 y al menos uno de los dos presentes.
func (c *Client) parseResponse(statusCode int, rawBody []byte) *SubmitResult {
	result := &SubmitResult{
		StatusCode: statusCode,
		Raw:        truncate(string(rawBody), maxSnapshotChars),
	}

	var data map[string]any
	if err := json.Unmarshal(rawBody, &data); err != nil {
		// respuesta no-JSON: se conserva el texto como detalle
		if statusCode >= 400 {
			result.Errors = fmt.Sprintf("HTTP %d: %s", statusCode, result.Raw)
		} else {
			result.Errors = "respuesta no-JSON del portal: " + result.Raw
		}
		return result
	}

	if statusCode >= 400 {
		result.Errors = fmt.Sprintf("HTTP %d: %s", statusCode, result.Raw)
		return result
	}

	result.ExternalUUID = firstString(data, "EINV_INV_UUID", "UUID", "invoice_uuid", "invoiceUUID", "id")
	result.QRCode = firstString(data, "EINV_QR", "qr", "qrCode", "qr_code")
	result.Accepted = result.ExternalUUID != "" || result.QRCode != ""
	if !result.Accepted {
		result.Errors = "el portal no devolvió UUID ni QR: " + result.Raw
	}
	return result
}

// ── helpers ────────────────────────────────────────────────────────────────────

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// maskCredential deja visibles solo los primeros caracteres del identificador.
func maskCredential(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func firstString(data map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := data[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
