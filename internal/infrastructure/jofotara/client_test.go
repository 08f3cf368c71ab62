package jofotara_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/infrastructure/jofotara"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/pkg/logger"
)

func newClient(t *testing.T, serverURL string, mutate func(*jofotara.Config)) *jofotara.Client {
	t.Helper()
	cfg := jofotara.Config{
		BaseURL:        serverURL,
		SubmitPath:     "/core/invoices/",
		ClientID:       "client-abc",
		SecretKey:      "secret-xyz",
		ActivityNumber: "123456",
		Timeout:        5 * time.Second,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return jofotara.NewClient(cfg, logger.Nop())
}

// ── contrato de la petición ───────────────────────────────────────────────────

func TestSubmitInvoice_PeticionConformeAlInstructivo(t *testing.T) {
	xmlDoc := []byte(`<Invoice><cbc:ID>SINV-001</cbc:ID></Invoice>`)

	var gotReq *http.Request
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(context.Background())
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]string{"EINV_INV_UUID": "ext-1", "EINV_QR": "QR=="})
	}))
	defer srv.Close()

	result, err := newClient(t, srv.URL, nil).SubmitInvoice(context.Background(), xmlDoc)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotReq.Method)
	assert.Equal(t, "/core/invoices/", gotReq.URL.Path)
	assert.Equal(t, "application/json", gotReq.Header.Get("Content-Type"))
	assert.Equal(t, "application/json", gotReq.Header.Get("Accept"))
	assert.Equal(t, "client-abc", gotReq.Header.Get("Client-Id"))
	assert.Equal(t, "secret-xyz", gotReq.Header.Get("Secret-Key"))
	assert.Equal(t, "123456", gotReq.Header.Get("Activity-Number"))
	assert.Equal(t, "123456", gotReq.Header.Get("Key"))

	// el XML viaja en Base64 bajo la clave "invoice"
	decoded, decErr := base64.StdEncoding.DecodeString(gotBody["invoice"])
	require.NoError(t, decErr)
	assert.Equal(t, xmlDoc, decoded)

	assert.True(t, result.Accepted)
	assert.Equal(t, "ext-1", result.ExternalUUID)
	assert.Equal(t, "QR==", result.QRCode)
}

func TestSubmitInvoice_RespaldoDeDispositivo(t *testing.T) {
	var gotID, gotSecret string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("Client-Id")
		gotSecret = r.Header.Get("Secret-Key")
		_ = json.NewEncoder(w).Encode(map[string]string{"UUID": "ext-2"})
	}))
	defer srv.Close()

	client := newClient(t, srv.URL, func(cfg *jofotara.Config) {
		cfg.ClientID = ""
		cfg.SecretKey = ""
		cfg.DeviceUser = "device-user"
		cfg.DeviceSecret = "device-secret"
	})
	result, err := client.SubmitInvoice(context.Background(), []byte("<Invoice/>"))
	require.NoError(t, err)

	assert.Equal(t, "device-user", gotID)
	assert.Equal(t, "device-secret", gotSecret)
	assert.True(t, result.Accepted)
	assert.Equal(t, "ext-2", result.ExternalUUID)
}

func TestSubmitInvoice_SinCredenciales(t *testing.T) {
	client := newClient(t, "http://localhost:1", func(cfg *jofotara.Config) {
		cfg.ClientID = ""
		cfg.SecretKey = ""
	})
	_, err := client.SubmitInvoice(context.Background(), []byte("<Invoice/>"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "credenciales")
}

// ── interpretación de la respuesta ────────────────────────────────────────────

func TestSubmitInvoice_AliasDeClaves(t *testing.T) {
	cases := []struct {
		name string
		body map[string]string
		uuid string
		qr   string
	}{
		{"alias largos", map[string]string{"EINV_INV_UUID": "u1", "EINV_QR": "q1"}, "u1", "q1"},
		{"alias cortos", map[string]string{"invoice_uuid": "u2", "qr_code": "q2"}, "u2", "q2"},
		{"camelCase", map[string]string{"invoiceUUID": "u3", "qrCode": "q3"}, "u3", "q3"},
		{"solo id", map[string]string{"id": "u4"}, "u4", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(tc.body)
			}))
			defer srv.Close()

			result, err := newClient(t, srv.URL, nil).SubmitInvoice(context.Background(), []byte("<Invoice/>"))
			require.NoError(t, err)
			assert.True(t, result.Accepted)
			assert.Equal(t, tc.uuid, result.ExternalUUID)
			assert.Equal(t, tc.qr, result.QRCode)
		})
	}
}

func TestSubmitInvoice_RechazoHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "invalid tax number"})
	}))
	defer srv.Close()

	result, err := newClient(t, srv.URL, nil).SubmitInvoice(context.Background(), []byte("<Invoice/>"))
	require.NoError(t, err) // rechazo del portal NO es error de transporte
	assert.False(t, result.Accepted)
	assert.Equal(t, http.StatusUnprocessableEntity, result.StatusCode)
	assert.Contains(t, result.Errors, "HTTP 422")
	assert.Contains(t, result.Errors, "invalid tax number")
}

func TestSubmitInvoice_ExitoSinUUIDNiQR(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "queued"})
	}))
	defer srv.Close()

	result, err := newClient(t, srv.URL, nil).SubmitInvoice(context.Background(), []byte("<Invoice/>"))
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Contains(t, result.Errors, "no devolvió UUID ni QR")
}

func TestSubmitInvoice_RespuestaNoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>gateway error</html>"))
	}))
	defer srv.Close()

	result, err := newClient(t, srv.URL, nil).SubmitInvoice(context.Background(), []byte("<Invoice/>"))
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Contains(t, result.Errors, "HTTP 502")
	assert.Contains(t, result.Raw, "gateway error")
}

func TestSubmitInvoice_ExtractoAcotado(t *testing.T) {
	big := strings.Repeat("x", 5000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"EINV_INV_UUID": "u", "blob": big})
	}))
	defer srv.Close()

	result, err := newClient(t, srv.URL, nil).SubmitInvoice(context.Background(), []byte("<Invoice/>"))
	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.LessOrEqual(t, len(result.Raw), 1400)
}

func TestSubmitInvoice_ErrorDeTransporte(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // servidor caído

	_, err := newClient(t, srv.URL, nil).SubmitInvoice(context.Background(), []byte("<Invoice/>"))
	assert.Error(t, err)
}

func TestSubmitInvoice_ContextoCancelado(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newClient(t, srv.URL, nil).SubmitInvoice(ctx, []byte("<Invoice/>"))
	assert.Error(t, err)
}
