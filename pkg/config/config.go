package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env
// y opcionalmente archivo .env).
type Config struct {
	App      AppConfig
	DB       DBConfig
	JWT      JWTConfig
	HTTP     HTTPConfig
	JoFotara JoFotaraConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// JoFotaraConfig configuración para factura electrónica JoFotara (Jordania).
// Las credenciales son un par primario (ClientID/SecretKey) con un par de
// dispositivo como respaldo; ver infrastructure/jofotara.
type JoFotaraConfig struct {
	BaseURL        string // https://backend.jofotara.gov.jo
	SubmitPath     string // /core/invoices/
	ClientID       string // credencial primaria
	SecretKey      string
	DeviceUser     string // credencial de respaldo (dispositivo)
	DeviceSecret   string
	ActivityNumber string // número de actividad/sector (obligatorio)
	SellerName     string // razón social del emisor (respaldo si la factura no lo trae)
	SellerTaxNo    string // número fiscal del emisor (respaldo)
	DiscountMode   string // "pro-rata" (defecto) | "header"
	TimeoutSeconds int    // timeout de la llamada HTTP al gateway
	SendOnSubmit   bool   // enviar automáticamente al finalizar la factura
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido,
// si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN construye el connection string con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT para la API local.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde
// archivo). Las env vars tienen prioridad. Nombres esperados: APP_ENV,
// JOFOTARA_CLIENT_ID, DB_HOST, JWT_SECRET, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración .env en el directorio de trabajo
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "jofotara-bridge"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "jofotara_bridge"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "jofotara-bridge"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		JoFotara: JoFotaraConfig{
			BaseURL:        getString(v, "JOFOTARA_BASE_URL", "https://backend.jofotara.gov.jo"),
			SubmitPath:     getString(v, "JOFOTARA_SUBMIT_PATH", "/core/invoices/"),
			ClientID:       getString(v, "JOFOTARA_CLIENT_ID", ""),
			SecretKey:      getString(v, "JOFOTARA_SECRET_KEY", ""),
			DeviceUser:     getString(v, "JOFOTARA_DEVICE_USER", ""),
			DeviceSecret:   getString(v, "JOFOTARA_DEVICE_SECRET", ""),
			ActivityNumber: getString(v, "JOFOTARA_ACTIVITY_NUMBER", ""),
			SellerName:     getString(v, "JOFOTARA_SELLER_NAME", ""),
			SellerTaxNo:    getString(v, "JOFOTARA_SELLER_TAX_NO", ""),
			DiscountMode:   getString(v, "JOFOTARA_DISCOUNT_MODE", "pro-rata"),
			TimeoutSeconds: getInt(v, "JOFOTARA_TIMEOUT_SECONDS", 30),
			SendOnSubmit:   getBool(v, "JOFOTARA_SEND_ON_SUBMIT", false),
		},
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, _ := strconv.Atoi(v.GetString(key))
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
