package config

import (
	"strings"
	"time"
)

const (
	defaultGatewayTimeout    = 30 * time.Second
	defaultErrorMessagePath  = "message || error || detail || errors[0].message"
	defaultListItemsPath     = "items || content || data"
	defaultListTotalPath     = "totalCount || total || totalElements"
	defaultGatewayUserHeader = "user-id"
)

// GatewayConfig describes how the dashboard reaches the backend REST services.
// Every outbound call goes through one gateway client built from this config.
type GatewayConfig struct {
	// Base URLs for each backend API. Empty values disable the screens backed by that API.
	ReconAPIURL     string `env:"GATEWAY_RECON_API_URL"     envDefault:"http://localhost:9001"`
	LedgerAPIURL    string `env:"GATEWAY_LEDGER_API_URL"    envDefault:"http://localhost:9002"`
	UsersAPIURL     string `env:"GATEWAY_USERS_API_URL"     envDefault:"http://localhost:9003"`
	AnalyticsAPIURL string `env:"GATEWAY_ANALYTICS_API_URL" envDefault:"http://localhost:9004"`

	// APIPathPrefix is inserted between the base URL and the endpoint.
	APIPathPrefix string `env:"GATEWAY_API_PATH_PREFIX" envDefault:"api/v1/"`

	// Timeout bounds each outbound request.
	Timeout time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"30s"`

	// UserIDHeader is the header carrying the acting user's id.
	UserIDHeader string `env:"GATEWAY_USER_ID_HEADER" envDefault:"user-id"`

	// ErrorMessagePath is a JMESPath expression extracting a human message from error bodies.
	ErrorMessagePath string `env:"GATEWAY_ERROR_MESSAGE_PATH" envDefault:"message || error || detail || errors[0].message"`

	// ListItemsPath and ListTotalPath map paged list envelopes onto items/total.
	ListItemsPath string `env:"GATEWAY_LIST_ITEMS_PATH" envDefault:"items || content || data"`
	ListTotalPath string `env:"GATEWAY_LIST_TOTAL_PATH" envDefault:"totalCount || total || totalElements"`
}

// Sanitize normalises URLs and restores defaults for blank values.
func (g *GatewayConfig) Sanitize() {
	g.ReconAPIURL = trimBase(g.ReconAPIURL)
	g.LedgerAPIURL = trimBase(g.LedgerAPIURL)
	g.UsersAPIURL = trimBase(g.UsersAPIURL)
	g.AnalyticsAPIURL = trimBase(g.AnalyticsAPIURL)

	prefix := strings.TrimLeft(strings.TrimSpace(g.APIPathPrefix), "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	g.APIPathPrefix = prefix

	if g.Timeout <= 0 {
		g.Timeout = defaultGatewayTimeout
	}
	if g.UserIDHeader = strings.TrimSpace(g.UserIDHeader); g.UserIDHeader == "" {
		g.UserIDHeader = defaultGatewayUserHeader
	}
	if strings.TrimSpace(g.ErrorMessagePath) == "" {
		g.ErrorMessagePath = defaultErrorMessagePath
	}
	if strings.TrimSpace(g.ListItemsPath) == "" {
		g.ListItemsPath = defaultListItemsPath
	}
	if strings.TrimSpace(g.ListTotalPath) == "" {
		g.ListTotalPath = defaultListTotalPath
	}
}

// Bases returns the configured base URL for each backend API name.
func (g *GatewayConfig) Bases() map[string]string {
	return map[string]string{
		"recon":     g.ReconAPIURL,
		"ledger":    g.LedgerAPIURL,
		"users":     g.UsersAPIURL,
		"analytics": g.AnalyticsAPIURL,
	}
}

func trimBase(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}
