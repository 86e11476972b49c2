package dapic

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/juju/clock"

	"github.com/saron-retail/saron-core/internal/core/domain"
)

const (
	// DefaultBaseURL is the production Dapic API.
	DefaultBaseURL = "https://api.dapic.com.br"

	// LoginPath exchanges an empresa/token pair for a bearer token.
	LoginPath = "/autenticacao/v1/login"

	// TokenSafetyMargin is subtracted from the server-reported token lifetime.
	TokenSafetyMargin = 300 * time.Second

	defaultTimeout = 30 * time.Second
)

// Config holds dependencies for Client.
type Config struct {
	BaseURL     string
	Credentials []domain.StoreCredential
	HTTPClient  *http.Client
	Clock       clock.Clock
	Logger      *slog.Logger
}

// CredentialsFromEnv reads DAPIC_<STORE>_EMPRESA and DAPIC_<STORE>_TOKEN for every store.
// Stores with a missing half are still returned; Client treats them as unavailable.
func CredentialsFromEnv(getenv func(string) string) []domain.StoreCredential {
	creds := make([]domain.StoreCredential, 0, len(domain.AllStores()))
	for _, store := range domain.AllStores() {
		prefix := "DAPIC_" + strings.ToUpper(string(store)) + "_"
		creds = append(creds, domain.StoreCredential{
			Store:            store,
			EmpresaID:        strings.TrimSpace(getenv(prefix + "EMPRESA")),
			IntegrationToken: strings.TrimSpace(getenv(prefix + "TOKEN")),
		})
	}
	return creds
}
