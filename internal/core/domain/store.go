package domain

import "strings"

// StoreID identifies one of the chain's stores (an ERP tenant).
type StoreID string

const (
	StoreSaron1 StoreID = "saron1"
	StoreSaron2 StoreID = "saron2"
	StoreSaron3 StoreID = "saron3"
)

// AllStores returns the chain's stores in their canonical order.
// The order drives sequential syncs and replicate-first fan-out.
func AllStores() []StoreID {
	return []StoreID{StoreSaron1, StoreSaron2, StoreSaron3}
}

// ParseStoreID validates a store identifier coming from an outer layer.
func ParseStoreID(s string) (StoreID, error) {
	id := StoreID(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllStores() {
		if id == known {
			return id, nil
		}
	}
	return "", ErrInvalidInput
}

// StoreCredential holds the static ERP credentials for one store.
// Loaded once at process start and never mutated afterwards.
type StoreCredential struct {
	Store            StoreID `json:"store_id"`
	EmpresaID        string  `json:"empresa_id"`
	IntegrationToken string  `json:"-"`
}

// Available reports whether both credential halves are present.
func (c StoreCredential) Available() bool {
	return strings.TrimSpace(c.EmpresaID) != "" && strings.TrimSpace(c.IntegrationToken) != ""
}
