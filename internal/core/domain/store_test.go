package domain

import (
	"errors"
	"testing"
)

func TestParseStoreID(t *testing.T) {
	tests := []struct {
		in      string
		want    StoreID
		wantErr bool
	}{
		{"saron1", StoreSaron1, false},
		{" SARON2 ", StoreSaron2, false},
		{"saron3", StoreSaron3, false},
		{"saron4", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStoreID(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestStoreCredential_Available(t *testing.T) {
	tests := []struct {
		name string
		cred StoreCredential
		want bool
	}{
		{"complete", StoreCredential{Store: StoreSaron1, EmpresaID: "123", IntegrationToken: "tok"}, true},
		{"missing empresa", StoreCredential{Store: StoreSaron1, IntegrationToken: "tok"}, false},
		{"missing token", StoreCredential{Store: StoreSaron1, EmpresaID: "123"}, false},
		{"blank", StoreCredential{Store: StoreSaron1, EmpresaID: "  ", IntegrationToken: " "}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cred.Available(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestAllStoresOrder(t *testing.T) {
	stores := AllStores()
	if len(stores) != 3 {
		t.Fatalf("expected 3 stores, got %d", len(stores))
	}
	if stores[0] != StoreSaron1 || stores[1] != StoreSaron2 || stores[2] != StoreSaron3 {
		t.Errorf("unexpected order %v", stores)
	}
}
