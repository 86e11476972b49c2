package normalisers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/saron-retail/saron-core/internal/core/domain"
)

// DefaultStatus is stored when the ERP record has no status.
const DefaultStatus = "concluida"

// SaleNormaliser converts raw Dapic sale records into domain sales.
type SaleNormaliser struct {
	registry *Registry
	location *time.Location
}

// NewSaleNormaliser creates a normaliser. A nil registry uses DefaultRegistry;
// a nil location reads zone-less ERP timestamps as UTC.
func NewSaleNormaliser(registry *Registry, location *time.Location) *SaleNormaliser {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if location == nil {
		location = time.UTC
	}
	return &SaleNormaliser{registry: registry, location: location}
}

// SaleCode returns the record's sale code, or "" when none of the chain matches.
func (n *SaleNormaliser) SaleCode(rec domain.ExternalRecord) string {
	return n.registry.String(FieldSaleCode, rec)
}

// Normalise converts one record. Records without a code or a readable date
// are rejected with a RecordNormalizationError.
func (n *SaleNormaliser) Normalise(store domain.StoreID, rec domain.ExternalRecord) (*domain.Sale, []domain.SaleItem, error) {
	code := n.SaleCode(rec)
	if code == "" {
		return nil, nil, &domain.RecordNormalizationError{Reason: "missing sale code"}
	}

	rawDate, _ := n.registry.Lookup(FieldSaleDate, rec)
	saleDate, err := ParseDate(rawDate, n.location)
	if err != nil {
		return nil, nil, &domain.RecordNormalizationError{SaleCode: code, Reason: "invalid sale date", Err: err}
	}

	items := n.items(rec)

	total, hasTotal := n.registry.Lookup(FieldTotalValue, rec)
	totalValue := decimalOrZero(total, hasTotal)
	if !hasTotal {
		for _, item := range items {
			totalValue = totalValue.Add(item.TotalPrice)
		}
	}

	status := n.registry.String(FieldStatus, rec)
	if status == "" {
		status = DefaultStatus
	}

	sale := &domain.Sale{
		SaleCode:      code,
		SaleDate:      saleDate,
		TotalValue:    totalValue,
		SellerName:    n.registry.String(FieldSeller, rec),
		ClientName:    n.registry.String(FieldClient, rec),
		StoreID:       store,
		Status:        status,
		PaymentMethod: n.registry.String(FieldPaymentMethod, rec),
	}
	return sale, items, nil
}

func (n *SaleNormaliser) items(rec domain.ExternalRecord) []domain.SaleItem {
	raw, ok := n.registry.Lookup(FieldItems, rec)
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}

	items := make([]domain.SaleItem, 0, len(list))
	for _, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, n.item(domain.ExternalRecord(obj)))
	}
	return items
}

func (n *SaleNormaliser) item(rec domain.ExternalRecord) domain.SaleItem {
	qty, hasQty := n.registry.Lookup(FieldItemQuantity, rec)
	quantity := decimal.NewFromInt(1)
	if hasQty {
		quantity = decimalOrZero(qty, true)
	}
	unit, hasUnit := n.registry.Lookup(FieldItemUnitPrice, rec)
	unitPrice := decimalOrZero(unit, hasUnit)

	total, hasTotal := n.registry.Lookup(FieldItemTotalPrice, rec)
	totalPrice := decimalOrZero(total, hasTotal)
	if !hasTotal {
		totalPrice = quantity.Mul(unitPrice)
	}

	return domain.SaleItem{
		ProductCode: n.registry.String(FieldItemCode, rec),
		Description: n.registry.String(FieldItemDescription, rec),
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		TotalPrice:  totalPrice,
	}
}
