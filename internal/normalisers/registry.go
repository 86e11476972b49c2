package normalisers

import (
	"sort"
	"strings"
	"sync"

	"github.com/saron-retail/saron-core/internal/core/domain"
)

// Field names a logical sale or item attribute.
type Field string

const (
	FieldSaleCode      Field = "sale_code"
	FieldSaleDate      Field = "sale_date"
	FieldTotalValue    Field = "total_value"
	FieldSeller        Field = "seller_name"
	FieldClient        Field = "client_name"
	FieldStatus        Field = "status"
	FieldPaymentMethod Field = "payment_method"
	FieldItems         Field = "items"

	FieldItemCode        Field = "item.product_code"
	FieldItemDescription Field = "item.description"
	FieldItemQuantity    Field = "item.quantity"
	FieldItemUnitPrice   Field = "item.unit_price"
	FieldItemTotalPrice  Field = "item.total_price"
)

// Extractor reads one candidate value from a record.
// ok is false when the record has nothing usable for it.
type Extractor func(rec domain.ExternalRecord) (value any, ok bool)

// Key extracts a top-level key, skipping nil and blank strings.
func Key(name string) Extractor {
	return func(rec domain.ExternalRecord) (any, bool) {
		v, exists := rec[name]
		if !exists || isBlank(v) {
			return nil, false
		}
		return v, true
	}
}

// Nested extracts rec[outer][inner] when rec[outer] is an object.
func Nested(outer, inner string) Extractor {
	return func(rec domain.ExternalRecord) (any, bool) {
		obj, ok := rec[outer].(map[string]any)
		if !ok {
			return nil, false
		}
		return Key(inner)(obj)
	}
}

// Registry holds the ordered extractor chain of every field.
// The first extractor that yields a value wins.
type Registry struct {
	mu     sync.RWMutex
	chains map[Field][]Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{chains: make(map[Field][]Extractor)}
}

// Register appends extractors to the end of a field's chain.
func (r *Registry) Register(field Field, extractors ...Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chains[field] = append(r.chains[field], extractors...)
}

// RegisterKeys appends plain key lookups to a field's chain.
func (r *Registry) RegisterKeys(field Field, keys ...string) {
	for _, k := range keys {
		r.Register(field, Key(k))
	}
}

// Prepend puts extractors ahead of the existing chain.
func (r *Registry) Prepend(field Field, extractors ...Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chains[field] = append(append([]Extractor(nil), extractors...), r.chains[field]...)
}

// Lookup evaluates a field's chain against the record.
func (r *Registry) Lookup(field Field, rec domain.ExternalRecord) (any, bool) {
	r.mu.RLock()
	chain := r.chains[field]
	r.mu.RUnlock()

	for _, extract := range chain {
		if v, ok := extract(rec); ok {
			return v, true
		}
	}
	return nil, false
}

// String evaluates a field and renders it as trimmed text.
func (r *Registry) String(field Field, rec domain.ExternalRecord) string {
	v, ok := r.Lookup(field, rec)
	if !ok {
		return ""
	}
	return asString(v)
}

// Fields returns the registered field names, sorted.
func (r *Registry) Fields() []Field {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fields := make([]Field, 0, len(r.chains))
	for f := range r.chains {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}

// DefaultRegistry creates a registry with the known Dapic sale shapes.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.RegisterKeys(FieldSaleCode, "CodigoVenda", "Codigo", "NumeroVenda", "Id", "IdVenda")
	r.RegisterKeys(FieldSaleDate, "DataFechamento", "DataEmissao", "DataVenda", "Data")
	r.RegisterKeys(FieldTotalValue, "ValorLiquido", "ValorTotal", "Total", "Valor")
	r.RegisterKeys(FieldSeller, "NomeVendedor", "Vendedor", "VendedorNome")
	r.Register(FieldSeller, Nested("Vendedor", "Nome"))
	r.RegisterKeys(FieldClient, "NomeCliente", "Cliente", "ClienteNome", "RazaoSocial")
	r.Register(FieldClient, Nested("Cliente", "Nome"))
	r.RegisterKeys(FieldStatus, "Status", "Situacao", "StatusVenda")
	r.RegisterKeys(FieldPaymentMethod, "FormaPagamento", "FormaPgto", "TipoPagamento", "CondicaoPagamento")
	r.RegisterKeys(FieldItems, "Itens", "ItensVenda", "Produtos")

	r.RegisterKeys(FieldItemCode, "CodigoProduto", "Codigo", "Referencia", "IdProduto")
	r.RegisterKeys(FieldItemDescription, "DescricaoProduto", "Descricao", "NomeProduto", "Produto")
	r.RegisterKeys(FieldItemQuantity, "Quantidade", "Qtde", "Qtd")
	r.RegisterKeys(FieldItemUnitPrice, "ValorUnitario", "PrecoUnitario", "Preco")
	r.RegisterKeys(FieldItemTotalPrice, "ValorTotal", "Total", "ValorLiquido")

	return r
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}
