package domain

// StoreAll keys fan-out errors that do not belong to a single store.
const StoreAll StoreID = "all"

// ExternalRecord is an untyped ERP payload. It only crosses the adapter
// boundary; services convert it to strict types right away.
type ExternalRecord map[string]any

// FanOutResult collects a multi-store ERP read.
// A store appears in Errors when its leg failed; the other legs are unaffected.
type FanOutResult struct {
	Data   map[StoreID][]ExternalRecord `json:"data"`
	Errors map[StoreID]error            `json:"-"`
}

// NewFanOutResult returns an empty result with both maps allocated.
func NewFanOutResult() *FanOutResult {
	return &FanOutResult{
		Data:   make(map[StoreID][]ExternalRecord),
		Errors: make(map[StoreID]error),
	}
}

// ErrorMessages flattens Errors for serialisation.
func (r *FanOutResult) ErrorMessages() map[StoreID]string {
	out := make(map[StoreID]string, len(r.Errors))
	for store, err := range r.Errors {
		out[store] = err.Error()
	}
	return out
}

// Total returns the number of records across all stores.
func (r *FanOutResult) Total() int {
	n := 0
	for _, records := range r.Data {
		n += len(records)
	}
	return n
}

// ERPQuery carries the filters accepted by the ERP list endpoints.
// Page is zero when the caller wants every page.
type ERPQuery struct {
	Window *DateWindow
	Page   int
	Extra  map[string]string
}
