package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used for sync windows and the ERP filters.
const DateLayout = "2006-01-02"

// DateWindow is an inclusive [Start, End] range of calendar days.
type DateWindow struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// NewDateWindow builds a window truncated to whole days.
func NewDateWindow(start, end time.Time) (DateWindow, error) {
	w := DateWindow{Start: startOfDay(start), End: startOfDay(end)}
	if w.End.Before(w.Start) {
		return DateWindow{}, fmt.Errorf("%w: end date %s before start date %s",
			ErrInvalidInput, w.End.Format(DateLayout), w.Start.Format(DateLayout))
	}
	return w, nil
}

// ParseDateWindow parses two YYYY-MM-DD strings into a UTC window.
// Callers that touch stored sales re-anchor it with In.
func ParseDateWindow(start, end string) (DateWindow, error) {
	return ParseDateWindowIn(start, end, time.UTC)
}

// ParseDateWindowIn parses two YYYY-MM-DD strings as calendar days in loc.
func ParseDateWindowIn(start, end string, loc *time.Location) (DateWindow, error) {
	s, err := time.ParseInLocation(DateLayout, start, loc)
	if err != nil {
		return DateWindow{}, fmt.Errorf("%w: start date %q", ErrInvalidInput, start)
	}
	e, err := time.ParseInLocation(DateLayout, end, loc)
	if err != nil {
		return DateWindow{}, fmt.Errorf("%w: end date %q", ErrInvalidInput, end)
	}
	return NewDateWindow(s, e)
}

// MonthWindow returns the first and last day of the calendar month containing t.
func MonthWindow(t time.Time) DateWindow {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1)
	return DateWindow{Start: first, End: last}
}

// DayWindow returns a single-day window.
func DayWindow(t time.Time) DateWindow {
	d := startOfDay(t)
	return DateWindow{Start: d, End: d}
}

// In returns the same calendar days anchored at midnight in loc.
// Bounds of the result are the local day boundaries of loc.
func (w DateWindow) In(loc *time.Location) DateWindow {
	if loc == nil {
		loc = time.UTC
	}
	return DateWindow{Start: sameDayIn(w.Start, loc), End: sameDayIn(w.End, loc)}
}

// StartDate returns the start as YYYY-MM-DD.
func (w DateWindow) StartDate() string { return w.Start.Format(DateLayout) }

// EndDate returns the end as YYYY-MM-DD.
func (w DateWindow) EndDate() string { return w.End.Format(DateLayout) }

// Contains reports whether t falls on a day inside the window.
func (w DateWindow) Contains(t time.Time) bool {
	d := startOfDay(t.In(w.Start.Location()))
	return !d.Before(w.Start) && !d.After(w.End)
}

// Bounds returns the half-open instant range [Start, End+1day) used by storage queries.
func (w DateWindow) Bounds() (time.Time, time.Time) {
	return w.Start, w.End.AddDate(0, 0, 1)
}

func (w DateWindow) String() string {
	return w.StartDate() + ".." + w.EndDate()
}

func sameDayIn(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Sale is a locally persisted mirror of one ERP sale.
// Only the sync engine creates sales.
type Sale struct {
	ID            uuid.UUID       `json:"id"`
	SaleCode      string          `json:"sale_code"`
	SaleDate      time.Time       `json:"sale_date"`
	TotalValue    decimal.Decimal `json:"total_value"`
	SellerName    string          `json:"seller_name"`
	ClientName    string          `json:"client_name"`
	StoreID       StoreID         `json:"store_id"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []SaleItem      `json:"items,omitempty"`
}

// SaleItem is a line item owned by exactly one Sale.
type SaleItem struct {
	ID          uuid.UUID       `json:"id"`
	SaleID      uuid.UUID       `json:"sale_id"`
	ProductCode string          `json:"product_code"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// SaleFilter narrows local sale queries.
type SaleFilter struct {
	Store  StoreID
	Window *DateWindow
	Limit  int
	Offset int
}
