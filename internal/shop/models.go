package shop

import "time"

// Product is the live catalog entity. Stock is only ever mutated through the
// inventory ledger; nothing else writes the column.
type Product struct {
	ID           string
	Slug         string
	CategorySlug string
	Article      string
	Brand        string
	Title        string
	Subtitle     string
	Price        int64
	PriceReduced int64 // 0 means no reduced price
	Description  []string
	Tag          string
	Index        int
	Stock        int
	MaxOrder     int
	Image        string
	Images       []string
	Status       ProductStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OrderInformation is the customer block captured at checkout. Stored as
// jsonb on the order row.
type OrderInformation struct {
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Address string `json:"address"`
	Zip     string `json:"zip"`
	City    string `json:"city"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// OrderCartItem is a frozen line item: descriptive product fields are copied
// at order time so later catalog edits never change historical orders.
type OrderCartItem struct {
	ID           string   `json:"id"` // product reference
	Quantity     int      `json:"number"`
	Slug         string   `json:"slug"`
	Brand        string   `json:"brand"`
	Title        string   `json:"title"`
	Subtitle     string   `json:"subtitle,omitempty"`
	Price        int64    `json:"price"`
	PriceReduced int64    `json:"price_reduced,omitempty"`
	Description  []string `json:"description,omitempty"`
	Image        string   `json:"image,omitempty"`
	Images       []string `json:"images,omitempty"`
}

// UnitPrice is the price a frozen line was sold at.
func (i OrderCartItem) UnitPrice() int64 {
	if i.PriceReduced > 0 {
		return i.PriceReduced
	}
	return i.Price
}

// Order is immutable after creation except for Status and DateChange.
type Order struct {
	ID           string
	Number       string // YYMM.NNN
	Date         time.Time
	DateChange   time.Time
	Status       OrderStatus
	Delivery     string
	DeliveryCost int64
	Information  OrderInformation
	Cart         []OrderCartItem
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Total is the order amount: frozen unit prices times quantities plus the
// delivery cost.
func (o *Order) Total() int64 {
	var sum int64
	for _, it := range o.Cart {
		sum += it.UnitPrice() * int64(it.Quantity)
	}
	return sum + o.DeliveryCost
}

// CartLine is an incoming cart reference before assembly.
type CartLine struct {
	ProductID string
	Quantity  int
}

// StockReservation is a time-bounded soft hold on inventory pending payment.
type StockReservation struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	Status    ReservationStatus
	CreatedAt time.Time
	ExpiresAt time.Time
}
