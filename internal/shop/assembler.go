package shop

import (
	"time"

	"github.com/google/uuid"
)

// AssembleOrder builds the immutable order entity for a validated cart. Each
// line copies the product's descriptive fields into a frozen snapshot; the
// caller must have resolved every product already, and a missing entry here
// fails loudly rather than silently dropping the line. Nothing is persisted.
func AssembleOrder(info OrderInformation, lines []CartLine, delivery string, deliveryCost int64,
	products map[string]*Product, number string, now time.Time) (*Order, error) {

	cart := make([]OrderCartItem, 0, len(lines))
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: l.ProductID}
		}
		cart = append(cart, freezeItem(p, l.Quantity))
	}

	return &Order{
		ID:           uuid.NewString(),
		Number:       number,
		Date:         now,
		DateChange:   now,
		Status:       OrderActive,
		Delivery:     delivery,
		DeliveryCost: deliveryCost,
		Information:  info,
		Cart:         cart,
	}, nil
}

// freezeItem copies the product snapshot. Slices are cloned so later catalog
// edits cannot reach into the order through shared backing arrays.
func freezeItem(p *Product, qty int) OrderCartItem {
	return OrderCartItem{
		ID:           p.ID,
		Quantity:     qty,
		Slug:         p.Slug,
		Brand:        p.Brand,
		Title:        p.Title,
		Subtitle:     p.Subtitle,
		Price:        p.Price,
		PriceReduced: p.PriceReduced,
		Description:  append([]string(nil), p.Description...),
		Image:        p.Image,
		Images:       append([]string(nil), p.Images...),
	}
}
