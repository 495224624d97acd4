package cart

import (
	"github.com/shopspring/decimal"
)

// Line is one aggregated (name, unit price) entry in a cart.
type Line struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Description string          `json:"description"`
}

// Total returns UnitPrice × Quantity.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds the lines of one shopping session.
//
// A Cart is not safe for concurrent use. Callers that share a Cart between
// goroutines must serialise access themselves (see Sessions).
type Cart struct {
	lines  []*Line
	nextID int
}

// New creates an empty cart.
func New() *Cart {
	return &Cart{nextID: 1}
}

// Add merges quantity onto the line with the same name and unit price, or
// appends a new line when there is none.
func (c *Cart) Add(name string, unitPrice decimal.Decimal, quantity int, description string) Line {
	for _, l := range c.lines {
		if l.Name == name && l.UnitPrice.Equal(unitPrice) {
			l.Quantity += quantity
			return *l
		}
	}

	l := &Line{
		ID:          c.nextID,
		Name:        name,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		Description: description,
	}
	c.nextID++
	c.lines = append(c.lines, l)
	return *l
}

// AddOne adds a single unit with no description.
func (c *Cart) AddOne(name string, unitPrice decimal.Decimal) Line {
	return c.Add(name, unitPrice, 1, "")
}

// Remove deletes the line with the given id. It reports whether a line was removed.
func (c *Cart) Remove(id int) bool {
	for i, l := range c.lines {
		if l.ID == id {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return true
		}
	}
	return false
}

// SetQuantity overwrites the quantity of a line. A quantity of zero or less
// removes the line. It reports whether a line with that id existed.
func (c *Cart) SetQuantity(id, quantity int) bool {
	if quantity <= 0 {
		return c.Remove(id)
	}
	for _, l := range c.lines {
		if l.ID == id {
			l.Quantity = quantity
			return true
		}
	}
	return false
}

// Clear removes every line. Line ids keep increasing afterwards.
func (c *Cart) Clear() {
	c.lines = nil
}

// Items returns a copy of the current lines in insertion order.
func (c *Cart) Items() []Line {
	items := make([]Line, 0, len(c.lines))
	for _, l := range c.lines {
		items = append(items, *l)
	}
	return items
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// TotalPrice sums the line totals.
func (c *Cart) TotalPrice() decimal.Decimal {
	return TotalOf(c.Items())
}

// ItemCount sums the quantities of all lines.
func (c *Cart) ItemCount() int {
	count := 0
	for _, l := range c.lines {
		count += l.Quantity
	}
	return count
}

// TotalOf sums the totals of a snapshot of lines.
func TotalOf(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total())
	}
	return total
}
