// Package auditlog appends human-readable checkout records to a text file.
package auditlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"storefront/internal/cart"
	"storefront/internal/models"
)

const separator = "-----"

// OrderLog is an append-only order log file.
type OrderLog struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// New returns an OrderLog writing to path. Nothing is touched until the first Append.
func New(path string) *OrderLog {
	return &OrderLog{path: path, now: time.Now}
}

// Path returns the log file location.
func (l *OrderLog) Path() string {
	return l.path
}

// Append writes one record for a committed order. Missing directories are created.
func (l *OrderLog) Append(order *models.Order, lines []cart.Line) error {
	record := Format(l.now(), order, lines)

	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create order log directory: %w", err)
		}
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open order log: %w", err)
	}
	if _, err := f.WriteString(record); err != nil {
		f.Close()
		return fmt.Errorf("failed to write order log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close order log: %w", err)
	}
	return nil
}

// Format renders the record for one order.
func Format(at time.Time, order *models.Order, lines []cart.Line) string {
	var sb strings.Builder
	sb.WriteString(separator + "\n")
	fmt.Fprintf(&sb, "Date: %s\n", at.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "OrderId: %d\n", order.ID)
	fmt.Fprintf(&sb, "UserId: %d\n", order.UserID)
	fmt.Fprintf(&sb, "Total: %s\n", order.TotalAmount.StringFixed(2))
	sb.WriteString("Items:\n")
	for _, l := range lines {
		fmt.Fprintf(&sb, " - %s x%d @ %s = %s\n",
			l.Name, l.Quantity, l.UnitPrice.StringFixed(2), l.Total().StringFixed(2))
	}
	sb.WriteString("\n")
	return sb.String()
}
