package auditlog_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"storefront/internal/auditlog"
	"storefront/internal/cart"
	"storefront/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder() (*models.Order, []cart.Line) {
	order := &models.Order{ID: 17, UserID: 3, TotalAmount: decimal.RequireFromString("250")}
	lines := []cart.Line{
		{ID: 1, Name: "Soap", UnitPrice: decimal.RequireFromString("100"), Quantity: 2},
		{ID: 2, Name: "Towel", UnitPrice: decimal.RequireFromString("50"), Quantity: 1},
	}
	return order, lines
}

func TestFormat(t *testing.T) {
	order, lines := sampleOrder()
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

	want := "-----\n" +
		"Date: 2024-03-09 14:05:07\n" +
		"OrderId: 17\n" +
		"UserId: 3\n" +
		"Total: 250.00\n" +
		"Items:\n" +
		" - Soap x2 @ 100.00 = 200.00\n" +
		" - Towel x1 @ 50.00 = 50.00\n" +
		"\n"
	assert.Equal(t, want, auditlog.Format(at, order, lines))
}

func TestAppend_CreatesDirectoryAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Logs", "orders.log")
	l := auditlog.New(path)
	order, lines := sampleOrder()

	require.NoError(t, l.Append(order, lines))
	order.ID = 18
	require.NoError(t, l.Append(order, lines))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Equal(t, 2, strings.Count(content, "-----\n"))
	assert.Contains(t, content, "OrderId: 17\n")
	assert.Contains(t, content, "OrderId: 18\n")
}

func TestAppend_FailsWhenPathIsUnusable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	l := auditlog.New(filepath.Join(blocker, "orders.log"))
	order, lines := sampleOrder()
	assert.Error(t, l.Append(order, lines))
}
