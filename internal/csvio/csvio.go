// Package csvio reads and writes the semicolon separated files used to move
// products and orders in and out of spreadsheets.
//
// Fields are never quoted. Semicolons inside text are replaced by commas on
// export, so a round trip is lossy for such values.
package csvio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
)

const (
	bom       = "\ufeff"
	separator = ";"

	// ProductHeader is the first line of a products file.
	ProductHeader = "ID;Name;Price;Description;Image;Rating;Active"
	// OrderHeader is the first line of an orders file.
	OrderHeader = "Order ID;Client;Date;Total;Status;Products"

	// DateLayout formats order dates.
	DateLayout = "02.01.2006 15:04"

	// DefaultImportStock is the stock given to every imported product.
	DefaultImportStock = 100
)

var maxRating = decimal.NewFromInt(5)

func clean(s string) string {
	return strings.ReplaceAll(s, separator, ",")
}

func cleanMultiline(s string) string {
	s = clean(s)
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", "")
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// WriteProducts writes products with a BOM and a header line.
func WriteProducts(w io.Writer, products []models.Product) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(bom + ProductHeader + "\r\n"); err != nil {
		return err
	}
	for _, p := range products {
		rating := ""
		if p.Rating.Valid {
			rating = p.Rating.Decimal.StringFixed(1)
		}
		fields := []string{
			strconv.FormatUint(uint64(p.ID), 10),
			clean(p.Name),
			p.Price.StringFixed(2),
			cleanMultiline(p.Description),
			clean(p.ImageURL),
			rating,
			formatBool(p.IsActive),
		}
		if _, err := bw.WriteString(strings.Join(fields, separator) + "\r\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteOrders writes order summaries with a BOM and a header line.
func WriteOrders(w io.Writer, summaries []models.OrderSummary) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(bom + OrderHeader + "\r\n"); err != nil {
		return err
	}
	for _, o := range summaries {
		fields := []string{
			strconv.FormatUint(uint64(o.OrderID), 10),
			clean(o.ClientName),
			o.CreatedAt.Format(DateLayout),
			o.TotalAmount.StringFixed(2),
			clean(o.Status),
			clean(o.Products),
		}
		if _, err := bw.WriteString(strings.Join(fields, separator) + "\r\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadResult is the outcome of parsing a products file.
type ReadResult struct {
	Products []models.Product
	Skipped  int
}

// ReadProducts parses a products file. The first line is a header. Blank
// lines are ignored. Rows with fewer than three fields, an empty name, or a
// price that is not a positive number are skipped and counted. The ID column
// is ignored; every row becomes a new product.
func ReadProducts(r io.Reader) (*ReadResult, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	res := &ReadResult{}
	header := true
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if header {
			header = false
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		p, ok := parseProduct(strings.Split(line, separator))
		if !ok {
			res.Skipped++
			continue
		}
		res.Products = append(res.Products, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products file: %w", err)
	}
	return res, nil
}

func parseProduct(parts []string) (models.Product, bool) {
	if len(parts) < 3 {
		return models.Product{}, false
	}
	name := strings.TrimSpace(parts[1])
	if name == "" {
		return models.Product{}, false
	}
	price, err := parseDecimal(parts[2])
	if err != nil || !price.IsPositive() {
		return models.Product{}, false
	}

	p := models.Product{
		Name:          name,
		Price:         price,
		StockQuantity: DefaultImportStock,
		IsActive:      true,
	}
	if len(parts) > 3 {
		p.Description = parts[3]
	}
	if len(parts) > 4 {
		p.ImageURL = strings.TrimSpace(parts[4])
	}
	if len(parts) > 5 {
		if rating, err := parseDecimal(parts[5]); err == nil && !rating.IsNegative() && !rating.GreaterThan(maxRating) {
			p.Rating = decimal.NewNullDecimal(rating)
		}
	}
	if len(parts) > 6 {
		if active, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(parts[6]))); err == nil {
			p.IsActive = active
		}
	}
	return p, true
}

// parseDecimal accepts both "12.50" and "12,50".
func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
}
