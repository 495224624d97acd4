package handlers

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"storefront/internal/csvio"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CatalogAdminHandler moves products in and out of spreadsheet files.
type CatalogAdminHandler struct {
	service *services.ProductService
	log     *zap.Logger
}

// NewCatalogAdminHandler creates a new CatalogAdminHandler.
func NewCatalogAdminHandler(service *services.ProductService, log *zap.Logger) *CatalogAdminHandler {
	return &CatalogAdminHandler{service: service, log: log}
}

// RegisterRoutes registers the import and export routes on admin.
func (h *CatalogAdminHandler) RegisterRoutes(admin fiber.Router) {
	admin.Post("/products/import", h.HandleImportProducts)
	admin.Get("/products/export", h.HandleExportProducts)
}

// HandleImportProducts adds every valid row of an uploaded products file.
// The file is read from the multipart field "file" or, failing that, from
// the raw request body.
func (h *CatalogAdminHandler) HandleImportProducts(c *fiber.Ctx) error {
	var src io.Reader = bytes.NewReader(c.Body())
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return badBody(c, err)
		}
		defer f.Close()
		src = f
	}

	parsed, err := csvio.ReadProducts(src)
	if err != nil {
		return badBody(c, err)
	}

	added, err := h.service.ImportProducts(parsed.Products)
	if err != nil {
		return fail(c, h.log, "Import failed", err)
	}
	h.log.Info("products imported", zap.Int("added", added), zap.Int("skipped", parsed.Skipped))
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Imported %d products", added),
		"added":   added,
		"skipped": parsed.Skipped,
	})
}

// HandleExportProducts downloads the whole catalog, inactive products included.
func (h *CatalogAdminHandler) HandleExportProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		return fail(c, h.log, "Could not export products", err)
	}

	var buf bytes.Buffer
	if err := csvio.WriteProducts(&buf, products); err != nil {
		return fail(c, h.log, "Could not export products", err)
	}
	return sendCSV(c, fmt.Sprintf("Products_Export_%s.csv", time.Now().Format("20060102")), buf.Bytes())
}
