package services_test

import (
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(name, price string) models.Product {
	return models.Product{
		Name:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: 10,
		IsActive:      true,
	}
}

func TestProductService_CreateAndGet(t *testing.T) {
	repo := repositories.NewMemoryProductRepository()
	productService := services.NewProductService(repo)

	p := product("  Laptop ", "1200.00")
	require.NoError(t, productService.CreateProduct(&p))
	assert.NotZero(t, p.ID)
	assert.Equal(t, "Laptop", p.Name)

	got, err := productService.GetProductByID(p.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(1200)))

	_, err = productService.GetProductByID(999)
	assert.Equal(t, services.KindNotFound, services.KindOf(err))
}

func TestProductService_Validation(t *testing.T) {
	productService := services.NewProductService(repositories.NewMemoryProductRepository())

	cases := map[string]models.Product{
		"empty name":     product(" ", "1"),
		"zero price":     product("Pen", "0"),
		"negative price": product("Pen", "-2"),
		"negative stock": func() models.Product { p := product("Pen", "1"); p.StockQuantity = -1; return p }(),
		"rating above 5": func() models.Product {
			p := product("Pen", "1")
			p.Rating = decimal.NewNullDecimal(decimal.RequireFromString("5.1"))
			return p
		}(),
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			err := productService.CreateProduct(&p)
			assert.ErrorIs(t, err, services.ErrValidation)
		})
	}
}

func TestProductService_UpdateAndDelete(t *testing.T) {
	repo := repositories.NewMemoryProductRepository()
	productService := services.NewProductService(repo)

	p := product("Mouse", "25")
	require.NoError(t, productService.CreateProduct(&p))

	p.Price = decimal.RequireFromString("19.99")
	p.IsActive = false
	require.NoError(t, productService.UpdateProduct(&p))

	got, err := productService.GetProductByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "19.99", got.Price.StringFixed(2))
	assert.False(t, got.IsActive)

	require.NoError(t, productService.DeleteProduct(p.ID))
	assert.Equal(t, services.KindNotFound, services.KindOf(productService.DeleteProduct(p.ID)))

	missing := product("Ghost", "1")
	missing.ID = 404
	assert.Equal(t, services.KindNotFound, services.KindOf(productService.UpdateProduct(&missing)))
}

func TestProductService_Search(t *testing.T) {
	repo := repositories.NewMemoryProductRepository()
	productService := services.NewProductService(repo)

	cheap := product("Zebra pen", "2")
	mid := product("Apple", "5")
	mid.Rating = decimal.NewNullDecimal(decimal.RequireFromString("4.8"))
	pricey := product("Mango", "9")
	pricey.Rating = decimal.NewNullDecimal(decimal.RequireFromString("4.4"))
	hidden := product("Apricot", "1")
	hidden.IsActive = false
	for _, p := range []*models.Product{&cheap, &mid, &pricey, &hidden} {
		require.NoError(t, productService.CreateProduct(p))
	}

	names := func(ps []models.Product) []string {
		var out []string
		for _, p := range ps {
			out = append(out, p.Name)
		}
		return out
	}

	all, err := productService.Search(repositories.ProductQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Apple", "Mango", "Zebra pen"}, names(all))

	byPrice, err := productService.Search(repositories.ProductQuery{Filter: repositories.FilterPrice})
	require.NoError(t, err)
	assert.Equal(t, []string{"Zebra pen", "Apple", "Mango"}, names(byPrice))

	top, err := productService.Search(repositories.ProductQuery{Filter: repositories.FilterTopRated})
	require.NoError(t, err)
	assert.Equal(t, []string{"Apple"}, names(top))

	text, err := productService.Search(repositories.ProductQuery{Text: " pen "})
	require.NoError(t, err)
	assert.Equal(t, []string{"Zebra pen"}, names(text))

	text, err = productService.Search(repositories.ProductQuery{Text: "ZEBRA"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Zebra pen"}, names(text))
}

func TestProductService_ImportProducts(t *testing.T) {
	repo := repositories.NewMemoryProductRepository()
	productService := services.NewProductService(repo)

	n, err := productService.ImportProducts([]models.Product{product("A", "1"), product("B", "2")})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = productService.ImportProducts([]models.Product{product("C", "1"), product("", "2")})
	assert.ErrorIs(t, err, services.ErrValidation)

	all, err := productService.GetAllProducts()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestParseProductFilter(t *testing.T) {
	f, ok := repositories.ParseProductFilter("top_rated")
	assert.True(t, ok)
	assert.Equal(t, repositories.FilterTopRated, f)

	_, ok = repositories.ParseProductFilter("cheapest")
	assert.False(t, ok)
}
