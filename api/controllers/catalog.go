package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/speedsterx/storefront-backend/api/responses"
	"github.com/speedsterx/storefront-backend/api/validators"
	"github.com/speedsterx/storefront-backend/internal/categories"
	productsvc "github.com/speedsterx/storefront-backend/internal/products"
	pkgerrors "github.com/speedsterx/storefront-backend/pkg/errors"
	"github.com/speedsterx/storefront-backend/pkg/logger"
	"github.com/speedsterx/storefront-backend/pkg/pagination"
)

// CatalogListProducts serves the public storefront listing with filters,
// sorting and pagination.
func CatalogListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		input, err := parseCatalogQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// CatalogGetProduct serves one active product by slug.
func CatalogGetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		product, err := svc.GetBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// CatalogCategoryTree serves the active category hierarchy.
func CatalogCategoryTree(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		tree, err := svc.Tree(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, tree)
	}
}

func parseCatalogQuery(r *http.Request) (productsvc.ListProductsInput, error) {
	q := r.URL.Query()

	input := productsvc.ListProductsInput{
		CategorySlug: strings.TrimSpace(q.Get("category")),
		Search:       validators.SanitizeString(q.Get("search"), 200),
		Sort:         strings.TrimSpace(q.Get("sort")),
		InStock:      q.Get("in_stock") == "true",
	}

	if v := strings.TrimSpace(q.Get("brand")); v != "" {
		input.Brand = &v
	}
	if v := strings.TrimSpace(q.Get("scale")); v != "" {
		input.Scale = &v
	}
	if v := strings.TrimSpace(q.Get("type")); v != "" {
		input.Type = &v
	}

	var err error
	if input.MinPrice, err = parsePriceParam(q.Get("min_price"), "min_price"); err != nil {
		return productsvc.ListProductsInput{}, err
	}
	if input.MaxPrice, err = parsePriceParam(q.Get("max_price"), "max_price"); err != nil {
		return productsvc.ListProductsInput{}, err
	}

	if input.Page, err = validators.ParseQueryInt(r, "page", 1, 1, 1_000_000); err != nil {
		return productsvc.ListProductsInput{}, err
	}
	if input.Limit, err = validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit); err != nil {
		return productsvc.ListProductsInput{}, err
	}

	return input, nil
}

func parsePriceParam(raw, name string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	if value.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, name+" cannot be negative")
	}
	return &value, nil
}
