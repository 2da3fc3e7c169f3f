package products

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mytheresa/product-catalog/app/api"
	"github.com/mytheresa/product-catalog/models"
)

// maxBodyBytes bounds request bodies, seed lists included.
const maxBodyBytes = 1 << 20

type ProductStore interface {
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, p *models.Product) error
	Find(ctx context.Context, id uint) (*models.Product, error)
	List(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
	Reset(ctx context.Context, seed []*models.Product) error
}

type ProductHandler struct {
	repo ProductStore
	log  *zap.Logger
}

func NewProductHandler(r ProductStore, l *zap.Logger) *ProductHandler {
	return &ProductHandler{
		repo: r,
		log:  l,
	}
}

// HandleGet serves GET /products/{id}.
func (h *ProductHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok || id == 0 {
		notFound(w, r.PathValue("id"))
		return
	}
	h.log.Debug("retrieve product", zap.Uint("id", id))

	product, err := h.repo.Find(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			notFound(w, r.PathValue("id"))
			return
		}
		h.storeFailure(w, r, err, "Failed to retrieve product")
		return
	}

	api.WriteJSON(w, http.StatusOK, product.Serialize())
}

// HandleUpdate serves PUT /products/{id}. Fields missing from the body keep
// their stored values.
func (h *ProductHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok || id == 0 {
		notFound(w, r.PathValue("id"))
		return
	}
	h.log.Debug("update product", zap.Uint("id", id))

	product, err := h.repo.Find(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			notFound(w, r.PathValue("id"))
			return
		}
		h.storeFailure(w, r, err, "Failed to retrieve product")
		return
	}

	data, err := models.DecodePayload(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := product.Merge(data); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.Update(r.Context(), product); err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			notFound(w, r.PathValue("id"))
			return
		}
		h.writeWriteError(w, r, err, "Failed to update product")
		return
	}

	api.WriteJSON(w, http.StatusOK, product.Serialize())
}

// HandleDelete serves DELETE /products/{id}. It answers 204 whether or not
// the product existed.
func (h *ProductHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		notFound(w, r.PathValue("id"))
		return
	}
	if id == 0 {
		api.NoContent(w)
		return
	}
	h.log.Debug("delete product", zap.Uint("id", id))

	product, err := h.repo.Find(r.Context(), id)
	switch {
	case errors.Is(err, models.ErrProductNotFound):
		api.NoContent(w)
		return
	case err != nil:
		h.storeFailure(w, r, err, "Failed to delete product")
		return
	}

	if err := h.repo.Delete(r.Context(), product); err != nil {
		h.storeFailure(w, r, err, "Failed to delete product")
		return
	}
	api.NoContent(w)
}

// HandleList serves GET /products with at most one filter applied.
func (h *ProductHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.log.Debug("list products", zap.Int("filter", int(filter.Kind)))

	res, err := h.repo.List(r.Context(), filter)
	if err != nil {
		var vErr *models.ValidationError
		if errors.As(err, &vErr) {
			api.WriteError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		h.storeFailure(w, r, err, "Failed to list products")
		return
	}

	products := make([]map[string]any, len(res))
	for i := range res {
		products[i] = res[i].Serialize()
	}
	api.WriteJSON(w, http.StatusOK, products)
}

// HandleCreate serves POST /products.
func (h *ProductHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	data, err := models.DecodePayload(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var product models.Product
	if err := product.Deserialize(data); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.Create(r.Context(), &product); err != nil {
		h.writeWriteError(w, r, err, "Failed to create product")
		return
	}
	h.log.Info("product created", zap.Uint("id", product.ID), zap.String("name", product.Name))

	w.Header().Set("Location", fmt.Sprintf("/products/%d", product.ID))
	api.WriteJSON(w, http.StatusCreated, product.Serialize())
}

// HandleReset serves POST /products/reset. An optional JSON array body is
// inserted after the table is cleared.
func (h *ProductHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var seed []*models.Product
	if len(bytes.TrimSpace(raw)) > 0 {
		payloads, err := models.DecodePayloads(bytes.NewReader(raw))
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		seed = make([]*models.Product, len(payloads))
		for i, data := range payloads {
			seed[i] = &models.Product{}
			if err := seed[i].Deserialize(data); err != nil {
				api.WriteError(w, http.StatusBadRequest, fmt.Sprintf("product %d: %v", i, err))
				return
			}
		}
	}

	if err := h.repo.Reset(r.Context(), seed); err != nil {
		h.writeWriteError(w, r, err, "Failed to reset products")
		return
	}
	h.log.Info("products reset", zap.Int("seeded", len(seed)))
	api.NoContent(w)
}

// writeWriteError maps a failed create, update or reset.
func (h *ProductHandler) writeWriteError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var dErr *models.DataValidationError
	if !errors.As(err, &dErr) {
		h.storeFailure(w, r, err, msg)
		return
	}

	reason := "product violates a store constraint"
	var vErr *models.ValidationError
	if errors.As(dErr, &vErr) {
		reason = vErr.Error()
	}
	h.log.Warn("product rejected", zap.String("path", r.URL.Path), zap.Error(err))
	api.WriteError(w, http.StatusUnprocessableEntity, reason)
}

// storeFailure logs the cause and replies with a generic 500.
func (h *ProductHandler) storeFailure(w http.ResponseWriter, r *http.Request, err error, msg string) {
	h.log.Error(msg,
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	api.WriteError(w, http.StatusInternalServerError, msg)
}

func notFound(w http.ResponseWriter, id string) {
	api.WriteError(w, http.StatusNotFound, fmt.Sprintf("Product with id '%s' was not found.", id))
}

// productID parses the {id} path value. ok is false when it is not a
// decimal integer. Integers no stored product can carry, zero or anything
// beyond the signed range the store binds, come back as 0.
func productID(r *http.Request) (id uint, ok bool) {
	n, err := strconv.ParseUint(r.PathValue("id"), 10, strconv.IntSize-1)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, true
		}
		return 0, false
	}
	return uint(n), true
}

var truthyTokens = map[string]bool{
	"true": true,
	"1":    true,
	"t":    true,
	"y":    true,
	"yes":  true,
}

// parseFilter picks one filter in priority order name, category, available.
// An empty name or category counts as absent; available counts as present
// even when empty.
func parseFilter(q url.Values) (models.ProductFilter, error) {
	if name := q.Get("name"); name != "" {
		return models.ProductFilter{Kind: models.FilterByName, Name: name}, nil
	}
	if label := q.Get("category"); label != "" {
		category, err := models.ParseCategory(label)
		if err != nil {
			return models.ProductFilter{}, err
		}
		return models.ProductFilter{Kind: models.FilterByCategory, Category: category}, nil
	}
	if q.Has("available") {
		available := truthyTokens[strings.ToLower(q.Get("available"))]
		return models.ProductFilter{Kind: models.FilterByAvailability, Available: available}, nil
	}
	return models.ProductFilter{Kind: models.FilterNone}, nil
}
