package app

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/mytheresa/product-catalog/app/api"
	"github.com/mytheresa/product-catalog/app/categories"
	"github.com/mytheresa/product-catalog/app/database"
	"github.com/mytheresa/product-catalog/app/logging"
	"github.com/mytheresa/product-catalog/app/products"
	"github.com/mytheresa/product-catalog/models"
)

// NewRouter wires the repositories and handlers over the store handle.
func NewRouter(d *database.Database, l *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	products.NewProductHandler(models.NewProductsRepository(d.DB), l.Named("products")).Register(mux)
	categories.NewCategoryHandler(models.Categories).Register(mux)
	mux.HandleFunc("GET /health", healthHandler(d, l))

	return logging.Middleware(l.Named("http"), mux)
}

type pinger interface {
	Ping(ctx context.Context) error
}

func healthHandler(p pinger, l *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := p.Ping(r.Context()); err != nil {
			l.Warn("health check failed", zap.Error(err))
			api.WriteError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	}
}
