package products

import "net/http"

// Register mounts the product routes on mux.
func (h *ProductHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /products", h.HandleList)
	mux.HandleFunc("POST /products", h.HandleCreate)
	mux.HandleFunc("GET /products/{id}", h.HandleGet)
	mux.HandleFunc("PUT /products/{id}", h.HandleUpdate)
	mux.HandleFunc("DELETE /products/{id}", h.HandleDelete)

	// test-support endpoint; the acceptance harness uses DELETE
	mux.HandleFunc("POST /products/reset", h.HandleReset)
	mux.HandleFunc("DELETE /products/reset", h.HandleReset)
}
