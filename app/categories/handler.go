package categories

import (
	"net/http"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mytheresa/product-catalog/app/api"
	"github.com/mytheresa/product-catalog/models"
)

type CategoryResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CategoryProvider lists the categories a product may belong to.
type CategoryProvider func() []models.Category

type CategoryHandler struct {
	categories CategoryProvider
}

func NewCategoryHandler(p CategoryProvider) *CategoryHandler {
	return &CategoryHandler{categories: p}
}

// HandleGetAll serves GET /categories so clients can fill a category picker.
func (h *CategoryHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	categories := h.categories()
	title := cases.Title(language.English)

	response := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		response[i] = CategoryResponse{
			Code: c.String(),
			Name: title.String(strings.ToLower(c.String())),
		}
	}

	api.WriteJSON(w, http.StatusOK, response)
}

func (h *CategoryHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /categories", h.HandleGetAll)
}
