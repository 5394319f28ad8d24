package http

import (
	"net/http"
	"strconv"

	"nexus/internal/domain/category"
)

type CategoryHandler struct {
	categoryService *category.Service
}

func NewCategoryHandler(categoryService *category.Service) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

type CategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

// HandleCategories serves GET and POST /api/categories/
func (h *CategoryHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		categories, err := h.categoryService.ListCategories(r.Context())
		if err != nil {
			writeServiceError(w, err, "Failed to list categories")
			return
		}
		if categories == nil {
			categories = []*category.Category{}
		}
		writeJSON(w, http.StatusOK, categories)
	case http.MethodPost:
		var req CategoryRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		params := category.CreateParams{Description: req.Description, Color: req.Color}
		if req.Name != nil {
			params.Name = *req.Name
		}
		if err := params.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		c, err := h.categoryService.CreateCategory(r.Context(), params)
		if err != nil {
			writeServiceError(w, err, "Failed to create category")
			return
		}
		writeJSON(w, http.StatusCreated, c)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// HandleCategoryByID serves GET and PUT /api/categories/{id}
func (h *CategoryHandler) HandleCategoryByID(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	switch r.Method {
	case http.MethodGet:
		c, err := h.categoryService.GetCategory(r.Context(), id)
		if err != nil {
			writeServiceError(w, err, "Failed to get category")
			return
		}
		writeJSON(w, http.StatusOK, c)
	case http.MethodPut:
		var req CategoryRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		params := category.UpdateParams{Name: req.Name, Description: req.Description, Color: req.Color}
		if err := params.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		c, err := h.categoryService.UpdateCategory(r.Context(), id, params)
		if err != nil {
			writeServiceError(w, err, "Failed to update category")
			return
		}
		writeJSON(w, http.StatusOK, c)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
