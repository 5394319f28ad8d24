package http

import (
	"net/http"
	"testing"

	"nexus/internal/domain/category"
)

func TestHandleCategories(t *testing.T) {
	env := newTestEnv(t)
	h := NewCategoryHandler(env.categories)

	rr := call(t, h.HandleCategories, http.MethodGet, "/api/categories/", 1, "")
	var seeded []category.Category
	decodeBody(t, rr, &seeded)
	if len(seeded) != len(category.Defaults()) {
		t.Fatalf("expected %d default categories, got %d", len(category.Defaults()), len(seeded))
	}

	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{"Create", `{"name":"Payroll","color":"#123456"}`, http.StatusCreated},
		{"Duplicate name ignoring case", `{"name":"groceries"}`, http.StatusConflict},
		{"Missing name", `{"color":"#000"}`, http.StatusBadRequest},
		{"Color too long", `{"name":"Travel","color":"#0123456789abcdef01234"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := call(t, h.HandleCategories, http.MethodPost, "/api/categories/", 1, tt.body)
			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v (%s)", rr.Code, tt.expectedStatus, rr.Body.String())
			}
		})
	}
}

func TestHandleCategoryByID(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		id             string
		body           string
		expectedStatus int
		expectedName   string
	}{
		{"Get", http.MethodGet, "1", "", http.StatusOK, "Groceries"},
		{"Get unknown", http.MethodGet, "999", "", http.StatusNotFound, ""},
		{"Bad id", http.MethodGet, "abc", "", http.StatusBadRequest, ""},
		{"Rename", http.MethodPut, "1", `{"name":"Food"}`, http.StatusOK, "Food"},
		{"Rename onto existing", http.MethodPut, "1", `{"name":"Dining"}`, http.StatusConflict, ""},
		{"Empty name", http.MethodPut, "1", `{"name":""}`, http.StatusBadRequest, ""},
		{"Delete not allowed", http.MethodDelete, "1", "", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			h := NewCategoryHandler(env.categories)

			rr := call(t, h.HandleCategoryByID, tt.method, "/api/categories/"+tt.id, 1, tt.body, "id", tt.id)
			if rr.Code != tt.expectedStatus {
				t.Fatalf("handler returned wrong status code: got %v want %v (%s)", rr.Code, tt.expectedStatus, rr.Body.String())
			}
			if tt.expectedName != "" {
				var c category.Category
				decodeBody(t, rr, &c)
				if c.Name != tt.expectedName {
					t.Errorf("expected name %q, got %q", tt.expectedName, c.Name)
				}
			}
		})
	}
}
