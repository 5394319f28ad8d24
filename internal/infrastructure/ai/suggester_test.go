package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"

	"nexus/internal/domain/bankmsg"
	"nexus/internal/domain/category"
	"nexus/internal/domain/transaction"
)

func testCategories() []*category.Category {
	return []*category.Category{
		{ID: 1, Name: "Groceries"},
		{ID: 2, Name: "Dining"},
	}
}

// capturedRequest is the part of the chat completion request the tests check
type capturedRequest struct {
	Model          string `json:"model"`
	ResponseFormat *struct {
		Type       string `json:"type"`
		JSONSchema *struct {
			Name   string          `json:"name"`
			Schema json.RawMessage `json:"schema"`
			Strict bool            `json:"strict"`
		} `json:"json_schema"`
	} `json:"response_format"`
}

func completionServer(t *testing.T, content string, status int) (*httptest.Server, *capturedRequest) {
	t.Helper()
	var got capturedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":{"message":"upstream failure","type":"server_error"}}`)
			return
		}
		resp := openai.ChatCompletionResponse{
			ID:     "cmpl-1",
			Object: "chat.completion",
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
				FinishReason: openai.FinishReasonStop,
			}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func input() bankmsg.SuggestInput {
	return bankmsg.SuggestInput{
		Amount:      decimal.NewFromInt(450),
		Description: "Cafe Java",
		Type:        transaction.TypeExpense,
	}
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantID  *int64
		wantErr bool
	}{
		{name: "known category", content: `{"category":"Dining"}`, wantID: ptr(2)},
		{name: "none", content: `{"category":"none"}`},
		{name: "unknown name", content: `{"category":"Travel"}`},
		{name: "malformed answer", content: `not json`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, req := completionServer(t, tt.content, http.StatusOK)
			s := New("key", srv.URL, "test-model", time.Second)

			id, err := s.Suggest(context.Background(), input(), testCategories())
			if tt.wantErr {
				if err == nil {
					t.Fatal("Suggest() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Suggest() unexpected error: %v", err)
			}
			if (id == nil) != (tt.wantID == nil) || (id != nil && *id != *tt.wantID) {
				t.Errorf("Suggest() = %v, want %v", id, tt.wantID)
			}
			if req.Model != "test-model" {
				t.Errorf("request model = %q, want test-model", req.Model)
			}
			if req.ResponseFormat == nil || req.ResponseFormat.JSONSchema == nil {
				t.Fatal("request has no JSON schema response format")
			}
			if !req.ResponseFormat.JSONSchema.Strict {
				t.Error("JSON schema is not strict")
			}
		})
	}
}

func TestSuggest_UpstreamError(t *testing.T) {
	srv, _ := completionServer(t, "", http.StatusInternalServerError)
	s := New("key", srv.URL, "test-model", time.Second)

	if _, err := s.Suggest(context.Background(), input(), testCategories()); err == nil {
		t.Fatal("Suggest() expected error, got nil")
	}
}

func TestSuggest_NoCategories(t *testing.T) {
	s := New("key", "http://127.0.0.1:1", "test-model", time.Second)

	id, err := s.Suggest(context.Background(), input(), nil)
	if err != nil || id != nil {
		t.Errorf("Suggest() = %v, %v, want nil, nil", id, err)
	}
}

func TestCategorySchema(t *testing.T) {
	raw, err := categorySchema(testCategories())
	if err != nil {
		t.Fatalf("categorySchema() unexpected error: %v", err)
	}

	var schema struct {
		Properties struct {
			Category struct {
				Enum []string `json:"enum"`
			} `json:"category"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(raw, &schema); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}

	want := []string{"Groceries", "Dining", "none"}
	got := schema.Properties.Category.Enum
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("enum = %v, want %v", got, want)
	}
}

func ptr(v int64) *int64 { return &v }
