package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"

	"nexus/internal/domain/transaction"
)

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "placeholders kept",
			query: "SELECT id FROM accounts WHERE id = $1 AND user_id = $12",
			want:  "SELECT id FROM accounts WHERE id = $1 AND user_id = $12",
		},
		{
			name:  "string literal masked",
			query: "SELECT 1 FROM categories WHERE name = 'Groceries'",
			want:  "SELECT ? FROM categories WHERE name = '?'",
		},
		{
			name:  "escaped quote inside literal",
			query: "UPDATE t SET v = 'it''s' WHERE id = $1",
			want:  "UPDATE t SET v = '?' WHERE id = $1",
		},
		{
			name:  "decimal literal masked",
			query: "SELECT * FROM transactions WHERE amount > 12.50",
			want:  "SELECT * FROM transactions WHERE amount > ?",
		},
		{
			name:  "identifier digits kept",
			query: "SELECT col1 FROM t2",
			want:  "SELECT col1 FROM t2",
		},
		{
			name:  "whitespace collapsed",
			query: "\n\t\tSELECT id\n\t\tFROM accounts\n",
			want:  "SELECT id FROM accounts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeQuery(tt.query); got != tt.want {
				t.Errorf("sanitizeQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeQuery_Truncates(t *testing.T) {
	q := "SELECT " + strings.Repeat("a", 400)
	got := sanitizeQuery(q)
	if len(got) != 259 || !strings.HasSuffix(got, "...") {
		t.Errorf("sanitizeQuery() length = %d, want 259 ending in ...", len(got))
	}
}

func TestExtractSQLVerb(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"SELECT 1", "SELECT"},
		{"\n\t\tinsert into accounts", "INSERT"},
		{"update", "UPDATE"},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := extractSQLVerb(tt.query); got != tt.want {
			t.Errorf("extractSQLVerb(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestListConditions(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC)
	categoryID := int64(3)

	where, args := listConditions(7, transaction.ListFilter{
		AccountID:  "acc-1",
		CategoryID: &categoryID,
		StartDate:  &start,
		EndDate:    &end,
	})

	wantWhere := "user_id = $1 AND account_id = $2 AND category_id = $3 AND transaction_date >= $4 AND transaction_date <= $5"
	if where != wantWhere {
		t.Errorf("where = %q, want %q", where, wantWhere)
	}

	wantArgs := []any{int64(7), "acc-1", int64(3), "2026-01-01", "2026-01-31"}
	if len(args) != len(wantArgs) {
		t.Fatalf("got %d args, want %d", len(args), len(wantArgs))
	}
	for i := range wantArgs {
		if args[i] != wantArgs[i] {
			t.Errorf("args[%d] = %v, want %v", i, args[i], wantArgs[i])
		}
	}
}

func TestListConditions_UserOnly(t *testing.T) {
	where, args := listConditions(7, transaction.ListFilter{})
	if where != "user_id = $1" || len(args) != 1 {
		t.Errorf("listConditions() = %q with %d args, want user filter only", where, len(args))
	}
}

func TestMigrationFiles(t *testing.T) {
	files, err := migrationFiles()
	if err != nil {
		t.Fatalf("migrationFiles() unexpected error: %v", err)
	}
	if len(files) == 0 || files[0] != "001_init.sql" {
		t.Errorf("migrationFiles() = %v, want 001_init.sql first", files)
	}
	for i := 1; i < len(files); i++ {
		if files[i-1] >= files[i] {
			t.Errorf("migrations out of order: %s before %s", files[i-1], files[i])
		}
	}
}

func TestPoolConfigDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   PoolConfig
		want PoolConfig
	}{
		{"zero value", PoolConfig{}, PoolConfig{25, 5, 5 * time.Minute}},
		{"explicit", PoolConfig{50, 10, time.Minute}, PoolConfig{50, 10, time.Minute}},
		{"idle capped by open", PoolConfig{MaxOpenConns: 3, MaxIdleConns: 8}, PoolConfig{3, 3, 5 * time.Minute}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.withDefaults(); got != tt.want {
				t.Errorf("withDefaults() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestIsMissingCategory(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transaction category", &pq.Error{Code: "23503", Constraint: "transactions_category_id_fkey"}, true},
		{"template category, wrapped", fmt.Errorf("insert: %w", &pq.Error{Code: "23503", Constraint: "recurring_transactions_category_id_fkey"}), true},
		{"account reference", &pq.Error{Code: "23503", Constraint: "transactions_account_id_fkey"}, false},
		{"unique violation", &pq.Error{Code: "23505", Constraint: "categories_name_key"}, false},
		{"other error", errors.New("connection reset"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isMissingCategory(tt.err); got != tt.want {
				t.Errorf("isMissingCategory(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
