package messages

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	m := Default()
	if m.CashDigest.Title == "" || m.CashDigest.Body == "" {
		t.Fatal("default catalog is missing the cash digest text")
	}
	if m.TopSpendPrefix == "" {
		t.Error("default catalog is missing the top spend prefix")
	}
}

func TestRender(t *testing.T) {
	text := MessageText{Title: "Your {days}-day digest", Body: "In {cash_in}, out {cash_out}"}

	got := text.Render(map[string]string{"days": "7", "cash_in": "10.00", "cash_out": "4.50"})
	if got.Title != "Your 7-day digest" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Body != "In 10.00, out 4.50" {
		t.Errorf("Body = %q", got.Body)
	}

	untouched := text.Render(nil)
	if untouched != text {
		t.Errorf("Render(nil) = %+v, want unchanged", untouched)
	}
}

func TestParse_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parse(data); err == nil {
		t.Error("parse() expected error for malformed JSON")
	}
}
