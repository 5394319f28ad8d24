package messages

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

//go:embed messages.json
var defaultCatalog []byte

type MessageText struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Render substitutes {name} placeholders in title and body
func (m MessageText) Render(vars map[string]string) MessageText {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)
	return MessageText{Title: r.Replace(m.Title), Body: r.Replace(m.Body)}
}

type Messages struct {
	CashDigest        MessageText `json:"cash_digest"`
	CashDigestQuiet   MessageText `json:"cash_digest_quiet"`
	RecurringRun      MessageText `json:"recurring_run"`
	TopSpendPrefix    string      `json:"top_spend_prefix"`
	NoCategoriesLabel string      `json:"no_categories_label"`
}

var (
	loaded   Messages
	loadOnce sync.Once
	loadErr  error
)

// Load reads the notifications JSON file and caches the result. An empty path
// loads the built in catalog. Safe to call from multiple goroutines.
func Load(path string) (*Messages, error) {
	loadOnce.Do(func() {
		data := defaultCatalog
		if path != "" {
			var err error
			data, err = os.ReadFile(path)
			if err != nil {
				loadErr = fmt.Errorf("failed to read messages file: %w", err)
				return
			}
		}
		loaded, loadErr = parse(data)
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return &loaded, nil
}

// Default returns the built in catalog without touching the cache
func Default() *Messages {
	m, err := parse(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return &m
}

func parse(data []byte) (Messages, error) {
	var m Messages
	if err := json.Unmarshal(data, &m); err != nil {
		return Messages{}, fmt.Errorf("failed to parse messages file: %w", err)
	}
	return m, nil
}
