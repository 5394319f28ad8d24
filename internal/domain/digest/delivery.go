package digest

import (
	"context"
	"strconv"
	"strings"
	"time"

	"nexus/internal/domain/metrics"
	"nexus/internal/shared/messages"
)

// Notifier delivers a rendered message to every device of a user.
// *notification.Service satisfies it.
type Notifier interface {
	SendToUser(ctx context.Context, userID int64, title, body string, data map[string]string) error
}

// Publisher composes the cash summary digest and pushes it to the user
type Publisher struct {
	composer *Composer
	notifier Notifier
	catalog  *messages.Messages
	days     int
}

// NewPublisher creates a digest publisher covering the trailing days
func NewPublisher(composer *Composer, notifier Notifier, catalog *messages.Messages, days int) *Publisher {
	return &Publisher{composer: composer, notifier: notifier, catalog: catalog, days: days}
}

// Publish builds the digest for asOf and sends it
func (p *Publisher) Publish(ctx context.Context, userID int64, asOf time.Time) (*metrics.CashDigest, error) {
	d, err := p.composer.CashSummary(ctx, userID, p.days, asOf)
	if err != nil {
		return nil, err
	}

	text := Format(d, p.catalog)
	data := map[string]string{
		"route": "digest",
		"days":  strconv.Itoa(d.Days),
		"as_of": asOf.Format(time.DateOnly),
	}
	if err := p.notifier.SendToUser(ctx, userID, text.Title, text.Body, data); err != nil {
		return nil, err
	}
	return d, nil
}

// Format renders a digest through the message catalog
func Format(d *metrics.CashDigest, catalog *messages.Messages) messages.MessageText {
	vars := map[string]string{
		"days":     strconv.Itoa(d.Days),
		"cash_in":  d.CashIn.StringFixed(2),
		"cash_out": d.CashOut.StringFixed(2),
		"net":      d.Net.StringFixed(2),
	}

	if d.CashIn.IsZero() && d.CashOut.IsZero() {
		return catalog.CashDigestQuiet.Render(vars)
	}

	if len(d.TopExpenseCategories) == 0 {
		vars["top_spend"] = catalog.NoCategoriesLabel
	} else {
		parts := make([]string, 0, len(d.TopExpenseCategories))
		for _, c := range d.TopExpenseCategories {
			parts = append(parts, c.Category+" "+c.Total.StringFixed(2))
		}
		vars["top_spend"] = catalog.TopSpendPrefix + strings.Join(parts, ", ") + "."
	}

	vars["advice"] = ""
	if d.RevenueConcentrationRisk != nil {
		vars["advice"] = " " + *d.RevenueConcentrationRisk
	}

	return catalog.CashDigest.Render(vars)
}
