package bankmsg

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"nexus/internal/domain/transaction"
)

const (
	maxDescriptionLength = 500
	fallbackDescription  = "From banking message"
)

// Tried in order, the first capture that parses wins
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:INR|Rs\.?|USD|\$|EUR|€|Ksh)\s*([\d,]+(?:\.\d{2})?)`),
	regexp.MustCompile(`(?i)([\d,]+(?:\.\d{2})?)\s*(?:INR|Rs\.?|USD|EUR|Ksh)`),
	regexp.MustCompile(`(?i)amount[:\s]+([\d,]+(?:\.\d{2})?)`),
	regexp.MustCompile(`(?i)debited[:\s]+([\d,]+(?:\.\d{2})?)`),
	regexp.MustCompile(`(?i)credited[:\s]+([\d,]+(?:\.\d{2})?)`),
	regexp.MustCompile(`(?i)(?:spent|paid|withdrawn)[:\s]+([\d,]+(?:\.\d{2})?)`),
	regexp.MustCompile(`\b([\d,]+\.\d{2})\b`),
}

var (
	dayFirstDate  = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{4})`)
	yearFirstDate = regexp.MustCompile(`(\d{4})[/-](\d{1,2})[/-](\d{1,2})`)
	// M-PESA style "on 17/9/25"
	shortYearDate = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{2})\b`)
)

// Anything not recognized as income is booked as an expense
var incomeKeywords = []string{"credited", "deposit", "salary", "received", "refund"}

// Parsed holds the fields extracted from a raw message
type Parsed struct {
	Amount      *decimal.Decimal
	Date        time.Time
	Description string
	Type        transaction.Type
}

// Parse extracts amount, date, description and type from a bank message.
// A message without a recognizable date is dated today.
func Parse(text string, now time.Time) Parsed {
	return Parsed{
		Amount:      extractAmount(text),
		Date:        extractDate(text, now),
		Description: extractDescription(text),
		Type:        inferType(text),
	}
}

func extractAmount(text string) *decimal.Decimal {
	for _, re := range amountPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
		if err != nil {
			continue
		}
		return &amount
	}
	return nil
}

func extractDate(text string, now time.Time) time.Time {
	if m := dayFirstDate.FindStringSubmatch(text); m != nil {
		if d, ok := makeDate(m[3], m[2], m[1], 0); ok {
			return d
		}
	}
	if m := yearFirstDate.FindStringSubmatch(text); m != nil {
		if d, ok := makeDate(m[1], m[2], m[3], 0); ok {
			return d
		}
	}
	if m := shortYearDate.FindStringSubmatch(text); m != nil {
		if d, ok := makeDate(m[3], m[2], m[1], 2000); ok {
			return d
		}
	}
	return transaction.StartOfDay(now)
}

// makeDate rejects dates time.Date would normalize, such as 31/02
func makeDate(year, month, day string, century int) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	mo, err := strconv.Atoi(month)
	if err != nil {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}, false
	}
	y += century

	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func extractDescription(text string) string {
	text = strings.TrimSpace(text)
	line := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
	if line == "" {
		line = text
	}
	if runes := []rune(line); len(runes) > maxDescriptionLength {
		line = string(runes[:maxDescriptionLength-3]) + "..."
	}
	if line == "" {
		return fallbackDescription
	}
	return line
}

func inferType(text string) transaction.Type {
	lower := strings.ToLower(text)
	if containsAny(lower, incomeKeywords) {
		return transaction.TypeIncome
	}
	return transaction.TypeExpense
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
