package bankmsg

import (
	"strings"
	"testing"
	"time"

	"nexus/internal/domain/transaction"
)

func TestParse(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		text     string
		amount   string
		date     time.Time
		typ      transaction.Type
		descript string
	}{
		{
			name:     "rupee debit with day first date",
			text:     "Rs 1,234.56 debited from A/c XX1234 on 05/03/2026 at AMAZON",
			amount:   "1234.56",
			date:     time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
			typ:      transaction.TypeExpense,
			descript: "Rs 1,234.56 debited from A/c XX1234 on 05/03/2026 at AMAZON",
		},
		{
			name:   "dollar salary credit",
			text:   "Your account was credited with $2500.00 SALARY on 2026-02-28",
			amount: "2500",
			date:   time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
			typ:    transaction.TypeIncome,
		},
		{
			name:   "amount after currency code",
			text:   "Purchase of 45.90 EUR at Pharmacy Central",
			amount: "45.9",
			date:   time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
			typ:    transaction.TypeExpense,
		},
		{
			name:   "keyword amount",
			text:   "Card spent: 300 at Uber",
			amount: "300",
			date:   time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
			typ:    transaction.TypeExpense,
		},
		{
			name:   "m-pesa outgoing",
			text:   "TIH5CRR635 Confirmed. Ksh65.00 paid to Anthony Wambua. on 17/9/25 at 6:56 PM.New M-PESA balance is Ksh719.18.",
			amount: "65",
			date:   time.Date(2025, 9, 17, 0, 0, 0, 0, time.UTC),
			typ:    transaction.TypeExpense,
		},
		{
			name:   "m-pesa received",
			text:   "TJK1AB2CD3 Confirmed. You have received Ksh1,500.00 from JOHN DOE on 2/10/25 at 8:01 AM",
			amount: "1500",
			date:   time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC),
			typ:    transaction.TypeIncome,
		},
		{
			name: "impossible date falls back to today",
			text: "Debited: 10.00 on 31/02/2026",
			amount: "10",
			date:   time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
			typ:    transaction.TypeExpense,
		},
		{
			name:     "multi line uses first line",
			text:     "  Payment alert\nAmount: 99.99\nThanks",
			amount:   "99.99",
			date:     time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
			typ:      transaction.TypeExpense,
			descript: "Payment alert",
		},
		{
			name: "no amount",
			text: "Your statement is ready",
			date: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
			typ:  transaction.TypeExpense,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.text, now)

			if tt.amount == "" {
				if got.Amount != nil {
					t.Errorf("Amount = %s, want nil", got.Amount)
				}
			} else if got.Amount == nil || got.Amount.String() != tt.amount {
				t.Errorf("Amount = %v, want %s", got.Amount, tt.amount)
			}
			if !got.Date.Equal(tt.date) {
				t.Errorf("Date = %s, want %s", got.Date, tt.date)
			}
			if got.Type != tt.typ {
				t.Errorf("Type = %s, want %s", got.Type, tt.typ)
			}
			if tt.descript != "" && got.Description != tt.descript {
				t.Errorf("Description = %q, want %q", got.Description, tt.descript)
			}
		})
	}
}

func TestExtractDescription(t *testing.T) {
	if got := extractDescription("   "); got != fallbackDescription {
		t.Errorf("extractDescription(blank) = %q, want %q", got, fallbackDescription)
	}

	long := strings.Repeat("x", 600)
	got := extractDescription(long)
	if len(got) != maxDescriptionLength || !strings.HasSuffix(got, "...") {
		t.Errorf("extractDescription(long) has length %d", len(got))
	}
}
