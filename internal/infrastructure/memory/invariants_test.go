package memory_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"nexus/internal/domain/account"
	"nexus/internal/domain/recurring"
	"nexus/internal/domain/transaction"
	"nexus/internal/infrastructure/memory"
)

// ledgerMatches checks every account balance equals its opening balance plus
// the signed effects of the transactions it holds
func ledgerMatches(t *testing.T, store *memory.Store, userID int64, opening map[string]decimal.Decimal) {
	t.Helper()
	ctx := context.Background()

	txns, err := store.Transactions().List(ctx, userID, transaction.ListFilter{Limit: 1 << 20})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	expected := make(map[string]decimal.Decimal, len(opening))
	for id, b := range opening {
		expected[id] = b
	}
	for _, txn := range txns {
		expected[txn.AccountID] = expected[txn.AccountID].Add(txn.Effect())
	}

	for id, want := range expected {
		if got := balanceOf(t, store, id); !got.Equal(want) {
			t.Fatalf("account %s balance = %s, want %s", id, got, want)
		}
	}
}

func TestBalanceInvariant_RandomSequences(t *testing.T) {
	for _, seed := range []int64{1, 7, 42, 2026} {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			ctx := context.Background()
			rng := rand.New(rand.NewSource(seed))
			store := memory.New()
			svc := transaction.NewService(store.Transactions(), store.Accounts(), store)

			ids := []string{"acc-a", "acc-b", "acc-c"}
			opening := map[string]decimal.Decimal{}
			for i, id := range ids {
				mustAccount(t, store, id, 1, fmt.Sprintf("%d", (i+1)*500))
				opening[id] = decimal.NewFromInt(int64((i + 1) * 500))
			}

			var live []string
			randomAmount := func() decimal.Decimal {
				return decimal.New(rng.Int63n(100000), -2)
			}
			randomType := func() transaction.Type {
				if rng.Intn(2) == 0 {
					return transaction.TypeIncome
				}
				return transaction.TypeExpense
			}

			for step := 0; step < 300; step++ {
				switch op := rng.Intn(10); {
				case op < 5 || len(live) == 0:
					desc := fmt.Sprintf("step %d", step)
					txn, err := svc.CreateTransaction(ctx, transaction.CreateParams{
						UserID:      1,
						AccountID:   ids[rng.Intn(len(ids))],
						Type:        randomType(),
						Amount:      randomAmount(),
						Date:        day(2026, 1, 1+rng.Intn(28)),
						Description: &desc,
					})
					if err != nil {
						t.Fatalf("step %d create: %v", step, err)
					}
					live = append(live, txn.ID)

				case op < 8:
					id := live[rng.Intn(len(live))]
					var patch transaction.UpdateParams
					if rng.Intn(2) == 0 {
						amount := randomAmount()
						patch.Amount = &amount
					}
					if rng.Intn(2) == 0 {
						typ := randomType()
						patch.Type = &typ
					}
					if rng.Intn(3) == 0 {
						acc := ids[rng.Intn(len(ids))]
						patch.AccountID = &acc
					}
					if _, err := svc.UpdateTransaction(ctx, id, 1, patch); err != nil {
						t.Fatalf("step %d update: %v", step, err)
					}

				default:
					i := rng.Intn(len(live))
					if err := svc.DeleteTransaction(ctx, live[i], 1); err != nil {
						t.Fatalf("step %d delete: %v", step, err)
					}
					live = append(live[:i], live[i+1:]...)
				}

				ledgerMatches(t, store, 1, opening)
			}
		})
	}
}

func TestUpdateRoundTripRestoresBalances(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mustAccount(t, store, "a", 1, "1000")
	mustAccount(t, store, "b", 1, "0")
	svc := transaction.NewService(store.Transactions(), store.Accounts(), store)

	txn, err := svc.CreateTransaction(ctx, transaction.CreateParams{
		UserID: 1, AccountID: "a", Type: transaction.TypeExpense, Amount: dec("120.55"), Date: day(2026, 2, 1),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	before := map[string]decimal.Decimal{"a": balanceOf(t, store, "a"), "b": balanceOf(t, store, "b")}

	toB, toA := "b", "a"
	income := transaction.TypeIncome
	expense := transaction.TypeExpense
	bigger := dec("999.99")
	original := dec("120.55")

	// A -> B with a different type and amount, then back
	if _, err := svc.UpdateTransaction(ctx, txn.ID, 1, transaction.UpdateParams{AccountID: &toB, Type: &income, Amount: &bigger}); err != nil {
		t.Fatalf("update to B: %v", err)
	}
	if got := balanceOf(t, store, "b"); !got.Equal(dec("999.99")) {
		t.Errorf("B balance after move = %s, want 999.99", got)
	}
	if _, err := svc.UpdateTransaction(ctx, txn.ID, 1, transaction.UpdateParams{AccountID: &toA, Type: &expense, Amount: &original}); err != nil {
		t.Fatalf("update back to A: %v", err)
	}

	for id, want := range before {
		if got := balanceOf(t, store, id); !got.Equal(want) {
			t.Errorf("account %s balance = %s, want %s", id, got, want)
		}
	}
}

func TestCreateThenDeleteRestoresBalance(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mustAccount(t, store, "a", 1, "73.10")
	svc := transaction.NewService(store.Transactions(), store.Accounts(), store)

	for _, typ := range []transaction.Type{transaction.TypeIncome, transaction.TypeExpense} {
		txn, err := svc.CreateTransaction(ctx, transaction.CreateParams{
			UserID: 1, AccountID: "a", Type: typ, Amount: dec("19.99"), Date: day(2026, 2, 1),
		})
		if err != nil {
			t.Fatalf("create %s: %v", typ, err)
		}
		if err := svc.DeleteTransaction(ctx, txn.ID, 1); err != nil {
			t.Fatalf("delete %s: %v", typ, err)
		}
		if got := balanceOf(t, store, "a"); !got.Equal(dec("73.10")) {
			t.Errorf("balance after %s create+delete = %s, want 73.10", typ, got)
		}
	}
}

func TestForeignAccountLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mustAccount(t, store, "theirs", 2, "10")
	svc := transaction.NewService(store.Transactions(), store.Accounts(), store)

	_, err := svc.CreateTransaction(ctx, transaction.CreateParams{
		UserID: 1, AccountID: "theirs", Type: transaction.TypeExpense, Amount: dec("5"), Date: day(2026, 2, 1),
	})
	if !errors.Is(err, account.ErrAccountNotFound) {
		t.Fatalf("error = %v, want %v", err, account.ErrAccountNotFound)
	}
	if got := balanceOf(t, store, "theirs"); !got.Equal(dec("10")) {
		t.Errorf("balance = %s, want 10", got)
	}
	if txns, _ := store.Transactions().List(ctx, 1, transaction.ListFilter{Limit: 10}); len(txns) != 0 {
		t.Errorf("found %d transactions for user 1", len(txns))
	}
}

func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	accounts := account.NewService(store.Accounts())
	svc := transaction.NewService(store.Transactions(), store.Accounts(), store)

	acc, err := accounts.CreateAccount(ctx, account.CreateParams{
		UserID: 1, Name: "Operating", AccountType: "checking", Balance: dec("1000"),
	})
	if err != nil {
		t.Fatalf("CreateAccount() unexpected error: %v", err)
	}

	step := func(name, want string) {
		t.Helper()
		if got := balanceOf(t, store, acc.ID); !got.Equal(dec(want)) {
			t.Fatalf("%s: balance = %s, want %s", name, got, want)
		}
	}

	expense, err := svc.CreateTransaction(ctx, transaction.CreateParams{
		UserID: 1, AccountID: acc.ID, Type: transaction.TypeExpense, Amount: dec("200"), Date: day(2026, 3, 1),
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	step("expense 200", "800")

	income, err := svc.CreateTransaction(ctx, transaction.CreateParams{
		UserID: 1, AccountID: acc.ID, Type: transaction.TypeIncome, Amount: dec("50"), Date: day(2026, 3, 2),
	})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}
	step("income 50", "850")

	amount := dec("300")
	if _, err := svc.UpdateTransaction(ctx, expense.ID, 1, transaction.UpdateParams{Amount: &amount}); err != nil {
		t.Fatalf("update expense: %v", err)
	}
	step("expense to 300", "600")

	if err := svc.DeleteTransaction(ctx, income.ID, 1); err != nil {
		t.Fatalf("delete income: %v", err)
	}
	step("delete income", "550")
}

func TestRecurringRunAgainstStore(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	accounts := account.NewService(store.Accounts())
	transactions := transaction.NewService(store.Transactions(), store.Accounts(), store)
	svc := recurring.NewService(store.Recurring(), accounts, transactions, store)

	mustAccount(t, store, "ops", 1, "1000")
	tmpl, err := svc.CreateTemplate(ctx, recurring.CreateParams{
		UserID: 1, AccountID: "ops", Amount: dec("250"), Type: transaction.TypeExpense,
		Frequency: recurring.FrequencyMonthly, NextRunDate: day(2026, 1, 31), IsActive: true,
	})
	if err != nil {
		t.Fatalf("CreateTemplate() unexpected error: %v", err)
	}

	asOf := day(2026, 2, 1)
	for i := 0; i < 2; i++ {
		if _, err := svc.RunDue(ctx, 1, asOf); err != nil {
			t.Fatalf("RunDue() unexpected error: %v", err)
		}
	}

	if got := balanceOf(t, store, "ops"); !got.Equal(dec("750")) {
		t.Errorf("balance = %s, want 750 after one firing", got)
	}
	txns, _ := store.Transactions().List(ctx, 1, transaction.ListFilter{Limit: 10})
	if len(txns) != 1 {
		t.Fatalf("found %d transactions, want 1", len(txns))
	}
	if !txns[0].Date.Equal(day(2026, 1, 31)) || txns[0].Source != transaction.SourceRecurring {
		t.Errorf("materialized transaction = %+v", txns[0])
	}
	if txns[0].Description == nil || *txns[0].Description != "Recurring #"+tmpl.ID {
		t.Errorf("description = %v", txns[0].Description)
	}

	stored, _ := svc.GetTemplate(ctx, tmpl.ID, 1)
	if !stored.NextRunDate.Equal(day(2026, 2, 28)) {
		t.Errorf("next run = %s, want 2026-02-28", stored.NextRunDate.Format("2006-01-02"))
	}
}

// centRepository and centAccounts round every stored amount and balance to
// cents, the way NUMERIC(15,2) columns do
type centRepository struct{ transaction.Repository }

func (r centRepository) Create(ctx context.Context, p transaction.CreateParams) (*transaction.Transaction, error) {
	p.Amount = p.Amount.Round(account.MoneyScale)
	return r.Repository.Create(ctx, p)
}

func (r centRepository) Update(ctx context.Context, txn *transaction.Transaction) (*transaction.Transaction, error) {
	rounded := *txn
	rounded.Amount = rounded.Amount.Round(account.MoneyScale)
	return r.Repository.Update(ctx, &rounded)
}

type centAccounts struct{ transaction.AccountLocker }

func (a centAccounts) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	return a.AccountLocker.UpdateBalance(ctx, id, balance.Round(account.MoneyScale))
}

func TestSubCentAmountsKeepCentColumnsConsistent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mustAccount(t, store, "a", 1, "100")
	opening := map[string]decimal.Decimal{"a": dec("100")}
	svc := transaction.NewService(centRepository{store.Transactions()}, centAccounts{store.Accounts()}, store)

	txn, err := svc.CreateTransaction(ctx, transaction.CreateParams{
		UserID: 1, AccountID: "a", Type: transaction.TypeExpense, Amount: dec("10"), Date: day(2026, 2, 1),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	subCent := dec("10.005")
	if _, err := svc.UpdateTransaction(ctx, txn.ID, 1, transaction.UpdateParams{Amount: &subCent}); !errors.Is(err, transaction.ErrInvalidAmount) {
		t.Fatalf("update to %s: error = %v, want %v", subCent, err, transaction.ErrInvalidAmount)
	}
	if _, err := svc.CreateTransaction(ctx, transaction.CreateParams{
		UserID: 1, AccountID: "a", Type: transaction.TypeIncome, Amount: subCent, Date: day(2026, 2, 2),
	}); !errors.Is(err, transaction.ErrInvalidAmount) {
		t.Fatalf("create %s: error = %v, want %v", subCent, err, transaction.ErrInvalidAmount)
	}
	ledgerMatches(t, store, 1, opening)

	cents := dec("10.01")
	if _, err := svc.UpdateTransaction(ctx, txn.ID, 1, transaction.UpdateParams{Amount: &cents}); err != nil {
		t.Fatalf("update to %s: %v", cents, err)
	}
	ledgerMatches(t, store, 1, opening)

	if err := svc.DeleteTransaction(ctx, txn.ID, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := balanceOf(t, store, "a"); !got.Equal(dec("100")) {
		t.Errorf("balance after delete = %s, want 100", got)
	}
}
