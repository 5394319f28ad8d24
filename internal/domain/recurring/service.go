package recurring

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"nexus/internal/domain/account"
	"nexus/internal/domain/transaction"
)

// AccountReader checks that an account exists and belongs to a user.
// *account.Service satisfies it.
type AccountReader interface {
	GetAccount(ctx context.Context, accountID string, userID int64) (*account.Account, error)
}

// TransactionCreator materializes transactions through the balance mutation
// protocol. *transaction.Service satisfies it.
type TransactionCreator interface {
	CreateTransaction(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error)
}

// Service manages recurring templates and fires the ones that come due
type Service struct {
	repo         Repository
	accounts     AccountReader
	transactions TransactionCreator
	tx           transaction.Transactor
}

// NewService creates a new recurring service
func NewService(repo Repository, accounts AccountReader, transactions TransactionCreator, tx transaction.Transactor) *Service {
	return &Service{
		repo:         repo,
		accounts:     accounts,
		transactions: transactions,
		tx:           tx,
	}
}

// CreateTemplate validates and stores a new template on an account the user owns
func (s *Service) CreateTemplate(ctx context.Context, params CreateParams) (*Template, error) {
	if params.ID == "" {
		params.ID = uuid.NewString()
	}
	params.NextRunDate = transaction.StartOfDay(params.NextRunDate)

	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkAccount(ctx, params.AccountID, params.UserID); err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, params)
}

// GetTemplate returns a template owned by userID
func (s *Service) GetTemplate(ctx context.Context, id string, userID int64) (*Template, error) {
	if id == "" {
		return nil, ErrTemplateNotFound
	}
	return s.repo.GetByID(ctx, id, userID)
}

// ListTemplates returns every template of the user, paused ones included
func (s *Service) ListTemplates(ctx context.Context, userID int64) ([]*Template, error) {
	if userID <= 0 {
		return nil, errors.New("valid user ID is required")
	}
	return s.repo.ListByUserID(ctx, userID)
}

// UpdateTemplate patches a template. Pausing and resuming go through IsActive.
func (s *Service) UpdateTemplate(ctx context.Context, id string, userID int64, params UpdateParams) (*Template, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if params.AccountID != nil && *params.AccountID != current.AccountID {
		if err := s.checkAccount(ctx, *params.AccountID, userID); err != nil {
			return nil, err
		}
	}

	return s.repo.Update(ctx, params.apply(current))
}

// DeleteTemplate removes a template. Transactions it already produced stay.
func (s *Service) DeleteTemplate(ctx context.Context, id string, userID int64) error {
	if _, err := s.repo.GetByID(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, userID)
}

// UpcomingRuns previews the next count run dates of a template
func (s *Service) UpcomingRuns(ctx context.Context, id string, userID int64, count int) ([]time.Time, error) {
	if count <= 0 {
		count = DefaultUpcomingCount
	}
	if count > MaxUpcomingCount {
		count = MaxUpcomingCount
	}

	t, err := s.GetTemplate(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	// the stored next run date is itself the first upcoming run
	rest, err := Upcoming(t.Frequency, t.NextRunDate, count-1)
	if err != nil {
		return nil, err
	}
	return append([]time.Time{t.NextRunDate}, rest...), nil
}

// RunDue fires every template of userID due on asOf. Each template produces at
// most one transaction per call, dated at its next run date, and is advanced in
// the same atomic unit. A template that was behind by several periods catches
// up one period per call. Per-template failures are counted and the batch goes on.
func (s *Service) RunDue(ctx context.Context, userID int64, asOf time.Time) (*RunResult, error) {
	due, err := s.repo.ListDue(ctx, userID, transaction.StartOfDay(asOf))
	if err != nil {
		return nil, fmt.Errorf("failed to list due templates: %w", err)
	}

	result := &RunResult{Errors: []string{}}
	for _, t := range due {
		result.Processed++

		err := s.fire(ctx, t)
		switch {
		case err == nil:
			result.Created++
		case errors.Is(err, errAlreadyAdvanced):
			log.Printf("Recurring template %s was already advanced by another run, skipping", t.ID)
		default:
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("template %s: %v", t.ID, err))
			log.Printf("Failed to materialize recurring template %s: %v", t.ID, err)
		}
	}

	if result.Processed > 0 {
		log.Printf("Recurring run for user %d as of %s: processed=%d created=%d failed=%d",
			userID, asOf.Format(time.DateOnly), result.Processed, result.Created, result.Failed)
	}
	return result, nil
}

// RunDueForAll runs RunDue for every user that has due templates and returns
// the results keyed by user
func (s *Service) RunDueForAll(ctx context.Context, asOf time.Time) (map[int64]*RunResult, error) {
	users, err := s.repo.ListUsersWithDue(ctx, transaction.StartOfDay(asOf))
	if err != nil {
		return nil, fmt.Errorf("failed to list users with due templates: %w", err)
	}

	results := make(map[int64]*RunResult, len(users))
	for _, userID := range users {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		res, err := s.RunDue(ctx, userID, asOf)
		if err != nil {
			log.Printf("Recurring run failed for user %d: %v", userID, err)
			res = &RunResult{Failed: 1, Errors: []string{err.Error()}}
		}
		results[userID] = res
	}
	return results, nil
}

// UsersWithDue lists the users that have at least one due template on asOf
func (s *Service) UsersWithDue(ctx context.Context, asOf time.Time) ([]int64, error) {
	return s.repo.ListUsersWithDue(ctx, transaction.StartOfDay(asOf))
}

// Summarize folds per-user results into one
func Summarize(results map[int64]*RunResult) *RunResult {
	total := &RunResult{Errors: []string{}}
	for _, r := range results {
		total.merge(r)
	}
	return total
}

func (s *Service) fire(ctx context.Context, t *Template) error {
	next, err := NextRun(t.Frequency, t.NextRunDate)
	if err != nil {
		return err
	}

	description := t.Description
	if description == nil || *description == "" {
		d := fmt.Sprintf("Recurring #%s", t.ID)
		description = &d
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		advanced, err := s.repo.Advance(ctx, t.ID, t.NextRunDate, next)
		if err != nil {
			return err
		}
		if !advanced {
			return errAlreadyAdvanced
		}

		_, err = s.transactions.CreateTransaction(ctx, transaction.CreateParams{
			UserID:             t.UserID,
			AccountID:          t.AccountID,
			CategoryID:         t.CategoryID,
			Type:               t.Type,
			Amount:             t.Amount,
			Date:               transaction.StartOfDay(t.NextRunDate),
			Description:        description,
			Source:             transaction.SourceRecurring,
			SkipDuplicateCheck: true,
		})
		return err
	})
}

func (s *Service) checkAccount(ctx context.Context, accountID string, userID int64) error {
	_, err := s.accounts.GetAccount(ctx, accountID, userID)
	if errors.Is(err, account.ErrForbidden) {
		return account.ErrAccountNotFound
	}
	return err
}
