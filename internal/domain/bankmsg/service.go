package bankmsg

import (
	"context"
	"log"
	"time"

	"nexus/internal/domain/category"
	"nexus/internal/domain/transaction"
)

// CategoryLister supplies the categories suggestions choose from.
// *category.Service satisfies it.
type CategoryLister interface {
	ListCategories(ctx context.Context) ([]*category.Category, error)
}

// TransactionCreator books converted messages. *transaction.Service satisfies it.
type TransactionCreator interface {
	CreateTransaction(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error)
}

// Service parses, stores and converts banking messages
type Service struct {
	repo         Repository
	categories   CategoryLister
	transactions TransactionCreator
	tx           transaction.Transactor
	suggesters   []Suggester
	now          func() time.Time
}

// NewService creates a banking message service. Suggesters are consulted in
// order and the first one with an answer wins; the keyword rules always run last.
func NewService(repo Repository, categories CategoryLister, transactions TransactionCreator, tx transaction.Transactor, suggesters ...Suggester) *Service {
	return &Service{
		repo:         repo,
		categories:   categories,
		transactions: transactions,
		tx:           tx,
		suggesters:   append(suggesters, KeywordSuggester{}),
		now:          time.Now,
	}
}

// Preview parses text and suggests a category without storing anything
func (s *Service) Preview(ctx context.Context, text string) (*ParseResult, error) {
	if text == "" {
		return nil, ErrEmptyMessage
	}

	parsed := Parse(text, s.now())
	result := &ParseResult{
		Amount:      parsed.Amount,
		Date:        &parsed.Date,
		Description: parsed.Description,
		Type:        parsed.Type,
	}

	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	result.SuggestedCategoryID = s.suggest(ctx, parsed, categories)
	if result.SuggestedCategoryID != nil {
		for _, c := range categories {
			if c.ID == *result.SuggestedCategoryID {
				name := c.Name
				result.SuggestedCategoryName = &name
				break
			}
		}
	}
	return result, nil
}

// Ingest parses and stores a message with its suggested category
func (s *Service) Ingest(ctx context.Context, params CreateParams) (*Message, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.Source == "" {
		params.Source = defaultMessageSource
	}

	parsed := Parse(params.RawText, s.now())
	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	description := parsed.Description
	typ := parsed.Type
	date := parsed.Date
	return s.repo.Create(ctx, &Message{
		UserID:              params.UserID,
		RawText:             params.RawText,
		Source:              params.Source,
		ParsedAmount:        parsed.Amount,
		ParsedDate:          &date,
		ParsedDescription:   &description,
		ParsedType:          &typ,
		SuggestedCategoryID: s.suggest(ctx, parsed, categories),
	})
}

func (s *Service) ListMessages(ctx context.Context, userID int64, limit int) ([]*Message, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.repo.ListByUserID(ctx, userID, limit)
}

func (s *Service) GetMessage(ctx context.Context, id int64, userID int64) (*Message, error) {
	return s.repo.GetByID(ctx, id, userID)
}

// Convert books a stored message as a transaction on one of the user's
// accounts and links the two. A message converts at most once.
func (s *Service) Convert(ctx context.Context, id int64, userID int64, params ConvertParams) (*transaction.Transaction, error) {
	msg, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if msg.ParsedAmount == nil {
		return nil, ErrNotConvertible
	}
	if msg.TransactionID != nil {
		return nil, ErrAlreadyConverted
	}

	categoryID := msg.SuggestedCategoryID
	if params.CategoryID != nil {
		categoryID = params.CategoryID
	}
	typ := transaction.TypeExpense
	if msg.ParsedType != nil && *msg.ParsedType == transaction.TypeIncome {
		typ = transaction.TypeIncome
	}
	date := s.now()
	if msg.ParsedDate != nil {
		date = *msg.ParsedDate
	}
	description := fallbackDescription
	if msg.ParsedDescription != nil && *msg.ParsedDescription != "" {
		description = *msg.ParsedDescription
	}

	var created *transaction.Transaction
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		created, err = s.transactions.CreateTransaction(ctx, transaction.CreateParams{
			UserID:      userID,
			AccountID:   params.AccountID,
			CategoryID:  categoryID,
			Type:        typ,
			Amount:      *msg.ParsedAmount,
			Date:        date,
			Description: &description,
			Source:      transaction.SourceBankingMessage,
		})
		if err != nil {
			return err
		}

		linked, err := s.repo.LinkTransaction(ctx, msg.ID, created.ID)
		if err != nil {
			return err
		}
		if !linked {
			return ErrAlreadyConverted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// suggest asks each suggester in turn. A failing suggester is logged and skipped.
func (s *Service) suggest(ctx context.Context, parsed Parsed, categories []*category.Category) *int64 {
	if parsed.Amount == nil || parsed.Description == "" {
		return nil
	}
	in := SuggestInput{Amount: *parsed.Amount, Description: parsed.Description, Type: parsed.Type}

	for _, sg := range s.suggesters {
		id, err := sg.Suggest(ctx, in, categories)
		if err != nil {
			log.Printf("Category suggester failed, trying next: %v", err)
			continue
		}
		if id != nil {
			return id
		}
	}
	return nil
}
