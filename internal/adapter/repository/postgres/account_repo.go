package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/meridianfs/ledgercore/internal/domain"
)

// accountRepository implements domain.AccountRepository
type accountRepository struct {
	db *DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *DB) domain.AccountRepository {
	return &accountRepository{db: db}
}

// Get retrieves an account and its connection list
func (r *accountRepository) Get(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT connected_accounts FROM accounts WHERE id = $1`

	var connectedJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(&connectedJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	account := &domain.Account{ID: id}
	if len(connectedJSON) > 0 {
		if err := json.Unmarshal(connectedJSON, &account.ConnectedAccounts); err != nil {
			return nil, fmt.Errorf("failed to decode connected accounts: %w", err)
		}
	}
	return account, nil
}

// Put stores an account's connection list
func (r *accountRepository) Put(ctx context.Context, account *domain.Account) error {
	connectedJSON, err := json.Marshal(account.ConnectedAccounts)
	if err != nil {
		return fmt.Errorf("failed to encode connected accounts: %w", err)
	}

	query := `
		INSERT INTO accounts (id, connected_accounts)
		VALUES ($1, $2)
		ON CONFLICT (id)
		DO UPDATE SET connected_accounts = EXCLUDED.connected_accounts
	`
	if _, err := r.db.ExecContext(ctx, query, account.ID, connectedJSON); err != nil {
		return fmt.Errorf("failed to store account: %w", err)
	}
	return nil
}
