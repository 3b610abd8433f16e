package bolt

import (
	"context"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/meridianfs/ledgercore/internal/domain"
)

// accountRepository implements domain.AccountRepository.
type accountRepository struct {
	store *Store
}

// NewAccountRepository creates a new account repository backed by the
// store.
func NewAccountRepository(store *Store) domain.AccountRepository {
	return &accountRepository{store: store}
}

// Get retrieves an account and its connection list.
func (r *accountRepository) Get(ctx context.Context, id string) (*domain.Account, error) {
	var account *domain.Account
	err := r.store.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketAccounts))
		if b == nil {
			return domain.ErrNotFound
		}
		data := b.Get([]byte(id))
		if data == nil {
			return domain.ErrNotFound
		}
		account = &domain.Account{}
		return decode(data, account)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Put stores an account's connection list.
func (r *accountRepository) Put(ctx context.Context, account *domain.Account) error {
	err := r.store.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketAccounts))
		if b == nil {
			return fmt.Errorf("bucket %s missing", bucketAccounts)
		}
		data, err := encode(account)
		if err != nil {
			return err
		}
		return b.Put([]byte(account.ID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to store account: %w", err)
	}
	return nil
}
