package repositories

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"chat-relay/errors"
)

const keyPrefix = "user:"

// CredentialRepository persists username -> password digest in BadgerDB.
// The value is the digest itself (PHC string or hex), already one-way hashed
// by the service layer; no plain password ever reaches this package.
type CredentialRepository struct {
	db *badger.DB
}

func NewCredentialRepository(db *badger.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// UpsertIfAbsent registers the digest for a first-seen username, or returns
// the digest already on record. Lookup and insert share one transaction so
// two concurrent first logins for the same name cannot both register; the
// loser of a Badger write conflict retries and observes the winner's digest.
func (r *CredentialRepository) UpsertIfAbsent(username, digest string) (string, bool, error) {
	for {
		var (
			stored   string
			inserted bool
		)
		err := r.db.Update(func(txn *badger.Txn) error {
			key := []byte(keyPrefix + username)
			item, err := txn.Get(key)
			switch {
			case err == nil:
				return item.Value(func(val []byte) error {
					stored = string(val)
					return nil
				})
			case err == badger.ErrKeyNotFound:
				inserted = true
				stored = digest
				return txn.Set(key, []byte(digest))
			default:
				return err
			}
		})
		if err == badger.ErrConflict {
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
		}
		return stored, inserted, nil
	}
}

// Lookup retrieves the stored digest for a username.
func (r *CredentialRepository) Lookup(username string) (string, bool, error) {
	var digest string
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			digest = string(val)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return digest, true, nil
}
