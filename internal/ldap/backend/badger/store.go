// Package badger is a github.com/dgraph-io/badger/v4-backed implementation
// of the backend.Backend interface: entries are stored BER-encoded under
// one key namespace, the change log under another, giving the mapping
// tree and the sync engine a concrete storage collaborator to route to
// and replay from.
package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/ldapcore/ldapd/internal/ldap/backend"
	"github.com/ldapcore/ldapd/internal/ldap/bercodec"
	"github.com/ldapcore/ldapd/internal/ldap/entry"
	"github.com/ldapcore/ldapd/internal/ldap/sync"
	"github.com/ldapcore/ldapd/internal/logger"
)

// Key namespace, mirroring the prefix-per-data-type convention used
// throughout the storage layer this is grounded on:
//
//	Entries       "e:"    e:<normalizedDN>       BER-encoded entry
//	Change log    "c:"    c:<changeNumber BE64>  JSON-encoded ChangeRecord
//	Counters      "m:"    m:lastchange           uint64 BE
const (
	prefixEntry         = "e:"
	prefixChange        = "c:"
	keyLastChangeNumber = "m:lastchange"
)

func keyEntry(dn string) []byte {
	return []byte(prefixEntry + dn)
}

func keyChange(n int64) []byte {
	buf := make([]byte, len(prefixChange)+8)
	copy(buf, prefixChange)
	binary.BigEndian.PutUint64(buf[len(prefixChange):], uint64(n))
	return buf
}

// Store is a single named backend instance, holding one badger database.
type Store struct {
	mu   sync.RWMutex
	name string
	db   *badgerdb.DB
}

// Open opens (creating if necessary) a badger database at dir and wraps
// it as a named backend.Backend.
func Open(name, dir string) (*Store, error) {
	opts := badgerdb.DefaultOptions(dir).WithLogger(nil)
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("backend/badger: open %s: %w", dir, err)
	}
	logger.Info("backend opened", "name", name, "dir", dir)
	return &Store{name: name, db: db}, nil
}

func (s *Store) Name() string { return s.name }

func (s *Store) Close() error {
	logger.Info("backend closing", "name", s.name)
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, dn string) (*entry.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	norm := entry.NewDn(dn).Normalized()
	var e *entry.Entry
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(keyEntry(norm))
		if err == badgerdb.ErrKeyNotFound {
			return backend.NewNotFoundError(dn)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, decErr := bercodec.Decode(val)
			if decErr != nil {
				return fmt.Errorf("backend/badger: decode %s: %w", dn, decErr)
			}
			e = decoded
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Store) Add(ctx context.Context, e *entry.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	norm := e.Dn.Normalized()
	return s.db.Update(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(keyEntry(norm))
		if err == nil {
			return backend.NewAlreadyExistsError(e.Dn.Udn())
		}
		if err != badgerdb.ErrKeyNotFound {
			return err
		}
		buf, err := bercodec.Encode(e)
		if err != nil {
			return fmt.Errorf("backend/badger: encode %s: %w", e.Dn.Udn(), err)
		}
		return txn.Set(keyEntry(norm), buf)
	})
}

func (s *Store) Replace(ctx context.Context, e *entry.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	buf, err := bercodec.Encode(e)
	if err != nil {
		return fmt.Errorf("backend/badger: encode %s: %w", e.Dn.Udn(), err)
	}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(keyEntry(e.Dn.Normalized()), buf)
	})
}

func (s *Store) Delete(ctx context.Context, dn string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	norm := entry.NewDn(dn).Normalized()
	return s.db.Update(func(txn *badgerdb.Txn) error {
		if hasChild, err := s.hasChildLocked(txn, norm); err != nil {
			return err
		} else if hasChild {
			return backend.NewNotAllowedOnNonleafError(dn)
		}
		_, err := txn.Get(keyEntry(norm))
		if err == badgerdb.ErrKeyNotFound {
			return backend.NewNotFoundError(dn)
		}
		if err != nil {
			return err
		}
		return txn.Delete(keyEntry(norm))
	})
}

// hasChildLocked scans the entry namespace for any key one RDN below
// parent, enforcing the classic "leaf entries only" delete constraint.
// Callers must already be inside a transaction.
func (s *Store) hasChildLocked(txn *badgerdb.Txn, parentNorm string) (bool, error) {
	found := false
	opts := badgerdb.DefaultIteratorOptions
	opts.Prefix = []byte(prefixEntry)
	it := txn.NewIterator(opts)
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		key := string(it.Item().Key())
		candidate := key[len(prefixEntry):]
		if candidate == parentNorm {
			continue
		}
		_, parent, ok := entry.SplitRdn(candidate)
		if ok && parent == parentNorm {
			found = true
			break
		}
	}
	return found, nil
}

func (s *Store) Search(ctx context.Context, req backend.SearchRequest, visit backend.VisitFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	baseNorm := entry.NewDn(req.Base).Normalized()
	return s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(prefixEntry)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			candidate := string(item.Key())[len(prefixEntry):]
			if !inScope(req.Scope, baseNorm, candidate) {
				continue
			}

			var cont = true
			err := item.Value(func(val []byte) error {
				e, err := bercodec.Decode(val)
				if err != nil {
					return fmt.Errorf("backend/badger: decode %s: %w", candidate, err)
				}
				cont = visit(e)
				return nil
			})
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
		}
		return nil
	})
}

func inScope(scope backend.SearchScope, baseNorm, candidateNorm string) bool {
	switch scope {
	case backend.ScopeBase:
		return candidateNorm == baseNorm
	case backend.ScopeOneLevel:
		_, parent, ok := entry.SplitRdn(candidateNorm)
		return ok && parent == baseNorm
	case backend.ScopeSubtree:
		return candidateNorm == baseNorm || entry.IsNormalizedSuffix(baseNorm, candidateNorm)
	default:
		return false
	}
}

// changeRecordJSON mirrors sync.ChangeRecord for JSON encoding; the
// change log is small, low-frequency metadata compared to entries, so it
// is not worth the BER codec's TLV ceremony.
type changeRecordJSON struct {
	ChangeNumber int64         `json:"changeNumber"`
	EntryUUID    string        `json:"entryUUID"`
	DN           string        `json:"dn"`
	Op           sync.ChangeOp `json:"op"`
}

func (s *Store) AppendChangeRecord(ctx context.Context, rec sync.ChangeRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	buf, err := json.Marshal(changeRecordJSON{
		ChangeNumber: rec.ChangeNumber,
		EntryUUID:    rec.EntryUUID,
		DN:           rec.DN,
		Op:           rec.Op,
	})
	if err != nil {
		return fmt.Errorf("backend/badger: encode change record: %w", err)
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		if err := txn.Set(keyChange(rec.ChangeNumber), buf); err != nil {
			return err
		}
		return txn.Set([]byte(keyLastChangeNumber), encodeInt64(rec.ChangeNumber))
	})
}

func (s *Store) ChangesSince(ctx context.Context, changeNumber int64) ([]sync.ChangeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []sync.ChangeRecord
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(prefixChange)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(keyChange(changeNumber + 1)); it.ValidForPrefix([]byte(prefixChange)); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var rec changeRecordJSON
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				records = append(records, sync.ChangeRecord{
					ChangeNumber: rec.ChangeNumber,
					EntryUUID:    rec.EntryUUID,
					DN:           rec.DN,
					Op:           rec.Op,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) LastChangeNumber(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keyLastChangeNumber))
		if err == badgerdb.ErrKeyNotFound {
			n = 0
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			n = decodeInt64(val)
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func encodeInt64(n int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(n))
	return buf
}

func decodeInt64(buf []byte) int64 {
	return int64(binary.BigEndian.Uint64(buf))
}

var _ backend.Backend = (*Store)(nil)
