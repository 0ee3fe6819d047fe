package near

import (
	"sync"

	"github.com/cockroachdb/errors"
)

var ErrNoKey = errors.New("no key for account")

// KeyStore holds signing keys per (network, account). Safe for concurrent use.
type KeyStore struct {
	mu   sync.RWMutex
	keys map[string]KeyPair
}

func NewInMemoryKeyStore() *KeyStore {
	return &KeyStore{keys: map[string]KeyPair{}}
}

func storeKey(networkID, accountID string) string {
	return networkID + ":" + accountID
}

func (s *KeyStore) SetKey(networkID, accountID string, kp KeyPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[storeKey(networkID, accountID)] = kp
}

func (s *KeyStore) GetKey(networkID, accountID string) (KeyPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kp, ok := s.keys[storeKey(networkID, accountID)]
	if !ok {
		return nil, errors.Wrapf(ErrNoKey, "%s on %s", accountID, networkID)
	}
	return kp, nil
}
