package session

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"feira/internal/models"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// secureItem is one sealed value. Salt is per row so the same passphrase
// yields a different key for every entry.
type secureItem struct {
	StorageKey string `gorm:"primaryKey;type:varchar(64)"`
	Salt       []byte
	Nonce      []byte
	Ciphertext []byte
	UpdatedAt  time.Time
}

func (secureItem) TableName() string { return "secure_items" }

// SecureStore is a TokenStore that keeps sessions sealed with NaCl secretbox in
// a gorm database, standing in for the platform keychain.
type SecureStore struct {
	db         *gorm.DB
	passphrase []byte

	// keys caches derived keys by salt; scrypt is too slow to run per request.
	mu   sync.Mutex
	keys map[string]*[32]byte
}

// NewSecureStore migrates the backing table and returns the store.
func NewSecureStore(db *gorm.DB, passphrase string) (*SecureStore, error) {
	if passphrase == "" {
		return nil, errors.New("secure store passphrase is required")
	}
	if err := db.AutoMigrate(&secureItem{}); err != nil {
		return nil, fmt.Errorf("failed to migrate secure store: %w", err)
	}
	return &SecureStore{db: db, passphrase: []byte(passphrase), keys: make(map[string]*[32]byte)}, nil
}

func storageKey(role models.Role) string {
	return "session:" + string(role)
}

func (s *SecureStore) deriveKey(salt []byte) (*[32]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key, ok := s.keys[string(salt)]; ok {
		return key, nil
	}
	raw, err := scrypt.Key(s.passphrase, salt, 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	var key [32]byte
	copy(key[:], raw)
	s.keys[string(salt)] = &key
	return &key, nil
}

func (s *SecureStore) Load(ctx context.Context, role models.Role) (Session, error) {
	var item secureItem
	if err := s.db.WithContext(ctx).First(&item, "storage_key = ?", storageKey(role)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("failed to load session for %s: %w", role, err)
	}

	key, err := s.deriveKey(item.Salt)
	if err != nil {
		return Session{}, err
	}
	var nonce [24]byte
	copy(nonce[:], item.Nonce)
	plain, ok := secretbox.Open(nil, item.Ciphertext, &nonce, key)
	if !ok {
		return Session{}, fmt.Errorf("session for %s could not be decrypted", role)
	}

	var sess Session
	if err := json.Unmarshal(plain, &sess); err != nil {
		return Session{}, fmt.Errorf("failed to decode session for %s: %w", role, err)
	}
	return sess, nil
}

func (s *SecureStore) Save(ctx context.Context, sess Session) error {
	plain, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	key, err := s.deriveKey(salt)
	if err != nil {
		return err
	}

	item := secureItem{
		StorageKey: storageKey(sess.Role),
		Salt:       salt,
		Nonce:      nonce[:],
		Ciphertext: secretbox.Seal(nil, plain, &nonce, key),
		UpdatedAt:  time.Now(),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&item).Error
	if err != nil {
		return fmt.Errorf("failed to save session for %s: %w", sess.Role, err)
	}
	return nil
}

func (s *SecureStore) Delete(ctx context.Context, role models.Role) error {
	if err := s.db.WithContext(ctx).Delete(&secureItem{}, "storage_key = ?", storageKey(role)).Error; err != nil {
		return fmt.Errorf("failed to delete session for %s: %w", role, err)
	}
	return nil
}
