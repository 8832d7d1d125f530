package config

import (
	"encoding/hex"
	"fmt"

	"github.com/Saiguru2554/Health-Link-Qr/internal/storage"
	"github.com/Saiguru2554/Health-Link-Qr/pkg/crypto/adaptive"
)

// KVConfig maps the storage section onto the Badger engine settings.
func (s StorageSection) KVConfig() storage.KVConfig {
	cfg := storage.DefaultKVConfig(s.DataDir)
	if s.GCInterval > 0 {
		cfg.Badger.GCInterval = s.GCInterval.String()
	}
	if s.GCThreshold > 0 {
		cfg.Badger.GCThreshold = s.GCThreshold
	}
	cfg.Badger.SyncWrites = s.SyncWrites
	return cfg
}

// NewCipher builds the value cipher. It returns nil, nil when no
// encryption key is configured.
func (s SecuritySection) NewCipher() (adaptive.Cipher, error) {
	if s.EncryptionKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	t, err := adaptive.ParseCipherType(s.Cipher)
	if err != nil {
		return nil, err
	}
	if t == "" {
		t = adaptive.Preferred()
	}
	return adaptive.NewWithType(key, t)
}
