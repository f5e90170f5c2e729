// Copyright 2025 The Promptvault Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package embedcache

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/go-crypt/x/blake2b"
)

// Cache is a BadgerDB-backed embedding cache.
type Cache struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens a cache at the specified path, creating the directory if it
// doesn't exist. With inMemory set the path is ignored and nothing is
// persisted.
func Open(filePath string, inMemory bool) (*Cache, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Cache{
		db:     db,
		logger: slog.Default(),
	}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// key derives a deterministic cache key from model and text using
// BLAKE2b hashing.
func key(model, text string) []byte {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(model))
	h.Write([]byte{'|'})
	h.Write([]byte(text))
	return h.Sum(nil)
}

// Get looks up a cached vector. Any read or decode failure counts as a
// miss; a corrupt value is additionally logged.
func (c *Cache) Get(model, text string) ([]float32, bool) {
	var vector []float32

	err := c.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(key(model, text))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			entry, err := unmarshalEntry(val)
			if err != nil {
				return err
			}
			vector = append([]float32(nil), entry.Vector...)
			return nil
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Warn("embedding cache read failed", "err", err)
		}
		return nil, false
	}
	return vector, true
}

// Put stores a vector under the model and text key.
func (c *Cache) Put(model, text string, vector []float32) error {
	value := marshalEntry(Entry{
		Model:     model,
		Vector:    vector,
		CreatedAt: time.Now().Unix(),
	})
	return c.db.Update(func(tx *badger.Txn) error {
		return tx.Set(key(model, text), value)
	})
}
