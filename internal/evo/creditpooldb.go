// Copyright (c) 2021-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package evo

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

const (
	// currentCreditPoolDatabaseVersion indicates the current credit pool
	// database version.
	currentCreditPoolDatabaseVersion = 1

	// creditPoolDbName is the name of the credit pool database.
	creditPoolDbName = "creditpooldb"
)

// -----------------------------------------------------------------------------
// creditPoolKeySet represents a top level key set in the credit pool database.
// All keys start with a serialized prefix consisting of the key set and version
// of that key set as follows:
//
//	<key set><version>
//
//	Key        Value    Size      Description
//	key set    uint8    1 byte    The key set identifier, as defined below
//	version    uint8    1 byte    The version of the key set
//
// -----------------------------------------------------------------------------
type creditPoolKeySet uint8

// These constants define the available credit pool database key sets.
const (
	creditPoolKeySetDbInfo creditPoolKeySet = iota + 1 // 1
	creditPoolKeySetPools                              // 2
)

// creditPoolKeySetVersions defines the current version for each key set.
var creditPoolKeySetVersions = map[creditPoolKeySet]uint8{
	// The database info key set must remain at fixed keys so that older
	// software can load the versioning info and detect newer versions.
	creditPoolKeySetDbInfo: 0,
	creditPoolKeySetPools:  1,
}

// These variables define the serialized prefix for each key set and associated
// version.
var (
	creditPoolPrefixDbInfo = []byte{byte(creditPoolKeySetDbInfo),
		creditPoolKeySetVersions[creditPoolKeySetDbInfo]}
	creditPoolPrefixPools = []byte{byte(creditPoolKeySetPools),
		creditPoolKeySetVersions[creditPoolKeySetPools]}
)

// prefixedKey returns a new byte slice that consists of the provided prefix
// appended with the provided key.
func prefixedKey(prefix []byte, key []byte) []byte {
	lenPrefix := len(prefix)
	prefixedKey := make([]byte, lenPrefix+len(key))
	_ = copy(prefixedKey, prefix)
	_ = copy(prefixedKey[lenPrefix:], key)
	return prefixedKey
}

// These variables define keys that are part of the database info key set.
var (
	creditPoolDbInfoVersionKey = prefixedKey(creditPoolPrefixDbInfo,
		[]byte("version"))
	creditPoolDbInfoCreatedKey = prefixedKey(creditPoolPrefixDbInfo,
		[]byte("created"))
)

// poolKey returns the database key for the credit pool of the block with the
// provided hash.
func poolKey(hash *chainhash.Hash) []byte {
	return prefixedKey(creditPoolPrefixPools, hash[:])
}

// convertLdbErr converts the passed leveldb error into a context error with
// an equivalent error kind and the passed description.  It also sets the
// passed error as the underlying error.
func convertLdbErr(ldbErr error, desc string) ContextError {
	kind := ErrCreditPoolBackend
	if ldberrors.IsCorrupted(ldbErr) {
		kind = ErrCreditPoolCorruption
	}

	err := contextError(kind, fmt.Sprintf("%s: %v", desc, ldbErr))
	err.RawErr = ldbErr
	return err
}

// LoadCreditPoolDB loads (or creates when needed) the credit pool database in
// the provided data directory.
func LoadCreditPoolDB(dataDir string) (*leveldb.DB, error) {
	dbPath := filepath.Join(dataDir, creditPoolDbName)
	_, statErr := os.Stat(dbPath)
	dbExists := statErr == nil
	if !dbExists {
		// The error can be ignored here since the call to leveldb.OpenFile
		// will fail if the directory couldn't be created.
		_ = os.MkdirAll(dataDir, 0700)
	}

	log.Infof("Loading credit pool database from '%s'", dbPath)
	opts := opt.Options{
		ErrorIfExist: !dbExists,
		Strict:       opt.DefaultStrict,
		Compression:  opt.NoCompression,
		Filter:       filter.NewBloomFilter(10),
	}
	db, err := leveldb.OpenFile(dbPath, &opts)
	if err != nil {
		return nil, convertLdbErr(err, "failed to open credit pool database")
	}

	log.Info("Credit pool database loaded")
	return db, nil
}

// -----------------------------------------------------------------------------
// The serialized format of a credit pool is:
//
//	<height><locked><num indexes><index 1>...<index n>
//
//	Field          Type      Size
//	height         uint64    8 bytes
//	locked         int64     8 bytes
//	num indexes    VLQ       variable
//	index          uint64    8 bytes each, ascending
//
// -----------------------------------------------------------------------------

// serializeCreditPool returns the serialization of the provided pool.
func serializeCreditPool(pool *CreditPool) []byte {
	indexes := pool.Indexes()
	var buf bytes.Buffer
	buf.Grow(16 + wire.MaxVarIntPayload + len(indexes)*8)

	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], uint64(pool.Height))
	buf.Write(scratch[:])
	binary.LittleEndian.PutUint64(scratch[:], uint64(pool.Locked))
	buf.Write(scratch[:])
	_ = wire.WriteVarInt(&buf, protocolVersion, uint64(len(indexes)))
	for _, index := range indexes {
		binary.LittleEndian.PutUint64(scratch[:], index)
		buf.Write(scratch[:])
	}
	return buf.Bytes()
}

// deserializeCreditPool decodes the pool of the block with the provided hash
// from the provided serialization.
func deserializeCreditPool(hash *chainhash.Hash, serialized []byte) (*CreditPool, error) {
	r := bytes.NewReader(serialized)
	var scratch [16]byte
	if _, err := io.ReadFull(r, scratch[:]); err != nil {
		return nil, err
	}
	height := int64(binary.LittleEndian.Uint64(scratch[0:8]))
	locked := btcutil.Amount(binary.LittleEndian.Uint64(scratch[8:16]))

	numIndexes, err := readCount(r, uint64(r.Len()/8), "credit pool indexes")
	if err != nil {
		return nil, err
	}
	pool := NewCreditPool(hash, height)
	pool.Locked = locked
	for i := uint64(0); i < numIndexes; i++ {
		if _, err := io.ReadFull(r, scratch[:8]); err != nil {
			return nil, err
		}
		pool.indexes[binary.LittleEndian.Uint64(scratch[:8])] = struct{}{}
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes", r.Len())
	}
	return pool, nil
}

// CreditPoolStore persists the credit pool of each connected block keyed by
// block hash.
//
// All methods are safe for concurrent access.
type CreditPoolStore struct {
	db *leveldb.DB
}

// NewCreditPoolStore returns a store backed by the provided database.  The
// database versioning info is created when the database is new and checked
// otherwise.
func NewCreditPoolStore(db *leveldb.DB) (*CreditPoolStore, error) {
	s := &CreditPoolStore{db: db}
	if err := s.initInfo(); err != nil {
		return nil, err
	}
	return s, nil
}

// initInfo creates the database versioning info when it does not exist and
// ensures the version is supported when it does.
func (s *CreditPoolStore) initInfo() error {
	serialized, err := s.db.Get(creditPoolDbInfoVersionKey, nil)
	if err != nil && !errors.Is(err, leveldb.ErrNotFound) {
		return convertLdbErr(err, "failed to load credit pool database "+
			"version")
	}
	if err == nil {
		if len(serialized) != 4 {
			str := fmt.Sprintf("malformed credit pool database version of "+
				"length %d", len(serialized))
			return contextError(ErrCreditPoolCorruption, str)
		}
		version := binary.LittleEndian.Uint32(serialized)
		if version > currentCreditPoolDatabaseVersion {
			str := fmt.Sprintf("the credit pool database is version %d "+
				"which is newer than the supported version %d", version,
				currentCreditPoolDatabaseVersion)
			return contextError(ErrCreditPoolVersion, str)
		}
		return nil
	}

	var version [4]byte
	binary.LittleEndian.PutUint32(version[:], currentCreditPoolDatabaseVersion)
	var created [8]byte
	binary.LittleEndian.PutUint64(created[:], uint64(time.Now().Unix()))

	batch := new(leveldb.Batch)
	batch.Put(creditPoolDbInfoVersionKey, version[:])
	batch.Put(creditPoolDbInfoCreatedKey, created[:])
	if err := s.db.Write(batch, nil); err != nil {
		return convertLdbErr(err, "failed to store credit pool database info")
	}
	return nil
}

// StorePool persists the provided pool keyed by the hash of its block.
func (s *CreditPoolStore) StorePool(pool *CreditPool) error {
	err := s.db.Put(poolKey(&pool.BlockHash), serializeCreditPool(pool), nil)
	if err != nil {
		str := fmt.Sprintf("failed to store credit pool for block %v",
			pool.BlockHash)
		return convertLdbErr(err, str)
	}
	return nil
}

// FetchPool loads the pool of the block with the provided hash.  Both the pool
// and the error are nil when there is no entry for the block.
func (s *CreditPoolStore) FetchPool(hash *chainhash.Hash) (*CreditPool, error) {
	serialized, err := s.db.Get(poolKey(hash), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		str := fmt.Sprintf("failed to load credit pool for block %v", hash)
		return nil, convertLdbErr(err, str)
	}

	pool, err := deserializeCreditPool(hash, serialized)
	if err != nil {
		str := fmt.Sprintf("corrupt credit pool for block %v: %v", hash, err)
		cErr := contextError(ErrCreditPoolCorruption, str)
		cErr.RawErr = err
		return nil, cErr
	}
	return pool, nil
}

// RemovePool removes the pool of the block with the provided hash.  It is not
// an error to remove a pool that does not exist.
func (s *CreditPoolStore) RemovePool(hash *chainhash.Hash) error {
	if err := s.db.Delete(poolKey(hash), nil); err != nil {
		str := fmt.Sprintf("failed to remove credit pool for block %v", hash)
		return convertLdbErr(err, str)
	}
	return nil
}

// Close closes the underlying database.
func (s *CreditPoolStore) Close() error {
	return s.db.Close()
}
