package build

import (
	"fmt"
	"hash/crc32"
	"os"
	"strconv"
)

// HashProvider computes content hashes of source documents. A file whose
// path, modification time and size match an earlier lookup is answered
// from the cache without reading it again.
type HashProvider struct {
	cache    *PageCache
	crcTable *crc32.Table
}

// NewHashProvider creates a hash provider backed by cache.
func NewHashProvider(cache *PageCache) *HashProvider {
	return &HashProvider{
		cache:    cache,
		crcTable: crc32.MakeTable(crc32.Castagnoli),
	}
}

// FileHash returns the content hash of the file at path.
func (hp *HashProvider) FileHash(path string) (string, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	metadataKey := fmt.Sprintf("meta:%s:%d:%d", path, stat.ModTime().UnixNano(), stat.Size())
	if hash, found := hp.cache.GetHash(metadataKey); found {
		return hash, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	hash := hp.Sum(content)
	hp.cache.SetHash(metadataKey, hash)
	return hash, nil
}

// Sum hashes content with CRC32 Castagnoli.
func (hp *HashProvider) Sum(content []byte) string {
	return strconv.FormatUint(uint64(crc32.Checksum(content, hp.crcTable)), 16)
}
