package badger

import (
	"encoding/binary"

	"github.com/poiesic/shopit/core"
	"github.com/poiesic/shopit/storage"
)

// Key prefixes for different data types
const (
	imageCachePrefix    = "imgc"
	displayTargetPrefix = "dtgt"
	displayViewPrefix   = "dview"
)

// makeImageKey generates a key for a cached image.
// Format: prefix:hash(ref). References can be long data URLs, so they are
// hashed rather than embedded.
func makeImageKey(ref string) ([]byte, error) {
	if ref == "" {
		return nil, storage.ErrInvalidKey
	}
	prefix := imageCachePrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(core.IDFromContent(ref)))
	return buf, nil
}

// makeTargetKey generates a key marking a registered display target.
// Format: prefix:target
func makeTargetKey(target string) ([]byte, error) {
	return makeNamedKey(displayTargetPrefix, target)
}

// makeViewKey generates a key for the last view rendered to a target.
// Format: prefix:target
func makeViewKey(target string) ([]byte, error) {
	return makeNamedKey(displayViewPrefix, target)
}

func makeNamedKey(prefix, name string) ([]byte, error) {
	if name == "" {
		return nil, storage.ErrInvalidKey
	}
	buf := make([]byte, 0, len(prefix)+1+len(name))
	buf = append(buf, prefix...)
	buf = append(buf, ':')
	buf = append(buf, name...)
	return buf, nil
}
