package core

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
)

// EntityId is a 32-byte content digest. Two entities whose canonical
// encoding is identical always share an EntityId.
type EntityId [32]byte

// EntityIdFromBytes derives the content address of a canonical encoding.
func EntityIdFromBytes(canonical []byte) EntityId {
	return EntityId(sha256.Sum256(canonical))
}

func (id EntityId) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the raw 32-byte digest.
func (id EntityId) Bytes() []byte {
	out := make([]byte, len(id))
	copy(out, id[:])
	return out
}

func (id EntityId) IsZero() bool {
	return id == EntityId{}
}

// CID projects the digest into an IPFS-style sha2-256 raw CID, purely for
// human-readable logging. Equality and the content-addressing laws are
// defined over the raw 32-byte value, never over this string.
func (id EntityId) CID() string {
	digest, err := mh.Encode(id[:], mh.SHA2_256)
	if err != nil {
		return id.String()
	}
	c := cid.NewCidV1(cid.Raw, digest)
	return c.String()
}

// Less gives EntityId a total order, used for canonical map-key sorting
// and for stable ordering in indexes where one is needed.
func (id EntityId) Less(other EntityId) bool {
	for i := range id {
		if id[i] != other[i] {
			return id[i] < other[i]
		}
	}
	return false
}

// ResourceId is an opaque, non-content-addressed identifier minted fresh
// by the resource store on every Alloc.
type ResourceId string

// EffectId is the content-derived identity of an Effect. Two effects with
// identical serialized form share an EffectId.
type EffectId EntityId

func (id EffectId) String() string { return EntityId(id).String() }

// EffectTypeId identifies an effect's type/category, not a single effect.
type EffectTypeId string

// ActorId identifies a committee member or other actor.
type ActorId string

// FactId identifies an observed domain fact.
type FactId string

// RegisterId is a register-file slot index, bounded by MAX_REGISTERS.
type RegisterId uint32
