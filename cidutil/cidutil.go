// Package cidutil derives the content identifiers used across idgov.
//
// Transaction digests are CIDv1 (dag-cbor codec) over a blake2b-256
// multihash of the canonical payload bytes. Ledger object IDs created by a
// transaction are derived from that digest and a creation index, so the same
// payload always creates objects with the same IDs.
package cidutil

import (
	"encoding/binary"
	"errors"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"golang.org/x/crypto/blake2b"
)

// Blake2b256 is the multihash code for blake2b with a 32-byte digest.
const Blake2b256 = multihash.BLAKE2B_MIN + 31

var ErrEmpty = errors.New("cidutil: empty input")

// Digest returns the transaction digest for canonical payload bytes.
func Digest(payload []byte) (cid.Cid, error) {
	if len(payload) == 0 {
		return cid.Undef, ErrEmpty
	}
	sum := blake2b.Sum256(payload)
	mh, err := multihash.Encode(sum[:], Blake2b256)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.DagCBOR, mh), nil
}

// DigestString is Digest rendered in its default string form. It returns ""
// only for empty input.
func DigestString(payload []byte) string {
	id, err := Digest(payload)
	if err != nil {
		return ""
	}
	return id.String()
}

// DeriveObjectID returns the ID of the index-th object created by the
// transaction with the given digest.
func DeriveObjectID(txDigest cid.Cid, index uint32) (cid.Cid, error) {
	if !txDigest.Defined() {
		return cid.Undef, ErrEmpty
	}
	raw := txDigest.Bytes()
	buf := make([]byte, 0, len(raw)+4)
	buf = append(buf, raw...)
	buf = binary.BigEndian.AppendUint32(buf, index)

	sum := blake2b.Sum256(buf)
	mh, err := multihash.Encode(sum[:], Blake2b256)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

// IsDigest reports whether s parses as a transaction digest produced by Digest.
func IsDigest(s string) bool {
	id, err := cid.Decode(s)
	if err != nil || !id.Defined() {
		return false
	}
	if id.Prefix().Codec != cid.DagCBOR {
		return false
	}
	return id.Prefix().MhType == Blake2b256
}
