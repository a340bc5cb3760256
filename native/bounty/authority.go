package bounty

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// authorityNamespace salts the escrow-authority derivation so addresses from
// this scheme can never collide with derivations in other namespaces.
const authorityNamespace = "escrow_auth"

// DeriveAuthority computes the keyless escrow authority for a bounty identity.
// It scans bump values from 255 downward and returns the first candidate whose
// digest does not correspond to a valid secp256k1 public key: an authority
// that cannot be any keypair's address is one no private key can ever sign
// for. The chosen bump is persisted on the bounty record so later operations
// reproduce the authority without re-searching.
func DeriveAuthority(id uint64) ([20]byte, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		addr, ok := authorityCandidate(id, uint8(bump))
		if ok {
			return addr, uint8(bump), nil
		}
	}
	return [20]byte{}, 0, ErrInvalidAuthority
}

// AuthorityAt recomputes the escrow authority for a stored bump. It fails
// closed when the candidate at that bump is on-curve, i.e. when the stored
// bump cannot have been produced by DeriveAuthority for this identity.
func AuthorityAt(id uint64, bump uint8) ([20]byte, error) {
	addr, ok := authorityCandidate(id, bump)
	if !ok {
		return [20]byte{}, ErrInvalidAuthority
	}
	return addr, nil
}

func authorityCandidate(id uint64, bump uint8) ([20]byte, bool) {
	var idBytes [8]byte
	binary.BigEndian.PutUint64(idBytes[:], id)
	digest := ethcrypto.Keccak256([]byte(authorityNamespace), idBytes[:], []byte{bump})

	// Reject digests that are valid compressed-point x coordinates: those
	// addresses could in principle belong to a real keypair.
	compressed := make([]byte, 33)
	compressed[0] = 0x02
	copy(compressed[1:], digest)
	if _, err := ethcrypto.DecompressPubkey(compressed); err == nil {
		return [20]byte{}, false
	}

	var addr [20]byte
	copy(addr[:], digest[12:])
	return addr, true
}
