package crypto

import "github.com/tesseract-protocol/tesseract/core/types"

// CommitmentHash binds a payload to a secret for the commit-reveal
// scheme: keccak256(payload || secret). A reveal succeeds only when the
// disclosed pair reproduces the stored commitment.
func CommitmentHash(payload, secret []byte) types.Hash {
	return Keccak256Hash(payload, secret)
}

// RoleHash derives a capability identifier from its name, matching the
// keccak256("BUFFER_ROLE") convention of the on-chain buffer contract.
func RoleHash(name string) types.Hash {
	return Keccak256Hash([]byte(name))
}
