package ir

import (
	"crypto/sha1"

	"github.com/google/uuid"
)

// Namespace is the identity namespace for content-derived node identities:
// Derive(uuid.Nil, "polygenea").
var Namespace = Derive(uuid.Nil, []byte("polygenea"))

// Derive computes a version-5 name-based identifier: SHA-1 over the 16
// namespace bytes followed by name, truncated to 16 bytes, version nibble
// forced to 5 and variant bits to 10.
func Derive(namespace uuid.UUID, name []byte) uuid.UUID {
	return uuid.NewSHA1(namespace, name)
}

// DeriveBare is Derive without a namespace: the digest covers name alone.
func DeriveBare(name []byte) uuid.UUID {
	sum := sha1.Sum(name)
	var id uuid.UUID
	copy(id[:], sum[:16])
	id[6] = (id[6] & 0x0f) | 0x50 // version 5
	id[8] = (id[8] & 0x3f) | 0x80 // RFC 4122 variant
	return id
}

// ContentID computes the content-derived identity of a canonical node map.
// obj must not carry "!uuid"; references are hashed as identity strings.
// Returns error if obj cannot be canonically marshaled.
func ContentID(obj IRObject) (uuid.UUID, error) {
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return uuid.Nil, Wrap(ErrIdentity, err, "ContentID: failed to marshal")
	}
	return Derive(Namespace, canonical), nil
}

// IsContentDerived reports whether id has the name-based SHA-1 version.
func IsContentDerived(id uuid.UUID) bool {
	return id.Version() == 5
}

// IsAssigned reports whether id is a time-based or random identifier,
// the versions accepted for nodes with assigned identity.
func IsAssigned(id uuid.UUID) bool {
	v := id.Version()
	return v == 1 || v == 4
}
