// Package ir provides the canonical value model for polygenea.
//
// All other internal packages import ir; ir imports nothing internal. It
// holds the sealed IRValue sum type, the total order over values, the
// strict parser, the canonical serializer whose bytes feed content
// identity, and the shared error taxonomy.
//
// Key design constraints:
//   - Canonical text is byte-exact: sorted keys, no whitespace, fixed escapes
//   - Identities are version-5 UUIDs over canonical text in Namespace
//   - Node references are embedded as IRRef and rendered by a RefEncoder
package ir
