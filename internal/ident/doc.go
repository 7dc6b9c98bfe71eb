// Package ident computes content-addressed identities for journal rows.
//
// Every event and result row is keyed by a SHA-256 hash of its canonical
// JSON form with a domain-separation prefix. The same logical row always
// hashes to the same id, which is what makes journal writes idempotent and
// lets Verify recompute ids from stored rows.
//
// Canonical form follows RFC 8785: object keys sorted by UTF-16 code units,
// strings NFC normalized, no HTML escaping, and no floats or nulls anywhere.
// Hashes are computed as SHA256(domain + 0x00 + canonicalJSON); the null
// separator keeps domain and payload from running together.
package ident
