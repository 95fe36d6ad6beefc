// Package codec holds the single CBOR configuration used for everything that
// crosses the ledger boundary: transaction payloads, ledger object bytes, and
// execution effects carried over the gRPC transport.
//
// Encoding uses Core Deterministic Encoding (RFC 8949 §4.2). The same logical
// value always yields identical bytes, which is what makes transaction
// digests and journal keys stable.
//
// Two decoders exist. Unmarshal is lenient and ignores unknown fields; it is
// for transport envelopes that may grow. UnmarshalStrict rejects unknown
// fields and duplicate map keys; it is for payloads and ledger objects, where
// two different byte strings must never decode to the same value.
package codec
