// Package grpcledger carries the ledger.Client contract over gRPC.
//
// Objects and effects travel as CBOR (package codec) inside protobuf
// wrapper messages. Ledger sentinel errors map to gRPC status codes on the
// server and back to the same sentinels on the client.
package grpcledger
