// Package model defines stable boundary types for API layers.
//
// Ledger identity (canonical payload bytes and digests) is unaffected by any
// projection. These structs are the only types intended for direct JSON
// serialization by consumers such as the CLI.
package model
