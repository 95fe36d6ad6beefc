// Package didoc packs and unpacks the DID document payload stored in an
// identity object.
//
// Packed layout:
//
//	"DID" | version (1 byte) | encoding (1 byte) | length (u16, little endian) | data
//
// Only version 1 with JSON encoding is defined. The JSON body is
// {"doc": <Document>, "meta": <Metadata>}.
package didoc

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

const (
	VersionV1    byte = 1
	EncodingJSON byte = 0
)

var marker = []byte("DID")

const headerLen = 3 + 1 + 1 + 2

var (
	ErrEmpty               = errors.New("didoc: empty document bytes")
	ErrMarker              = errors.New("didoc: missing DID marker")
	ErrUnsupportedVersion  = errors.New("didoc: unsupported version")
	ErrUnsupportedEncoding = errors.New("didoc: unsupported encoding")
	ErrLength              = errors.New("didoc: length prefix does not match data")
	ErrTooLarge            = errors.New("didoc: document exceeds maximum packed size")
)

type VerificationMethod struct {
	ID                 string `json:"id"`
	Controller         string `json:"controller"`
	Type               string `json:"type"`
	PublicKeyMultibase string `json:"publicKeyMultibase,omitempty"`
}

type Service struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	ServiceEndpoint string `json:"serviceEndpoint"`
}

// Document is the subset of a DID document idgov understands. Fields it does
// not model are dropped on unpack.
type Document struct {
	ID                 string               `json:"id"`
	Controller         []string             `json:"controller,omitempty"`
	AlsoKnownAs        []string             `json:"alsoKnownAs,omitempty"`
	VerificationMethod []VerificationMethod `json:"verificationMethod,omitempty"`
	Authentication     []string             `json:"authentication,omitempty"`
	Service            []Service            `json:"service,omitempty"`
}

type Metadata struct {
	Created     string `json:"created,omitempty"`
	Updated     string `json:"updated,omitempty"`
	Deactivated *bool  `json:"deactivated,omitempty"`
}

type packed struct {
	Doc  Document `json:"doc"`
	Meta Metadata `json:"meta"`
}

// Pack renders doc and meta in the packed layout.
func Pack(doc Document, meta Metadata) ([]byte, error) {
	if doc.ID == "" {
		return nil, errors.New("didoc: document id is required")
	}
	data, err := json.Marshal(packed{Doc: doc, Meta: meta})
	if err != nil {
		return nil, fmt.Errorf("didoc: encode: %w", err)
	}
	if len(data) > math.MaxUint16 {
		return nil, ErrTooLarge
	}
	out := make([]byte, 0, headerLen+len(data))
	out = append(out, marker...)
	out = append(out, VersionV1, EncodingJSON)
	out = binary.LittleEndian.AppendUint16(out, uint16(len(data)))
	out = append(out, data...)
	return out, nil
}

// Unpack parses packed document bytes.
func Unpack(b []byte) (Document, Metadata, error) {
	if len(b) == 0 {
		return Document{}, Metadata{}, ErrEmpty
	}
	if len(b) < headerLen || !bytes.Equal(b[:3], marker) {
		return Document{}, Metadata{}, ErrMarker
	}
	if b[3] != VersionV1 {
		return Document{}, Metadata{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, b[3])
	}
	if b[4] != EncodingJSON {
		return Document{}, Metadata{}, fmt.Errorf("%w: %d", ErrUnsupportedEncoding, b[4])
	}
	n := int(binary.LittleEndian.Uint16(b[5:7]))
	data := b[headerLen:]
	if len(data) != n {
		return Document{}, Metadata{}, ErrLength
	}
	var p packed
	if err := json.Unmarshal(data, &p); err != nil {
		return Document{}, Metadata{}, fmt.Errorf("didoc: decode: %w", err)
	}
	if p.Doc.ID == "" {
		return Document{}, Metadata{}, errors.New("didoc: document id is required")
	}
	return p.Doc, p.Meta, nil
}

// Validate reports whether b is a well-formed packed document.
func Validate(b []byte) error {
	_, _, err := Unpack(b)
	return err
}
