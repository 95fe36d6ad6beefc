package didoc

import (
	"errors"
	"testing"
)

func sampleDoc() Document {
	return Document{
		ID:         "did:xdao:0xabc",
		Controller: []string{"did:xdao:0xabc"},
		VerificationMethod: []VerificationMethod{{
			ID:                 "did:xdao:0xabc#key-1",
			Controller:         "did:xdao:0xabc",
			Type:               "Ed25519VerificationKey2020",
			PublicKeyMultibase: "z6Mk",
		}},
		Authentication: []string{"did:xdao:0xabc#key-1"},
	}
}

func TestPackUnpack(t *testing.T) {
	b, err := Pack(sampleDoc(), Metadata{Created: "2026-01-01T00:00:00Z"})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if string(b[:3]) != "DID" || b[3] != VersionV1 || b[4] != EncodingJSON {
		t.Fatalf("unexpected header: %v", b[:5])
	}
	doc, meta, err := Unpack(b)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if doc.ID != "did:xdao:0xabc" || len(doc.VerificationMethod) != 1 {
		t.Fatalf("document mismatch: %+v", doc)
	}
	if meta.Created != "2026-01-01T00:00:00Z" {
		t.Fatalf("metadata mismatch: %+v", meta)
	}
}

func TestUnpackRejects(t *testing.T) {
	good, err := Pack(sampleDoc(), Metadata{})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	badVersion := append([]byte(nil), good...)
	badVersion[3] = 9
	badEncoding := append([]byte(nil), good...)
	badEncoding[4] = 1

	cases := []struct {
		name string
		in   []byte
		want error
	}{
		{"empty", nil, ErrEmpty},
		{"marker", []byte("XYZ\x01\x00\x00\x00"), ErrMarker},
		{"short", []byte("DI"), ErrMarker},
		{"version", badVersion, ErrUnsupportedVersion},
		{"encoding", badEncoding, ErrUnsupportedEncoding},
		{"truncated", good[:len(good)-1], ErrLength},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Unpack(tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestUnpackRejectsBadJSON(t *testing.T) {
	b := []byte("DID\x01\x00\x02\x00{]")
	if err := Validate(b); err == nil {
		t.Fatalf("expected decode error")
	}
}
