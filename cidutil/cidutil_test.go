package cidutil

import "testing"

func TestDigestStable(t *testing.T) {
	a, err := Digest([]byte("payload"))
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	b, err := Digest([]byte("payload"))
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if !a.Equals(b) {
		t.Fatalf("digest not stable: %s vs %s", a, b)
	}
	if !IsDigest(a.String()) {
		t.Fatalf("IsDigest(%s) = false", a)
	}
	other, _ := Digest([]byte("payload2"))
	if a.Equals(other) {
		t.Fatalf("distinct payloads share a digest")
	}
}

func TestDigestRejectsEmpty(t *testing.T) {
	if _, err := Digest(nil); err != ErrEmpty {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	if DigestString(nil) != "" {
		t.Fatalf("DigestString(nil) should be empty")
	}
}

func TestDeriveObjectID(t *testing.T) {
	d, _ := Digest([]byte("tx"))
	first, err := DeriveObjectID(d, 0)
	if err != nil {
		t.Fatalf("DeriveObjectID: %v", err)
	}
	again, _ := DeriveObjectID(d, 0)
	second, _ := DeriveObjectID(d, 1)
	if !first.Equals(again) {
		t.Fatalf("derivation not deterministic")
	}
	if first.Equals(second) {
		t.Fatalf("distinct indexes share an object ID")
	}
	if IsDigest(first.String()) {
		t.Fatalf("object IDs must not parse as transaction digests")
	}
}
