package txstore

import (
	"fmt"
	"sort"

	"github.com/ipfs/go-cid"

	"xdao.co/idgov/cidutil"
)

// Named associates a Store with a stable backend name.
type Named struct {
	Name  string
	Store Store
}

// Replicating writes to all configured backends.
//
// Reads fall back in order. Writes go to all backends and require all returned
// digests to match (otherwise ErrCIDMismatch is returned).
type Replicating struct {
	Backends []Named
}

var (
	_ Store  = Replicating{}
	_ Lister = Replicating{}
)

// PutAll writes the same payload to all backends.
//
// It returns the digest computed from payload and a map of backend name to
// the digest that backend returned.
func (r Replicating) PutAll(payload []byte) (cid.Cid, map[string]cid.Cid, error) {
	want, err := cidutil.Digest(payload)
	if err != nil {
		return cid.Undef, nil, err
	}
	if len(r.Backends) == 0 {
		return cid.Undef, nil, fmt.Errorf("txstore: Replicating has no backends")
	}

	out := make(map[string]cid.Cid, len(r.Backends))
	for _, b := range r.Backends {
		if b.Store == nil {
			return cid.Undef, nil, fmt.Errorf("txstore: nil store for backend %q", b.Name)
		}
		got, err := b.Store.Put(payload)
		if err != nil {
			return cid.Undef, out, fmt.Errorf("txstore: backend %q: %w", b.Name, err)
		}
		out[b.Name] = got
		if got != want {
			return cid.Undef, out, ErrCIDMismatch
		}
	}
	return want, out, nil
}

func (r Replicating) Put(payload []byte) (cid.Cid, error) {
	id, _, err := r.PutAll(payload)
	return id, err
}

func (r Replicating) Get(id cid.Cid) ([]byte, error) {
	for _, b := range r.Backends {
		if b.Store == nil {
			continue
		}
		out, err := b.Store.Get(id)
		if err == nil {
			return out, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (r Replicating) Has(id cid.Cid) bool {
	for _, b := range r.Backends {
		if b.Store != nil && b.Store.Has(id) {
			return true
		}
	}
	return false
}

// List returns the union of keys across backends that implement Lister,
// sorted by string form.
func (r Replicating) List() ([]cid.Cid, error) {
	seen := make(map[cid.Cid]struct{})
	for _, b := range r.Backends {
		l, ok := b.Store.(Lister)
		if !ok {
			continue
		}
		ids, err := l.List()
		if err != nil {
			return nil, fmt.Errorf("txstore: backend %q: %w", b.Name, err)
		}
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	out := make([]cid.Cid, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	SortCIDs(out)
	return out, nil
}

// SortCIDs sorts ids by their string form.
func SortCIDs(ids []cid.Cid) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
}
