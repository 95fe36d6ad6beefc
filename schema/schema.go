// Package schema defines the byte layouts shared by idgov and the ledger's
// governance module: identity and proposal objects, and the transaction
// payload that mutates them.
//
// All layouts are CBOR with integer keys, encoded with codec.Marshal and
// decoded strictly. Field numbers are frozen per PayloadVersion.
package schema

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"xdao.co/idgov/action"
	"xdao.co/idgov/codec"
)

// PayloadVersion is the current transaction payload schema version.
const PayloadVersion uint8 = 1

// Governance module abort codes reported in ledger.ExecutionStatus.Code.
const (
	AbortUnauthorized    = "unauthorized"
	AbortDuplicateVote   = "duplicate_vote"
	AbortExpired         = "expired"
	AbortThresholdNotMet = "threshold_not_met"
	AbortDeleted         = "identity_deleted"
	AbortMalformed       = "malformed"
)

// Event types emitted by the governance module.
const (
	EventProposalCreated  = "governance.proposal_created"
	EventProposalApproved = "governance.proposal_approved"
	EventActionExecuted   = "governance.action_executed"
)

var ErrUnsupportedVersion = errors.New("schema: unsupported payload version")

// IdentityObject is the on-ledger state of an identity.
type IdentityObject struct {
	Committee map[string]uint64 `cbor:"1,keyasint"`
	Threshold uint64            `cbor:"2,keyasint"`
	Document  []byte            `cbor:"3,keyasint,omitempty"`
	Deleted   bool              `cbor:"4,keyasint"`
}

// ProposalObject is the on-ledger state of a pending proposal. Voters is
// kept sorted.
type ProposalObject struct {
	Identity   string        `cbor:"1,keyasint"`
	Action     action.Record `cbor:"2,keyasint"`
	Expiration *uint64       `cbor:"3,keyasint,omitempty"`
	Votes      uint64        `cbor:"4,keyasint"`
	Voters     []string      `cbor:"5,keyasint"`
}

// Weight sums the committee weight of voters. Voters missing from the
// committee contribute nothing. The sum saturates at math.MaxUint64.
func Weight(committee map[string]uint64, voters []string) uint64 {
	var total uint64
	for _, v := range voters {
		w := committee[v]
		if total > math.MaxUint64-w {
			return math.MaxUint64
		}
		total += w
	}
	return total
}

// HasVoter reports whether controller is among voters.
func (p ProposalObject) HasVoter(controller string) bool {
	i := sort.SearchStrings(p.Voters, controller)
	return i < len(p.Voters) && p.Voters[i] == controller
}

// WithVoter returns a sorted copy of voters including controller.
func WithVoter(voters []string, controller string) []string {
	out := append([]string(nil), voters...)
	i := sort.SearchStrings(out, controller)
	if i < len(out) && out[i] == controller {
		return out
	}
	out = append(out, "")
	copy(out[i+1:], out[i:])
	out[i] = controller
	return out
}

// Expired reports whether epoch is strictly past the expiration.
func Expired(expiration *uint64, epoch uint64) bool {
	return expiration != nil && epoch > *expiration
}

func EncodeIdentity(o IdentityObject) ([]byte, error) {
	if o.Committee == nil {
		o.Committee = map[string]uint64{}
	}
	return codec.Marshal(o)
}

func DecodeIdentity(b []byte) (IdentityObject, error) {
	var o IdentityObject
	if err := codec.UnmarshalStrict(b, &o); err != nil {
		return IdentityObject{}, fmt.Errorf("schema: decode identity: %w", err)
	}
	if o.Committee == nil {
		o.Committee = map[string]uint64{}
	}
	return o, nil
}

func EncodeProposal(o ProposalObject) ([]byte, error) {
	if !sort.StringsAreSorted(o.Voters) {
		return nil, errors.New("schema: proposal voters must be sorted")
	}
	return codec.Marshal(o)
}

func DecodeProposal(b []byte) (ProposalObject, error) {
	var o ProposalObject
	if err := codec.UnmarshalStrict(b, &o); err != nil {
		return ProposalObject{}, fmt.Errorf("schema: decode proposal: %w", err)
	}
	if !sort.StringsAreSorted(o.Voters) {
		return ProposalObject{}, errors.New("schema: proposal voters must be sorted")
	}
	for i := 1; i < len(o.Voters); i++ {
		if o.Voters[i] == o.Voters[i-1] {
			return ProposalObject{}, fmt.Errorf("schema: duplicate voter %q", o.Voters[i])
		}
	}
	if _, err := action.FromRecord(o.Action); err != nil {
		return ProposalObject{}, fmt.Errorf("schema: decode proposal: %w", err)
	}
	return o, nil
}
