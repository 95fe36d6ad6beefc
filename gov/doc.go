// Package gov is the multi-controller governance engine for a shared
// on-ledger identity.
//
// An Identity mirrors the ledger's identity object: its weighted controller
// committee, approval threshold, current DID document and deleted flag. A
// ControllerToken names one controller acting on one identity. Changes to an
// identity go through a Proposal carrying one action.Action; controllers
// approve it until their summed weight reaches the threshold, at which point
// the action executes and the proposal is consumed.
//
// Every operation is a Transaction. Build reads the current ledger state and
// returns a canonical payload without touching local state; the caller signs
// and submits it; Apply reconciles the local mirrors from the ledger's
// Effects. Run does all of that under the handles' exclusive locks.
//
// Errors are *Error values with a stable Kind and RuleID. Callers should
// branch on IsKind/RuleID rather than matching error strings.
package gov
