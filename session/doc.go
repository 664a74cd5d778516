// Package session drives the voting ledger for a single caller.
//
// Controller owns the session state: the phase, the ledger owner, the caller
// and at most one pending submission. Every action goes through the workflow
// gate before it reaches the ledger, and a confirmed action moves the phase
// exactly one step forward. When the caller identity changes the state is
// dropped and bootstrapped again from the ledger.
package session
