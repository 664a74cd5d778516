// Package workflow decides whether an action is currently permitted for a
// caller. Decisions are pure: they depend only on the Snapshot and the action,
// and never reach the ledger.
package workflow
