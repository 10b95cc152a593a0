// Package contract hosts the milestone campaign state machine.
//
// A Contract plays the role of the ledger host for one campaign instance:
// every operation is one invocation, invocations are serialized, and each
// runs inside a single storage transaction that loads the aggregate from
// StorageKey, authorizes, validates, and writes the full aggregate back.
// Typed business errors and aborts both leave storage untouched.
package contract
