// Package executor runs GraphQL queries and mutations breadth-first against a
// schema.Schema, calling out to a Runtime for every value it needs.
//
// # Depths and batches
//
// Fields come in two flavours, chosen by schema.Field.Async. Sync fields are
// resolved inline through Runtime.ResolveSync and completed at once, so a
// chain of sync fields never costs a round trip. Async fields are queued with
// their response path; once the current depth has been expanded, the whole
// queue goes to a single Runtime.BatchResolveAsync call. Completing those
// results may queue the next depth, and the loop repeats until nothing is
// pending. The graph builder marks batched source operations async, which is
// what lets one loader call serve every parent at a depth.
//
// Completion follows the usual rules: leaves go through
// Runtime.SerializeLeafValue, lists complete item by item, objects expand
// their merged sub-selections, and interface or union values are first mapped
// to an object type with Runtime.ResolveType.
//
// # Errors
//
// A document that fails to parse is returned from Execute as
// *language.Error. Everything after that is reported inside the
// ExecutionResult, next to whatever data could still be produced:
//
//   - an unknown operation or a bad variable stops the operation before any
//     field runs;
//   - a bad argument is recorded and the field still resolves without it;
//   - a resolver error goes through the ExceptionHandler and the field
//     becomes null.
//
// A null in a non-null sync field nulls its parent object, up to the first
// nullable field. For async fields the null goes straight to the root field
// above them, and anything still queued under that root is dropped.
//
// # Fragments and directives
//
// Fragment spreads and inline fragments are flattened per object type. A
// type condition naming an interface or union applies to its possible types.
// @skip and @include are honoured on fields, spreads, inline fragments and
// fragment definitions.
package executor
