// Package subscribe implements the Subscription Partitioner component.
//
// A subscribe request carries a list of symbols whose encoded length must stay
// under a transport budget (21000 chars upstream). Partition splits the symbol
// set greedily in input order; it never reorders or rebalances, so the result
// is deterministic and the concatenation of all groups reconstructs the input
// exactly.
package subscribe
