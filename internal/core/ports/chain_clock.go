package ports

// ChainClock supplies the host-ledger view of time to the services. The
// domain never reads an ambient clock; every operation receives Now and
// Height from here so the state machines stay deterministic under test.
type ChainClock interface {
	// Now returns the current ledger time as unix seconds.
	Now() int64
	// Height returns the current block height.
	Height() uint64
}
