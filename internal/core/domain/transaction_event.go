package domain

type TransactionBuffered struct {
	TxID            string
	Origin          string
	Target          string
	DependencyTxID  string
	SwapGroupID     string
	Payload         []byte
	CommitmentHash  string
	RefundRecipient string
	TargetTimestamp int64
	Timestamp       int64
	Height          uint64
}

type TransactionRevealed struct {
	TxID    string
	Payload []byte
}

type TransactionGrouped struct {
	TxID        string
	SwapGroupID string
}

type TransactionReady struct {
	TxID      string
	Timestamp int64
}

type TransactionExpired struct {
	TxID      string
	Timestamp int64
}

type TransactionExecuted struct {
	TxID      string
	Timestamp int64
}

type TransactionFailed struct {
	TxID      string
	Reason    string
	Timestamp int64
}

type RefundClaimed struct {
	TxID      string
	Recipient string
	Timestamp int64
}
