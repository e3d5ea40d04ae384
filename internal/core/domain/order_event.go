package domain

type OrderCreated struct {
	OrderID          string
	Maker            string
	OfferChain       string
	OfferToken       string
	OfferAmount      uint64
	WantChain        string
	WantToken        string
	WantAmount       uint64
	MinReceive       uint64
	Deadline         int64
	RelayerRewardBps uint64
	Taker            string
	Timestamp        int64
}

type OrderTaken struct {
	OrderID         string
	Taker           string
	FillAmount      uint64
	ExpectedReceive uint64
	Filled          uint64
	Timestamp       int64
}

type OrderMatched struct {
	OrderID           string
	SettlementGroupID string
	Timestamp         int64
}

type OrderCancelled struct {
	OrderID   string
	Timestamp int64
}

type OrderExecuted struct {
	OrderID   string
	Timestamp int64
}

type OrderFailed struct {
	OrderID   string
	Reason    string
	Timestamp int64
}

type OrderExpired struct {
	OrderID   string
	Timestamp int64
}

type ProtocolFeeUpdated struct {
	Bps uint64
}
