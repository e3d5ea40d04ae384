package domain

// SwapGroup tracks the legs of a multi-leg atomic swap. Membership is
// bounded by MaxSwapGroupSize; settlement is gated on all members being
// READY.
type SwapGroup struct {
	ID         string
	TxIDs      []string
	ReadyCount int
}

func NewSwapGroup(id string) *SwapGroup {
	return &SwapGroup{
		ID:    id,
		TxIDs: make([]string, 0, MaxSwapGroupSize),
	}
}

func (g *SwapGroup) AddMember(txID string) error {
	if len(g.TxIDs) >= MaxSwapGroupSize {
		return NewOperationalError("swap group %s is full", g.ID)
	}
	for _, id := range g.TxIDs {
		if id == txID {
			return NewConflictError(
				"transaction %s already in swap group %s", txID, g.ID,
			)
		}
	}
	g.TxIDs = append(g.TxIDs, txID)
	return nil
}

func (g *SwapGroup) MarkMemberReady() {
	if g.ReadyCount < len(g.TxIDs) {
		g.ReadyCount++
	}
}

func (g *SwapGroup) Total() int {
	return len(g.TxIDs)
}

func (g *SwapGroup) AllReady() bool {
	return len(g.TxIDs) > 0 && g.ReadyCount == len(g.TxIDs)
}
