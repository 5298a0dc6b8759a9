package wallet

// Settlement is the outcome of applying a refund against a customer's dues.
type Settlement struct {
	Base           int64 `json:"base"`
	Charge         int64 `json:"charge"`
	DueBefore      int64 `json:"due_before"`
	DueCleared     int64 `json:"due_cleared"`
	DueAfter       int64 `json:"due_after"`
	RefundToWallet int64 `json:"refund_to_wallet"`
}

// ComputeSettlement applies dues-first settlement. When the order carries a
// charge and the customer owes dues, up to the charge is cleared from dues
// and only the uncovered part of the charge is withheld from the refund.
// The wallet credit never goes below zero.
func ComputeSettlement(base, charge, due int64) Settlement {
	out := Settlement{
		Base:           base,
		Charge:         charge,
		DueBefore:      due,
		DueAfter:       due,
		RefundToWallet: base,
	}
	if charge > 0 && due > 0 {
		out.DueCleared = min(due, charge)
		out.DueAfter = due - out.DueCleared
		out.RefundToWallet = base - (charge - out.DueCleared)
	}
	if out.RefundToWallet < 0 {
		out.RefundToWallet = 0
	}
	return out
}

// chargeSplit divides a fee between the wallet and the due amount.
func chargeSplit(amount, wallet int64) (fromWallet, toDue int64) {
	if amount <= 0 {
		return 0, 0
	}
	fromWallet = min(wallet, amount)
	if fromWallet < 0 {
		fromWallet = 0
	}
	return fromWallet, amount - fromWallet
}
