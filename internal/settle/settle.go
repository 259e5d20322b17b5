package settle

import (
	"math"
	"sort"

	"github.com/darby/hearth/internal/model"
)

// Debt is a single pairwise obligation: FromID owes ToID Amount, in the
// team's primary currency. Debts are derived values and never persisted.
type Debt struct {
	FromID int64   `json:"from_id"`
	ToID   int64   `json:"to_id"`
	Amount float64 `json:"amount"`
}

// ComputeRawDebts converts a set of expenses into the pairwise obligations
// implied by their shares. Only shared expenses contribute. The payer's own
// share and non-positive share amounts are skipped since they represent no
// real transfer. Duplicate (from, to) pairs are kept as separate line items
// so the raw view shows one entry per contributing share.
func ComputeRawDebts(expenses []model.Expense) []Debt {
	var debts []Debt
	for _, e := range expenses {
		if !e.IsShared || len(e.Shares) == 0 {
			continue
		}
		for _, s := range e.Shares {
			if s.MemberID != e.PaidByID && s.Amount > 0 {
				debts = append(debts, Debt{FromID: s.MemberID, ToID: e.PaidByID, Amount: s.Amount})
			}
		}
	}
	return debts
}

type account struct {
	member  int64
	balance float64
}

// Optimize reduces a raw debt list to a minimal settlement plan using greedy
// min-cash-flow matching: net every member's balance, drop the settled ones,
// sort debtors-first, then repeatedly match the largest debtor against the
// largest creditor. Members with equal balances keep their first-seen order,
// which makes the emitted plan deterministic for a given input order.
func Optimize(debts []Debt) []Debt {
	balances := make(map[int64]float64)
	var seen []int64
	note := func(id int64) {
		if _, ok := balances[id]; !ok {
			balances[id] = 0
			seen = append(seen, id)
		}
	}
	for _, d := range debts {
		note(d.FromID)
		note(d.ToID)
		balances[d.FromID] -= d.Amount
		balances[d.ToID] += d.Amount
	}

	// Balances are compared against exactly zero, matching how the ledger
	// has always behaved. Near-zero float residue therefore stays in play.
	var people []account
	for _, id := range seen {
		if balances[id] != 0 {
			people = append(people, account{member: id, balance: balances[id]})
		}
	}
	sort.SliceStable(people, func(a, b int) bool {
		return people[a].balance < people[b].balance
	})

	var plan []Debt
	i, j := 0, len(people)-1
	for i < j {
		debtor := &people[i]
		creditor := &people[j]
		owed := math.Abs(debtor.balance)
		due := math.Abs(creditor.balance)

		switch {
		case owed < due:
			// Debtor clears their whole debt against this creditor.
			plan = append(plan, Debt{FromID: debtor.member, ToID: creditor.member, Amount: owed})
			creditor.balance += debtor.balance
			debtor.balance = 0
			i++
		case owed > due:
			// Creditor is paid off in full; debtor still owes the rest.
			plan = append(plan, Debt{FromID: debtor.member, ToID: creditor.member, Amount: due})
			debtor.balance += creditor.balance
			creditor.balance = 0
			j--
		default:
			plan = append(plan, Debt{FromID: debtor.member, ToID: creditor.member, Amount: owed})
			debtor.balance = 0
			creditor.balance = 0
			i++
			j--
		}
	}
	return plan
}
