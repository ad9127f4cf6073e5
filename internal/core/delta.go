package core

// Op is a mutation applied to an entry.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Delta returns the signed change to a user's balance caused by a single
// entry mutation. Income raises the balance and expense lowers it. For
// updates the change is relative to the previously stored amount of the
// same entry; before is ignored on create and after is ignored on delete.
func Delta(kind EntryKind, op Op, before, after Money) Money {
	var d Money
	switch op {
	case OpCreate:
		d = after
	case OpUpdate:
		d = after.Sub(before)
	case OpDelete:
		d = before.Neg()
	default:
		return Zero
	}
	if kind == KindExpense {
		d = d.Neg()
	}
	return d
}

// NetTotal is sum(incomes) - sum(expenses).
func NetTotal(incomes []Income, expenses []Expense) Money {
	total := Zero
	for _, in := range incomes {
		total = total.Add(in.Amount)
	}
	for _, ex := range expenses {
		total = total.Sub(ex.Amount)
	}
	return total
}
