package resolver

import "fmt"

// Linearize computes the ancestor precedence order of every contract
// via a C3 merge. Each order starts with the contract itself and ends
// with the GlobalScope pseudo-contract; between them, more-derived
// bases precede less-derived ones. Solidity lists bases from most base
// to most derived, so the declared order is reversed before merging.
// Bases never declared in the analyzed sources linearize as external
// leaves.
func Linearize(u *Universe) (map[string][]string, error) {
	memo := make(map[string][]string)
	visiting := make(map[string]bool)

	var lin func(name string) ([]string, error)
	lin = func(name string) ([]string, error) {
		if order, ok := memo[name]; ok {
			return order, nil
		}
		if visiting[name] {
			return nil, fmt.Errorf("%w: cycle through %s", ErrInconsistentInheritance, name)
		}
		visiting[name] = true
		defer delete(visiting, name)

		if name == GlobalScope {
			memo[name] = []string{GlobalScope}
			return memo[name], nil
		}

		var declared []string
		if c, ok := u.Contracts[name]; ok {
			declared = c.Bases
		}
		bases := make([]string, 0, len(declared)+1)
		for i := len(declared) - 1; i >= 0; i-- {
			bases = append(bases, declared[i])
		}
		// GlobalScope is the implicit final base of every contract, so it
		// always ends up last in the merge.
		bases = append(bases, GlobalScope)

		toMerge := make([][]string, 0, len(bases)+1)
		for _, b := range bases {
			bl, err := lin(b)
			if err != nil {
				return nil, err
			}
			toMerge = append(toMerge, bl)
		}
		toMerge = append(toMerge, bases)

		merged, err := c3Merge(name, toMerge)
		if err != nil {
			return nil, err
		}

		order := append([]string{name}, merged...)
		memo[name] = order
		return order, nil
	}

	out := make(map[string][]string, len(u.Order))
	for _, name := range u.Order {
		order, err := lin(name)
		if err != nil {
			return nil, err
		}
		out[name] = order
	}
	return out, nil
}

// c3Merge merges candidate linearizations, repeatedly selecting the
// first head that occurs in no other list's tail. Failure to find such
// a head means the hierarchy orderings contradict each other.
func c3Merge(name string, lists [][]string) ([]string, error) {
	work := make([][]string, 0, len(lists))
	for _, l := range lists {
		if len(l) > 0 {
			work = append(work, append([]string{}, l...))
		}
	}

	var merged []string
	for len(work) > 0 {
		head := ""
		for _, candidate := range work {
			if !inAnyTail(candidate[0], work) {
				head = candidate[0]
				break
			}
		}
		if head == "" {
			return nil, fmt.Errorf("%w: cannot linearize %s", ErrInconsistentInheritance, name)
		}

		merged = append(merged, head)
		next := work[:0]
		for _, l := range work {
			if len(l) > 0 && l[0] == head {
				l = l[1:]
			}
			if len(l) > 0 {
				next = append(next, l)
			}
		}
		work = next
	}
	return merged, nil
}

func inAnyTail(name string, lists [][]string) bool {
	for _, l := range lists {
		for _, x := range l[1:] {
			if x == name {
				return true
			}
		}
	}
	return false
}
