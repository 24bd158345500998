package runtime

import (
	"sort"
	"sync"

	"github.com/jmerrifield20/linkboard/pkg/txn"
)

const lockStripes = 256

// lockTable serialises transactions that touch the same accounts. Accounts
// map onto a fixed set of striped RW locks; writers take the stripe
// exclusively, readers share it. Stripes are always acquired in ascending
// order.
type lockTable struct {
	stripes [lockStripes]sync.RWMutex
}

func stripeOf(m txn.AccountMeta) int {
	return int(m.Address[0]^m.Address[31]) % lockStripes
}

// lock acquires the stripes for metas and returns the matching unlock func.
func (t *lockTable) lock(metas []txn.AccountMeta) func() {
	write := make(map[int]bool, len(metas))
	for _, m := range metas {
		s := stripeOf(m)
		write[s] = write[s] || m.Writable
	}

	order := make([]int, 0, len(write))
	for s := range write {
		order = append(order, s)
	}
	sort.Ints(order)

	for _, s := range order {
		if write[s] {
			t.stripes[s].Lock()
		} else {
			t.stripes[s].RLock()
		}
	}

	return func() {
		for i := len(order) - 1; i >= 0; i-- {
			s := order[i]
			if write[s] {
				t.stripes[s].Unlock()
			} else {
				t.stripes[s].RUnlock()
			}
		}
	}
}
