// Package id issues process-unique opaque identifiers used as IR keys.
package id

import (
	"fmt"
	"sync/atomic"
)

// Id is a process-unique opaque token. Equality and hashability are
// structural; order of issuance carries no meaning to the IR, but Ids
// are totally ordered for debug formatting.
type Id uint64

// counter is incremented before use, so the first Id issued is 1 and the
// zero value of Id is reserved for "no Id."
var counter atomic.Uint64

// New returns an Id never previously returned in this process.
// Safe for concurrent use.
func New() Id {
	return Id(counter.Add(1))
}

func (i Id) String() string {
	return fmt.Sprintf("#%d", uint64(i))
}
