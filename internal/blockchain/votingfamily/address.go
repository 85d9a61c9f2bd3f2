package votingfamily

import (
	"sync"
	"voting-ledger/internal/hashing"
)

var (
	familyHash       = ""
	ledgerPrefixHash = ""

	calcOnce sync.Once
)

func initHashVars() {
	calcOnce.Do(func() {
		familyHash = hashing.CalculateSHA512(FamilyName)
		ledgerPrefixHash = hashing.CalculateSHA512(ledgerPrefix)
	})
}

// Namespace is the 6 hex character address prefix owned by the family.
func Namespace() string {
	initHashVars()
	return familyHash[0:6]
}

func GetLedgerAddress() (address string) {
	initHashVars()
	return familyHash[0:6] + ledgerPrefixHash[0:64]
}
