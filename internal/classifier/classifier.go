// Package classifier routes transactions to the supplier or customer ledger.
//
// Purchase and sales sources decide on their own. Bank rows carry no such
// signal, so the category is read from the token embedded in the party id
// (CG-SUP-0001) and, for master parties, from the direction of the money.
package classifier

import (
	"strings"

	"github.com/ginjaninja78/party-ledger/internal/types"
)

// Party id tokens, matched case-sensitively against the normalized id.
const (
	TokenSupplier   = "-SUP-"
	TokenCustomer   = "-CUS-"
	TokenRental     = "-REN-"
	TokenDealer     = "-DEA-"
	TokenContractor = "-CON-"
	TokenMaster     = "-MAS-"
)

// Classify returns the ledger category of txn.
//
// Bank rules, first match wins:
//   - -SUP-                  supplier
//   - -CUS-, -REN-, -DEA-    customer
//   - -CON-                  excluded from every ledger
//   - -MAS-                  supplier when money went out (credit), customer
//     when it came in (debit)
//   - anything else          customer
func Classify(partyID string, docType types.DocType, txn types.Transaction) types.Category {
	switch docType {
	case types.DocPurchase:
		return types.CategorySupplier
	case types.DocSales:
		return types.CategoryCustomer
	}

	switch {
	case strings.Contains(partyID, TokenSupplier):
		return types.CategorySupplier
	case strings.Contains(partyID, TokenCustomer),
		strings.Contains(partyID, TokenRental),
		strings.Contains(partyID, TokenDealer):
		return types.CategoryCustomer
	case strings.Contains(partyID, TokenContractor):
		return types.CategoryExcluded
	case strings.Contains(partyID, TokenMaster):
		if txn.Credit.IsPositive() {
			return types.CategorySupplier
		}
		if txn.Debit.IsPositive() {
			return types.CategoryCustomer
		}
	}
	return types.CategoryCustomer
}

// ClassifyTransaction classifies txn by its own party id and doc type.
func ClassifyTransaction(txn types.Transaction) types.Category {
	return Classify(txn.PartyID, txn.DocType, txn)
}
