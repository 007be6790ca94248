// Package contacts loads the party master directory. Directory values are
// authoritative for names, addresses and contact details on every ledger.
package contacts

import (
	"strings"

	"github.com/ginjaninja78/party-ledger/internal/apperrors"
	"github.com/ginjaninja78/party-ledger/internal/headerdetect"
	"github.com/ginjaninja78/party-ledger/internal/source"
	"github.com/ginjaninja78/party-ledger/internal/types"
)

// Directory columns.
const (
	ColID             = "ID"
	ColName           = "NAME"
	ColAddress1       = "ADDRESS 1"
	ColAddress2       = "ADDRESS 2"
	ColGST            = "GST"
	ColPhone          = "PHONE"
	ColEmail          = "EMAIL"
	ColRelatedCompany = "RELATED COMPANY"
	ColContactPerson  = "CONTACT PERSON"
)

// HeaderSpec describes the directory header.
func HeaderSpec() headerdetect.Spec {
	return headerdetect.Spec{
		Expected: []string{ColID, ColName, ColAddress1, ColAddress2, ColGST, ColPhone, ColEmail, ColRelatedCompany, ColContactPerson},
		Anchor:   ColID,
		ScanRows: headerdetect.DefaultScanRows,
	}
}

// typeTokens are checked in order; the first token found in the id wins.
var typeTokens = []struct {
	token string
	typ   types.ContactType
}{
	{"SUP", types.ContactSupplier},
	{"CUS", types.ContactCustomer},
	{"CON", types.ContactContractor},
	{"DEA", types.ContactDealer},
	{"REN", types.ContactRental},
	{"MAS", types.ContactMaster},
}

// InferType derives the informational contact type from a party id.
func InferType(id string) types.ContactType {
	id = strings.ToUpper(id)
	for _, t := range typeTokens {
		if strings.Contains(id, t.token) {
			return t.typ
		}
	}
	return types.ContactOther
}

// Load reads the directory tab. An empty directory id yields an empty
// directory, not an error.
func Load(conn source.Connector, directoryID, tab string) (types.ContactDirectory, error) {
	dir := make(types.ContactDirectory)
	if strings.TrimSpace(directoryID) == "" {
		return dir, nil
	}

	table, err := conn.Open(directoryID, tab)
	if err != nil {
		return nil, apperrors.SourceAccess("CONTACTS", err)
	}
	header, err := headerdetect.DetectWith(table, HeaderSpec())
	if err != nil {
		return nil, apperrors.Wrap("detect header", "CONTACTS", err)
	}

	cols := make(map[string]int)
	for i, cell := range table[header] {
		key := headerdetect.Normalize(types.CellString(cell))
		if _, seen := cols[key]; key != "" && !seen {
			cols[key] = i
		}
	}

	for _, row := range table[header+1:] {
		get := func(name string) string {
			i, ok := cols[headerdetect.Normalize(name)]
			if !ok || i >= len(row) {
				return ""
			}
			return types.CellString(row[i])
		}

		id := strings.ToUpper(get(ColID))
		if id == "" {
			continue
		}
		dir[id] = types.ContactRecord{
			ID:             id,
			Name:           get(ColName),
			Address1:       get(ColAddress1),
			Address2:       get(ColAddress2),
			GST:            get(ColGST),
			Phone:          get(ColPhone),
			Email:          get(ColEmail),
			RelatedCompany: get(ColRelatedCompany),
			ContactPerson:  get(ColContactPerson),
			InferredType:   InferType(id),
		}
	}
	return dir, nil
}
