package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ginjaninja78/party-ledger/internal/apperrors"
	"github.com/ginjaninja78/party-ledger/internal/fieldmap"
	"github.com/ginjaninja78/party-ledger/internal/types"
)

// EnvPrefix namespaces environment overrides, e.g. LEDGER_ORG_CODE.
const EnvPrefix = "LEDGER"

// Organization keys.
const (
	KeyOrgCode         = "ORG_CODE"
	KeyOrgName         = "ORG_NAME"
	KeyOrgAddress1     = "ORG_ADDRESS1"
	KeyOrgAddress2     = "ORG_ADDRESS2"
	KeyOrgGST          = "ORG_GST"
	KeyOrgPhone        = "ORG_PHONE"
	KeyOrgEmail        = "ORG_EMAIL"
	KeyContactsSheetID = "CONTACTS_SHEET_ID"
	KeyContactsTabName = "CONTACTS_TAB_NAME"
	KeyNotifyEmail     = "NOTIFY_EMAIL"
)

var sourcePrefixes = map[types.DocType]string{
	types.DocPurchase: "PUR",
	types.DocSales:    "SAL",
	types.DocBank:     "BANK",
}

// SourcePrefix returns the key prefix of a source kind ("PUR", "SAL", "BANK").
func SourcePrefix(kind types.DocType) string { return sourcePrefixes[kind] }

// SheetIDKey returns e.g. "PUR_SHEET_ID".
func SheetIDKey(kind types.DocType) string { return SourcePrefix(kind) + "_SHEET_ID" }

// TabNameKey returns e.g. "PUR_TAB_NAME".
func TabNameKey(kind types.DocType) string { return SourcePrefix(kind) + "_TAB_NAME" }

// ColumnKey returns the column mapping key of a field, e.g. "PUR_AMOUNT_COL".
func ColumnKey(kind types.DocType, f fieldmap.Field) string {
	return fmt.Sprintf("%s_%s_COL", SourcePrefix(kind), f)
}

// SourceSettings locates one source and its column names.
type SourceSettings struct {
	Kind    types.DocType
	SheetID string
	TabName string

	// Columns is the default mapping of the kind with configured names applied.
	Columns fieldmap.Mapping
}

// Configured reports whether a sheet id is set. Unconfigured sources are
// skipped rather than failed.
func (s SourceSettings) Configured() bool { return s.SheetID != "" }

// OrgSettings is the per-organization configuration.
type OrgSettings struct {
	Company types.Company

	Sources map[types.DocType]SourceSettings

	ContactsSheetID string
	ContactsTabName string
	NotifyEmail     string
}

// Source returns the settings of one source kind.
func (o *OrgSettings) Source(kind types.DocType) SourceSettings {
	if s, ok := o.Sources[kind]; ok {
		return s
	}
	return SourceSettings{Kind: kind, Columns: fieldmap.DefaultMapping(kind)}
}

// Validate fails when the organization cannot be identified or no source is
// configured at all.
func (o *OrgSettings) Validate() error {
	var missing []string
	if o.Company.ID == "" {
		missing = append(missing, KeyOrgCode)
	}
	if o.Company.Name == "" {
		missing = append(missing, KeyOrgName)
	}
	if len(missing) > 0 {
		return apperrors.Configurationf("missing %s", strings.Join(missing, ", "))
	}

	for _, kind := range types.AllDocTypes() {
		if o.Source(kind).Configured() {
			return nil
		}
	}
	keys := make([]string, 0, 3)
	for _, kind := range types.AllDocTypes() {
		keys = append(keys, SheetIDKey(kind))
	}
	return apperrors.Configurationf("no source configured, set at least one of %s", strings.Join(keys, ", "))
}

// LoadOrgSettings reads the organization settings file. The format follows
// the extension: .env, .yaml/.yml, .json. Every key can be overridden from
// the environment with the LEDGER_ prefix.
func LoadOrgSettings(path string) (*OrgSettings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".env" || ext == "" {
		v.SetConfigType("env")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, apperrors.Configurationf("read org settings %s: %v", path, err)
	}
	return orgSettingsFrom(v.GetString), nil
}

// OrgSettingsFromMap builds settings from an in-memory key-value map.
func OrgSettingsFromMap(values map[string]string) *OrgSettings {
	upper := make(map[string]string, len(values))
	for k, v := range values {
		upper[strings.ToUpper(k)] = v
	}
	return orgSettingsFrom(func(key string) string { return upper[key] })
}

func orgSettingsFrom(get func(string) string) *OrgSettings {
	val := func(key string) string { return strings.TrimSpace(get(key)) }

	o := &OrgSettings{
		Company: types.Company{
			ID:       strings.ToUpper(val(KeyOrgCode)),
			Name:     val(KeyOrgName),
			Address1: val(KeyOrgAddress1),
			Address2: val(KeyOrgAddress2),
			GST:      val(KeyOrgGST),
			Phone:    val(KeyOrgPhone),
			Email:    val(KeyOrgEmail),
		},
		Sources:         make(map[types.DocType]SourceSettings, 3),
		ContactsSheetID: val(KeyContactsSheetID),
		ContactsTabName: val(KeyContactsTabName),
		NotifyEmail:     val(KeyNotifyEmail),
	}

	for _, kind := range types.AllDocTypes() {
		configured := make(fieldmap.Mapping)
		for _, f := range fieldmap.FieldsFor(kind) {
			if col := val(ColumnKey(kind, f)); col != "" {
				configured[f] = col
			}
		}
		o.Sources[kind] = SourceSettings{
			Kind:    kind,
			SheetID: val(SheetIDKey(kind)),
			TabName: val(TabNameKey(kind)),
			Columns: fieldmap.DefaultMapping(kind).Merge(configured),
		}
	}
	return o
}
