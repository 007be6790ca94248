// =============================================================================
// Party Ledger Builder - Converter Module
// =============================================================================
//
// This module orchestrates one refresh of an organization's ledger workbook,
// from reading the sources to writing the index sheet.
//
// REFRESH PIPELINE:
//   1. Validate the organization settings (no writes happen on failure)
//   2. Fetch every configured source: detect header, map rows
//   3. Write the standardized Transactions staging sheet
//   4. Load the contact directory and resolve the company block
//   5. Aggregate transactions into party ledgers
//   6. Render one sheet per ledger
//   7. Rebuild the index sheet and prune stale ledger sheets
//   8. Append a Run Log row and record metrics
//
// ERROR CONTAINMENT:
//   A failing source is reported in its SourceResult and the run continues
//   with the other sources. Failures after fetching end the run with ERROR.
//
// =============================================================================

package converter

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/party-ledger/internal/aggregator"
	"github.com/ginjaninja78/party-ledger/internal/apperrors"
	"github.com/ginjaninja78/party-ledger/internal/config"
	"github.com/ginjaninja78/party-ledger/internal/contacts"
	"github.com/ginjaninja78/party-ledger/internal/fieldmap"
	"github.com/ginjaninja78/party-ledger/internal/headerdetect"
	"github.com/ginjaninja78/party-ledger/internal/logger"
	"github.com/ginjaninja78/party-ledger/internal/metrics"
	"github.com/ginjaninja78/party-ledger/internal/render"
	"github.com/ginjaninja78/party-ledger/internal/runlog"
	"github.com/ginjaninja78/party-ledger/internal/sheet"
	"github.com/ginjaninja78/party-ledger/internal/source"
	"github.com/ginjaninja78/party-ledger/internal/types"
)

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// Status is the outcome of a source fetch or of a whole run.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusError   Status = "ERROR"
	StatusSkipped Status = "SKIPPED"
)

// SourceResult is the outcome of fetching one source kind.
type SourceResult struct {
	Kind    types.DocType
	Status  Status
	Message string

	// HeaderRow is the 0-based header index, or headerdetect.NotFound.
	HeaderRow int

	Transactions []types.Transaction

	// BlankRows counts skipped empty rows below the header.
	BlankRows int

	Degradations []fieldmap.Degradation
	Unmatched    []fieldmap.Field
}

// Rows returns the number of extracted transactions.
func (s SourceResult) Rows() int { return len(s.Transactions) }

// Generation is what the ledger generation step produced.
type Generation struct {
	Ledgers []*types.PartyLedger
	Stats   aggregator.Stats

	// Rendered lists the ledgers whose sheet was written.
	Rendered []*types.PartyLedger

	// Failed lists sheets skipped with continue_on_render_error.
	Failed []string

	// Pruned lists stale ledger sheets that were deleted.
	Pruned []string

	// ContactsError is why the configured contact directory could not be
	// loaded. Ledgers are still built, without enrichment.
	ContactsError string
}

// RunResult is the status object returned to the caller of a refresh.
type RunResult struct {
	RunID   string
	Org     string
	Status  Status
	Message string

	// ErrorKind is the apperrors.Kind of the failure, empty on success.
	ErrorKind string

	Sources    []SourceResult
	Generation Generation

	// Wrote reports whether anything was written to the sink, so the caller
	// knows whether there is something to save.
	Wrote bool

	Started  time.Time
	Duration time.Duration
}

// Succeeded reports whether the run finished with SUCCESS.
func (r RunResult) Succeeded() bool { return r.Status == StatusSuccess }

// SourceStatuses maps each fetched kind to its status.
func (r RunResult) SourceStatuses() map[types.DocType]string {
	out := make(map[types.DocType]string, len(r.Sources))
	for _, s := range r.Sources {
		out[s.Kind] = string(s.Status)
	}
	return out
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Deps are the ports and ambient services a Converter works with.
type Deps struct {
	Connector source.Connector
	Sink      sheet.Sink
	Logger    zerolog.Logger

	// Metrics may be nil.
	Metrics *metrics.Recorder

	// Now defaults to time.Now.
	Now func() time.Time

	// Only restricts the fetched source kinds. Empty means all.
	Only []types.DocType
}

// Converter runs refreshes of one organization.
type Converter struct {
	cfg  *config.MainConfig
	org  *config.OrgSettings
	deps Deps
	base zerolog.Logger
	log  zerolog.Logger
}

// New creates a Converter.
//
// PARAMETERS:
//   - cfg: The main application configuration.
//   - org: The organization settings (company, sources, contacts).
//   - deps: Source connector, sink and ambient services.
//
// RETURNS:
//   - A new Converter instance.
func New(cfg *config.MainConfig, org *config.OrgSettings, deps Deps) *Converter {
	if cfg == nil {
		cfg = config.DefaultMainConfig()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	base := deps.Logger.With().Str(logger.FieldOrg, org.Company.ID).Logger()
	return &Converter{cfg: cfg, org: org, deps: deps, base: base, log: base}
}

// =============================================================================
// FETCH
// =============================================================================

// FetchSource reads and maps one source kind. Failures are reported in the
// result, never returned.
func (c *Converter) FetchSource(kind types.DocType) SourceResult {
	res := c.fetchSource(kind)
	c.deps.Metrics.SourceFetched(string(kind), string(res.Status), res.Rows())
	return res
}

func (c *Converter) fetchSource(kind types.DocType) SourceResult {
	log := c.log.With().Str(logger.FieldSource, string(kind)).Logger()
	res := SourceResult{Kind: kind, HeaderRow: headerdetect.NotFound}

	settings := c.org.Source(kind)
	if !settings.Configured() {
		res.Status = StatusSkipped
		res.Message = config.SheetIDKey(kind) + " is not configured"
		log.Info().Msg("source skipped")
		return res
	}

	fail := func(err error) SourceResult {
		res.Status = StatusError
		res.Message = apperrors.Message(err)
		log.Error().Err(err).Str("kind", apperrors.Kind(err)).Msg("source fetch failed")
		return res
	}

	table, err := c.deps.Connector.Open(settings.SheetID, settings.TabName)
	if err != nil {
		return fail(apperrors.SourceAccess(string(kind), err))
	}

	header, err := headerdetect.DetectWith(table, c.headerSpec(kind, settings.Columns))
	if err != nil {
		return fail(apperrors.Wrap("detect header", string(kind), err))
	}
	res.HeaderRow = header

	mapped := fieldmap.New(kind, settings.Columns).MapTable(table, header)
	res.Transactions = mapped.Transactions
	res.BlankRows = mapped.Skipped
	res.Degradations = mapped.Degradations
	res.Unmatched = mapped.Unmatched

	for _, f := range mapped.Unmatched {
		log.Debug().Str("field", string(f)).Str("column", settings.Columns[f]).Msg("mapped column not in header")
	}
	c.reportDegradations(log, kind, mapped.Degradations)

	res.Status = StatusSuccess
	res.Message = fmt.Sprintf("%d transactions", res.Rows())
	if n := len(res.Degradations); n > 0 {
		res.Message += fmt.Sprintf(", %d values defaulted", n)
	}
	log.Info().Int("header_row", header+1).Int("rows", res.Rows()).Int("blank", res.BlankRows).Msg("source fetched")
	return res
}

// headerSpec scores rows against the conventional header of kind. A column
// name is added only when configuration renames that column, and the anchor
// moves only when the party id column is renamed.
func (c *Converter) headerSpec(kind types.DocType, columns fieldmap.Mapping) headerdetect.Spec {
	renamed := columns.Overrides(fieldmap.DefaultMapping(kind))
	spec := headerdetect.SpecFor(kind).With(renamed.Columns(kind)...)
	if anchor := renamed[fieldmap.FieldPartyID]; anchor != "" {
		spec.Anchor = anchor
	}
	spec.ScanRows = c.cfg.HeaderScanRows
	return spec
}

func (c *Converter) reportDegradations(log zerolog.Logger, kind types.DocType, degr []fieldmap.Degradation) {
	perField := make(map[fieldmap.Field]int)
	for _, d := range degr {
		perField[d.Field]++
		log.Warn().Int("row", d.Row+1).Str("field", string(d.Field)).Str("value", d.Value).Msg(d.Reason)
	}
	for f, n := range perField {
		c.deps.Metrics.Degraded(string(kind), string(f), n)
	}
}

// FetchAll fetches every source kind in order, honoring Deps.Only.
func (c *Converter) FetchAll() []SourceResult {
	var out []SourceResult
	for _, kind := range types.AllDocTypes() {
		if len(c.deps.Only) > 0 && !slices.Contains(c.deps.Only, kind) {
			continue
		}
		out = append(out, c.FetchSource(kind))
	}
	return out
}

// =============================================================================
// GENERATE
// =============================================================================

// Generate writes the staging sheet, one sheet per party ledger and the index.
// The first render failure aborts the step unless continue_on_render_error
// is set.
func (c *Converter) Generate(txns []types.Transaction) (Generation, error) {
	var gen Generation
	r := render.New(c.deps.Sink)

	if err := r.Transactions(txns); err != nil {
		return gen, err
	}

	dir, err := contacts.Load(c.deps.Connector, c.org.ContactsSheetID, c.org.ContactsTabName)
	if err != nil {
		c.log.Warn().Err(err).Str(logger.FieldSource, "CONTACTS").Msg("contact directory unavailable, ledgers are not enriched")
		c.deps.Metrics.SourceFetched("CONTACTS", string(StatusError), 0)
		gen.ContactsError = apperrors.Message(err)
		dir = types.ContactDirectory{}
	}
	company := resolveCompany(c.org.Company, dir)

	gen.Ledgers, gen.Stats = aggregator.Aggregate(txns, dir)
	render.AssignSheetNames(gen.Ledgers)
	c.log.Info().
		Int("input", gen.Stats.Input).
		Int("no_party_id", gen.Stats.NoPartyID).
		Int("excluded", gen.Stats.Excluded).
		Int("suppliers", gen.Stats.Suppliers).
		Int("customers", gen.Stats.Customers).
		Int("enriched", gen.Stats.Enriched).
		Msg("transactions aggregated")

	for _, p := range gen.Ledgers {
		name := render.SheetName(p)
		if _, err := r.Party(p, company); err != nil {
			if !c.cfg.ContinueOnRenderError {
				return gen, err
			}
			c.log.Error().Err(err).Str(logger.FieldSheet, name).Msg("ledger skipped")
			gen.Failed = append(gen.Failed, name)
			continue
		}
		gen.Rendered = append(gen.Rendered, p)
		c.deps.Metrics.LedgerRendered(p.Category.Code())
		c.log.Debug().
			Str(logger.FieldParty, p.ID).
			Str(logger.FieldCategory, p.Category.Code()).
			Int("transactions", len(p.Transactions)).
			Msg("ledger rendered")
	}

	if err := r.Index(gen.Rendered); err != nil {
		return gen, err
	}
	gen.Pruned, err = r.Prune(gen.Ledgers)
	if err != nil {
		return gen, err
	}
	for _, name := range gen.Pruned {
		c.log.Info().Str(logger.FieldSheet, name).Msg("stale ledger removed")
	}
	return gen, nil
}

// resolveCompany lets the directory entry of the organization code fill in
// or override the configured company block.
func resolveCompany(company types.Company, dir types.ContactDirectory) types.Company {
	rec, ok := dir.Lookup(company.ID)
	if !ok {
		return company
	}
	set := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	set(&company.Name, rec.Name)
	set(&company.Address1, rec.Address1)
	set(&company.Address2, rec.Address2)
	set(&company.GST, rec.GST)
	set(&company.Phone, rec.Phone)
	set(&company.Email, rec.Email)
	return company
}

// =============================================================================
// RUN
// =============================================================================

// Run executes a full refresh. It never panics; every failure ends up in the
// returned RunResult.
func (c *Converter) Run() (result RunResult) {
	result = RunResult{
		RunID:   uuid.NewString(),
		Org:     c.org.Company.ID,
		Started: c.deps.Now(),
	}
	log := c.base.With().Str(logger.FieldRunID, result.RunID).Logger()
	c.log = log

	defer func() {
		if rec := recover(); rec != nil {
			result.Status = StatusError
			result.ErrorKind = "internal"
			result.Message = fmt.Sprintf("internal error: %v", rec)
			log.Error().Interface("panic", rec).Msg("refresh aborted")
			c.finish(&result)
		}
	}()

	if err := c.org.Validate(); err != nil {
		c.fail(&result, err)
		log.Error().Err(err).Msg("refresh not started")
		c.deps.Metrics.RunFinished(false, result.Duration, c.deps.Now())
		return result
	}

	log.Info().Msg("refresh started")
	result.Sources = c.FetchAll()

	var txns []types.Transaction
	var failed []string
	for _, s := range result.Sources {
		switch s.Status {
		case StatusSuccess:
			txns = append(txns, s.Transactions...)
		case StatusError:
			failed = append(failed, fmt.Sprintf("%s: %s", s.Kind, s.Message))
		}
	}

	if !anySucceeded(result.Sources) {
		msg := "no source could be fetched"
		if len(failed) > 0 {
			msg += "; " + strings.Join(failed, "; ")
		}
		c.fail(&result, apperrors.Wrap("fetch", "", fmt.Errorf("%w: %s", apperrors.ErrSourceAccess, msg)))
		result.Message = msg
		c.finish(&result)
		return result
	}

	result.Wrote = true
	gen, err := c.Generate(txns)
	result.Generation = gen
	if err != nil {
		c.fail(&result, err)
		log.Error().Err(err).Str("kind", result.ErrorKind).Msg("ledger generation failed")
		c.finish(&result)
		return result
	}

	result.Status = StatusSuccess
	result.Message = fmt.Sprintf("%d ledgers generated from %d transactions", len(gen.Rendered), len(txns))
	if len(gen.Failed) > 0 {
		result.Message += fmt.Sprintf("; %d ledgers failed", len(gen.Failed))
	}
	if gen.ContactsError != "" {
		result.Message += "; contact directory unavailable: " + gen.ContactsError
	}
	if len(failed) > 0 {
		result.Message += "; " + strings.Join(failed, "; ")
	}
	c.finish(&result)
	return result
}

func (c *Converter) fail(result *RunResult, err error) {
	result.Status = StatusError
	result.ErrorKind = apperrors.Kind(err)
	result.Message = apperrors.Message(err)
	result.Duration = c.deps.Now().Sub(result.Started)
}

// finish appends the run log row and records the run metrics.
func (c *Converter) finish(result *RunResult) {
	end := c.deps.Now()
	result.Duration = end.Sub(result.Started)

	entry := runlog.Entry{
		At:       result.Started,
		RunID:    result.RunID,
		Org:      result.Org,
		Status:   string(result.Status),
		Sources:  result.SourceStatuses(),
		Ledgers:  len(result.Generation.Rendered),
		Duration: result.Duration,
		Message:  result.Message,
	}
	if err := runlog.New(c.deps.Sink).Append(entry); err != nil {
		c.log.Warn().Err(err).Msg("run log not written")
	} else {
		result.Wrote = true
	}

	c.deps.Metrics.RunFinished(result.Succeeded(), result.Duration, end)

	ev := c.log.Info()
	if !result.Succeeded() {
		ev = c.log.Error()
	}
	ev.Str("status", string(result.Status)).Dur("duration", result.Duration).Msg(result.Message)
}

func anySucceeded(sources []SourceResult) bool {
	for _, s := range sources {
		if s.Status == StatusSuccess {
			return true
		}
	}
	return false
}
