package core

import (
	"context"
	"slices"
	"strings"
	"sync"

	"occucalc/internal/platform/logger"
	"occucalc/pkg/domain"
)

// Options configures a Workspace.
type Options struct {
	Registry *Registry
	Store    domain.StateStore
	Logger   *logger.Logger
	Metrics  *Metrics
}

// Workspace owns the override table, both row collections and the
// preferences. Every mutation runs the recompute pass it needs and commits
// the keys it touched. Methods are safe for concurrent use.
type Workspace struct {
	mu sync.Mutex

	reg     *Registry
	store   domain.StateStore
	log     *logger.Logger
	metrics *Metrics

	overrides Overrides
	manual    *Collection
	upload    *Collection
	prefs     domain.Preferences
	search    string
	sorter    Sorter
}

// DefaultPreferences is the record used before anything is persisted.
func DefaultPreferences() domain.Preferences {
	return domain.Preferences{Mode: domain.ModeManual, CodeID: DefaultCodeID, FilterType: domain.FilterAll}
}

// Open loads the four state keys and reconciles every row against the
// resolved factor table. Storage failures and undecodable payloads are
// logged and fall back to defaults, so Open never fails.
func Open(ctx context.Context, opts Options) *Workspace {
	w := &Workspace{
		reg:     opts.Registry,
		store:   opts.Store,
		log:     opts.Logger,
		metrics: opts.Metrics,
		sorter:  DefaultSorter(),
	}
	if w.reg == nil {
		w.reg = DefaultRegistry()
	}
	if w.log == nil {
		w.log = logger.NewNop()
	}

	w.overrides = Overrides{}
	if data, ok := w.load(ctx, KeyOverrides); ok {
		if o, err := DecodeOverrides(data); err != nil {
			w.log.Warn("discarding stored overrides", "key", KeyOverrides, "error", err)
		} else {
			w.overrides = o
		}
	}

	w.prefs = DefaultPreferences()
	if data, ok := w.load(ctx, KeyPrefs); ok {
		p, err := DecodePrefs(data, w.prefs)
		if err != nil {
			w.log.Warn("discarding stored preferences", "key", KeyPrefs, "error", err)
		}
		w.prefs = p
	}

	ft := w.factors()
	w.manual = NewCollection(domain.ModeManual, w.loadRows(ctx, domain.ModeManual), ft)
	w.upload = NewCollection(domain.ModeUpload, w.loadRows(ctx, domain.ModeUpload), ft)
	w.dropStaleFilter(ft)
	w.metrics.recompute()
	w.observeRows()
	return w
}

func (w *Workspace) load(ctx context.Context, key string) ([]byte, bool) {
	if w.store == nil {
		return nil, false
	}
	data, ok, err := w.store.Load(ctx, key)
	if err != nil {
		w.log.Warn("state load failed", "key", key, "error", err)
		return nil, false
	}
	return data, ok
}

func (w *Workspace) loadRows(ctx context.Context, mode domain.Mode) []domain.Row {
	key := RowsKey(mode)
	data, ok := w.load(ctx, key)
	if !ok {
		return nil
	}
	rows, err := DecodeRows(mode, data)
	if err != nil {
		w.log.Warn("discarding stored rows", "key", key, "error", err)
		return nil
	}
	return rows
}

// commit writes the given keys. Failures are logged and swallowed; the
// in-memory state stays authoritative.
func (w *Workspace) commit(ctx context.Context, keys ...string) {
	if w.store == nil {
		return
	}
	for _, key := range keys {
		var (
			data []byte
			err  error
		)
		switch key {
		case KeyOverrides:
			data, err = EncodeOverrides(w.overrides)
		case KeyPrefs:
			data, err = EncodePrefs(w.prefs)
		case KeyManualRows:
			data, err = EncodeRows(domain.ModeManual, w.manual.rows)
		case KeyUploadRows:
			data, err = EncodeRows(domain.ModeUpload, w.upload.rows)
		}
		if err == nil {
			err = w.store.Save(ctx, key, data)
		}
		w.metrics.stateWrite(key, err)
		if err != nil {
			w.log.Warn("state write failed", "key", key, "error", err)
		}
	}
}

func (w *Workspace) observeRows() {
	w.metrics.rowCount(string(domain.ModeManual), w.manual.Len())
	w.metrics.rowCount(string(domain.ModeUpload), w.upload.Len())
}

func (w *Workspace) factors() domain.FactorTable {
	return w.reg.Resolve(w.prefs.CodeID, w.overrides)
}

func (w *Workspace) active() *Collection {
	if w.prefs.Mode == domain.ModeUpload {
		return w.upload
	}
	return w.manual
}

// reconcileAll re-derives both collections after a factor table change and
// reports whether the type filter had to fall back to All.
func (w *Workspace) reconcileAll() bool {
	ft := w.factors()
	w.manual.Reconcile(ft)
	w.upload.Reconcile(ft)
	w.metrics.recompute()
	return w.dropStaleFilter(ft)
}

// dropStaleFilter resets a filter naming a type ft no longer has.
func (w *Workspace) dropStaleFilter(ft domain.FactorTable) bool {
	if w.prefs.FilterType == domain.FilterAll || slices.Contains(TypeList(ft), w.prefs.FilterType) {
		return false
	}
	w.log.Info("type filter reset", "filter", w.prefs.FilterType, "code", w.prefs.CodeID)
	w.prefs.FilterType = domain.FilterAll
	return true
}

// mutateFactors applies fn to the override table of the active code and,
// when it reports a change, recomputes every row and commits.
func (w *Workspace) mutateFactors(ctx context.Context, op string, fn func(o Overrides, codeID string) bool) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !fn(w.overrides, w.prefs.CodeID) {
		return false
	}
	keys := []string{KeyOverrides, KeyManualRows, KeyUploadRows}
	if w.reconcileAll() {
		keys = append(keys, KeyPrefs)
	}
	w.metrics.mutation(op)
	w.commit(ctx, keys...)
	return true
}

// mutateRows applies fn to the active collection and commits its key on change.
func (w *Workspace) mutateRows(ctx context.Context, op string, fn func(c *Collection, ft domain.FactorTable) bool) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := w.active()
	if !fn(c, w.factors()) {
		return false
	}
	w.metrics.mutation(op)
	w.observeRows()
	w.commit(ctx, RowsKey(c.Mode()))
	return true
}

// Registry returns the code registry in use.
func (w *Workspace) Registry() *Registry { return w.reg }

// Preferences returns the current preference record.
func (w *Workspace) Preferences() domain.Preferences {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.prefs
}

// Label returns the active code set label.
func (w *Workspace) Label() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reg.Label(w.prefs.CodeID)
}

// Factors returns the resolved factor table for the active code.
func (w *Workspace) Factors() domain.FactorTable {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.factors()
}

// Types returns the current type list.
func (w *Workspace) Types() []string {
	return TypeList(w.Factors())
}

// Overrides returns a copy of the override table.
func (w *Workspace) Overrides() Overrides {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.overrides.Clone()
}

// SetMode switches the active collection.
func (w *Workspace) SetMode(ctx context.Context, mode domain.Mode) bool {
	if !mode.Valid() {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.prefs.Mode == mode {
		return false
	}
	w.prefs.Mode = mode
	w.metrics.mutation("mode")
	w.commit(ctx, KeyPrefs)
	return true
}

// UseCode activates a registered code set and re-derives every row.
func (w *Workspace) UseCode(ctx context.Context, codeID string) error {
	codeID = strings.TrimSpace(codeID)
	if !w.reg.Has(codeID) {
		return domain.NotFoundError{Entity: "code set", ID: codeID}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.prefs.CodeID == codeID {
		return nil
	}
	w.prefs.CodeID = codeID
	w.reconcileAll()
	w.metrics.mutation("code")
	w.commit(ctx, KeyPrefs, KeyManualRows, KeyUploadRows)
	return nil
}

// SetFilter sets the type filter. Blank text selects All. A filter whose
// type later leaves the factor table reverts to All.
func (w *Workspace) SetFilter(ctx context.Context, typ string) bool {
	typ = strings.TrimSpace(typ)
	if typ == "" || strings.EqualFold(typ, domain.FilterAll) {
		typ = domain.FilterAll
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.prefs.FilterType == typ {
		return false
	}
	w.prefs.FilterType = typ
	w.metrics.mutation("filter")
	w.commit(ctx, KeyPrefs)
	return true
}

// SetSearch sets the session search term. It is not persisted.
func (w *Workspace) SetSearch(search string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.search = search
}

// ToggleSort applies the header-click rule to key.
func (w *Workspace) ToggleSort(key domain.SortKey) Sorter {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sorter.Toggle(key)
	return w.sorter
}

// SetSort replaces the sort state.
func (w *Workspace) SetSort(s Sorter) {
	if _, ok := domain.ParseSortKey(string(s.Key)); !ok {
		return
	}
	if s.Dir != domain.SortDesc {
		s.Dir = domain.SortAsc
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sorter = s
}

// SetFactor sets a factor from text for the active code.
func (w *Workspace) SetFactor(ctx context.Context, typ, value string) bool {
	return w.mutateFactors(ctx, "factor.set", func(o Overrides, codeID string) bool {
		return o.SetFactorText(codeID, strings.TrimSpace(typ), value)
	})
}

// AddType adds a user type to the active code.
func (w *Workspace) AddType(ctx context.Context, name string) bool {
	return w.mutateFactors(ctx, "factor.add", func(o Overrides, codeID string) bool {
		return o.AddType(w.reg, codeID, name)
	})
}

// DeleteType removes a user type from the active code.
func (w *Workspace) DeleteType(ctx context.Context, typ string) bool {
	return w.mutateFactors(ctx, "factor.delete", func(o Overrides, codeID string) bool {
		return o.DeleteType(w.reg, codeID, typ)
	})
}

// ResetCode drops the overrides of codeID, or of the active code when blank.
func (w *Workspace) ResetCode(ctx context.Context, codeID string) bool {
	return w.mutateFactors(ctx, "factor.reset", func(o Overrides, active string) bool {
		if strings.TrimSpace(codeID) == "" {
			codeID = active
		}
		return o.Reset(strings.TrimSpace(codeID))
	})
}

// AddRows appends n rows to the active collection.
func (w *Workspace) AddRows(ctx context.Context, n int) bool {
	return w.mutateRows(ctx, "rows.add", func(c *Collection, ft domain.FactorTable) bool {
		return c.AddRows(n, ft)
	})
}

// AddOnePerType appends one row per type to the active collection.
func (w *Workspace) AddOnePerType(ctx context.Context) bool {
	return w.mutateRows(ctx, "rows.add_per_type", func(c *Collection, ft domain.FactorTable) bool {
		return c.AddOnePerType(ft)
	})
}

// UpdateField edits one row of the active collection.
func (w *Workspace) UpdateField(ctx context.Context, id int, field domain.Field, value string) bool {
	return w.mutateRows(ctx, "rows.update", func(c *Collection, ft domain.FactorTable) bool {
		return c.UpdateField(id, field, value, ft)
	})
}

// RemoveRow deletes one row of the active collection.
func (w *Workspace) RemoveRow(ctx context.Context, id int) bool {
	return w.mutateRows(ctx, "rows.remove", func(c *Collection, _ domain.FactorTable) bool {
		return c.RemoveRow(id)
	})
}

// Clear resets the active collection to its default.
func (w *Workspace) Clear(ctx context.Context) bool {
	return w.mutateRows(ctx, "rows.clear", func(c *Collection, ft domain.FactorTable) bool {
		c.Clear(ft)
		return true
	})
}

// SetSelected sets the selection flag of one row.
func (w *Workspace) SetSelected(ctx context.Context, id int, selected bool) bool {
	return w.mutateRows(ctx, "rows.select", func(c *Collection, _ domain.FactorTable) bool {
		return c.SetSelected(id, selected)
	})
}

// SetSelectionAll sets the selection flag of every row.
func (w *Workspace) SetSelectionAll(ctx context.Context, selected bool) bool {
	return w.mutateRows(ctx, "rows.select_all", func(c *Collection, _ domain.FactorTable) bool {
		return c.SetSelectionAll(selected)
	})
}

// ApplyTypeToSelected retypes every selected row.
func (w *Workspace) ApplyTypeToSelected(ctx context.Context, typ string) bool {
	return w.mutateRows(ctx, "rows.apply_type", func(c *Collection, ft domain.FactorTable) bool {
		return c.ApplyTypeToSelected(typ, ft)
	})
}

// DuplicateSelected copies every selected row.
func (w *Workspace) DuplicateSelected(ctx context.Context) bool {
	return w.mutateRows(ctx, "rows.duplicate", func(c *Collection, _ domain.FactorTable) bool {
		return c.DuplicateSelected()
	})
}

// DeleteSelected removes every selected row.
func (w *Workspace) DeleteSelected(ctx context.Context) bool {
	return w.mutateRows(ctx, "rows.delete_selected", func(c *Collection, _ domain.FactorTable) bool {
		return c.DeleteSelected()
	})
}

// ReplaceUpload installs imported rows as the upload collection and makes
// upload the active mode.
func (w *Workspace) ReplaceUpload(ctx context.Context, rows []domain.Row) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.upload.Replace(rows, w.factors())
	keys := []string{KeyUploadRows}
	if w.prefs.Mode != domain.ModeUpload {
		w.prefs.Mode = domain.ModeUpload
		keys = append(keys, KeyPrefs)
	}
	w.metrics.mutation("import")
	w.observeRows()
	w.commit(ctx, keys...)
}

// Rows returns the active collection in stored order with loads recomputed.
func (w *Workspace) Rows() []domain.Row {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Reconcile(w.active().rows, w.factors())
}

// Row returns one row of the active collection.
func (w *Workspace) Row(id int) (domain.Row, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active().Row(id)
}

// View projects the active collection through the session filter, search
// and sort state.
func (w *Workspace) View() []domain.Row {
	w.mu.Lock()
	defer w.mu.Unlock()
	return View(w.active().rows, w.factors(), w.query())
}

// ViewWith projects the active collection with an explicit query.
func (w *Workspace) ViewWith(q ViewQuery) []domain.Row {
	w.mu.Lock()
	defer w.mu.Unlock()
	return View(w.active().rows, w.factors(), q)
}

func (w *Workspace) query() ViewQuery {
	return ViewQuery{FilterType: w.prefs.FilterType, Search: w.search, Sort: w.sorter}
}

// Totals groups the active collection's load by type.
func (w *Workspace) Totals() domain.Totals {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ComputeTotals(w.active().rows, w.factors())
}

// Snapshot is a consistent read of everything a client renders.
type Snapshot struct {
	Preferences   domain.Preferences `json:"preferences"`
	CodeLabel     string             `json:"code_label"`
	Search        string             `json:"search"`
	Sort          Sorter             `json:"sort"`
	Types         []string           `json:"types"`
	Factors       domain.FactorTable `json:"factors"`
	Rows          []domain.Row       `json:"rows"`
	RowCount      int                `json:"row_count"`
	SelectedCount int                `json:"selected_count"`
	Totals        domain.Totals      `json:"totals"`
}

// Snapshot captures the workspace under one lock.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	ft := w.factors()
	c := w.active()
	return Snapshot{
		Preferences:   w.prefs,
		CodeLabel:     w.reg.Label(w.prefs.CodeID),
		Search:        w.search,
		Sort:          w.sorter,
		Types:         TypeList(ft),
		Factors:       ft,
		Rows:          View(c.rows, ft, w.query()),
		RowCount:      c.Len(),
		SelectedCount: c.SelectedCount(),
		Totals:        ComputeTotals(c.rows, ft),
	}
}

// Contents is the active collection together with the factor table and label
// it is rendered under.
type Contents struct {
	Mode    domain.Mode
	CodeID  string
	Label   string
	Rows    []domain.Row
	Factors domain.FactorTable
}

// Contents captures the active collection in stored order under one lock.
func (w *Workspace) Contents() Contents {
	w.mu.Lock()
	defer w.mu.Unlock()
	ft := w.factors()
	return Contents{
		Mode:    w.prefs.Mode,
		CodeID:  w.prefs.CodeID,
		Label:   w.reg.Label(w.prefs.CodeID),
		Rows:    Reconcile(w.active().rows, ft),
		Factors: ft,
	}
}
