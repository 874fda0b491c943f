/*
Package sheets keeps the record stores in a Google Sheets spreadsheet.

PURPOSE:
  Lets the shop keep working in a spreadsheet it already shares. Each
  store is one tab named after the store, laid out exactly like the CSV
  files: a header row, then one record per row. The running total lives
  in a "total_sales" tab as header + value.

COMMIT:
  All changed tabs are written with a single values.batchUpdate call.
  Rows left over from a longer previous version are cleared afterwards
  with one values.batchClear. If that clear fails the stores are already
  committed and only stale tail rows remain; this is logged.

SEE ALSO:
  - inventory/columns.go: Column layout
  - store/csvfile: Same layout on disk
*/
package sheets

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/stock-engine/inventory"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// Config selects the spreadsheet and the service account credentials.
type Config struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Store implements inventory.TxStore on one spreadsheet.
type Store struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// New connects with a service account key file and makes sure every tab
// exists.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	service, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}
	s := NewWithService(service, cfg.SpreadsheetID, logger)
	if err := s.EnsureTabs(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// NewWithService wraps an already configured client.
func NewWithService(service *sheetsapi.Service, spreadsheetID string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{service: service, spreadsheetID: spreadsheetID, logger: logger}
}

// EnsureTabs adds a tab for every store that does not have one yet.
func (s *Store) EnsureTabs(ctx context.Context) error {
	ss, err := s.service.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet %s: %w", s.spreadsheetID, err)
	}
	have := make(map[string]bool, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			have[sh.Properties.Title] = true
		}
	}

	var reqs []*sheetsapi.Request
	for _, title := range tabTitles() {
		if have[title] {
			continue
		}
		reqs = append(reqs, &sheetsapi.Request{
			AddSheet: &sheetsapi.AddSheetRequest{Properties: &sheetsapi.SheetProperties{Title: title}},
		})
	}
	if len(reqs) == 0 {
		return nil
	}
	_, err = s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add tabs: %w", err)
	}
	s.logger.Info("created spreadsheet tabs", zap.Int("count", len(reqs)))

	// New tabs get their header so the layout matches the CSV files.
	cs := inventory.Changeset{Stores: make(map[inventory.StoreName][]inventory.Record)}
	for _, r := range reqs {
		title := r.AddSheet.Properties.Title
		if title == string(inventory.StoreTotal) {
			zero := decimal.Zero
			cs.Total = &zero
			continue
		}
		cs.Stores[inventory.StoreName(title)] = nil
	}
	return s.Commit(ctx, cs)
}

func tabTitles() []string {
	out := make([]string, 0, len(inventory.AllStores)+1)
	for _, n := range inventory.AllStores {
		out = append(out, string(n))
	}
	return append(out, string(inventory.StoreTotal))
}

// =============================================================================
// RECORD STORE
// =============================================================================

func (s *Store) Load(ctx context.Context, name inventory.StoreName) ([]inventory.Record, error) {
	rng := tabRange(string(name), 1, len(inventory.Columns))
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", rng, err)
	}
	return fromValues(resp.Values)
}

func (s *Store) Save(ctx context.Context, name inventory.StoreName, records []inventory.Record) error {
	return s.Commit(ctx, inventory.Changeset{
		Stores: map[inventory.StoreName][]inventory.Record{name: records},
	})
}

func (s *Store) LoadTotal(ctx context.Context) (decimal.Decimal, error) {
	rng := tabRange(string(inventory.StoreTotal), 1, 1)
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return decimal.Zero, fmt.Errorf("read range %s: %w", rng, err)
	}
	if len(resp.Values) < 2 || len(resp.Values[1]) == 0 {
		return decimal.Zero, nil
	}
	return inventory.ParseTotal(cell(resp.Values[1][0])), nil
}

func (s *Store) SaveTotal(ctx context.Context, total decimal.Decimal) error {
	return s.Commit(ctx, inventory.Changeset{Total: &total})
}

// =============================================================================
// COMMIT
// =============================================================================

// Commit writes every changed tab in one batch update.
func (s *Store) Commit(ctx context.Context, cs inventory.Changeset) error {
	var (
		data  []*sheetsapi.ValueRange
		tails []string
	)
	for _, name := range cs.Names() {
		values := toValues(name, cs.Stores[name])
		cols := len(inventory.ColumnsFor(name))
		data = append(data, &sheetsapi.ValueRange{
			Range:  tabRange(string(name), 1, cols),
			Values: values,
		})
		tails = append(tails, tabRange(string(name), len(values)+1, len(inventory.Columns)))
	}
	if cs.Total != nil {
		data = append(data, &sheetsapi.ValueRange{
			Range:  tabRange(string(inventory.StoreTotal), 1, 1),
			Values: totalValues(*cs.Total),
		})
	}
	if len(data) == 0 {
		return nil
	}

	_, err := s.service.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, &sheetsapi.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("batch update: %w", err)
	}

	if len(tails) > 0 {
		_, err := s.service.Spreadsheets.Values.BatchClear(s.spreadsheetID, &sheetsapi.BatchClearValuesRequest{Ranges: tails}).
			Context(ctx).Do()
		if err != nil {
			s.logger.Warn("stale rows not cleared", zap.Strings("ranges", tails), zap.Error(err))
		}
	}
	return nil
}

// =============================================================================
// CONVERSION
// =============================================================================

// tabRange returns an A1 range starting at fromRow covering cols columns,
// open-ended downwards.
func tabRange(tab string, fromRow, cols int) string {
	return fmt.Sprintf("'%s'!A%d:%s", tab, fromRow, columnLetter(cols))
}

func columnLetter(n int) string {
	var out []byte
	for n > 0 {
		n--
		out = append([]byte{byte('A' + n%26)}, out...)
		n /= 26
	}
	return string(out)
}

func toValues(name inventory.StoreName, records []inventory.Record) [][]interface{} {
	cols := inventory.ColumnsFor(name)
	values := make([][]interface{}, 0, len(records)+1)
	values = append(values, row(cols))
	for _, r := range records {
		values = append(values, row(r.Row(cols)))
	}
	return values
}

func row(cells []string) []interface{} {
	out := make([]interface{}, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}

func fromValues(values [][]interface{}) ([]inventory.Record, error) {
	if len(values) == 0 {
		return nil, nil
	}
	header := cellStrings(values[0])
	var out []inventory.Record
	for _, v := range values[1:] {
		cells := cellStrings(v)
		if blank(cells) {
			continue
		}
		r, err := inventory.RecordFromRow(header, cells)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func totalValues(d decimal.Decimal) [][]interface{} {
	return [][]interface{}{{inventory.TotalHeader}, {inventory.FormatTotal(d)}}
}

func cellStrings(v []interface{}) []string {
	out := make([]string, len(v))
	for i, c := range v {
		out[i] = cell(c)
	}
	return out
}

func cell(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
