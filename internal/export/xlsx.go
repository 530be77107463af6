// Package export writes a project's items, price records and summaries to an
// XLSX workbook.
package export

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/pricebook/internal/ledger"
	"github.com/sells-group/pricebook/internal/model"
	"github.com/sells-group/pricebook/internal/retry"
	"github.com/sells-group/pricebook/internal/store"
)

const fetchConcurrency = 5

// Exporter builds workbooks from the catalog and ledger.
type Exporter struct {
	store store.Store
	svc   *ledger.Service
	log   *zap.Logger
}

// New creates an Exporter.
func New(st store.Store, svc *ledger.Service) *Exporter {
	return &Exporter{
		store: st,
		svc:   svc,
		log:   zap.L().With(zap.String("component", "export")),
	}
}

type itemExport struct {
	item    model.Item
	prices  []model.PriceRecord
	summary *model.PriceSummary
}

// WriteWorkbook exports one project to path: an Items sheet with one summary
// row per item and a Prices sheet with every price record.
func (e *Exporter) WriteWorkbook(ctx context.Context, projectID, path string) error {
	project, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if project == nil {
		return eris.Errorf("export: project %q not found", projectID)
	}

	items, err := e.store.ListItems(ctx, projectID)
	if err != nil {
		return err
	}

	exports := make([]itemExport, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	retryCfg := retry.Default()
	retryCfg.OnRetry = retry.Logger("export")

	var mu sync.Mutex
	for i, item := range items {
		g.Go(func() error {
			prices, err := retry.DoVal(gctx, retryCfg, func(ctx context.Context) ([]model.PriceRecord, error) {
				return e.store.PricesForItem(ctx, item.ID)
			})
			if err != nil {
				return err
			}
			mu.Lock()
			exports[i] = itemExport{
				item:    item,
				prices:  prices,
				summary: ledger.Summarize(prices),
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f := xlsx.NewFile()
	if err := e.writeItemsSheet(f, exports); err != nil {
		return err
	}
	if err := e.writePricesSheet(f, exports); err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save workbook")
	}

	e.log.Info("workbook written",
		zap.String("project_id", projectID),
		zap.Int("items", len(items)),
		zap.String("path", path),
	)
	return nil
}

func (e *Exporter) writeItemsSheet(f *xlsx.File, exports []itemExport) error {
	sheet, err := f.AddSheet("Items")
	if err != nil {
		return eris.Wrap(err, "export: add items sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{
		"Item ID", "Name", "Notes", "Prices", "Min", "Max", "Currency", "Mixed Currency",
		"New Min", "New Count", "Used Min", "Used Count",
	} {
		header.AddCell().SetString(h)
	}

	for _, ex := range exports {
		row := sheet.AddRow()
		row.AddCell().SetString(ex.item.ID)
		row.AddCell().SetString(ex.item.Name)
		row.AddCell().SetString(ex.item.Notes)
		if ex.summary == nil {
			row.AddCell().SetInt(0)
			continue
		}
		s := ex.summary
		row.AddCell().SetInt(s.PriceCount)
		setDecimal(row.AddCell(), &s.MinAmount)
		setDecimal(row.AddCell(), &s.MaxAmount)
		row.AddCell().SetString(s.Currency)
		row.AddCell().SetBool(s.HasMixedCurrency)
		setDecimal(row.AddCell(), s.New.MinAmount)
		row.AddCell().SetInt(s.New.Count)
		setDecimal(row.AddCell(), s.Used.MinAmount)
		row.AddCell().SetInt(s.Used.Count)
	}
	return nil
}

func (e *Exporter) writePricesSheet(f *xlsx.File, exports []itemExport) error {
	sheet, err := f.AddSheet("Prices")
	if err != nil {
		return eris.Wrap(err, "export: add prices sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{
		"Price ID", "Item", "Condition", "Amount", "Currency", "Primary",
		"Source Type", "Source URL", "Source Note", "Note", "Observed At",
	} {
		header.AddCell().SetString(h)
	}

	for _, ex := range exports {
		for _, p := range ex.prices {
			row := sheet.AddRow()
			row.AddCell().SetString(p.ID)
			row.AddCell().SetString(ex.item.Name)
			row.AddCell().SetString(string(p.Condition))
			row.AddCell().SetString(p.Amount.String())
			row.AddCell().SetString(p.Currency)
			row.AddCell().SetBool(p.IsPrimary)
			row.AddCell().SetString(string(p.SourceType))
			row.AddCell().SetString(p.SourceURL)
			row.AddCell().SetString(p.SourceNote)
			row.AddCell().SetString(p.Note)
			row.AddCell().SetString(p.ObservedAt.UTC().Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}

func setDecimal(cell *xlsx.Cell, d *decimal.Decimal) {
	if d == nil {
		cell.SetString("")
		return
	}
	cell.SetString(d.String())
}
