// Package seed loads catalog and price fixtures from a YAML file through the
// regular service path, so seeded data passes the same validation and
// primary-flag handling as API writes.
package seed

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/pricebook/internal/ledger"
	"github.com/sells-group/pricebook/internal/model"
	"github.com/sells-group/pricebook/internal/retry"
	"github.com/sells-group/pricebook/internal/store"
)

// File is the top-level fixture document.
type File struct {
	Projects []Project `yaml:"projects"`
}

// Project is one project fixture with its items.
type Project struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Items       []Item `yaml:"items"`
}

// Item is one item fixture with its price observations.
type Item struct {
	Name   string  `yaml:"name"`
	Notes  string  `yaml:"notes"`
	Prices []Price `yaml:"prices"`
}

// Price is one price observation fixture. Amount is a decimal string so
// fixtures never round through float64.
type Price struct {
	Condition  string     `yaml:"condition"`
	Amount     string     `yaml:"amount"`
	Currency   string     `yaml:"currency"`
	SourceType string     `yaml:"source_type"`
	SourceURL  string     `yaml:"source_url"`
	SourceNote string     `yaml:"source_note"`
	Note       string     `yaml:"note"`
	IsPrimary  bool       `yaml:"is_primary"`
	ObservedAt *time.Time `yaml:"observed_at"`
}

// LoadFile reads and parses a fixture file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "seed: read fixture file")
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "seed: unmarshal fixture file")
	}
	return &f, nil
}

// Run writes the fixtures through the store and ledger service. Transient
// store failures are retried so a brief outage does not abort the whole load.
func Run(ctx context.Context, st store.Store, svc *ledger.Service, f *File) error {
	log := zap.L().With(zap.String("component", "seed"))

	retryCfg := retry.Default()
	retryCfg.OnRetry = retry.Logger("seed")

	var projects, items, prices int
	for _, p := range f.Projects {
		project, err := st.CreateProject(ctx, model.ProjectInput{
			Name:        p.Name,
			Description: p.Description,
		})
		if err != nil {
			return eris.Wrapf(err, "seed: create project %q", p.Name)
		}
		projects++

		for _, it := range p.Items {
			item, err := st.CreateItem(ctx, project.ID, model.ItemInput{
				Name:  it.Name,
				Notes: it.Notes,
			})
			if err != nil {
				return eris.Wrapf(err, "seed: create item %q", it.Name)
			}
			items++

			for _, pr := range it.Prices {
				in, err := priceInput(ctx, st, pr)
				if err != nil {
					return eris.Wrapf(err, "seed: price for item %q", it.Name)
				}
				if err := retry.Do(ctx, retryCfg, func(ctx context.Context) error {
					_, err := svc.Create(ctx, item.ID, in)
					return err
				}); err != nil {
					return eris.Wrapf(err, "seed: create price for item %q", it.Name)
				}
				prices++
			}
		}
	}

	log.Info("fixtures loaded",
		zap.Int("projects", projects),
		zap.Int("items", items),
		zap.Int("prices", prices),
	)
	return nil
}

func priceInput(ctx context.Context, st store.Store, pr Price) (model.PriceInput, error) {
	amount, err := decimal.NewFromString(pr.Amount)
	if err != nil {
		return model.PriceInput{}, eris.Wrapf(model.ErrInvalid, "amount %q is not a decimal", pr.Amount)
	}

	in := model.PriceInput{
		Condition:  model.Condition(pr.Condition),
		Amount:     amount,
		Currency:   pr.Currency,
		SourceType: model.SourceType(pr.SourceType),
		SourceNote: pr.SourceNote,
		Note:       pr.Note,
		IsPrimary:  pr.IsPrimary,
		ObservedAt: pr.ObservedAt,
	}

	if pr.SourceURL != "" {
		normalized, err := store.NormalizeURL(pr.SourceURL)
		if err != nil {
			return model.PriceInput{}, err
		}
		su, err := st.EnsureSourceURL(ctx, pr.SourceURL, normalized, "")
		if err != nil {
			return model.PriceInput{}, err
		}
		in.SourceURLID = &su.ID
	}

	return in, nil
}
