package workspace

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ComradeParth/VC-Intelligence-Interface/internal/model"
	"github.com/ComradeParth/VC-Intelligence-Interface/internal/store"
)

// Seed is a YAML workspace bootstrap file.
type Seed struct {
	Thesis    string        `yaml:"thesis"`
	Companies []SeedCompany `yaml:"companies"`
	Lists     []SeedList    `yaml:"lists"`
}

// SeedCompany is a company entry in a seed file.
type SeedCompany struct {
	Name        string   `yaml:"name"`
	URL         string   `yaml:"url"`
	Description string   `yaml:"description"`
	Industry    string   `yaml:"industry"`
	Stage       string   `yaml:"stage"`
	Tags        []string `yaml:"tags"`
	Location    string   `yaml:"location"`
	Founded     int      `yaml:"founded"`
	Logo        string   `yaml:"logo"`
}

// SeedList references its members by company URL.
type SeedList struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	CompanyURLs []string `yaml:"company_urls"`
}

// SeedResult reports what ImportSeed changed.
type SeedResult struct {
	CompaniesCreated int  `json:"companies_created"`
	CompaniesSkipped int  `json:"companies_skipped"`
	ListsCreated     int  `json:"lists_created"`
	ThesisSet        bool `json:"thesis_set"`
}

// LoadSeed decodes a seed document. Unknown keys are rejected.
func LoadSeed(r io.Reader) (*Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var seed Seed
	if err := dec.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return &seed, nil
		}
		return nil, eris.Wrap(err, "seed: decode yaml")
	}
	return &seed, nil
}

// LoadSeedFile reads and decodes the seed file at path.
func LoadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "seed: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return LoadSeed(f)
}

// ImportSeed creates the seed's companies and lists. Companies whose URL is
// already tracked are reused rather than duplicated, so importing the same
// file twice is harmless for companies.
func (s *Service) ImportSeed(ctx context.Context, seed *Seed) (SeedResult, error) {
	var res SeedResult

	if t := strings.TrimSpace(seed.Thesis); t != "" {
		if err := s.SetThesis(ctx, t); err != nil {
			return res, err
		}
		res.ThesisSet = true
	}

	byURL := make(map[string]string, len(seed.Companies))
	for i, sc := range seed.Companies {
		c := &model.Company{
			Name:        sc.Name,
			URL:         sc.URL,
			Description: strings.TrimSpace(sc.Description),
			Industry:    sc.Industry,
			Stage:       sc.Stage,
			Tags:        sc.Tags,
			Location:    sc.Location,
			Founded:     sc.Founded,
			Logo:        sc.Logo,
		}
		if err := normalizeCompany(c); err != nil {
			return res, eris.Wrapf(err, "seed company %d", i)
		}

		existing, err := s.store.GetCompanyByURL(ctx, c.URL)
		switch {
		case err == nil:
			byURL[c.URL] = existing.ID
			res.CompaniesSkipped++
			continue
		case !errors.Is(err, store.ErrNotFound):
			return res, err
		}

		if err := s.store.CreateCompany(ctx, c); err != nil {
			return res, err
		}
		byURL[c.URL] = c.ID
		res.CompaniesCreated++
	}

	for _, sl := range seed.Lists {
		var ids []string
		for _, u := range sl.CompanyURLs {
			id, ok := byURL[strings.TrimSpace(u)]
			if !ok {
				existing, err := s.store.GetCompanyByURL(ctx, strings.TrimSpace(u))
				if err != nil {
					return res, eris.Wrapf(err, "seed list %q references %s", sl.Name, u)
				}
				id = existing.ID
			}
			ids = append(ids, id)
		}
		if _, err := s.CreateList(ctx, sl.Name, sl.Description, ids); err != nil {
			return res, err
		}
		res.ListsCreated++
	}

	zap.L().Info("workspace: seed imported",
		zap.Int("companies_created", res.CompaniesCreated),
		zap.Int("companies_skipped", res.CompaniesSkipped),
		zap.Int("lists_created", res.ListsCreated),
	)
	return res, nil
}
