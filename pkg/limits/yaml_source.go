package limits

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlCatalog is the on-disk layout of a plan catalog file.
//
//	plans:
//	  - id: free
//	    name: Free
//	    show_watermark: true
//	    limits:
//	      products: 15
//	      orders_this_month: ~   # unlimited
//	    features: [pos]
type yamlCatalog struct {
	Plans []yamlPlan `yaml:"plans"`
}

type yamlPlan struct {
	ID            string            `yaml:"id"`
	Name          string            `yaml:"name"`
	Description   string            `yaml:"description"`
	Limits        map[string]*int64 `yaml:"limits"`
	ShowWatermark bool              `yaml:"show_watermark"`
	Features      []string          `yaml:"features"`
	Public        bool              `yaml:"public"`
	TrialDays     int               `yaml:"trial_days"`
	Price         Money             `yaml:"price"`
}

type yamlSource struct {
	data []byte
}

// NewYAMLSource returns a Source that decodes plans from YAML data.
func NewYAMLSource(r io.Reader) (Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	return &yamlSource{data: data}, nil
}

// NewYAMLFileSource reads a plan catalog file.
func NewYAMLFileSource(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	return &yamlSource{data: data}, nil
}

// Load decodes the catalog. A null limit means unlimited.
func (s *yamlSource) Load(ctx context.Context) (map[PlanID]Plan, error) {
	var doc yamlCatalog
	dec := yaml.NewDecoder(bytes.NewReader(s.data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode plan catalog: %w", err)
	}

	plans := make(map[PlanID]Plan, len(doc.Plans))
	for _, yp := range doc.Plans {
		id, err := ParsePlanID(yp.ID)
		if err != nil {
			return nil, err
		}
		if _, dup := plans[id]; dup {
			return nil, errors.Join(ErrInvalidPlanConfiguration, fmt.Errorf("duplicate plan %s", id))
		}

		plan := Plan{
			ID:            id,
			Name:          yp.Name,
			Description:   yp.Description,
			Limits:        make(map[Resource]int64, len(yp.Limits)),
			ShowWatermark: yp.ShowWatermark,
			Features:      make([]Feature, 0, len(yp.Features)),
			Public:        yp.Public,
			TrialDays:     yp.TrialDays,
			Price:         yp.Price,
		}
		for key, v := range yp.Limits {
			res, err := ParseResource(key)
			if err != nil {
				return nil, errors.Join(fmt.Errorf("plan %s", id), err)
			}
			if v == nil {
				plan.Limits[res] = Unlimited
				continue
			}
			plan.Limits[res] = *v
		}
		for _, f := range yp.Features {
			plan.Features = append(plan.Features, Feature(f))
		}
		plans[id] = plan
	}
	return plans, nil
}
