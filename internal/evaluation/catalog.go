package evaluation

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Catalog holds the loaded evaluation definitions, preserving file order.
type Catalog struct {
	evaluations map[string]*Evaluation
	order       []string
}

// LoadCatalog reads evaluation definitions from a YAML file. Every
// definition is validated against the registry so an unrecognized question
// kind fails at load time instead of mid-session.
func LoadCatalog(path string, registry *Registry) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading catalog file %q: %w", path, err)
	}

	var defs []*Evaluation
	cfg := &mapstructure.DecoderConfig{
		Result:  &defs,
		TagName: "mapstructure",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, fmt.Errorf("building catalog decoder: %w", err)
	}
	if err := decoder.Decode(v.Get("evaluations")); err != nil {
		return nil, fmt.Errorf("decoding catalog file %q: %w", path, err)
	}

	catalog := &Catalog{evaluations: make(map[string]*Evaluation, len(defs))}
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, ok := catalog.evaluations[def.ID]; ok {
			return nil, fmt.Errorf("duplicate evaluation id %s", def.ID)
		}

		for i := range def.Questions {
			if _, err := registry.Handler(def.Questions[i].Kind); err != nil {
				return nil, fmt.Errorf("evaluation %s, question %s: %w", def.ID, def.Questions[i].ID, err)
			}
		}

		catalog.evaluations[def.ID] = def
		catalog.order = append(catalog.order, def.ID)
	}

	return catalog, nil
}

// Get returns the evaluation with the given identifier.
func (c *Catalog) Get(id string) (*Evaluation, error) {
	e, ok := c.evaluations[id]
	if !ok {
		return nil, fmt.Errorf("evaluation %s not found in catalog", id)
	}
	return e, nil
}

// List returns all evaluations in file order.
func (c *Catalog) List() []*Evaluation {
	result := make([]*Evaluation, 0, len(c.order))
	for _, id := range c.order {
		result = append(result, c.evaluations[id])
	}
	return result
}

// Len returns the number of loaded evaluations.
func (c *Catalog) Len() int {
	return len(c.order)
}
