package upload

import (
	"fmt"

	"github.com/muroom-studio/muroom-admin/config"
	"github.com/muroom-studio/muroom-admin/model"
)

// Limit is the inclusive number of images a category accepts.
type Limit struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Rules maps each category to its limit. A category missing from Rules
// cannot receive files.
type Rules map[model.Category]Limit

// DefaultRules mirrors the studio registration form.
func DefaultRules() Rules {
	return Rules{
		model.CategoryMain:             {Min: 1, Max: 3},
		model.CategoryBuilding:         {Min: 0, Max: 4},
		model.CategoryRoom:             {Min: 0, Max: 20},
		model.CategoryBlueprint:        {Min: 1, Max: 1},
		model.CategoryOptionCommon:     {Min: 0, Max: 10},
		model.CategoryOptionIndividual: {Min: 0, Max: 10},
	}
}

// RulesFromConfig applies configured overrides on top of DefaultRules.
func RulesFromConfig(limits map[string]config.CategoryLimit) (Rules, error) {
	rules := DefaultRules()
	for name, l := range limits {
		cat, ok := model.ParseCategory(name)
		if !ok {
			return nil, fmt.Errorf("unknown category %q in upload limits", name)
		}
		if cat == model.CategoryBlueprint && l.Max > 1 {
			return nil, fmt.Errorf("category %s holds a single key, max must be 1", cat)
		}
		rules[cat] = Limit{Min: l.Min, Max: l.Max}
	}
	return rules, nil
}
