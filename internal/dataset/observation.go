package dataset

import (
	"fmt"
	"strings"
)

// Sex is the stratification of an observation.
type Sex string

const (
	Male   Sex = "Male"
	Female Sex = "Female"
	Total  Sex = "Total"
)

// ParseSex accepts the dataset spellings of the three categories, case-insensitively.
func ParseSex(s string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return Male, nil
	case "female", "f":
		return Female, nil
	case "total", "both", "both sexes", "t":
		return Total, nil
	}
	return "", fmt.Errorf("unknown sex %q", s)
}

// Observation is one row of the long-format dataset.
type Observation struct {
	Entity string
	Period int
	Sex    Sex
	// Value is the malaria test percentage; nil when not reported.
	Value *float64

	GDPPerCapita   *float64
	Population     *float64
	LifeExpectancy *float64
}

// HasValue reports whether the metric is present.
func (o Observation) HasValue() bool { return o.Value != nil }

// Float returns a pointer to v, for building observations by hand.
func Float(v float64) *float64 { return &v }

// Filter selects observations.
type Filter func(Observation) bool

// All matches every observation.
func All(Observation) bool { return true }

// BySex matches observations whose category is one of sexes.
func BySex(sexes ...Sex) Filter {
	return func(o Observation) bool {
		for _, s := range sexes {
			if o.Sex == s {
				return true
			}
		}
		return false
	}
}

// Covariate names an auxiliary numeric column.
type Covariate string

const (
	GDPPerCapita   Covariate = "gdp_per_capita"
	Population     Covariate = "population"
	LifeExpectancy Covariate = "life_expectancy"
)

// Covariates lists every supported covariate in a stable order.
var Covariates = []Covariate{GDPPerCapita, Population, LifeExpectancy}

// ParseCovariate resolves a covariate name; '-' and spaces are treated as '_'.
func ParseCovariate(s string) (Covariate, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	n = strings.NewReplacer("-", "_", " ", "_").Replace(n)
	switch n {
	case "gdp", "gdp_per_capita":
		return GDPPerCapita, nil
	case "population", "pop":
		return Population, nil
	case "life_expectancy", "life":
		return LifeExpectancy, nil
	}
	return "", fmt.Errorf("unknown covariate %q (use gdp_per_capita, population or life_expectancy)", s)
}

// Of returns the covariate value carried by o, nil when absent.
func (c Covariate) Of(o Observation) *float64 {
	switch c {
	case GDPPerCapita:
		return o.GDPPerCapita
	case Population:
		return o.Population
	case LifeExpectancy:
		return o.LifeExpectancy
	}
	return nil
}

// Label is the human-readable axis label for c.
func (c Covariate) Label() string {
	switch c {
	case GDPPerCapita:
		return "GDP per capita"
	case Population:
		return "Population"
	case LifeExpectancy:
		return "Life expectancy"
	}
	return string(c)
}
