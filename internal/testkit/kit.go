// Package testkit generates synthetic versions of the two worked example
// datasets with known coefficients, for tests and the demo entrypoint.
package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"modelcheck/domain/core"
	"modelcheck/domain/dataset"
	"modelcheck/domain/model"
)

// VoteShareParams are the ground-truth coefficients for the synthetic
// congressional vote-share panel: this year's incumbent-party share as a
// noisy linear function of the previous share and incumbency.
type VoteShareParams struct {
	Intercept  float64
	PastShare  float64
	Incumbency float64
	NoiseSD    float64
}

// DefaultVoteShareParams mirror the magnitudes seen in real house panels
func DefaultVoteShareParams() VoteShareParams {
	return VoteShareParams{Intercept: 0.20, PastShare: 0.55, Incumbency: 0.08, NoiseSD: 0.06}
}

// VoteShareTable generates n districts of the vote-share panel. Shares are
// clamped inside (0, 1) so proportion-range validation holds by construction.
func VoteShareTable(n int, params VoteShareParams, rng *rand.Rand) (*dataset.Table, error) {
	past := make([]float64, n)
	incumbent := make([]float64, n)
	share := make([]float64, n)

	for i := 0; i < n; i++ {
		past[i] = clampShare(0.5 + 0.15*rng.NormFloat64())
		if rng.Float64() < 0.7 {
			incumbent[i] = 1
		}
		mu := params.Intercept + params.PastShare*past[i] + params.Incumbency*incumbent[i]
		share[i] = clampShare(mu + params.NoiseSD*rng.NormFloat64())
	}

	return dataset.NewTable("congress", []dataset.Column{
		{Key: "vote_share", Kind: dataset.KindContinuous, Values: share},
		{Key: "past_share", Kind: dataset.KindContinuous, Values: past},
		{Key: "incumbency", Kind: dataset.KindContinuous, Values: incumbent},
	})
}

// BirthweightParams are the ground-truth coefficients for the synthetic
// birthweight dataset: log weight in grams as a linear function of
// gestational age (weeks) and sex.
type BirthweightParams struct {
	Intercept  float64
	WeeksSlope float64
	MaleShift  float64
	NoiseSD    float64
}

// DefaultBirthweightParams give weights centered near 3.4kg at term
func DefaultBirthweightParams() BirthweightParams {
	return BirthweightParams{Intercept: 5.4, WeeksSlope: 0.072, MaleShift: 0.035, NoiseSD: 0.1}
}

// BirthweightTable generates n births with weight in grams, gestational age,
// and sex, plus the low-weight indicator used by the binomial candidates.
func BirthweightTable(n int, params BirthweightParams, rng *rand.Rand) (*dataset.Table, error) {
	weight := make([]float64, n)
	weeks := make([]float64, n)
	sex := make([]string, n)

	for i := 0; i < n; i++ {
		weeks[i] = math.Round(39 + 2*rng.NormFloat64())
		if weeks[i] < 28 {
			weeks[i] = 28
		}
		if weeks[i] > 43 {
			weeks[i] = 43
		}

		shift := 0.0
		sex[i] = "female"
		if rng.Float64() < 0.5 {
			sex[i] = "male"
			shift = params.MaleShift
		}

		logW := params.Intercept + params.WeeksSlope*weeks[i] + shift + params.NoiseSD*rng.NormFloat64()
		weight[i] = math.Exp(logW)
	}

	table, err := dataset.NewTable("births", []dataset.Column{
		{Key: "weight", Kind: dataset.KindContinuous, Values: weight},
		{Key: "weeks", Kind: dataset.KindContinuous, Values: weeks},
		{Key: "sex", Kind: dataset.KindCategorical, Labels: sex},
	})
	if err != nil {
		return nil, err
	}

	table, err = table.LogTransform("weight", "log_weight")
	if err != nil {
		return nil, err
	}
	return table.WithIndicators(dataset.IndicatorSpec{
		Source:    "weight",
		Target:    "low_weight",
		Threshold: 2500,
		Below:     true,
	})
}

// VoteShareSpecs are the three candidate models of the congress example
func VoteShareSpecs() []model.Spec {
	shareRange := &model.ResponseRange{Lo: 0, Hi: 1}
	return []model.Spec{
		{
			Name:       "past_only",
			Response:   "vote_share",
			Family:     model.FamilyGaussian,
			Predictors: []core.VariableKey{"past_share"},
			Range:      shareRange,
		},
		{
			Name:       "incumbency_only",
			Response:   "vote_share",
			Family:     model.FamilyGaussian,
			Predictors: []core.VariableKey{"incumbency"},
			Range:      shareRange,
		},
		{
			Name:       "past_and_incumbency",
			Response:   "vote_share",
			Family:     model.FamilyGaussian,
			Predictors: []core.VariableKey{"past_share", "incumbency"},
			Range:      shareRange,
		},
	}
}

// BirthweightSpecs are the candidate models of the birthweight example
func BirthweightSpecs() []model.Spec {
	return []model.Spec{
		{
			Name:       "weeks_only",
			Response:   "log_weight",
			Family:     model.FamilyGaussian,
			Predictors: []core.VariableKey{"weeks"},
		},
		{
			Name:       "weeks_and_sex",
			Response:   "log_weight",
			Family:     model.FamilyGaussian,
			Predictors: []core.VariableKey{"weeks", "sex"},
		},
		{
			Name:       "low_weight_logit",
			Response:   "low_weight",
			Family:     model.FamilyBinomial,
			Predictors: []core.VariableKey{"weeks"},
		},
	}
}

func clampShare(v float64) float64 {
	if v <= 0.02 {
		return 0.02
	}
	if v >= 0.98 {
		return 0.98
	}
	return v
}

// MustTable panics on generator errors; synthetic tables are
// construction-valid so a failure is a programming mistake.
func MustTable(t *dataset.Table, err error) *dataset.Table {
	if err != nil {
		panic(fmt.Sprintf("testkit: %v", err))
	}
	return t
}
