package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ssd-geocoder/app/models"
)

func settlementCandidate(name string, score float64, h *models.AdminHierarchy) models.MatchCandidate {
	return models.MatchCandidate{
		Layer:     models.LayerSettlement,
		FeatureID: "SSD-" + name,
		Name:      name,
		Score:     score,
		Hierarchy: h,
	}
}

func TestBoost_AgreementAndConflict(t *testing.T) {
	matches := []models.MatchCandidate{
		settlementCandidate("abiemnhom", 0.5, &models.AdminHierarchy{State: "Unity", County: "Abiemnhom"}),
		settlementCandidate("abiemnhom south", 0.5, &models.AdminHierarchy{State: "Warrap", County: "Twic"}),
	}
	cons := models.Constraints{State: "unity", County: "abiemnhom"}

	boosted := Boost(matches, cons)

	// 0.5 + state agree 0.2 + county agree 0.2 + settlement layer bonus 0.05
	assert.InDelta(t, 0.95, boosted[0].Score, 1e-9)
	assert.Equal(t, "abiemnhom", boosted[0].Name)

	// 0.5 - state conflict 0.5 - county conflict 0.3 + layer 0.05, clamped at 0
	assert.InDelta(t, 0.0, boosted[1].Score, 1e-9)
}

func TestBoost_InputUntouched(t *testing.T) {
	matches := []models.MatchCandidate{
		settlementCandidate("mayom", 0.4, &models.AdminHierarchy{State: "Unity"}),
	}
	boosted := Boost(matches, models.Constraints{State: "unity"})

	assert.InDelta(t, 0.4, matches[0].Score, 1e-9, "input candidate must not be rescored in place")
	assert.Greater(t, boosted[0].Score, matches[0].Score)
}

func TestBoost_ClampsToOne(t *testing.T) {
	matches := []models.MatchCandidate{
		settlementCandidate("bentiu", 0.9, &models.AdminHierarchy{State: "Unity", County: "Rubkona"}),
	}
	cons := models.Constraints{State: "unity", County: "rubkona"}

	boosted := Boost(matches, cons)
	assert.Equal(t, 1.0, boosted[0].Score)
}

// TestBoost_PayamBomaAgreeOnly: payam/boma disagreement never penalizes
func TestBoost_PayamBomaAgreeOnly(t *testing.T) {
	agree := settlementCandidate("dhor", 0.5, &models.AdminHierarchy{Payam: "Rubkona", Boma: "Dhor"})
	disagree := settlementCandidate("dhor east", 0.5, &models.AdminHierarchy{Payam: "Norkuacluel", Boma: "Kaljak"})

	cons := models.Constraints{Payam: "rubkona", Boma: "dhor"}
	boosted := Boost([]models.MatchCandidate{agree, disagree}, cons)

	// 0.5 + 0.05 payam + 0.05 boma + 0.05 layer
	assert.InDelta(t, 0.65, boosted[0].Score, 1e-9)
	// disagreement leaves only the layer bonus
	assert.InDelta(t, 0.55, boosted[1].Score, 1e-9)
}

// TestBoost_LayerWordStripped: "unity state" and "Unity" are the same place
func TestBoost_LayerWordStripped(t *testing.T) {
	matches := []models.MatchCandidate{
		settlementCandidate("bentiu", 0.5, &models.AdminHierarchy{State: "Unity"}),
	}
	boosted := Boost(matches, models.Constraints{State: "unity state"})
	assert.InDelta(t, 0.75, boosted[0].Score, 1e-9)
}

// TestBoost_LayerSpecificityOrdersTies: equal scores resolve toward the more
// specific layer
func TestBoost_LayerSpecificityOrdersTies(t *testing.T) {
	matches := []models.MatchCandidate{
		{Layer: models.LayerState, FeatureID: "S1", Name: "unity", Score: 0.8},
		{Layer: models.LayerSettlement, FeatureID: "V1", Name: "unity", Score: 0.8},
	}
	boosted := Boost(matches, models.Constraints{})

	assert.Equal(t, models.LayerSettlement, boosted[0].Layer)
	assert.InDelta(t, 0.85, boosted[0].Score, 1e-9)
	assert.InDelta(t, 0.81, boosted[1].Score, 1e-9)
}

func TestBoost_MissingHierarchyIsNeutral(t *testing.T) {
	matches := []models.MatchCandidate{
		settlementCandidate("lankien", 0.6, nil),
	}
	boosted := Boost(matches, models.Constraints{State: "jonglei", County: "nyirol"})

	// no hierarchy on the candidate: neither boost nor penalty beyond layer
	assert.InDelta(t, 0.65, boosted[0].Score, 1e-9)
}

func TestNamesAgree(t *testing.T) {
	assert.True(t, NamesAgree("Unity", "unity state", "state"))
	assert.True(t, NamesAgree("northern bahr el ghazal", "Northern Bahr-el-Ghazal", "state"))
	assert.True(t, NamesAgree("abiemnhom", "Abiemnom County", "county"))
	assert.False(t, NamesAgree("unity", "warrap", "state"))
	assert.False(t, NamesAgree("", "unity", "state"))
}
