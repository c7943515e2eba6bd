package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Thresholds struct {
	Base       float64 `yaml:"base" json:"base"`
	Low        float64 `yaml:"low" json:"low"`
	MediumHigh float64 `yaml:"medium_high" json:"medium_high"`
	VeryHigh   float64 `yaml:"very_high" json:"very_high"`
}

type Penalties struct {
	SubstringLongQuery     float64 `yaml:"substring_long_query" json:"substring_long_query"`         // query contains candidate
	SubstringLongCandidate float64 `yaml:"substring_long_candidate" json:"substring_long_candidate"` // candidate contains query
	ShortRatio             float64 `yaml:"short_ratio" json:"short_ratio"`                            // length ratio below which substring penalties apply
	VeryHighRatio          float64 `yaml:"very_high_ratio" json:"very_high_ratio"`                    // length ratio gating the very-high stage penalty
	VeryHighFactor         float64 `yaml:"very_high_factor" json:"very_high_factor"`
}

type Boosts struct {
	StateAgree     float64 `yaml:"state_agree" json:"state_agree"`
	StateConflict  float64 `yaml:"state_conflict" json:"state_conflict"`
	CountyAgree    float64 `yaml:"county_agree" json:"county_agree"`
	CountyConflict float64 `yaml:"county_conflict" json:"county_conflict"`
	PayamAgree     float64 `yaml:"payam_agree" json:"payam_agree"`
	BomaAgree      float64 `yaml:"boma_agree" json:"boma_agree"`

	LayerSettlement float64 `yaml:"layer_settlement" json:"layer_settlement"`
	LayerBoma       float64 `yaml:"layer_boma" json:"layer_boma"`
	LayerPayam      float64 `yaml:"layer_payam" json:"layer_payam"`
	LayerCounty     float64 `yaml:"layer_county" json:"layer_county"`
	LayerState      float64 `yaml:"layer_state" json:"layer_state"`
}

type Candidates struct {
	MinLen     int `yaml:"min_len" json:"min_len"`
	MaxNgram   int `yaml:"max_ngram" json:"max_ngram"`
	ShortWords int `yaml:"short_words" json:"short_words"` // word count at or below which the low stage is allowed
	ShortChars int `yaml:"short_chars" json:"short_chars"` // char count at or below which the low stage is allowed
}

type Alternatives struct {
	Limit           int     `yaml:"limit" json:"limit"`
	ThresholdFactor float64 `yaml:"threshold_factor" json:"threshold_factor"`
}

type Cache struct {
	Enabled  bool `yaml:"enabled" json:"enabled"`
	TTLHours int  `yaml:"ttl_hours" json:"ttl_hours"`
}

type ResolverCfg struct {
	SearchLimit  int          `yaml:"search_limit" json:"search_limit"`
	UseExtractor bool         `yaml:"use_extractor" json:"use_extractor"`
	Thresholds   Thresholds   `yaml:"thresholds" json:"thresholds"`
	Penalties    Penalties    `yaml:"penalties" json:"penalties"`
	Boosts       Boosts       `yaml:"boosts" json:"boosts"`
	Candidates   Candidates   `yaml:"candidates" json:"candidates"`
	Alternatives Alternatives `yaml:"alternatives" json:"alternatives"`
	Cache        Cache        `yaml:"cache" json:"cache"`
}

var C ResolverCfg = Defaults()

// Defaults returns the resolver configuration used when no file is loaded.
func Defaults() ResolverCfg {
	return ResolverCfg{
		SearchLimit:  10,
		UseExtractor: false,
		Thresholds: Thresholds{
			Base:       0.7,
			Low:        0.5,
			MediumHigh: 0.8,
			VeryHigh:   0.9,
		},
		Penalties: Penalties{
			SubstringLongQuery:     0.3,
			SubstringLongCandidate: 0.5,
			ShortRatio:             0.8,
			VeryHighRatio:          0.6,
			VeryHighFactor:         0.7,
		},
		Boosts: Boosts{
			StateAgree:      0.20,
			StateConflict:   0.50,
			CountyAgree:     0.20,
			CountyConflict:  0.30,
			PayamAgree:      0.05,
			BomaAgree:       0.05,
			LayerSettlement: 0.05,
			LayerBoma:       0.04,
			LayerPayam:      0.03,
			LayerCounty:     0.02,
			LayerState:      0.01,
		},
		Candidates: Candidates{
			MinLen:     3,
			MaxNgram:   5,
			ShortWords: 2,
			ShortChars: 5,
		},
		Alternatives: Alternatives{
			Limit:           5,
			ThresholdFactor: 0.8,
		},
		Cache: Cache{
			Enabled:  true,
			TTLHours: 24,
		},
	}
}

// Load reads the resolver config from path over the defaults.
func Load(path string) error {
	C = Defaults()
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, &C); err != nil {
		return err
	}
	// ENV overrides
	switch os.Getenv("USE_EXTRACTOR") {
	case "0":
		C.UseExtractor = false
	case "1":
		C.UseExtractor = true
	}
	switch os.Getenv("GEOCODE_CACHE") {
	case "0":
		C.Cache.Enabled = false
	case "1":
		C.Cache.Enabled = true
	}
	return nil
}

// LayerBoost returns the specificity bonus for a layer name.
func (b Boosts) LayerBoost(layer string) float64 {
	switch layer {
	case "settlements":
		return b.LayerSettlement
	case "admin4_boma":
		return b.LayerBoma
	case "admin3_payam":
		return b.LayerPayam
	case "admin2_county":
		return b.LayerCounty
	case "admin1_state":
		return b.LayerState
	}
	return 0
}
