package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ssd-geocoder/app/models"
)

func TestParseConstraints(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  models.Constraints
	}{
		{
			name:  "Keyworded_Three_Levels",
			input: "Abiemnom Town, Abiemnom County, Unity",
			want: models.Constraints{
				State:   "unity",
				County:  "abiemnhom",
				Village: "abiemnhom",
			},
		},
		{
			name:  "State_Keyword_Segment",
			input: "Mayom; Unity State",
			want: models.Constraints{
				State:   "unity",
				County:  "mayom",
				Village: "mayom",
			},
		},
		{
			name:  "Gazetteer_State_With_Positional",
			input: "Juba, Central Equatoria",
			want: models.Constraints{
				State:   "central equatoria",
				County:  "juba",
				Village: "juba",
			},
		},
		{
			name:  "Single_County_Segment",
			input: "Wau County",
			want: models.Constraints{
				County: "wau",
			},
		},
		{
			name:  "Single_Unknown_Segment_Stays_Empty",
			input: "Bentiu",
			want:  models.Constraints{},
		},
		{
			name:  "Unknown_Last_Segment_Not_Guessed_As_State",
			input: "Nyal, Panyijiar",
			want: models.Constraints{
				County:  "nyal",
				Village: "nyal",
			},
		},
		{
			name:  "Abbreviated_State",
			input: "Yambio Town, WES",
			want: models.Constraints{
				State:   "western equatoria",
				Village: "yambio",
			},
		},
		{
			name:  "Payam_And_Boma_Keywords",
			input: "Rubkona Payam, Dhor Boma, Unity",
			want: models.Constraints{
				State: "unity",
				Payam: "rubkona",
				Boma:  "dhor",
			},
		},
		{
			name:  "Administrative_Area",
			input: "Pariang, Ruweng",
			want: models.Constraints{
				State:   "ruweng administrative area",
				County:  "pariang",
				Village: "pariang",
			},
		},
		{
			name:  "Glued_County_Suffix",
			input: "Panriang, Ruweng, Abiemnomcounty",
			want: models.Constraints{
				State:   "ruweng administrative area",
				County:  "abiemnhom",
				Village: "pariang",
			},
		},
		{
			name:  "Bare_Keyword_Segment_Assigns_Nothing",
			input: "county, Unity",
			want: models.Constraints{
				State: "unity",
			},
		},
		{
			name:  "Empty_Input",
			input: "   ",
			want:  models.Constraints{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseConstraints(tc.input)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMatchState(t *testing.T) {
	cases := []struct {
		segment string
		want    string
		ok      bool
	}{
		{"unity", "unity", true},
		{"Unity State", "unity", true},
		{"NBeG", "northern bahr el ghazal", true},
		{"greater pibor", "greater pibor administrative area", true},
		{"pibor", "greater pibor administrative area", true},
		{"community", "", false}, // must not hit "unity" inside "community"
		{"area", "", false},      // generic token must not hit the admin areas
		{"panyijiar", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := MatchState(tc.segment)
		assert.Equal(t, tc.ok, ok, "segment %q", tc.segment)
		assert.Equal(t, tc.want, got, "segment %q", tc.segment)
	}
}
