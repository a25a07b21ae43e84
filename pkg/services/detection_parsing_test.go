package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDetectionReport_NumberedBoldSections(t *testing.T) {
	text := "**1. Detected Pest:** Aphid **2. Remedies:** Neem oil, Soap spray **3. Suggested Treatment:** Apply weekly"

	draft := ParseDetectionReport(text)

	require.NotNil(t, draft)
	assert.Equal(t, "Aphid", draft.PestName)
	assert.Equal(t, []string{"Neem oil", "Soap spray"}, draft.Remedies)
	assert.Equal(t, "Apply weekly", draft.Treatment)
}

func TestParseDetectionReport_MultilineWithBullets(t *testing.T) {
	text := `Detected Pest: Spider Mite

Remedies:
- Insecticidal soap
- Horticultural oil
- Release predatory mites

Suggested Treatment: Spray undersides of leaves every 5 days until mites are gone.`

	draft := ParseDetectionReport(text)

	assert.Equal(t, "Spider Mite", draft.PestName)
	assert.Equal(t, []string{"Insecticidal soap", "Horticultural oil", "Release predatory mites"}, draft.Remedies)
	assert.Equal(t, "Spray undersides of leaves every 5 days until mites are gone.", draft.Treatment)
}

func TestParseDetectionReport_LabelVariants(t *testing.T) {
	tests := []struct {
		name string
		text string
		pest string
	}{
		{"pest name label", "Pest Name: Whitefly\nTreatment: Sticky traps", "Whitefly"},
		{"bare pest label", "Pest: Cutworm", "Cutworm"},
		{"lowercase labels", "detected pest: thrips\nremedy: blue sticky cards", "thrips"},
		{"numbered with parenthesis", "1) Detected Pest: Leaf Miner", "Leaf Miner"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := ParseDetectionReport(tt.text)
			assert.Equal(t, tt.pest, draft.PestName)
		})
	}
}

func TestParseDetectionReport_SemicolonRemedies(t *testing.T) {
	draft := ParseDetectionReport("Detected Pest: Aphid\nRemedies: neem oil; ladybugs; row covers")

	assert.Equal(t, []string{"neem oil", "ladybugs", "row covers"}, draft.Remedies)
}

func TestParseDetectionReport_JSONResponse(t *testing.T) {
	text := `{"pest_name": "Colorado Potato Beetle", "remedies": ["hand picking", "spinosad"], "treatment": "Apply spinosad at dusk"}`

	draft := ParseDetectionReport(text)

	assert.Equal(t, "Colorado Potato Beetle", draft.PestName)
	assert.Equal(t, []string{"hand picking", "spinosad"}, draft.Remedies)
	assert.Equal(t, "Apply spinosad at dusk", draft.Treatment)
}

func TestParseDetectionReport_FencedJSONAlternateKeys(t *testing.T) {
	text := "```json\n{\"detected_pest\": \"Corn Borer\", \"remedies\": \"Bt spray, pheromone traps\", \"suggested_treatment\": \"Spray at first sign of tunneling\"}\n```"

	draft := ParseDetectionReport(text)

	assert.Equal(t, "Corn Borer", draft.PestName)
	assert.Equal(t, []string{"Bt spray", "pheromone traps"}, draft.Remedies)
	assert.Equal(t, "Spray at first sign of tunneling", draft.Treatment)
}

func TestParseDetectionReport_UnstructuredText(t *testing.T) {
	draft := ParseDetectionReport("The image appears to show healthy foliage with no visible insect damage.")

	require.NotNil(t, draft)
	assert.Empty(t, draft.PestName)
	assert.Empty(t, draft.Treatment)
	assert.NotNil(t, draft.Remedies)
	assert.Empty(t, draft.Remedies)
}

func TestParseDetectionReport_EmptyInput(t *testing.T) {
	for _, text := range []string{"", "   \n\t  ", "``````"} {
		draft := ParseDetectionReport(text)
		require.NotNil(t, draft)
		assert.Empty(t, draft.PestName)
		assert.NotNil(t, draft.Remedies)
	}
}

func TestParseDetectionReport_MalformedJSONFallsBackToProse(t *testing.T) {
	draft := ParseDetectionReport(`{"pest_name": "Aphid", Detected Pest: Armyworm`)

	// Broken JSON is reparsed as prose, where the labeled section wins.
	assert.Equal(t, "Armyworm", draft.PestName)
}

func TestParseDetectionReport_MissingSectionsLeftEmpty(t *testing.T) {
	draft := ParseDetectionReport("Detected Pest: Stink Bug")

	assert.Equal(t, "Stink Bug", draft.PestName)
	assert.Empty(t, draft.Remedies)
	assert.NotNil(t, draft.Remedies)
	assert.Empty(t, draft.Treatment)
}

func TestParseDetectionReport_FirstOccurrenceWins(t *testing.T) {
	draft := ParseDetectionReport("Detected Pest: Aphid\nPest Name: Something Else\nTreatment: neem oil")

	assert.Equal(t, "Aphid", draft.PestName)
}
