package extraction

import (
	"encoding/json"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williampepple1/openvc-scraper/pkg/models"
)

func loadFixture(t *testing.T) *goquery.Document {
	t.Helper()
	f, err := os.Open("testdata/results.html")
	require.NoError(t, err)
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	require.NoError(t, err)
	return doc
}

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	base, err := url.Parse("https://openvc.app/")
	require.NoError(t, err)
	return NewExtractor(base, nil)
}

func docFromRows(t *testing.T, rows string) *goquery.Document {
	t.Helper()
	html := `<table id="results_tb"><tbody>` + rows + `</tbody></table>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestHarvestSkipsSponsoredAndNameless(t *testing.T) {
	records := newTestExtractor(t).Harvest(loadFixture(t))

	require.Len(t, records, 3)
	assert.Equal(t, "Acme Ventures", records[0].VCName)
	assert.Equal(t, "Beta Capital", records[1].VCName)
	assert.Equal(t, "Gamma Angels", records[2].VCName)
}

func TestHarvestFirstRecord(t *testing.T) {
	rec := newTestExtractor(t).Harvest(loadFixture(t))[0]

	assert.Equal(t, "VC firm", rec.InvestorName)
	assert.Equal(t, []string{"United States", "France"}, rec.TargetCountries)
	assert.Equal(t, []string{"Seed", "Series A"}, rec.FundingStages)
	assert.Equal(t, "$100k - $1M", rec.CheckSize)
	assert.Equal(t, "Traction required", rec.FundingRequirements)
	assert.Equal(t, rec.FundingRequirements, rec.Description)
	assert.Equal(t, "https://openvc.app/fund/acme", rec.URL)
	assert.Equal(t, "https://www.linkedin.com/company/acme", rec.LinkedinURL)
	assert.Equal(t, []string{}, rec.FocusAreas)
	assert.Equal(t, []string{}, rec.Geographical)
}

func TestHarvestOptionalCells(t *testing.T) {
	records := newTestExtractor(t).Harvest(loadFixture(t))

	beta := records[1]
	assert.Equal(t, "", beta.InvestorName)
	assert.Equal(t, []string{"Germany"}, beta.TargetCountries)
	assert.Equal(t, []string{"Pre-seed"}, beta.FundingStages)
	assert.Equal(t, "https://beta.example.com/", beta.URL)
	assert.Equal(t, "", beta.LinkedinURL)

	gamma := records[2]
	assert.Equal(t, "Angel network", gamma.InvestorName)
	assert.Equal(t, []string{"日本"}, gamma.TargetCountries)
	assert.Equal(t, []string{}, gamma.FundingStages)
	assert.Equal(t, "", gamma.CheckSize)
	assert.Equal(t, "Revenue generating", gamma.FundingRequirements)
	assert.Equal(t, "Revenue generating", gamma.Description)
	assert.Equal(t, "", gamma.URL)
}

func TestHarvestInvariants(t *testing.T) {
	for _, rec := range newTestExtractor(t).Harvest(loadFixture(t)) {
		assert.NotEmpty(t, rec.VCName)
		assert.NotContains(t, rec.CheckSize, "\u00a0")
		assert.Equal(t, rec.FundingRequirements, rec.Description)
		for _, s := range rec.FundingStages {
			assert.NotRegexp(t, `^\+\d+$`, s)
		}
		for _, c := range rec.TargetCountries {
			assert.False(t, strings.HasPrefix(c, "+"), c)
		}
	}
}

func TestHarvestIsIdempotent(t *testing.T) {
	e := newTestExtractor(t)
	doc := loadFixture(t)

	first, err := json.Marshal(e.Harvest(doc))
	require.NoError(t, err)
	second, err := json.Marshal(e.Harvest(doc))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestHarvestWithoutTable(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body><p>403 Forbidden</p></body></html>"))
	require.NoError(t, err)

	records := newTestExtractor(t).Harvest(doc)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestExtractRowStageRules(t *testing.T) {
	doc := docFromRows(t, `<tr>
		<td class="nameCell"><div id="invOverflow">Delta</div></td>
		<td data-label="Funding stages">
			<span class="badge-primary"><a class="VClink" href="/x">+ more</a></span>
			<span class="badge-primary">+12</span>
			<span class="badge-primary"> </span>
			<span class="badge-primary">Series B+</span>
		</td>
	</tr>`)

	rec, ok := newTestExtractor(t).ExtractRow(doc.Find(RowSelector).First())
	require.True(t, ok)
	assert.Equal(t, []string{"Series B+"}, rec.FundingStages)
}

func TestExtractRowCountryFallback(t *testing.T) {
	doc := docFromRows(t, `<tr>
		<td class="nameCell"><div id="invOverflow">Epsilon</div></td>
		<td data-label="Target countries">
			<span class="badge-primary">🇧🇷 Brazil</span>
			<span class="badge-primary">🇺🇸&nbsp;United&nbsp;States</span>
			<span class="badge-primary">🇬🇧 United&nbsp;Kingdom</span>
			<span class="badge-primary">🇨🇳 中国</span>
			<span class="badge-primary">+7</span>
			<span class="badge-primary"></span>
		</td>
	</tr>`)

	rec, ok := newTestExtractor(t).ExtractRow(doc.Find(RowSelector).First())
	require.True(t, ok)
	assert.Equal(t, []string{"Brazil", "United States", "United Kingdom", "中国"}, rec.TargetCountries)
}

func TestHarvestRecoversFromPanic(t *testing.T) {
	records := newTestExtractor(t).Harvest(nil)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestExtractRowRejects(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"sponsor", `<tr class="sponsorRow"><td class="nameCell"><div id="invOverflow">S</div></td></tr>`},
		{"ad", `<tr class="adType"><td class="nameCell"><div id="invOverflow">A</div></td></tr>`},
		{"no name cell", `<tr><td>orphan</td></tr>`},
		{"blank name", `<tr><td class="nameCell"><div id="invOverflow">  </div></td></tr>`},
	}

	e := newTestExtractor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := docFromRows(t, tt.row)
			rec, ok := e.ExtractRow(doc.Find(RowSelector).First())
			assert.False(t, ok)
			assert.Equal(t, models.InvestorRecord{}, rec)
		})
	}
}

func TestResolveWithoutBase(t *testing.T) {
	e := NewExtractor(nil, nil)
	assert.Equal(t, "/fund/x", e.resolve("/fund/x"))
	assert.Equal(t, "https://a.example/b", e.resolve("https://a.example/b"))
	assert.Equal(t, "", e.resolve("  "))
}
