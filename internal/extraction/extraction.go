package extraction

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/williampepple1/openvc-scraper/pkg/models"
)

// Selectors for the investor results table
const (
	TableBodySelector = "table#results_tb tbody"
	RowSelector       = "table#results_tb tbody tr"

	nameCellSelector     = "td.nameCell"
	vcNameSelector       = "#invOverflow"
	vcLinkSelector       = "a.VClink"
	countriesSelector    = `td[data-label="Target countries"] .badge-primary`
	stagesSelector       = `td[data-label="Funding stages"] .badge-primary`
	checkSizeSelector    = `td[data-label="Check size"]`
	requirementsSelector = `td[data-label="Funding requirement"], td.criteriaCell`
	linkedinSelector     = `a[href*="linkedin.com"]`
)

var (
	trailingCapitalized = regexp.MustCompile(`([A-Z][a-zA-Z\s]+)$`)
	moreIndicator       = regexp.MustCompile(`^\+\d+$`)
)

// Extractor turns rows of the results table into investor records
type Extractor struct {
	baseURL *url.URL
	logger  *zap.Logger
}

// NewExtractor creates a new extractor resolving relative links against baseURL
func NewExtractor(baseURL *url.URL, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		baseURL: baseURL,
		logger:  logger,
	}
}

// Harvest extracts every valid record from the document, in document order.
// A panic while walking the tree is logged and yields no records.
func (e *Extractor) Harvest(doc *goquery.Document) (records []models.InvestorRecord) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("row extraction failed", zap.Any("panic", r))
			records = []models.InvestorRecord{}
		}
	}()

	records = []models.InvestorRecord{}
	doc.Find(RowSelector).Each(func(_ int, row *goquery.Selection) {
		if rec, ok := e.ExtractRow(row); ok {
			records = append(records, rec)
		}
	})
	return records
}

// ExtractRow maps one table row to a record. It returns false for sponsored
// rows and rows without an investor name.
func (e *Extractor) ExtractRow(row *goquery.Selection) (models.InvestorRecord, bool) {
	if row.HasClass("sponsorRow") || row.HasClass("adType") {
		return models.InvestorRecord{}, false
	}

	nameCell := row.Find(nameCellSelector).First()
	vcName := strings.TrimSpace(nameCell.Find(vcNameSelector).First().Text())
	if vcName == "" {
		return models.InvestorRecord{}, false
	}

	rec := models.NewInvestorRecord()
	rec.VCName = vcName

	if divs := nameCell.Find("div"); divs.Length() > 1 {
		rec.InvestorName = strings.TrimSpace(divs.Last().Text())
	}

	rec.TargetCountries = countries(row.Find(countriesSelector))
	rec.FundingStages = stages(row.Find(stagesSelector))
	rec.CheckSize = cellText(row.Find(checkSizeSelector).First())
	rec.FundingRequirements = cellText(row.Find(requirementsSelector).First())
	rec.Description = rec.FundingRequirements

	if href, ok := nameCell.Find(vcLinkSelector).First().Attr("href"); ok {
		rec.URL = e.resolve(href)
	}
	if href, ok := row.Find(linkedinSelector).First().Attr("href"); ok {
		rec.LinkedinURL = e.resolve(href)
	}

	return rec, true
}

// resolve makes href absolute against the base URL; absolute hrefs are kept
func (e *Extractor) resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if ref.IsAbs() || e.baseURL == nil {
		return ref.String()
	}
	return e.baseURL.ResolveReference(ref).String()
}

// countries reads country names from the badges, dropping flags and "+N" badges
func countries(badges *goquery.Selection) []string {
	out := []string{}
	badges.Each(func(_ int, badge *goquery.Selection) {
		text := cellText(badge)
		if text == "" {
			return
		}
		name := ""
		if m := trailingCapitalized.FindStringSubmatch(text); m != nil {
			name = strings.TrimSpace(m[1])
		} else if fields := strings.Fields(text); len(fields) > 0 {
			name = fields[len(fields)-1]
		}
		if name == "" || strings.HasPrefix(name, "+") {
			return
		}
		out = append(out, name)
	})
	return out
}

// stages reads funding stage labels, dropping "+N" more-indicators
func stages(badges *goquery.Selection) []string {
	out := []string{}
	badges.Each(func(_ int, badge *goquery.Selection) {
		text := strings.TrimSpace(badge.Text())
		if badge.Find(vcLinkSelector).Length() > 0 && strings.HasPrefix(text, "+") {
			return
		}
		if text == "" || moreIndicator.MatchString(text) {
			return
		}
		out = append(out, text)
	})
	return out
}

// cellText returns the trimmed cell text with non-breaking spaces normalized
func cellText(cell *goquery.Selection) string {
	return strings.TrimSpace(strings.ReplaceAll(cell.Text(), "\u00a0", " "))
}
