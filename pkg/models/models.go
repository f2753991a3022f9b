package models

// InvestorRecord represents one investor row scraped from the directory
type InvestorRecord struct {
	VCName              string   `json:"vcName"`
	InvestorName        string   `json:"investorName"`
	LinkedinURL         string   `json:"linkedinUrl"`
	FocusAreas          []string `json:"focusAreas"`
	Geographical        []string `json:"geographical"`
	TargetCountries     []string `json:"targetCountries"`
	FundingRequirements string   `json:"fundingRequirements"`
	FundingStages       []string `json:"fundingStages"`
	CheckSize           string   `json:"checkSize"`
	Description         string   `json:"description"`
	URL                 string   `json:"url"`
}

// NewInvestorRecord returns a record with all list fields set to empty slices
// so they serialize as [] rather than null.
func NewInvestorRecord() InvestorRecord {
	return InvestorRecord{
		FocusAreas:      []string{},
		Geographical:    []string{},
		TargetCountries: []string{},
		FundingStages:   []string{},
	}
}

// Persistable reports whether the record carries enough identity to be stored
func (r InvestorRecord) Persistable() bool {
	return r.VCName != "" || r.InvestorName != ""
}

// Normalize replaces nil list fields with empty slices.
// Records decoded from storage may have been written by other tools.
func (r InvestorRecord) Normalize() InvestorRecord {
	if r.FocusAreas == nil {
		r.FocusAreas = []string{}
	}
	if r.Geographical == nil {
		r.Geographical = []string{}
	}
	if r.TargetCountries == nil {
		r.TargetCountries = []string{}
	}
	if r.FundingStages == nil {
		r.FundingStages = []string{}
	}
	return r
}
