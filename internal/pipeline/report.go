package pipeline

import "github.com/komps-labs/komps/internal/model"

// AssembleReport composes the terminal report: subject identity, the
// valuation verbatim, the ranked drivers, and the distinct source
// identifiers those drivers reference in first-occurrence order. Prose
// sections are attached only when narrative report writing succeeded.
func AssembleReport(req model.Request, val model.Valuation, drivers []model.Driver, summary *model.NarrativeSummary, sections *model.ReportSections) model.Report {
	var sources []string
	seen := make(map[string]bool)
	for _, d := range drivers {
		if d.Source == "" || seen[d.Source] {
			continue
		}
		seen[d.Source] = true
		sources = append(sources, d.Source)
	}

	return model.Report{
		Subject:   req,
		Valuation: val,
		Drivers:   drivers,
		Sources:   sources,
		Summary:   summary,
		Sections:  sections,
	}
}
