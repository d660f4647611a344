package reconciler

import "github.com/agentstation/featurereg/pkg/features"

// Result is the outcome of one registry-versus-database comparison.
type Result struct {
	Orphans              []features.OrphanEntry
	TotalDBFeatures      int
	RegistryFeatureCount int
	SyncedCount          int

	// Shadowed holds orphan records whose code repeats an earlier orphan.
	// They are excluded so each orphan code appears once.
	Shadowed []features.FeatureRecord
	Warnings []string
}

// OrphanCodes returns the orphan feature codes in result order.
func (r *Result) OrphanCodes() []string {
	codes := make([]string, len(r.Orphans))
	for i, o := range r.Orphans {
		codes[i] = o.FeatureCode
	}
	return codes
}
