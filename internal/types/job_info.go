//nolint:revive // types is a standard Go package name pattern
package types

const (
	// FallbackCompany replaces a company name that could not be extracted.
	FallbackCompany = "Company"
	// FallbackRole replaces a role title that could not be extracted.
	FallbackRole = "Position"
)

// ExtractedJobInfo holds the filename-safe company and role tokens pulled from a job posting.
// Both fields contain only [A-Za-z0-9_] and are never empty.
type ExtractedJobInfo struct {
	Company string `json:"company"`
	Role    string `json:"role"`
}

// FallbackJobInfo returns the job info used when extraction is not possible.
func FallbackJobInfo() ExtractedJobInfo {
	return ExtractedJobInfo{Company: FallbackCompany, Role: FallbackRole}
}
