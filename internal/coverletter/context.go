package coverletter

import (
	"fmt"
	"strings"

	"github.com/jonathan/cover-letter-generator/internal/types"
)

const notSpecified = "Not specified"

// BuildResumeContext renders the applicant section of the drafting prompt.
func BuildResumeContext(profile types.ResumeProfile) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Name: %s\n", profile.Name)
	if profile.Email != "" {
		fmt.Fprintf(&sb, "Email: %s\n", profile.Email)
	}
	if profile.Phone != "" {
		fmt.Fprintf(&sb, "Phone: %s\n", profile.Phone)
	}

	fmt.Fprintf(&sb, "\nEDUCATION:\n%s\n", orNotSpecified(profile.Education))
	fmt.Fprintf(&sb, "\nSKILLS:\n%s\n", orNotSpecified(profile.Skills))

	if len(profile.Experience) > 0 {
		sb.WriteString("\nWORK EXPERIENCE:\n")
		for i, exp := range profile.Experience {
			fmt.Fprintf(&sb, "%d. %s at %s", i+1, exp.Title, exp.Company)
			if exp.Duration != "" {
				fmt.Fprintf(&sb, " (%s)", exp.Duration)
			}
			sb.WriteString("\n")
			if exp.Description != "" {
				fmt.Fprintf(&sb, "   %s\n", exp.Description)
			}
		}
	}

	if len(profile.Projects) > 0 {
		sb.WriteString("\nPROJECTS:\n")
		for i, proj := range profile.Projects {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, proj.Name)
			if proj.Description != "" {
				fmt.Fprintf(&sb, "   %s\n", proj.Description)
			}
			if proj.Technologies != "" {
				fmt.Fprintf(&sb, "   Technologies: %s\n", proj.Technologies)
			}
		}
	}

	if profile.Summary != "" {
		fmt.Fprintf(&sb, "\nPROFESSIONAL SUMMARY:\n%s\n", profile.Summary)
	}

	return sb.String()
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSpecified
	}
	return s
}
