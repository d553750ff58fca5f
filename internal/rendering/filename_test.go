package rendering

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Jane Doe", "Jane_Doe"},
		{"punctuation removed", "Dr. Jane O'Neil-Smith", "Dr_Jane_ONeilSmith"},
		{"whitespace runs", "Jane   \t Doe", "Jane_Doe"},
		{"accents removed", "José Núñez", "Jos_Nez"},
		{"digits kept", "Agent 47", "Agent_47"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeName(tt.input))
		})
	}
}

func TestFileName(t *testing.T) {
	date := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)

	assert.Equal(t,
		"CoverLetter_Jane_Doe_TechCo_Backend_Engineer_20240309.pdf",
		FileName("Jane Doe", "TechCo", "Backend_Engineer", date))
}

func TestFileName_UsesUTCDate(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	date := time.Date(2024, 3, 10, 5, 0, 0, 0, tokyo) // 2024-03-09 20:00 UTC

	assert.Equal(t, "CoverLetter_Jane_Company_Position_20240309.pdf",
		FileName("Jane", "Company", "Position", date))
}

func TestFileName_EmptyName(t *testing.T) {
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "CoverLetter_Applicant_A_B_20240102.pdf", FileName("", "A", "B", date))
	assert.Equal(t, "CoverLetter_Applicant_A_B_20240102.pdf", FileName("!!!", "A", "B", date))
}
