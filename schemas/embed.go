// Package schemas embeds the JSON Schemas that structured model output is checked against.
package schemas

import "embed"

// Files holds every *.schema.json in this directory.
//
//go:embed *.schema.json
var Files embed.FS

// Schema file names.
const (
	JobInfo       = "job_info.schema.json"
	ResumeProfile = "resume_profile.schema.json"
)
