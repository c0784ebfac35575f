package logging

import "strings"

// FormatSubject builds the "Job <id> (stage)" subject used in console output.
// Job identifiers longer than eight characters are shortened.
func FormatSubject(jobID, stage string) string {
	jobID = ShortID(jobID)
	stage = strings.TrimSpace(stage)
	switch {
	case jobID != "" && stage != "":
		return "Job " + jobID + " (" + stage + ")"
	case jobID != "":
		return "Job " + jobID
	default:
		return stage
	}
}

// ShortID trims a job identifier for human-facing output.
func ShortID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
