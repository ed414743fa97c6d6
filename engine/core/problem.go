package core

import (
	"net/http"
)

const problemTypeBlank = "about:blank"

// Problem is an RFC 7807 error response. Extras carry task failure details
// such as the error code and offending path.
type Problem struct {
	Type     string
	Title    string
	Status   int
	Detail   string
	Instance string
	Extras   map[string]any
}

// NormalizeProblem fills the status, title and type defaults.
func NormalizeProblem(problem *Problem) *Problem {
	if problem == nil {
		problem = &Problem{}
	}
	if problem.Status == 0 {
		problem.Status = http.StatusInternalServerError
	}
	if problem.Title == "" {
		problem.Title = http.StatusText(problem.Status)
	}
	if problem.Type == "" {
		problem.Type = problemTypeBlank
	}
	return problem
}

// BuildProblemBody flattens the problem into its wire form. Extras never
// override the reserved keys, except "code" which is carried through extras.
func BuildProblemBody(problem *Problem) map[string]any {
	body := make(map[string]any, len(problem.Extras)+4)
	for key, value := range problem.Extras {
		if !isReservedProblemKey(key) {
			body[key] = value
		}
	}
	body["status"] = problem.Status
	body["error"] = problem.Title
	if code, ok := problem.Extras["code"]; ok {
		body["code"] = code
	}
	for key, value := range map[string]string{
		"details":  problem.Detail,
		"type":     problem.Type,
		"instance": problem.Instance,
	} {
		if value != "" {
			body[key] = value
		}
	}
	return body
}

func isReservedProblemKey(key string) bool {
	switch key {
	case "status", "error", "details", "code", "type", "instance":
		return true
	}
	return false
}
