package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary newscast relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the result of resolving one Requirement on PATH.
type Status struct {
	Requirement
	// Path is the resolved executable; empty when the lookup failed.
	Path   string
	Detail string
}

// Available reports whether the binary resolved.
func (s Status) Available() bool { return s.Path != "" }

// CheckBinaries resolves every requirement in order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, check(req))
	}
	return results
}

// Missing counts required binaries that did not resolve.
func Missing(statuses []Status) int {
	n := 0
	for _, s := range statuses {
		if !s.Available() && !s.Optional {
			n++
		}
	}
	return n
}

func check(req Requirement) Status {
	req.Command = strings.TrimSpace(req.Command)
	req.Description = strings.TrimSpace(req.Description)
	status := Status{Requirement: req}
	if req.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(req.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", req.Command)
		return status
	}
	status.Path = path
	return status
}
