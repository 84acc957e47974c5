// Package stage holds the readiness contract shared by pipeline stages.
package stage

import "context"

// Health is one stage's answer to "can you run right now".
type Health struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

func Healthy(name string) Health { return Health{Name: name, Ready: true} }

// Unhealthy records why name cannot run; detail should name the fix.
func Unhealthy(name, detail string) Health { return Health{Name: name, Detail: detail} }

// Checker is implemented by stages that can report readiness.
type Checker interface {
	HealthCheck(context.Context) Health
}

// CheckAll runs the non-nil checkers in order.
func CheckAll(ctx context.Context, checkers ...Checker) []Health {
	results := make([]Health, 0, len(checkers))
	for _, c := range checkers {
		if c != nil {
			results = append(results, c.HealthCheck(ctx))
		}
	}
	return results
}

func AllReady(results []Health) bool {
	for _, h := range results {
		if !h.Ready {
			return false
		}
	}
	return true
}
