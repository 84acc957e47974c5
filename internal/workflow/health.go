package workflow

import (
	"context"

	"newscast/internal/stage"
)

// HealthCheck reports readiness for every stage that can describe itself.
func (m *Manager) HealthCheck(ctx context.Context) []stage.Health {
	var checkers []stage.Checker
	for _, candidate := range []any{m.stages.Collector, m.stages.Writer, m.stages.Narrator, m.stages.Assembler} {
		if checker, ok := candidate.(stage.Checker); ok {
			checkers = append(checkers, checker)
		}
	}
	return stage.CheckAll(ctx, checkers...)
}
