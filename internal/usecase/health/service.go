package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates runs work but results are not persisted.
	Degraded Status = "degraded"
	// Unhealthy indicates no run can succeed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentDatabase      = "database"
	ComponentKnowledgeBase = "knowledge_base"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db DBPinger
	kb KnowledgeBase
}

// New creates a Service. db is nil when results are kept in memory only.
func New(db DBPinger, kb KnowledgeBase) *Service {
	return &Service{db: db, kb: kb}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if s.kb == nil || s.kb.Stats().Individuals == 0 {
		checks[ComponentKnowledgeBase] = CheckError
		status = Unhealthy
	} else {
		checks[ComponentKnowledgeBase] = CheckOK
	}

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			checks[ComponentDatabase] = CheckError
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks[ComponentDatabase] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
