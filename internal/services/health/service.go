package health

import (
	"context"
	"sort"
	"time"
)

// Check probes a single dependency. A nil error means healthy.
type Check struct {
	Name     string
	Probe    func(ctx context.Context) error
	Optional bool
}

// Status is the health payload returned to callers.
type Status struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Service encapsulates health-related checks.
type Service struct {
	checks  []Check
	timeout time.Duration
}

// NewService constructs a new health service.
func NewService(checks ...Check) *Service {
	sorted := append([]Check(nil), checks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &Service{checks: sorted, timeout: 2 * time.Second}
}

// Status runs every check. Optional checks report degraded state without failing OK.
func (s *Service) Status(ctx context.Context) Status {
	out := Status{OK: true}
	if s == nil || len(s.checks) == 0 {
		return out
	}
	out.Checks = make(map[string]string, len(s.checks))
	for _, chk := range s.checks {
		if chk.Probe == nil {
			out.Checks[chk.Name] = "disabled"
			continue
		}
		probeCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := chk.Probe(probeCtx)
		cancel()
		if err == nil {
			out.Checks[chk.Name] = "ok"
			continue
		}
		if chk.Optional {
			out.Checks[chk.Name] = "degraded"
			continue
		}
		out.Checks[chk.Name] = "down"
		out.OK = false
	}
	return out
}
