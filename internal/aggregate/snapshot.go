package aggregate

import (
	"time"

	"github.com/existflow/protask/internal/model"
)

// Snapshot is the read-only data set one aggregation run works on
type Snapshot struct {
	Tasks       []model.Task       `json:"tasks"`
	Members     []model.TeamMember `json:"members"`
	Departments []model.Department `json:"departments"`
	LoadedAt    time.Time          `json:"loaded_at"`
}

// Member looks up a member by id
func (s Snapshot) Member(id string) (model.TeamMember, bool) {
	for _, m := range s.Members {
		if m.ID == id {
			return m, true
		}
	}
	return model.TeamMember{}, false
}

// Department looks up a department by id
func (s Snapshot) Department(id string) (model.Department, bool) {
	for _, d := range s.Departments {
		if d.ID == id {
			return d, true
		}
	}
	return model.Department{}, false
}

// AssigneeName returns the assigned member's name or "Unassigned" for
// empty and dangling references
func (s Snapshot) AssigneeName(t *model.Task) string {
	if m, ok := s.Member(t.AssignedTo); ok {
		return m.Name
	}
	return "Unassigned"
}

// DepartmentName returns the task's department name or "No department"
func (s Snapshot) DepartmentName(t *model.Task) string {
	if d, ok := s.Department(t.DepartmentID); ok {
		return d.Name
	}
	return "No department"
}

// Dashboard bundles every KPI derived from one snapshot
type Dashboard struct {
	Total       int               `json:"total"`
	Status      StatusCounts      `json:"status"`
	Delivery    DeliveryStats     `json:"delivery"`
	Planning    PlanningMix       `json:"planning"`
	Departments []DepartmentCount `json:"departments"`
	Workload    []MemberLoad      `json:"workload"`
	ComputedAt  time.Time         `json:"computed_at"`
}

// Compute derives the full dashboard from a snapshot
func Compute(s Snapshot, now time.Time) Dashboard {
	return Dashboard{
		Total:       len(s.Tasks),
		Status:      ComputeStatusCounts(s.Tasks, now),
		Delivery:    ComputeDeliveryStats(s.Tasks),
		Planning:    ComputePlanningMix(s.Tasks),
		Departments: ComputeDepartmentDistribution(s.Tasks, s.Departments),
		Workload:    ComputeWorkload(s.Tasks, s.Members),
		ComputedAt:  now,
	}
}
