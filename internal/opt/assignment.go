package opt

import (
	"fmt"

	"routeopt/internal/indicators"
	"routeopt/internal/model"
)

// Assignment is one vehicle's route expressed with IDs.
type Assignment struct {
	VehicleID string   `json:"vehicleId"`
	JobIDs    []string `json:"jobIds"`
}

// FromAssignments resolves IDs to ranks, checks feasibility and evaluates
// the result. Unlisted vehicles get empty routes and unlisted jobs stay
// unassigned.
func FromAssignments(in *model.Input, as []Assignment) (Solution, error) {
	vehicleRank := make(map[string]int, len(in.Vehicles))
	for v, veh := range in.Vehicles {
		vehicleRank[veh.ID] = v
	}
	jobRank := make(map[string]int, len(in.Jobs))
	for j, job := range in.Jobs {
		jobRank[job.ID] = j
	}

	sol := Solution{Routes: make([]RoutePlan, len(in.Vehicles))}
	for v := range sol.Routes {
		sol.Routes[v].VehicleRank = v
	}
	usedVehicle := map[int]bool{}
	usedJob := map[int]bool{}
	for _, a := range as {
		v, ok := vehicleRank[a.VehicleID]
		if !ok {
			return Solution{}, fmt.Errorf("%w: unknown vehicle %q", model.ErrInvalidInput, a.VehicleID)
		}
		if usedVehicle[v] {
			return Solution{}, fmt.Errorf("%w: vehicle %q listed twice", model.ErrInvalidInput, a.VehicleID)
		}
		usedVehicle[v] = true
		for _, id := range a.JobIDs {
			j, ok := jobRank[id]
			if !ok {
				return Solution{}, fmt.Errorf("%w: unknown job %q", model.ErrInvalidInput, id)
			}
			if usedJob[j] {
				return Solution{}, fmt.Errorf("%w: job %q assigned twice", model.ErrInvalidInput, id)
			}
			if !in.CanServe(v, j) {
				return Solution{}, fmt.Errorf("%w: vehicle %q lacks skills for job %q", model.ErrInvalidInput, a.VehicleID, id)
			}
			usedJob[j] = true
			sol.Routes[v].Jobs = append(sol.Routes[v].Jobs, j)
		}
		if !in.Fits(v, sol.Routes[v].Jobs) {
			return Solution{}, fmt.Errorf("%w: vehicle %q over capacity", model.ErrInvalidInput, a.VehicleID)
		}
	}
	for j := range in.Jobs {
		if !usedJob[j] {
			sol.Unassigned = append(sol.Unassigned, j)
		}
	}
	sol.Indicators = indicators.Build(in, sol.Routes)
	return sol, nil
}

// Assignments maps s back to IDs, omitting empty routes.
func (s Solution) Assignments(in *model.Input) []Assignment {
	out := []Assignment{}
	for _, r := range s.Routes {
		if r.Empty() {
			continue
		}
		a := Assignment{VehicleID: in.Vehicles[r.VehicleRank].ID, JobIDs: make([]string, 0, len(r.Jobs))}
		for _, j := range r.Jobs {
			a.JobIDs = append(a.JobIDs, in.Jobs[j].ID)
		}
		out = append(out, a)
	}
	return out
}

// UnassignedIDs lists the IDs of jobs left out of s.
func (s Solution) UnassignedIDs(in *model.Input) []string {
	out := make([]string, 0, len(s.Unassigned))
	for _, j := range s.Unassigned {
		out = append(out, in.Jobs[j].ID)
	}
	return out
}
