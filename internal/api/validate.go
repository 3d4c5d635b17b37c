package api

import (
	"fmt"
	"regexp"
)

var planDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func validateSolveRequest(req *solveRequest) error {
	if req.Workers < 0 || req.Workers > 64 {
		return fmt.Errorf("workers must be in [0,64]")
	}
	if req.TimeBudgetMs < 0 {
		return fmt.Errorf("timeBudgetMs must be >= 0")
	}
	if req.TimeBudgetMs > 10*60*1000 {
		return fmt.Errorf("timeBudgetMs must be at most 10 minutes")
	}
	if req.MaxIterations < 0 {
		return fmt.Errorf("maxIterations must be >= 0")
	}
	if req.PlanDate != "" && !planDateRe.MatchString(req.PlanDate) {
		return fmt.Errorf("planDate must be YYYY-MM-DD")
	}
	return nil
}
