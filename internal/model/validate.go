package model

import "fmt"

// Validate checks the invariants the optimizer relies on. Errors wrap
// ErrInvalidInput.
func (in *Input) Validate() error {
    n := len(in.Durations)
    if n == 0 { return fmt.Errorf("%w: empty duration matrix", ErrInvalidInput) }
    for i, row := range in.Durations {
        if len(row) != n { return fmt.Errorf("%w: duration row %d has %d entries, want %d", ErrInvalidInput, i, len(row), n) }
        for _, d := range row {
            if d < 0 { return fmt.Errorf("%w: negative duration in row %d", ErrInvalidInput, i) }
        }
    }
    if len(in.Distances) > 0 {
        if len(in.Distances) != n { return fmt.Errorf("%w: distance matrix has %d rows, want %d", ErrInvalidInput, len(in.Distances), n) }
        for i, row := range in.Distances {
            if len(row) != n { return fmt.Errorf("%w: distance row %d has %d entries, want %d", ErrInvalidInput, i, len(row), n) }
            for _, d := range row {
                if d < 0 { return fmt.Errorf("%w: negative distance in row %d", ErrInvalidInput, i) }
            }
        }
    }
    if len(in.Vehicles) == 0 { return fmt.Errorf("%w: no vehicles", ErrInvalidInput) }
    dim := in.Amounts()
    seen := map[string]bool{}
    for i, j := range in.Jobs {
        if j.ID == "" { return fmt.Errorf("%w: job %d has no id", ErrInvalidInput, i) }
        if seen["j:"+j.ID] { return fmt.Errorf("%w: duplicate job id %q", ErrInvalidInput, j.ID) }
        seen["j:"+j.ID] = true
        if j.Location < 0 || j.Location >= n { return fmt.Errorf("%w: job %q location %d out of range", ErrInvalidInput, j.ID, j.Location) }
        if j.Priority < 0 || j.Priority > MaxPriority { return fmt.Errorf("%w: job %q priority %d outside [0,%d]", ErrInvalidInput, j.ID, j.Priority, MaxPriority) }
        if j.ServiceSec < 0 { return fmt.Errorf("%w: job %q negative service time", ErrInvalidInput, j.ID) }
        if err := checkAmounts(j.Delivery, dim); err != nil { return fmt.Errorf("job %q: %w", j.ID, err) }
    }
    for i, v := range in.Vehicles {
        if v.ID == "" { return fmt.Errorf("%w: vehicle %d has no id", ErrInvalidInput, i) }
        if seen["v:"+v.ID] { return fmt.Errorf("%w: duplicate vehicle id %q", ErrInvalidInput, v.ID) }
        seen["v:"+v.ID] = true
        for _, loc := range []*int{v.Start, v.End} {
            if loc != nil && (*loc < 0 || *loc >= n) { return fmt.Errorf("%w: vehicle %q location %d out of range", ErrInvalidInput, v.ID, *loc) }
        }
        if v.Costs.Fixed < 0 || v.Costs.PerHour < 0 || v.Costs.PerKm < 0 { return fmt.Errorf("%w: vehicle %q negative costs", ErrInvalidInput, v.ID) }
        if err := checkAmounts(v.Capacity, dim); err != nil { return fmt.Errorf("vehicle %q: %w", v.ID, err) }
    }
    return nil
}

func checkAmounts(a []int64, dim int) error {
    if len(a) == 0 { return nil }
    if len(a) != dim { return fmt.Errorf("%w: amount has %d dimensions, want %d", ErrInvalidInput, len(a), dim) }
    for _, x := range a {
        if x < 0 { return fmt.Errorf("%w: negative amount", ErrInvalidInput) }
    }
    return nil
}
