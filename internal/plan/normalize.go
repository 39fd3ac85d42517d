package plan

// Normalize bounds the step count for the mode and tags the result with
// source. Order is preserved; the input slice is not modified.
func Normalize(d Draft, badDay bool, source string) Plan {
	limit := MaxSteps
	if badDay {
		limit = BadDayMaxSteps
	}
	steps := d.Steps
	if len(steps) > limit {
		steps = steps[:limit]
	}
	return Plan{
		Starter: d.Starter,
		Steps:   append(make([]string, 0, len(steps)), steps...),
		Source:  source,
	}
}

// NormalizePlan re-applies the bounds to an already tagged plan.
func NormalizePlan(p Plan, badDay bool) Plan {
	return Normalize(Draft{Starter: p.Starter, Steps: p.Steps}, badDay, p.Source)
}
