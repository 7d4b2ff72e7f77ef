package app

import "diver-exam-service/internal/domain"

// lookupTable maps exam identifiers to a value with a documented fallback for misses.
type lookupTable[T any] struct {
	values   map[string]T
	fallback T
}

func (t lookupTable[T]) get(examID string) T {
	if v, ok := t.values[examID]; ok {
		return v
	}
	return t.fallback
}

// Time limits for the two modes are independent tables; one is not derived from the other.
var spacedRepetitionTimeLimits = lookupTable[int]{
	values: map[string]int{
		"ndt-inspection":        1800,
		"diver-medic":           1500,
		"commercial-supervisor": 1800,
		"saturation-diving":     1800,
		"underwater-welding":    1500,
		"hyperbaric-operations": 1500,
		"alst":                  1800,
		"lst":                   1500,
		"client-representative": 1800,
	},
	fallback: 1800,
}

var fullTimeLimits = lookupTable[int]{
	values: map[string]int{
		"ndt-inspection":        7200,
		"diver-medic":           5400,
		"commercial-supervisor": 9000,
		"saturation-diving":     8100,
		"underwater-welding":    6000,
		"hyperbaric-operations": 5400,
		"alst":                  7200,
		"lst":                   6000,
		"client-representative": 5400,
	},
	fallback: 5400,
}

var passingPercentages = lookupTable[int]{
	values: map[string]int{
		"ndt-inspection":        80,
		"diver-medic":           80,
		"commercial-supervisor": 80,
		"saturation-diving":     80,
		"underwater-welding":    80,
		"hyperbaric-operations": 80,
		"alst":                  80,
		"lst":                   80,
		"client-representative": 75,
	},
	fallback: 80,
}

var titles = lookupTable[string]{
	values: map[string]string{
		"ndt-inspection":        "NDT Inspection Diver Certification",
		"diver-medic":           "Diver Medic Technician Certification",
		"commercial-supervisor": "Commercial Diving Supervisor Certification",
		"saturation-diving":     "Saturation Diving Systems Certification",
		"underwater-welding":    "Underwater Welding Certification",
		"hyperbaric-operations": "Hyperbaric Chamber Operations Certification",
		"alst":                  "Assistant Life Support Technician (ALST)",
		"lst":                   "Life Support Technician (LST)",
		"client-representative": "Diving Client Representative Certification",
	},
	fallback: "Professional Diving Exam",
}

// Advisory only: shown alongside the overall threshold, never checked by Grade.
var componentRules = map[string][]domain.ComponentRule{
	"client-representative": {
		{Name: "Diving Operations Planning", MinPercentage: 65},
		{Name: "Regulations and Compliance", MinPercentage: 65},
		{Name: "Commercial and Contract Management", MinPercentage: 65},
	},
}

// ResolveTimeLimit returns the countdown length in seconds for an exam and mode.
func ResolveTimeLimit(examID string, mode domain.Mode) int {
	if mode == domain.ModeSpacedRepetition {
		return spacedRepetitionTimeLimits.get(examID)
	}
	return fullTimeLimits.get(examID)
}

// ResolvePassingPercentage returns the overall pass threshold (0-100).
func ResolvePassingPercentage(examID string) int {
	return passingPercentages.get(examID)
}

// ResolveTitle returns the display title of an exam.
func ResolveTitle(examID string) string {
	return titles.get(examID)
}

// ResolveExamConfig bundles the three resolvers plus the advisory component note.
func ResolveExamConfig(examID string, mode domain.Mode) domain.ExamConfig {
	var components []domain.ComponentRule
	if rules, ok := componentRules[examID]; ok {
		components = append(components, rules...)
	}
	return domain.ExamConfig{
		ExamID:            examID,
		Mode:              mode,
		Title:             ResolveTitle(examID),
		TimeLimitSeconds:  ResolveTimeLimit(examID, mode),
		PassingPercentage: ResolvePassingPercentage(examID),
		Components:        components,
	}
}
