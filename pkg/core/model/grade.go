package model

import (
	"fmt"
	"strings"
)

// Grade is a PSIRA security-grade on the ordered scale E < D < C < B < A.
// The zero value means "no grade".
type Grade int

const (
	GradeNone Grade = iota
	GradeE
	GradeD
	GradeC
	GradeB
	GradeA
)

var gradeNames = map[Grade]string{
	GradeNone: "",
	GradeE:    "E",
	GradeD:    "D",
	GradeC:    "C",
	GradeB:    "B",
	GradeA:    "A",
}

func (g Grade) String() string {
	return gradeNames[g]
}

// ParseGrade converts a grade letter (case-insensitive) to a Grade.
// An empty string parses to GradeNone.
func ParseGrade(s string) (Grade, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	s = strings.TrimPrefix(s, "GRADE ")
	for g, name := range gradeNames {
		if name == s {
			return g, nil
		}
	}
	return GradeNone, fmt.Errorf("unknown grade %q", s)
}

// Satisfies reports whether a holder of grade g meets a requirement of grade required.
// Higher grades satisfy any requirement at or below them.
func (g Grade) Satisfies(required Grade) bool {
	if required == GradeNone {
		return true
	}
	return g != GradeNone && g >= required
}
