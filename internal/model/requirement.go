package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// RequirementType is the discriminator stored in the "type" field of a descriptor.
type RequirementType string

const (
	ReqFirstQuiz        RequirementType = "first_quiz"
	ReqPerfectScore     RequirementType = "perfect_score"
	ReqLessonCount      RequirementType = "lesson_completed"
	ReqSubjectsExplored RequirementType = "subjects_explored"
	ReqTotalPoints      RequirementType = "total_points"
)

// Requirement is a closed set of unlock conditions. Only the types below implement it.
type Requirement interface {
	Type() RequirementType
	isRequirement()
}

type FirstQuiz struct{}

// PerfectScore needs at least one quiz attempt scoring Percentage or more.
type PerfectScore struct {
	Percentage float64
}

type LessonCount struct {
	Count int
}

type SubjectsExplored struct {
	Count int
}

type TotalPoints struct {
	Points int
}

func (FirstQuiz) Type() RequirementType        { return ReqFirstQuiz }
func (PerfectScore) Type() RequirementType     { return ReqPerfectScore }
func (LessonCount) Type() RequirementType      { return ReqLessonCount }
func (SubjectsExplored) Type() RequirementType { return ReqSubjectsExplored }
func (TotalPoints) Type() RequirementType      { return ReqTotalPoints }

func (FirstQuiz) isRequirement()        {}
func (PerfectScore) isRequirement()     {}
func (LessonCount) isRequirement()      {}
func (SubjectsExplored) isRequirement() {}
func (TotalPoints) isRequirement()      {}

var ErrUnknownRequirement = errors.New("unknown achievement requirement")

// requirementWire is the JSON shape persisted in achievements.requirements.
type requirementWire struct {
	Type       RequirementType `json:"type"`
	Percentage *float64        `json:"percentage,omitempty"`
	Count      *int            `json:"count,omitempty"`
	Points     *int            `json:"points,omitempty"`
}

// ParseRequirement decodes a stored descriptor. Aliases written by older seed
// data ("first_lesson", "perfect_quiz_score") map onto the closed set.
func ParseRequirement(raw []byte) (Requirement, error) {
	var w requirementWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode requirement: %w", err)
	}

	switch w.Type {
	case ReqFirstQuiz:
		return FirstQuiz{}, nil
	case ReqPerfectScore, "perfect_quiz_score":
		pct := 100.0
		if w.Percentage != nil {
			pct = *w.Percentage
		}
		if pct <= 0 || pct > 100 {
			return nil, fmt.Errorf("perfect_score percentage %v out of range", pct)
		}
		return PerfectScore{Percentage: pct}, nil
	case ReqLessonCount, "first_lesson":
		n := 1
		if w.Count != nil {
			n = *w.Count
		}
		if n < 1 {
			return nil, fmt.Errorf("lesson count %d must be positive", n)
		}
		return LessonCount{Count: n}, nil
	case ReqSubjectsExplored:
		if w.Count == nil || *w.Count < 1 {
			return nil, errors.New("subjects_explored requires a positive count")
		}
		return SubjectsExplored{Count: *w.Count}, nil
	case ReqTotalPoints:
		if w.Points == nil {
			return nil, errors.New("total_points requires points")
		}
		return TotalPoints{Points: *w.Points}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownRequirement, w.Type)
}

// MarshalRequirement encodes a requirement in the persisted JSON shape.
func MarshalRequirement(r Requirement) ([]byte, error) {
	w := requirementWire{Type: r.Type()}
	switch req := r.(type) {
	case FirstQuiz:
	case PerfectScore:
		w.Percentage = &req.Percentage
	case LessonCount:
		w.Count = &req.Count
	case SubjectsExplored:
		w.Count = &req.Count
	case TotalPoints:
		w.Points = &req.Points
	default:
		return nil, ErrUnknownRequirement
	}
	return json.Marshal(w)
}

// RequirementSpec is the column type. Raw keeps the stored bytes so a malformed
// descriptor can be reported per achievement instead of failing the whole scan.
type RequirementSpec struct {
	Raw json.RawMessage
}

func NewRequirementSpec(r Requirement) RequirementSpec {
	raw, err := MarshalRequirement(r)
	if err != nil {
		return RequirementSpec{}
	}
	return RequirementSpec{Raw: raw}
}

// Parse returns the typed requirement.
func (s RequirementSpec) Parse() (Requirement, error) {
	if len(s.Raw) == 0 {
		return nil, fmt.Errorf("%w: empty descriptor", ErrUnknownRequirement)
	}
	return ParseRequirement(s.Raw)
}

func (s *RequirementSpec) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		s.Raw = nil
	case []byte:
		s.Raw = append(json.RawMessage(nil), v...)
	case string:
		s.Raw = json.RawMessage(v)
	default:
		return fmt.Errorf("unsupported requirement column type %T", value)
	}
	return nil
}

func (s RequirementSpec) Value() (driver.Value, error) {
	if len(s.Raw) == 0 {
		return nil, nil
	}
	return string(s.Raw), nil
}

func (s RequirementSpec) MarshalJSON() ([]byte, error) {
	if len(s.Raw) == 0 {
		return []byte("null"), nil
	}
	return s.Raw, nil
}

func (s *RequirementSpec) UnmarshalJSON(data []byte) error {
	s.Raw = append(json.RawMessage(nil), data...)
	return nil
}
