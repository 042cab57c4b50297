package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequirement(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Requirement
		wantErr bool
	}{
		{name: "first quiz", raw: `{"type":"first_quiz"}`, want: FirstQuiz{}},
		{name: "perfect score", raw: `{"type":"perfect_score","percentage":90}`, want: PerfectScore{Percentage: 90}},
		{name: "perfect quiz alias", raw: `{"type":"perfect_quiz_score"}`, want: PerfectScore{Percentage: 100}},
		{name: "first lesson alias", raw: `{"type":"first_lesson"}`, want: LessonCount{Count: 1}},
		{name: "lesson count", raw: `{"type":"lesson_completed","count":10}`, want: LessonCount{Count: 10}},
		{name: "subjects explored", raw: `{"type":"subjects_explored","count":3}`, want: SubjectsExplored{Count: 3}},
		{name: "total points", raw: `{"type":"total_points","points":500}`, want: TotalPoints{Points: 500}},
		{name: "subjects without count", raw: `{"type":"subjects_explored"}`, wantErr: true},
		{name: "percentage out of range", raw: `{"type":"perfect_score","percentage":150}`, wantErr: true},
		{name: "unknown type", raw: `{"type":"consecutive_lessons","count":5}`, wantErr: true},
		{name: "not json", raw: `lesson`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRequirement([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRequirementUnknownIsTyped(t *testing.T) {
	_, err := ParseRequirement([]byte(`{"type":"consecutive_lessons"}`))
	assert.True(t, errors.Is(err, ErrUnknownRequirement))
}

func TestRequirementSpecRoundTrip(t *testing.T) {
	spec := NewRequirementSpec(LessonCount{Count: 10})

	v, err := spec.Value()
	require.NoError(t, err)

	var scanned RequirementSpec
	require.NoError(t, scanned.Scan([]byte(v.(string))))

	req, err := scanned.Parse()
	require.NoError(t, err)
	assert.Equal(t, LessonCount{Count: 10}, req)
}

func TestRequirementSpecEmpty(t *testing.T) {
	var spec RequirementSpec
	require.NoError(t, spec.Scan(nil))

	_, err := spec.Parse()
	assert.ErrorIs(t, err, ErrUnknownRequirement)
}

func TestRarityOrder(t *testing.T) {
	assert.Less(t, RarityCommon.Rank(), RarityRare.Rank())
	assert.Less(t, RarityRare.Rank(), RarityEpic.Rank())
	assert.Less(t, RarityEpic.Rank(), RarityLegendary.Rank())
	assert.False(t, Rarity("mythic").Valid())
}
