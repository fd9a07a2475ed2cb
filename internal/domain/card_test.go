package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCard_Field(t *testing.T) {
	columnID := uuid.New()
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	card := Card{
		ID:       uuid.New(),
		ColumnID: columnID,
		Title:    "Ship it",
		Priority: PriorityHigh,
		DueDate:  &due,
		Position: 2048,
	}

	v, ok := card.Field(FieldColumnID)
	assert.True(t, ok)
	assert.Equal(t, columnID.String(), v)

	v, ok = card.Field(FieldPriority)
	assert.True(t, ok)
	assert.Equal(t, "HIGH", v)

	v, ok = card.Field(FieldDueDate)
	assert.True(t, ok)
	assert.Equal(t, "2026-03-01T12:00:00Z", v)

	v, ok = card.Field(FieldPosition)
	assert.True(t, ok)
	assert.Equal(t, float64(2048), v)

	v, ok = card.Field(FieldArchived)
	assert.True(t, ok)
	assert.Equal(t, false, v)

	v, ok = card.Field(FieldArchivedAt)
	assert.True(t, ok)
	assert.Nil(t, v)

	_, ok = card.Field("__proto__")
	assert.False(t, ok, "unknown fields resolve to absent")
}

func TestCard_AssigneesExcept(t *testing.T) {
	actor, other := uuid.New(), uuid.New()
	card := Card{AssigneeIDs: []uuid.UUID{actor, other}}

	assert.Equal(t, []uuid.UUID{other}, card.AssigneesExcept(actor))
	assert.True(t, card.HasAssignee(actor))
	assert.False(t, card.HasLabel(actor))
}

func TestNextChecklistPosition(t *testing.T) {
	assert.Equal(t, float64(1024), NextChecklistPosition(nil))
	last := float64(1024)
	assert.Equal(t, float64(2048), NextChecklistPosition(&last))
}
