package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	p := NewProduct("Keyboard", decimal.RequireFromString("49.90"), 3, now)

	assert.NotEqual(t, uuid.Nil, p.GetID())
	assert.Equal(t, now, p.CreateDate())
	assert.False(t, p.IsDeleted())
	assert.Nil(t, p.CreatedBy())
	assert.Nil(t, p.UpdateDate())

	other := NewProduct("Keyboard", decimal.RequireFromString("49.90"), 3, now)
	assert.NotEqual(t, p.GetID(), other.GetID())
}

func TestProduct_Validate(t *testing.T) {
	valid := NewProduct("Mouse", decimal.NewFromInt(10), 0, time.Now())
	assert.NoError(t, valid.Validate())

	invalid := NewProduct("  ", decimal.NewFromInt(-1), -5, time.Now())
	err := invalid.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{ErrInvalidProductName.Error()}, verr.Fields["name"])
	assert.Equal(t, []string{ErrInvalidProductPrice.Error()}, verr.Fields["price"])
	assert.Equal(t, []string{ErrInvalidProductStock.Error()}, verr.Fields["stock"])

	assert.ErrorIs(t, err, ErrInvalidProductName)
	assert.ErrorIs(t, err, ErrInvalidProductStock)
	assert.Equal(t,
		"validation failed: name: product name is required; price: product price must not be negative; stock: product stock must not be negative",
		err.Error())
}

func TestAuditEntity_MarkCreated(t *testing.T) {
	created := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	later := created.Add(time.Hour)

	e := NewAuditEntity(created)
	e.MarkCreated(later, "carol")
	assert.Equal(t, created, e.CreateDate())
	require.NotNil(t, e.CreatedBy())
	assert.Equal(t, "carol", *e.CreatedBy())

	e.MarkCreated(later, "dave")
	assert.Equal(t, "carol", *e.CreatedBy())

	var blank AuditEntity
	blank.MarkCreated(later, "")
	assert.Equal(t, later, blank.CreateDate())
	assert.Nil(t, blank.CreatedBy())
}

func TestAuditEntity_MarkUpdated(t *testing.T) {
	e := NewAuditEntity(time.Now())
	at := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)

	e.MarkUpdated(at, "erin")
	require.NotNil(t, e.UpdateDate())
	assert.Equal(t, at, *e.UpdateDate())
	assert.Equal(t, "erin", *e.UpdateBy())

	e.MarkUpdated(at.Add(time.Minute), "")
	assert.Equal(t, at.Add(time.Minute), *e.UpdateDate())
	assert.Nil(t, e.UpdateBy())
}

func TestAuditEntity_SoftDelete(t *testing.T) {
	e := NewAuditEntity(time.Now())

	require.NoError(t, e.SoftDelete())
	assert.True(t, e.IsDeleted())
	assert.ErrorIs(t, e.SoftDelete(), ErrAlreadyDeleted)

	require.NoError(t, e.Restore())
	assert.False(t, e.IsDeleted())
	assert.ErrorIs(t, e.Restore(), ErrNotDeleted)
}

func TestRestoreProduct(t *testing.T) {
	id := uuid.New()
	by := "frank"
	state := AuditState{IsDeleted: true, CreateDate: time.Unix(0, 0).UTC(), CreatedBy: &by}

	p := RestoreProduct(id, "Desk", decimal.NewFromInt(100), 2, state)

	assert.Equal(t, id, p.GetID())
	assert.Equal(t, state, p.AuditState())
}

func TestActorContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ActorFromContext(ctx))
	assert.Equal(t, "grace", ActorFromContext(WithActor(ctx, "grace")))
}
