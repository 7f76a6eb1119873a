package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAlreadyDeleted = errors.New("entity is already deleted")
	ErrNotDeleted     = errors.New("entity is not deleted")
)

// Entity is the contract every persisted object satisfies.
type Entity interface {
	GetID() uuid.UUID
}

// Auditable is implemented by entities that carry creation and update metadata.
// The persistence layer stamps it while flushing staged changes.
type Auditable interface {
	Entity
	IsDeleted() bool
	MarkCreated(at time.Time, by string)
	MarkUpdated(at time.Time, by string)
}

// BaseEntity holds the identifier. It is generated at construction and has no setter.
type BaseEntity struct {
	id uuid.UUID
}

// NewBaseEntity creates a base entity with a freshly generated identifier.
func NewBaseEntity() BaseEntity {
	return BaseEntity{id: uuid.New()}
}

// GetID returns the entity identifier
func (e BaseEntity) GetID() uuid.UUID {
	return e.id
}

// AuditState is the stored audit metadata of an entity, used to rehydrate it from storage.
type AuditState struct {
	IsDeleted  bool
	CreateDate time.Time
	CreatedBy  *string
	UpdateDate *time.Time
	UpdateBy   *string
}

// AuditEntity extends BaseEntity with soft-delete and audit metadata.
type AuditEntity struct {
	BaseEntity
	isDeleted  bool
	createDate time.Time
	createdBy  *string
	updateDate *time.Time
	updateBy   *string
}

// NewAuditEntity creates an audited entity created at the given time.
func NewAuditEntity(createdAt time.Time) AuditEntity {
	return AuditEntity{
		BaseEntity: NewBaseEntity(),
		createDate: createdAt,
	}
}

// RestoreAuditEntity rebuilds an audited entity from stored state.
func RestoreAuditEntity(id uuid.UUID, state AuditState) AuditEntity {
	return AuditEntity{
		BaseEntity: BaseEntity{id: id},
		isDeleted:  state.IsDeleted,
		createDate: state.CreateDate,
		createdBy:  state.CreatedBy,
		updateDate: state.UpdateDate,
		updateBy:   state.UpdateBy,
	}
}

func (e *AuditEntity) IsDeleted() bool        { return e.isDeleted }
func (e *AuditEntity) CreateDate() time.Time  { return e.createDate }
func (e *AuditEntity) CreatedBy() *string     { return e.createdBy }
func (e *AuditEntity) UpdateDate() *time.Time { return e.updateDate }
func (e *AuditEntity) UpdateBy() *string      { return e.updateBy }

// AuditState returns a snapshot of the audit metadata.
func (e *AuditEntity) AuditState() AuditState {
	return AuditState{
		IsDeleted:  e.isDeleted,
		CreateDate: e.createDate,
		CreatedBy:  e.createdBy,
		UpdateDate: e.updateDate,
		UpdateBy:   e.updateBy,
	}
}

// MarkCreated fills creation metadata that is still missing.
// A creation timestamp that is already set is never overwritten.
func (e *AuditEntity) MarkCreated(at time.Time, by string) {
	if e.createDate.IsZero() {
		e.createDate = at
	}
	if e.createdBy == nil && by != "" {
		e.createdBy = &by
	}
}

// MarkUpdated records the last update.
func (e *AuditEntity) MarkUpdated(at time.Time, by string) {
	e.updateDate = &at
	if by != "" {
		e.updateBy = &by
	} else {
		e.updateBy = nil
	}
}

// SoftDelete flags the entity as logically removed.
func (e *AuditEntity) SoftDelete() error {
	if e.isDeleted {
		return ErrAlreadyDeleted
	}
	e.isDeleted = true
	return nil
}

// Restore clears the soft-delete flag.
func (e *AuditEntity) Restore() error {
	if !e.isDeleted {
		return ErrNotDeleted
	}
	e.isDeleted = false
	return nil
}
