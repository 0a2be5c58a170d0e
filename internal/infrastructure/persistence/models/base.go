package models

import (
	"time"

	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/google/uuid"
)

// EntityModel holds the identity and timestamp columns every wholesale
// table carries
type EntityModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func entityModelOf(e shared.BaseEntity) EntityModel {
	return EntityModel{ID: e.ID, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}
}

// Entity returns the domain identity stored in the row
func (m EntityModel) Entity() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

// VersionedModel adds the optimistic lock column of an aggregate root.
// Repositories bump it with a "version = ?" guard on update.
type VersionedModel struct {
	EntityModel
	Version int `gorm:"not null;default:1"`
}

func versionedModelOf(a shared.BaseAggregateRoot) VersionedModel {
	return VersionedModel{EntityModel: entityModelOf(a.BaseEntity), Version: a.Version}
}

// Aggregate returns the domain aggregate root fields stored in the row
func (m VersionedModel) Aggregate() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{BaseEntity: m.Entity(), Version: m.Version}
}
