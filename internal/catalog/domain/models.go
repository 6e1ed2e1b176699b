package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// BusinessLine groups services on the highest organizational level.
type BusinessLine struct {
	ID   snowflake.ID `json:"id" gorm:"primaryKey"`
	Name string       `json:"name" gorm:"type:text;not null;uniqueIndex"`
}

func (BusinessLine) TableName() string { return "business_lines" }

// ProfitCenter assigns services to an accounting unit.
type ProfitCenter struct {
	ID             snowflake.ID  `json:"id" gorm:"primaryKey"`
	Name           string        `json:"name" gorm:"type:text;not null;uniqueIndex"`
	BusinessLineID *snowflake.ID `json:"business_line_id" gorm:"column:business_line_id"`
	Description    string        `json:"description" gorm:"type:text"`
}

func (ProfitCenter) TableName() string { return "profit_centers" }

// Owner is a person responsible for a service.
type Owner struct {
	ID    snowflake.ID `json:"id" gorm:"primaryKey"`
	Name  string       `json:"name" gorm:"type:text;not null"`
	Email string       `json:"email" gorm:"type:text;not null;uniqueIndex"`
}

func (Owner) TableName() string { return "owners" }

// OwnershipType discriminates business from technical ownership.
type OwnershipType string

const (
	OwnershipTypeBusiness  OwnershipType = "business"
	OwnershipTypeTechnical OwnershipType = "technical"
)

// ServiceOwnership links an owner to a service.
type ServiceOwnership struct {
	ID        snowflake.ID  `json:"id" gorm:"primaryKey"`
	ServiceID snowflake.ID  `json:"service_id" gorm:"not null;index:ux_ownership,unique,priority:1"`
	OwnerID   snowflake.ID  `json:"owner_id" gorm:"not null;index:ux_ownership,unique,priority:2"`
	Type      OwnershipType `json:"type" gorm:"type:text;not null;index:ux_ownership,unique,priority:3"`
}

func (ServiceOwnership) TableName() string { return "service_ownerships" }

// Service is a business unit costs are attributed to, identified by a stable
// external uid.
type Service struct {
	ID             snowflake.ID  `json:"id" gorm:"primaryKey"`
	CIUID          string        `json:"ci_uid" gorm:"column:ci_uid;type:text;not null;uniqueIndex"`
	Name           string        `json:"name" gorm:"type:text;not null"`
	Symbol         string        `json:"symbol" gorm:"type:text"`
	ProfitCenterID *snowflake.ID `json:"profit_center_id"`
	Active         bool          `json:"active" gorm:"not null;default:true"`
	CreatedAt      time.Time     `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time     `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Service) TableName() string { return "services" }

// Environment is a deployment environment (prod, test, dev).
type Environment struct {
	ID   snowflake.ID `json:"id" gorm:"primaryKey"`
	Name string       `json:"name" gorm:"type:text;not null;uniqueIndex"`
}

func (Environment) TableName() string { return "environments" }

// ServiceEnvironment pairs a service with an environment. The pair is the
// unit all usage and cost facts are keyed by.
type ServiceEnvironment struct {
	ID            snowflake.ID `json:"id" gorm:"primaryKey"`
	ServiceID     snowflake.ID `json:"service_id" gorm:"not null;index:ux_service_env,unique,priority:1"`
	EnvironmentID snowflake.ID `json:"environment_id" gorm:"not null;index:ux_service_env,unique,priority:2"`
	CreatedAt     time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ServiceEnvironment) TableName() string { return "service_environments" }

// PricingObjectType classifies pricing objects.
type PricingObjectType string

const (
	PricingObjectTypeAsset   PricingObjectType = "asset"
	PricingObjectTypeVirtual PricingObjectType = "virtual"
	PricingObjectTypeTenant  PricingObjectType = "tenant"
	PricingObjectTypeIP      PricingObjectType = "ip_address"
)

// PricingObject is a concrete billable thing (asset, VM, tenant) currently
// assigned to a service environment.
type PricingObject struct {
	ID                   snowflake.ID      `json:"id" gorm:"primaryKey"`
	Name                 string            `json:"name" gorm:"type:text;not null"`
	Type                 PricingObjectType `json:"type" gorm:"type:text;not null"`
	ExternalID           string            `json:"external_id" gorm:"type:text;index"`
	ServiceEnvironmentID snowflake.ID      `json:"service_environment_id" gorm:"not null;index"`
	CreatedAt            time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt            time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PricingObject) TableName() string { return "pricing_objects" }
