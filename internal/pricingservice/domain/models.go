package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// PluginType selects how a pricing service's cost reaches its consumers.
type PluginType string

const (
	// PluginTypeUniversal distributes the service's own total cost to the
	// consumers of its usage types.
	PluginTypeUniversal PluginType = "universal"
	// PluginTypeFixedPrice charges consumers a fixed unit price per usage,
	// like a plain usage type. Fixed-price services never have dependents.
	PluginTypeFixedPrice PluginType = "fixed_price"
)

// PricingService groups services whose combined cost is resold to other
// services through dedicated usage types.
type PricingService struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	Name       string       `json:"name" gorm:"type:text;not null;uniqueIndex"`
	Symbol     string       `json:"symbol" gorm:"type:text;not null;uniqueIndex"`
	PluginType PluginType   `json:"plugin_type" gorm:"type:text;not null;default:'universal'"`
	Active     bool         `json:"active" gorm:"not null;default:true"`
}

func (PricingService) TableName() string { return "pricing_services" }

// PricingServiceService assigns a catalog service to a pricing service. The
// pricing service's total cost is the cost accumulated on these services'
// environments.
type PricingServiceService struct {
	PricingServiceID snowflake.ID `json:"pricing_service_id" gorm:"primaryKey"`
	ServiceID        snowflake.ID `json:"service_id" gorm:"primaryKey"`
}

func (PricingServiceService) TableName() string { return "pricing_service_services" }

// PricingServiceExcludedService marks a service the pricing service must not
// charge, besides the usage-type level exclusions and its own services.
type PricingServiceExcludedService struct {
	PricingServiceID snowflake.ID `json:"pricing_service_id" gorm:"primaryKey"`
	ServiceID        snowflake.ID `json:"service_id" gorm:"primaryKey"`
}

func (PricingServiceExcludedService) TableName() string {
	return "pricing_service_excluded_services"
}

// PricingServiceExcludedBaseUsageType removes a base usage type from the
// pricing service's own cost total.
type PricingServiceExcludedBaseUsageType struct {
	PricingServiceID snowflake.ID `json:"pricing_service_id" gorm:"primaryKey"`
	UsageTypeID      snowflake.ID `json:"usage_type_id" gorm:"primaryKey"`
}

func (PricingServiceExcludedBaseUsageType) TableName() string {
	return "pricing_service_excluded_base_usage_types"
}

// ServiceUsageType binds a service usage type to a pricing service over a
// date range, with the percent of the service cost distributed through it.
// Percents of one pricing service covering one date must sum to 100.
type ServiceUsageType struct {
	ID               snowflake.ID `json:"id" gorm:"primaryKey"`
	PricingServiceID snowflake.ID `json:"pricing_service_id" gorm:"not null;index:ux_service_usage_type,unique,priority:1"`
	UsageTypeID      snowflake.ID `json:"usage_type_id" gorm:"not null;index:ux_service_usage_type,unique,priority:2"`
	Start            time.Time    `json:"start" gorm:"type:date;not null;index:ux_service_usage_type,unique,priority:3"`
	End              time.Time    `json:"end" gorm:"column:end;type:date;not null;index:ux_service_usage_type,unique,priority:4"`
	Percent          float64      `json:"percent" gorm:"not null;default:100"`
}

func (ServiceUsageType) TableName() string { return "service_usage_types" }
