package models

import (
	"time"

	"github.com/homekrypto/estatio/internal/utils"
)

// ListingType classifies how a property is offered.
type ListingType string

const (
	ListingTypeForSale ListingType = "for_sale"
	ListingTypeForRent ListingType = "for_rent"
	ListingTypePreSale ListingType = "pre_sale"
)

// PropertyType classifies the kind of property.
type PropertyType string

const (
	PropertyTypeApartment  PropertyType = "apartment"
	PropertyTypeVilla      PropertyType = "villa"
	PropertyTypeCommercial PropertyType = "commercial"
	PropertyTypeLand       PropertyType = "land"
)

// PropertyStatus governs public visibility: only active listings appear in
// search. Any status may move to any other; there is no transition graph.
type PropertyStatus string

const (
	PropertyStatusActive   PropertyStatus = "active"
	PropertyStatusPending  PropertyStatus = "pending"
	PropertyStatusArchived PropertyStatus = "archived"
	PropertyStatusSold     PropertyStatus = "sold"
	PropertyStatusRemoved  PropertyStatus = "removed"
)

// PaymentFrequency describes how the asking price is charged.
type PaymentFrequency string

const (
	PaymentOneTime PaymentFrequency = "one_time"
	PaymentMonthly PaymentFrequency = "monthly"
	PaymentYearly  PaymentFrequency = "yearly"
)

// Property represents a listing published by an agent. AgentID is immutable
// after creation. SearchableLocation is derived from city/state/country on
// every create and update; it is never independently editable.
type Property struct {
	ID      int64  `bson:"_id" json:"id"`
	AgentID string `bson:"agent_id" json:"agent_id"`

	Title        string         `bson:"title" json:"title"`
	Description  string         `bson:"description,omitempty" json:"description,omitempty"`
	ListingType  ListingType    `bson:"listing_type" json:"listing_type"`
	PropertyType PropertyType   `bson:"property_type" json:"property_type"`
	Status       PropertyStatus `bson:"status" json:"status"`

	// Location
	Country       string   `bson:"country" json:"country"`
	City          string   `bson:"city" json:"city"`
	StreetAddress string   `bson:"street_address" json:"street_address"`
	StateProvince string   `bson:"state_province,omitempty" json:"state_province,omitempty"`
	PostalCode    string   `bson:"postal_code,omitempty" json:"postal_code,omitempty"`
	Latitude      *float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude     *float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`

	// Price & financials
	Price            utils.Money      `bson:"price" json:"price"`
	Currency         string           `bson:"currency" json:"currency"`
	PaymentFrequency PaymentFrequency `bson:"payment_frequency" json:"payment_frequency"`
	IsNegotiable     bool             `bson:"is_negotiable" json:"is_negotiable"`
	AcceptsCrypto    bool             `bson:"accepts_crypto" json:"accepts_crypto"`
	AcceptedCryptos  []string         `bson:"accepted_cryptos,omitempty" json:"accepted_cryptos,omitempty"`
	MaintenanceFees  *utils.Money     `bson:"maintenance_fees,omitempty" json:"maintenance_fees,omitempty"`
	PropertyTaxes    *utils.Money     `bson:"property_taxes,omitempty" json:"property_taxes,omitempty"`

	// Physical metrics
	TotalArea        *float64 `bson:"total_area,omitempty" json:"total_area,omitempty"`
	LivingArea       *float64 `bson:"living_area,omitempty" json:"living_area,omitempty"`
	LotSize          *float64 `bson:"lot_size,omitempty" json:"lot_size,omitempty"`
	AreaUnit         string   `bson:"area_unit,omitempty" json:"area_unit,omitempty"` // sqm or sqft
	YearBuilt        *int     `bson:"year_built,omitempty" json:"year_built,omitempty"`
	Bedrooms         *int     `bson:"bedrooms,omitempty" json:"bedrooms,omitempty"`
	Bathrooms        *int     `bson:"bathrooms,omitempty" json:"bathrooms,omitempty"`
	Floors           *int     `bson:"floors,omitempty" json:"floors,omitempty"`
	ParkingSpaces    *int     `bson:"parking_spaces,omitempty" json:"parking_spaces,omitempty"`
	FurnishingStatus string   `bson:"furnishing_status,omitempty" json:"furnishing_status,omitempty"` // yes, partially, no
	FloorNumber      *int     `bson:"floor_number,omitempty" json:"floor_number,omitempty"`
	HasElevator      bool     `bson:"has_elevator" json:"has_elevator"`
	View             string   `bson:"view,omitempty" json:"view,omitempty"` // sea, mountain, city, garden
	EnergyRating     string   `bson:"energy_rating,omitempty" json:"energy_rating,omitempty"`

	// Features & amenities
	Features     []string `bson:"features,omitempty" json:"features,omitempty"`
	NearbyPlaces []string `bson:"nearby_places,omitempty" json:"nearby_places,omitempty"`

	// Media (opaque references; reachability is not validated)
	CoverImage     string   `bson:"cover_image,omitempty" json:"cover_image,omitempty"`
	GalleryImages  []string `bson:"gallery_images,omitempty" json:"gallery_images,omitempty"`
	VideoTourURL   string   `bson:"video_tour_url,omitempty" json:"video_tour_url,omitempty"`
	VirtualTourURL string   `bson:"virtual_tour_url,omitempty" json:"virtual_tour_url,omitempty"`
	FloorPlanImage string   `bson:"floor_plan_image,omitempty" json:"floor_plan_image,omitempty"`

	// Availability & legal
	AvailableFrom      *time.Time `bson:"available_from,omitempty" json:"available_from,omitempty"`
	OwnershipType      string     `bson:"ownership_type,omitempty" json:"ownership_type,omitempty"` // freehold, leasehold
	TitleDeedAvailable bool       `bson:"title_deed_available" json:"title_deed_available"`
	ExclusiveListing   bool       `bson:"exclusive_listing" json:"exclusive_listing"`

	// Derived search text: "city, state, country" with empty parts dropped.
	SearchableLocation string `bson:"searchable_location" json:"searchable_location"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// PropertyWithAgent is a property enriched with the owning agent's public
// profile, as returned by public search and detail lookups.
type PropertyWithAgent struct {
	Property `bson:",inline"`
	Agent    AgentProfile `bson:"agent" json:"agent"`
}

// ValidListingType reports whether t is one of the known listing types.
func ValidListingType(t ListingType) bool {
	switch t {
	case ListingTypeForSale, ListingTypeForRent, ListingTypePreSale:
		return true
	}
	return false
}

// ValidPropertyType reports whether t is one of the known property types.
func ValidPropertyType(t PropertyType) bool {
	switch t {
	case PropertyTypeApartment, PropertyTypeVilla, PropertyTypeCommercial, PropertyTypeLand:
		return true
	}
	return false
}

// ValidPropertyStatus reports whether s is in the closed status set.
func ValidPropertyStatus(s PropertyStatus) bool {
	switch s {
	case PropertyStatusActive, PropertyStatusPending, PropertyStatusArchived, PropertyStatusSold, PropertyStatusRemoved:
		return true
	}
	return false
}

// ValidPaymentFrequency reports whether f is a known payment frequency.
func ValidPaymentFrequency(f PaymentFrequency) bool {
	switch f {
	case PaymentOneTime, PaymentMonthly, PaymentYearly:
		return true
	}
	return false
}
