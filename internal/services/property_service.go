package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/homekrypto/estatio/internal/config"
	"github.com/homekrypto/estatio/internal/db"
	"github.com/homekrypto/estatio/internal/models"
	"github.com/homekrypto/estatio/internal/utils"
)

const (
	propertiesCollection = "properties"
	usersCollection      = "users"
	propertySequence     = "properties"
)

// IPropertyService defines operations on property listings.
type IPropertyService interface {
	Create(ctx context.Context, agentID string, input *PropertyInput) (*models.Property, error)
	Update(ctx context.Context, id int64, agentID string, patch *PropertyPatch) (*models.Property, error)
	Delete(ctx context.Context, id int64, agentID string) error
	GetByID(ctx context.Context, id int64) (*models.PropertyWithAgent, error)
	GetByAgent(ctx context.Context, agentID string) ([]models.Property, error)
	Search(ctx context.Context, criteria *SearchCriteria) ([]models.PropertyWithAgent, error)
	CountByAgent(ctx context.Context, agentID string) (int64, error)
	AddGalleryImage(ctx context.Context, id int64, imageURL string) error
}

type propertyService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewPropertyService creates a new property service.
func NewPropertyService(database *mongo.Database, cfg *config.Config) IPropertyService {
	return &propertyService{db: database, cfg: cfg}
}

// PropertyInput carries the fields an agent supplies when creating a listing.
type PropertyInput struct {
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	ListingType  models.ListingType    `json:"listing_type"`
	PropertyType models.PropertyType   `json:"property_type"`
	Status       models.PropertyStatus `json:"status"`

	Country       string   `json:"country"`
	City          string   `json:"city"`
	StreetAddress string   `json:"street_address"`
	StateProvince string   `json:"state_province"`
	PostalCode    string   `json:"postal_code"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`

	Price            utils.Money             `json:"price"`
	Currency         string                  `json:"currency"`
	PaymentFrequency models.PaymentFrequency `json:"payment_frequency"`
	IsNegotiable     bool                    `json:"is_negotiable"`
	AcceptsCrypto    bool                    `json:"accepts_crypto"`
	AcceptedCryptos  []string                `json:"accepted_cryptos"`
	MaintenanceFees  *utils.Money            `json:"maintenance_fees"`
	PropertyTaxes    *utils.Money            `json:"property_taxes"`

	TotalArea        *float64 `json:"total_area"`
	LivingArea       *float64 `json:"living_area"`
	LotSize          *float64 `json:"lot_size"`
	AreaUnit         string   `json:"area_unit"`
	YearBuilt        *int     `json:"year_built"`
	Bedrooms         *int     `json:"bedrooms"`
	Bathrooms        *int     `json:"bathrooms"`
	Floors           *int     `json:"floors"`
	ParkingSpaces    *int     `json:"parking_spaces"`
	FurnishingStatus string   `json:"furnishing_status"`
	FloorNumber      *int     `json:"floor_number"`
	HasElevator      bool     `json:"has_elevator"`
	View             string   `json:"view"`
	EnergyRating     string   `json:"energy_rating"`

	Features     []string `json:"features"`
	NearbyPlaces []string `json:"nearby_places"`

	CoverImage     string   `json:"cover_image"`
	GalleryImages  []string `json:"gallery_images"`
	VideoTourURL   string   `json:"video_tour_url"`
	VirtualTourURL string   `json:"virtual_tour_url"`
	FloorPlanImage string   `json:"floor_plan_image"`

	AvailableFrom      *time.Time `json:"available_from"`
	OwnershipType      string     `json:"ownership_type"`
	TitleDeedAvailable bool       `json:"title_deed_available"`
	ExclusiveListing   bool       `json:"exclusive_listing"`
}

// Validate checks the input and reports every offending field at once.
func (in *PropertyInput) Validate(agentID string) error {
	verr := NewValidationError()
	if agentID == "" {
		verr.Add("agent_id", "required")
	}
	if strings.TrimSpace(in.Title) == "" {
		verr.Add("title", "required")
	}
	if in.ListingType == "" {
		verr.Add("listing_type", "required")
	} else if !models.ValidListingType(in.ListingType) {
		verr.Add("listing_type", "unknown listing type")
	}
	if in.PropertyType == "" {
		verr.Add("property_type", "required")
	} else if !models.ValidPropertyType(in.PropertyType) {
		verr.Add("property_type", "unknown property type")
	}
	if in.Status != "" && !models.ValidPropertyStatus(in.Status) {
		verr.Add("status", "unknown status")
	}
	if strings.TrimSpace(in.Country) == "" {
		verr.Add("country", "required")
	}
	if strings.TrimSpace(in.City) == "" {
		verr.Add("city", "required")
	}
	if strings.TrimSpace(in.StreetAddress) == "" {
		verr.Add("street_address", "required")
	}
	// A zero price is indistinguishable from an absent one, so it counts as
	// missing rather than as a free listing.
	if in.Price <= 0 {
		verr.Add("price", "must be a positive amount")
	}
	if in.PaymentFrequency == "" {
		verr.Add("payment_frequency", "required")
	} else if !models.ValidPaymentFrequency(in.PaymentFrequency) {
		verr.Add("payment_frequency", "unknown payment frequency")
	}
	return verr.ErrOrNil()
}

// PropertyPatch carries a partial update. Nil fields are left untouched.
// AgentID and the derived searchable location are never patchable.
type PropertyPatch struct {
	Title        *string                `json:"title"`
	Description  *string                `json:"description"`
	ListingType  *models.ListingType    `json:"listing_type"`
	PropertyType *models.PropertyType   `json:"property_type"`
	Status       *models.PropertyStatus `json:"status"`

	Country       *string  `json:"country"`
	City          *string  `json:"city"`
	StreetAddress *string  `json:"street_address"`
	StateProvince *string  `json:"state_province"`
	PostalCode    *string  `json:"postal_code"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`

	Price            *utils.Money             `json:"price"`
	Currency         *string                  `json:"currency"`
	PaymentFrequency *models.PaymentFrequency `json:"payment_frequency"`
	IsNegotiable     *bool                    `json:"is_negotiable"`
	AcceptsCrypto    *bool                    `json:"accepts_crypto"`
	AcceptedCryptos  []string                 `json:"accepted_cryptos"`
	MaintenanceFees  *utils.Money             `json:"maintenance_fees"`
	PropertyTaxes    *utils.Money             `json:"property_taxes"`

	TotalArea        *float64 `json:"total_area"`
	LivingArea       *float64 `json:"living_area"`
	LotSize          *float64 `json:"lot_size"`
	AreaUnit         *string  `json:"area_unit"`
	YearBuilt        *int     `json:"year_built"`
	Bedrooms         *int     `json:"bedrooms"`
	Bathrooms        *int     `json:"bathrooms"`
	Floors           *int     `json:"floors"`
	ParkingSpaces    *int     `json:"parking_spaces"`
	FurnishingStatus *string  `json:"furnishing_status"`
	FloorNumber      *int     `json:"floor_number"`
	HasElevator      *bool    `json:"has_elevator"`
	View             *string  `json:"view"`
	EnergyRating     *string  `json:"energy_rating"`

	Features     []string `json:"features"`
	NearbyPlaces []string `json:"nearby_places"`

	CoverImage     *string  `json:"cover_image"`
	GalleryImages  []string `json:"gallery_images"`
	VideoTourURL   *string  `json:"video_tour_url"`
	VirtualTourURL *string  `json:"virtual_tour_url"`
	FloorPlanImage *string  `json:"floor_plan_image"`

	AvailableFrom      *time.Time `json:"available_from"`
	OwnershipType      *string    `json:"ownership_type"`
	TitleDeedAvailable *bool      `json:"title_deed_available"`
	ExclusiveListing   *bool      `json:"exclusive_listing"`
}

// Validate checks the supplied fields of a patch, reporting every offending
// field at once.
func (p *PropertyPatch) Validate() error {
	verr := NewValidationError()
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		verr.Add("title", "must not be empty")
	}
	if p.ListingType != nil && !models.ValidListingType(*p.ListingType) {
		verr.Add("listing_type", "unknown listing type")
	}
	if p.PropertyType != nil && !models.ValidPropertyType(*p.PropertyType) {
		verr.Add("property_type", "unknown property type")
	}
	if p.Status != nil && !models.ValidPropertyStatus(*p.Status) {
		verr.Add("status", "unknown status")
	}
	if p.Country != nil && strings.TrimSpace(*p.Country) == "" {
		verr.Add("country", "must not be empty")
	}
	if p.City != nil && strings.TrimSpace(*p.City) == "" {
		verr.Add("city", "must not be empty")
	}
	if p.StreetAddress != nil && strings.TrimSpace(*p.StreetAddress) == "" {
		verr.Add("street_address", "must not be empty")
	}
	if p.Price != nil && *p.Price <= 0 {
		verr.Add("price", "must be a positive amount")
	}
	if p.PaymentFrequency != nil && !models.ValidPaymentFrequency(*p.PaymentFrequency) {
		verr.Add("payment_frequency", "unknown payment frequency")
	}
	return verr.ErrOrNil()
}

// SearchCriteria are the public search filters. Nil/empty fields are ignored.
type SearchCriteria struct {
	Location     *string
	MinPrice     *utils.Money
	MaxPrice     *utils.Money
	PropertyType *models.PropertyType
	MinBedrooms  *int
	MinBathrooms *int
	Features     []string
	Limit        int
	Offset       int
}

// BuildSearchableLocation derives the denormalized location text from
// city/state/country, dropping empty parts.
func BuildSearchableLocation(city, state, country string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{city, state, country} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func (s *propertyService) collection() *mongo.Collection {
	return s.db.Collection(propertiesCollection)
}

// Create validates the input, assigns the next numeric id and persists the
// listing.
func (s *propertyService) Create(ctx context.Context, agentID string, input *PropertyInput) (*models.Property, error) {
	if err := input.Validate(agentID); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = models.PropertyStatusActive
	}

	now := time.Now().UTC()
	property := &models.Property{
		AgentID: agentID,

		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		ListingType:  input.ListingType,
		PropertyType: input.PropertyType,
		Status:       status,

		Country:       strings.TrimSpace(input.Country),
		City:          strings.TrimSpace(input.City),
		StreetAddress: strings.TrimSpace(input.StreetAddress),
		StateProvince: strings.TrimSpace(input.StateProvince),
		PostalCode:    input.PostalCode,
		Latitude:      input.Latitude,
		Longitude:     input.Longitude,

		Price:            input.Price,
		Currency:         input.Currency,
		PaymentFrequency: input.PaymentFrequency,
		IsNegotiable:     input.IsNegotiable,
		AcceptsCrypto:    input.AcceptsCrypto,
		AcceptedCryptos:  input.AcceptedCryptos,
		MaintenanceFees:  input.MaintenanceFees,
		PropertyTaxes:    input.PropertyTaxes,

		TotalArea:        input.TotalArea,
		LivingArea:       input.LivingArea,
		LotSize:          input.LotSize,
		AreaUnit:         input.AreaUnit,
		YearBuilt:        input.YearBuilt,
		Bedrooms:         input.Bedrooms,
		Bathrooms:        input.Bathrooms,
		Floors:           input.Floors,
		ParkingSpaces:    input.ParkingSpaces,
		FurnishingStatus: input.FurnishingStatus,
		FloorNumber:      input.FloorNumber,
		HasElevator:      input.HasElevator,
		View:             input.View,
		EnergyRating:     input.EnergyRating,

		Features:     input.Features,
		NearbyPlaces: input.NearbyPlaces,

		CoverImage:     input.CoverImage,
		GalleryImages:  input.GalleryImages,
		VideoTourURL:   input.VideoTourURL,
		VirtualTourURL: input.VirtualTourURL,
		FloorPlanImage: input.FloorPlanImage,

		AvailableFrom:      input.AvailableFrom,
		OwnershipType:      input.OwnershipType,
		TitleDeedAvailable: input.TitleDeedAvailable,
		ExclusiveListing:   input.ExclusiveListing,

		CreatedAt: now,
		UpdatedAt: now,
	}
	property.SearchableLocation = BuildSearchableLocation(property.City, property.StateProvince, property.Country)

	// A counter that lags the collection can hand out a taken id; retrying
	// with a fresh sequence value resolves the collision.
	err := db.Try(func() error {
		id, err := db.NextSequence(ctx, s.db, propertySequence)
		if err != nil {
			return err
		}
		property.ID = id
		_, err = s.collection().InsertOne(ctx, property)
		return err
	})
	if err != nil {
		return nil, storageErr("property create", err)
	}
	return property, nil
}

// Update applies a partial update under the ownership filter. A missing id or
// an id owned by another agent both surface as ErrNotFound and leave the
// listing untouched.
func (s *propertyService) Update(ctx context.Context, id int64, agentID string, patch *PropertyPatch) (*models.Property, error) {
	if agentID == "" {
		return nil, ErrAuthenticationRequired
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	setStr := func(field string, v *string) {
		if v != nil {
			set[field] = strings.TrimSpace(*v)
		}
	}
	setStr("title", patch.Title)
	setStr("description", patch.Description)
	if patch.ListingType != nil {
		set["listing_type"] = *patch.ListingType
	}
	if patch.PropertyType != nil {
		set["property_type"] = *patch.PropertyType
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	setStr("country", patch.Country)
	setStr("city", patch.City)
	setStr("street_address", patch.StreetAddress)
	setStr("state_province", patch.StateProvince)
	setStr("postal_code", patch.PostalCode)
	if patch.Latitude != nil {
		set["latitude"] = *patch.Latitude
	}
	if patch.Longitude != nil {
		set["longitude"] = *patch.Longitude
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	setStr("currency", patch.Currency)
	if patch.PaymentFrequency != nil {
		set["payment_frequency"] = *patch.PaymentFrequency
	}
	if patch.IsNegotiable != nil {
		set["is_negotiable"] = *patch.IsNegotiable
	}
	if patch.AcceptsCrypto != nil {
		set["accepts_crypto"] = *patch.AcceptsCrypto
	}
	if patch.AcceptedCryptos != nil {
		set["accepted_cryptos"] = patch.AcceptedCryptos
	}
	if patch.MaintenanceFees != nil {
		set["maintenance_fees"] = *patch.MaintenanceFees
	}
	if patch.PropertyTaxes != nil {
		set["property_taxes"] = *patch.PropertyTaxes
	}
	if patch.TotalArea != nil {
		set["total_area"] = *patch.TotalArea
	}
	if patch.LivingArea != nil {
		set["living_area"] = *patch.LivingArea
	}
	if patch.LotSize != nil {
		set["lot_size"] = *patch.LotSize
	}
	setStr("area_unit", patch.AreaUnit)
	if patch.YearBuilt != nil {
		set["year_built"] = *patch.YearBuilt
	}
	if patch.Bedrooms != nil {
		set["bedrooms"] = *patch.Bedrooms
	}
	if patch.Bathrooms != nil {
		set["bathrooms"] = *patch.Bathrooms
	}
	if patch.Floors != nil {
		set["floors"] = *patch.Floors
	}
	if patch.ParkingSpaces != nil {
		set["parking_spaces"] = *patch.ParkingSpaces
	}
	setStr("furnishing_status", patch.FurnishingStatus)
	if patch.FloorNumber != nil {
		set["floor_number"] = *patch.FloorNumber
	}
	if patch.HasElevator != nil {
		set["has_elevator"] = *patch.HasElevator
	}
	setStr("view", patch.View)
	setStr("energy_rating", patch.EnergyRating)
	if patch.Features != nil {
		set["features"] = patch.Features
	}
	if patch.NearbyPlaces != nil {
		set["nearby_places"] = patch.NearbyPlaces
	}
	setStr("cover_image", patch.CoverImage)
	if patch.GalleryImages != nil {
		set["gallery_images"] = patch.GalleryImages
	}
	setStr("video_tour_url", patch.VideoTourURL)
	setStr("virtual_tour_url", patch.VirtualTourURL)
	setStr("floor_plan_image", patch.FloorPlanImage)
	if patch.AvailableFrom != nil {
		set["available_from"] = *patch.AvailableFrom
	}
	setStr("ownership_type", patch.OwnershipType)
	if patch.TitleDeedAvailable != nil {
		set["title_deed_available"] = *patch.TitleDeedAvailable
	}
	if patch.ExclusiveListing != nil {
		set["exclusive_listing"] = *patch.ExclusiveListing
	}

	filter := bson.M{"_id": id, "agent_id": agentID}

	// The searchable location derives from city/state/country, so touching any
	// of them requires the current values of the others.
	if patch.City != nil || patch.StateProvince != nil || patch.Country != nil {
		var current models.Property
		err := s.collection().FindOne(ctx, filter).Decode(&current)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, ErrNotFound
			}
			return nil, storageErr("property update", err)
		}
		city, state, country := current.City, current.StateProvince, current.Country
		if patch.City != nil {
			city = strings.TrimSpace(*patch.City)
		}
		if patch.StateProvince != nil {
			state = strings.TrimSpace(*patch.StateProvince)
		}
		if patch.Country != nil {
			country = strings.TrimSpace(*patch.Country)
		}
		set["searchable_location"] = BuildSearchableLocation(city, state, country)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Property
	err := s.collection().FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, storageErr("property update", err)
	}
	return &updated, nil
}

// Delete removes a listing the agent owns. Inquiries referencing it are kept.
func (s *propertyService) Delete(ctx context.Context, id int64, agentID string) error {
	if agentID == "" {
		return ErrAuthenticationRequired
	}
	res, err := s.collection().DeleteOne(ctx, bson.M{"_id": id, "agent_id": agentID})
	if err != nil {
		return storageErr("property delete", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns a listing of any status joined with its agent's public
// profile.
func (s *propertyService) GetByID(ctx context.Context, id int64) (*models.PropertyWithAgent, error) {
	var property models.Property
	err := s.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&property)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, storageErr("property get", err)
	}

	profiles, err := s.agentProfiles(ctx, []string{property.AgentID})
	if err != nil {
		return nil, err
	}
	return &models.PropertyWithAgent{Property: property, Agent: profiles[property.AgentID]}, nil
}

// GetByAgent returns all the agent's listings regardless of status, newest
// first.
func (s *propertyService) GetByAgent(ctx context.Context, agentID string) ([]models.Property, error) {
	if agentID == "" {
		return nil, ErrAuthenticationRequired
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.collection().Find(ctx, bson.M{"agent_id": agentID}, opts)
	if err != nil {
		return nil, storageErr("property list", err)
	}
	defer cursor.Close(ctx)

	properties := []models.Property{}
	if err := cursor.All(ctx, &properties); err != nil {
		return nil, storageErr("property list", err)
	}
	return properties, nil
}

// CountByAgent counts the agent's listings across all statuses. Used for the
// dashboard's plan-capacity readout; it never gates creation.
func (s *propertyService) CountByAgent(ctx context.Context, agentID string) (int64, error) {
	count, err := s.collection().CountDocuments(ctx, bson.M{"agent_id": agentID})
	if err != nil {
		return 0, storageErr("property count", err)
	}
	return count, nil
}

// AddGalleryImage appends a processed image URL to the listing's gallery.
// Called by the image worker, which carries no agent identity, so the lookup
// is by id only.
func (s *propertyService) AddGalleryImage(ctx context.Context, id int64, imageURL string) error {
	res, err := s.collection().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$addToSet": bson.M{"gallery_images": imageURL},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return storageErr("property image append", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// buildSearchFilter translates search criteria into a Mongo filter. Only
// active listings are reachable through public search.
func buildSearchFilter(criteria *SearchCriteria) bson.M {
	filter := bson.M{"status": models.PropertyStatusActive}
	if criteria == nil {
		return filter
	}

	if criteria.Location != nil && strings.TrimSpace(*criteria.Location) != "" {
		pattern := regexp.QuoteMeta(strings.TrimSpace(*criteria.Location))
		re := primitive.Regex{Pattern: pattern, Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"city": re},
			bson.M{"country": re},
			bson.M{"searchable_location": re},
		}
	}

	// Price bounds are inclusive and independent. Money compares exactly.
	priceRange := bson.M{}
	if criteria.MinPrice != nil {
		priceRange["$gte"] = *criteria.MinPrice
	}
	if criteria.MaxPrice != nil {
		priceRange["$lte"] = *criteria.MaxPrice
	}
	if len(priceRange) > 0 {
		filter["price"] = priceRange
	}

	if criteria.PropertyType != nil {
		filter["property_type"] = *criteria.PropertyType
	}
	if criteria.MinBedrooms != nil {
		filter["bedrooms"] = bson.M{"$gte": *criteria.MinBedrooms}
	}
	if criteria.MinBathrooms != nil {
		filter["bathrooms"] = bson.M{"$gte": *criteria.MinBathrooms}
	}
	// Any one matching feature qualifies a listing.
	if len(criteria.Features) > 0 {
		filter["features"] = bson.M{"$in": criteria.Features}
	}
	return filter
}

// Search runs the public listing search and joins the owning agents' public
// profiles onto the results.
func (s *propertyService) Search(ctx context.Context, criteria *SearchCriteria) ([]models.PropertyWithAgent, error) {
	filter := buildSearchFilter(criteria)

	limit := 0
	offset := 0
	if criteria != nil {
		limit = criteria.Limit
		offset = criteria.Offset
	}
	if limit <= 0 {
		limit = s.cfg.DefaultSearchLimit
	}
	if offset < 0 {
		offset = 0
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := s.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, storageErr("property search", err)
	}
	defer cursor.Close(ctx)

	properties := []models.Property{}
	if err := cursor.All(ctx, &properties); err != nil {
		return nil, storageErr("property search", err)
	}

	agentIDs := make([]string, 0, len(properties))
	seen := map[string]bool{}
	for _, p := range properties {
		if !seen[p.AgentID] {
			seen[p.AgentID] = true
			agentIDs = append(agentIDs, p.AgentID)
		}
	}
	profiles, err := s.agentProfiles(ctx, agentIDs)
	if err != nil {
		return nil, err
	}

	results := make([]models.PropertyWithAgent, 0, len(properties))
	for _, p := range properties {
		results = append(results, models.PropertyWithAgent{Property: p, Agent: profiles[p.AgentID]})
	}
	return results, nil
}

// agentProfiles fetches the public profiles for a set of agent ids in one
// query. Unknown ids map to zero-value profiles rather than failing the read.
func (s *propertyService) agentProfiles(ctx context.Context, agentIDs []string) (map[string]models.AgentProfile, error) {
	profiles := make(map[string]models.AgentProfile, len(agentIDs))
	if len(agentIDs) == 0 {
		return profiles, nil
	}

	cursor, err := s.db.Collection(usersCollection).Find(ctx, bson.M{"_id": bson.M{"$in": agentIDs}})
	if err != nil {
		return nil, storageErr("agent profile lookup", err)
	}
	defer cursor.Close(ctx)

	agents := []models.Agent{}
	if err := cursor.All(ctx, &agents); err != nil {
		return nil, storageErr("agent profile lookup", err)
	}
	for i := range agents {
		profiles[agents[i].ID] = agents[i].Profile()
	}
	return profiles, nil
}
