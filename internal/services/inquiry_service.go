package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/homekrypto/estatio/internal/config"
	"github.com/homekrypto/estatio/internal/db"
	"github.com/homekrypto/estatio/internal/models"
)

const (
	inquiriesCollection = "inquiries"
	inquirySequence     = "inquiries"
)

// TypeInquiryNotify is the asynq task type for the agent notification email.
const TypeInquiryNotify = "inquiry:notify"

// InquiryNotifyPayload is the payload of an inquiry:notify task.
type InquiryNotifyPayload struct {
	InquiryID int64 `json:"inquiry_id"`
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// TaskEnqueuer is the slice of asynq.Client the services use, extracted so
// tests can mock enqueueing.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// IInquiryService defines operations on buyer inquiries.
type IInquiryService interface {
	Create(ctx context.Context, propertyID int64, input *InquiryInput) (*models.Inquiry, error)
	GetByID(ctx context.Context, id int64) (*models.Inquiry, error)
	GetByAgent(ctx context.Context, agentID string) ([]models.Inquiry, error)
}

// InquiryInput carries the fields a buyer submits against a listing.
type InquiryInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Validate reports every offending field at once.
func (in *InquiryInput) Validate() error {
	verr := NewValidationError()
	if strings.TrimSpace(in.Name) == "" {
		verr.Add("name", "required")
	}
	email := strings.TrimSpace(in.Email)
	if email == "" {
		verr.Add("email", "required")
	} else if !emailPattern.MatchString(email) {
		verr.Add("email", "not a valid email address")
	}
	return verr.ErrOrNil()
}

type inquiryService struct {
	db         *mongo.Database
	cfg        *config.Config
	taskClient TaskEnqueuer
}

// NewInquiryService creates a new inquiry service. taskClient may be nil, in
// which case no notification tasks are enqueued.
func NewInquiryService(database *mongo.Database, cfg *config.Config, taskClient TaskEnqueuer) IInquiryService {
	return &inquiryService{db: database, cfg: cfg, taskClient: taskClient}
}

func (s *inquiryService) collection() *mongo.Collection {
	return s.db.Collection(inquiriesCollection)
}

// Create records an inquiry against a listing of any status, snapshotting the
// listing's current owner. The snapshot is never re-derived, so the inquiry
// stays with the agent even if the listing is later deleted.
func (s *inquiryService) Create(ctx context.Context, propertyID int64, input *InquiryInput) (*models.Inquiry, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var property models.Property
	err := s.db.Collection(propertiesCollection).FindOne(ctx, bson.M{"_id": propertyID}).Decode(&property)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, storageErr("inquiry create", err)
	}

	inquiry := &models.Inquiry{
		PropertyID:    propertyID,
		AgentID:       property.AgentID,
		InquirerName:  strings.TrimSpace(input.Name),
		InquirerEmail: strings.TrimSpace(input.Email),
		InquirerPhone: strings.TrimSpace(input.Phone),
		Message:       input.Message,
		Status:        models.InquiryStatusNew,
		CreatedAt:     time.Now().UTC(),
	}

	// A counter that lags the collection can hand out a taken id; retrying
	// with a fresh sequence value resolves the collision.
	err = db.Try(func() error {
		id, err := db.NextSequence(ctx, s.db, inquirySequence)
		if err != nil {
			return err
		}
		inquiry.ID = id
		_, err = s.collection().InsertOne(ctx, inquiry)
		return err
	})
	if err != nil {
		return nil, storageErr("inquiry create", err)
	}

	// Notification failures never fail the inquiry itself.
	if s.taskClient != nil {
		payload, err := json.Marshal(InquiryNotifyPayload{InquiryID: inquiry.ID})
		if err == nil {
			task := asynq.NewTask(TypeInquiryNotify, payload)
			if _, err := s.taskClient.EnqueueContext(ctx, task); err != nil {
				log.Printf("Failed to enqueue inquiry notification for inquiry %d: %v", inquiry.ID, err)
			}
		}
	}

	return inquiry, nil
}

// GetByID fetches a single inquiry.
func (s *inquiryService) GetByID(ctx context.Context, id int64) (*models.Inquiry, error) {
	var inquiry models.Inquiry
	err := s.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&inquiry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, storageErr("inquiry get", err)
	}
	return &inquiry, nil
}

// GetByAgent lists the inquiries captured for an agent, newest first.
func (s *inquiryService) GetByAgent(ctx context.Context, agentID string) ([]models.Inquiry, error) {
	if agentID == "" {
		return nil, ErrAuthenticationRequired
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.collection().Find(ctx, bson.M{"agent_id": agentID}, opts)
	if err != nil {
		return nil, storageErr("inquiry list", err)
	}
	defer cursor.Close(ctx)

	inquiries := []models.Inquiry{}
	if err := cursor.All(ctx, &inquiries); err != nil {
		return nil, storageErr("inquiry list", err)
	}
	return inquiries, nil
}
