package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoding for image.Decode
	"io"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"

	"github.com/homekrypto/estatio/internal/config"
	"github.com/homekrypto/estatio/internal/email"
	"github.com/homekrypto/estatio/internal/services"
	"github.com/homekrypto/estatio/internal/storage"
)

// TypeImageProcess is the asynq task type for the photo pipeline. The inquiry
// notification and subscription sync types live in the services package
// because the services enqueue them.
const TypeImageProcess = "image:process"

// ImageTaskPayload is the payload of an image:process task.
type ImageTaskPayload struct {
	S3Key      string `json:"s3_key"`
	PropertyID int64  `json:"property_id"`
}

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg             *config.Config
	emailSender     email.Sender
	storageService  storage.IS3Storage
	propertyService services.IPropertyService
	inquiryService  services.IInquiryService
	agentService    services.IAgentService
	billingService  services.IBillingService
	s3Client        *s3.Client
}

func NewTaskProcessor(
	cfg *config.Config,
	emailSender email.Sender,
	storageService storage.IS3Storage,
	propertyService services.IPropertyService,
	inquiryService services.IInquiryService,
	agentService services.IAgentService,
	billingService services.IBillingService,
	s3Client *s3.Client,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:             cfg,
		emailSender:     emailSender,
		storageService:  storageService,
		propertyService: propertyService,
		inquiryService:  inquiryService,
		agentService:    agentService,
		billingService:  billingService,
		s3Client:        s3Client,
	}
}

// SetupServer configures an Asynq server instance and the mux with the
// handlers for the requested worker role. The caller runs it.
func SetupServer(rdb *redis.Client, processor *TaskProcessor, isImageWorker bool, isBgWorker bool) (*asynq.Server, *asynq.ServeMux) {
	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
				"images":   5,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				fmt.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v\n", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()

	if isBgWorker {
		mux.HandleFunc(services.TypeInquiryNotify, processor.HandleInquiryNotifyTask)
		mux.HandleFunc(services.TypeSubscriptionSync, processor.HandleSubscriptionSyncTask)
		fmt.Println("Registered background task handlers (notifications & billing sync).")
	}

	if isImageWorker {
		mux.HandleFunc(TypeImageProcess, processor.HandleImageProcessTask)
		fmt.Println("Registered image processing task handlers.")
	}

	if !isBgWorker && !isImageWorker {
		fmt.Println("Running in API mode, no task server started.")
		return nil, nil
	}

	return srv, mux
}

// --- Task Handlers ---

// HandleInquiryNotifyTask emails the owning agent about a new inquiry.
func (p *TaskProcessor) HandleInquiryNotifyTask(ctx context.Context, t *asynq.Task) error {
	var payload services.InquiryNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal inquiry notify payload: %v: %w", err, asynq.SkipRetry)
	}

	inquiry, err := p.inquiryService.GetByID(ctx, payload.InquiryID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return fmt.Errorf("inquiry %d not found: %w", payload.InquiryID, asynq.SkipRetry)
		}
		return err
	}

	agent, err := p.agentService.FindByID(ctx, inquiry.AgentID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			log.Printf("Agent %s for inquiry %d no longer exists. Dropping notification.", inquiry.AgentID, inquiry.ID)
			return nil
		}
		return err
	}
	if agent.Email == "" {
		log.Printf("Agent %s has no email on record. Dropping notification for inquiry %d.", agent.ID, inquiry.ID)
		return nil
	}

	subject := fmt.Sprintf("New inquiry for your listing #%d", inquiry.PropertyID)

	var body strings.Builder
	fmt.Fprintf(&body, "You received a new inquiry for listing #%d.\r\n\r\n", inquiry.PropertyID)
	fmt.Fprintf(&body, "From: %s <%s>\r\n", inquiry.InquirerName, inquiry.InquirerEmail)
	if inquiry.InquirerPhone != "" {
		fmt.Fprintf(&body, "Phone: %s\r\n", inquiry.InquirerPhone)
	}
	if inquiry.Message != "" {
		fmt.Fprintf(&body, "\r\n%s\r\n", inquiry.Message)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("To: %s\r\n", agent.Email))
	sb.WriteString(fmt.Sprintf("From: %s\r\n", p.cfg.SmtpFromAddress))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body.String())

	if err := p.emailSender.Send(ctx, []string{agent.Email}, subject, []byte(sb.String())); err != nil {
		fmt.Printf("Inquiry notification sending failed (will retry): %v\n", err)
		return err
	}

	log.Printf("Inquiry notification sent: inquiry=%d agent=%s", inquiry.ID, agent.ID)
	return nil
}

// HandleImageProcessTask normalizes an uploaded property photo and appends it
// to the listing's gallery.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.PropertyID <= 0 || payload.S3Key == "" {
		return fmt.Errorf("invalid image task payload: %w", asynq.SkipRetry)
	}

	log.Printf("Processing image task: S3Key=%s, PropertyID=%d", payload.S3Key, payload.PropertyID)

	// 1. Download image from S3
	getObjectOutput, err := p.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.cfg.AwsS3Bucket),
		Key:    aws.String(payload.S3Key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			log.Printf("S3 object %s not found, likely upload failed or key incorrect.", payload.S3Key)
			return fmt.Errorf("s3 object not found: %w", asynq.SkipRetry)
		}
		return fmt.Errorf("failed to download image from S3: %w", err)
	}
	defer getObjectOutput.Body.Close()

	imgData, err := io.ReadAll(getObjectOutput.Body)
	if err != nil {
		return fmt.Errorf("failed to read image data: %w", err)
	}

	// Check initial size before decoding (more efficient)
	maxSizeBytes := int64(p.cfg.ImageMaxSizeMB) * 1024 * 1024
	if int64(len(imgData)) > maxSizeBytes {
		log.Printf("Image %s exceeds max size (%d > %d bytes). Skipping.", payload.S3Key, len(imgData), maxSizeBytes)
		return fmt.Errorf("image exceeds max size: %w", asynq.SkipRetry)
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}
	log.Printf("Decoded image %s, format: %s, size: %dx%d", payload.S3Key, format, img.Bounds().Dx(), img.Bounds().Dy())

	// 2. Check dimensions
	maxWidth := uint(p.cfg.ImageMaxDimension)
	maxHeight := uint(p.cfg.ImageMaxDimension)
	needsResize := uint(img.Bounds().Dx()) > maxWidth || uint(img.Bounds().Dy()) > maxHeight

	var processedImageData []byte
	contentType := aws.ToString(getObjectOutput.ContentType)

	// 3. Resize if needed
	if needsResize {
		resizedImg := resize.Thumbnail(maxWidth, maxHeight, img, resize.Lanczos3)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resizedImg, &jpeg.Options{Quality: 85}); err != nil {
			return fmt.Errorf("failed to re-encode resized image: %w", err)
		}
		processedImageData = buf.Bytes()
		contentType = "image/jpeg"
		log.Printf("Resized image %s to %dx%d", payload.S3Key, resizedImg.Bounds().Dx(), resizedImg.Bounds().Dy())

		if int64(len(processedImageData)) > maxSizeBytes {
			log.Printf("Resized image %s still exceeds max size (%d > %d bytes). Skipping.", payload.S3Key, len(processedImageData), maxSizeBytes)
			return fmt.Errorf("resized image still exceeds max size: %w", asynq.SkipRetry)
		}
	} else {
		processedImageData = imgData
	}

	// 4. Upload processed image (overwrite original)
	_, err = p.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.AwsS3Bucket),
		Key:         aws.String(payload.S3Key),
		Body:        bytes.NewReader(processedImageData),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload processed image: %w", err)
	}

	// 5. Append to the listing's gallery
	imageURL := p.storageService.PublicURL(payload.S3Key)
	if err := p.propertyService.AddGalleryImage(ctx, payload.PropertyID, imageURL); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			log.Printf("Property %d no longer exists. Dropping processed image %s.", payload.PropertyID, payload.S3Key)
			return fmt.Errorf("property not found: %w", asynq.SkipRetry)
		}
		return fmt.Errorf("failed to update property with processed image: %w", err)
	}

	log.Printf("Image task processed successfully: Key=%s, PropertyID=%d", payload.S3Key, payload.PropertyID)
	return nil
}

// HandleSubscriptionSyncTask refreshes one agent's cached subscription state
// from the billing provider.
func (p *TaskProcessor) HandleSubscriptionSyncTask(ctx context.Context, t *asynq.Task) error {
	var payload services.SubscriptionSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal subscription sync payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.AgentID == "" {
		return fmt.Errorf("missing agent id in payload: %w", asynq.SkipRetry)
	}

	if err := p.billingService.SyncSubscription(ctx, payload.AgentID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			log.Printf("Agent %s not found during subscription sync. Dropping task.", payload.AgentID)
			return nil
		}
		return err
	}

	log.Printf("Subscription sync completed for agent %s", payload.AgentID)
	return nil
}
