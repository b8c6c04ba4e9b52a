package item

import (
	"context"
	"fmt"
	"tradepost/pkg/events"
	"tradepost/pkg/httperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxImageSize bounds an uploaded item image.
const MaxImageSize = 5 * 1024 * 1024

var allowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/webp": ".webp",
}

// ObjectStore is where item images end up. pkg/aws.S3 satisfies it.
type ObjectStore interface {
	Upload(key string, data []byte) error
	Delete(key string) error
	URL(key string) string
}

type UploadItemImageHandler struct {
	repository     Repository
	store          ObjectStore
	eventPublisher events.Publisher
}

func NewUploadItemImageHandler(repository Repository, store ObjectStore, eventPublisher events.Publisher) *UploadItemImageHandler {
	return &UploadItemImageHandler{
		repository:     repository,
		store:          store,
		eventPublisher: eventPublisher,
	}
}

// UploadItemImageRequest carries the decoded multipart file; the transport
// reads the form, the handler never sees it.
type UploadItemImageRequest struct {
	ItemID      string
	Data        []byte
	ContentType string
	FileName    string
}

type UploadItemImageResponse struct {
	ItemID   string `json:"itemId"`
	ImageURL string `json:"imageUrl"`
}

func (h *UploadItemImageHandler) Handle(ctx context.Context, req *UploadItemImageRequest) (*UploadItemImageResponse, error) {
	if h.store == nil {
		return nil, httperror.ServiceUnavailable("item.image.storage_disabled", "Object storage is not configured", nil)
	}
	if len(req.Data) == 0 {
		return nil, httperror.BadRequest("item.image.missing_file", "Image file is required (use 'image' field)", nil)
	}
	if len(req.Data) > MaxImageSize {
		return nil, httperror.BadRequest("item.image.file_too_large", "File size must not exceed 5MB", map[string]any{
			"size_mb": float64(len(req.Data)) / 1024 / 1024,
			"max_mb":  5,
		})
	}

	extension, ok := allowedImageTypes[req.ContentType]
	if !ok {
		return nil, httperror.BadRequest("item.image.invalid_content_type", "Only PNG, JPEG and WEBP images are allowed", map[string]any{
			"received": req.ContentType,
		})
	}

	if _, err := h.repository.GetItem(ctx, req.ItemID); err != nil {
		return nil, toHTTPError("item.image", err)
	}

	key := fmt.Sprintf("items/%s/%s%s", req.ItemID, uuid.NewString(), extension)
	if err := h.store.Upload(key, req.Data); err != nil {
		zap.L().Error("Failed to upload item image", zap.String("itemId", req.ItemID), zap.Error(err))
		return nil, httperror.ServiceUnavailable("item.image.upload_failed", "Failed to upload image to storage", nil)
	}

	imageURL := h.store.URL(key)
	item, err := h.repository.SetItemImage(ctx, req.ItemID, imageURL)
	if err != nil {
		if delErr := h.store.Delete(key); delErr != nil {
			zap.L().Warn("Failed to remove orphaned image", zap.String("key", key), zap.Error(delErr))
		}
		return nil, toHTTPError("item.image", err)
	}

	zap.L().Info("Item image uploaded",
		zap.String("itemId", req.ItemID),
		zap.String("fileName", req.FileName),
		zap.String("key", key),
	)
	events.Emit(ctx, h.eventPublisher, events.ItemImageUploadedEvent, itemPayload(item), eventHeaders(ctx))

	return &UploadItemImageResponse{
		ItemID:   item.ID,
		ImageURL: imageURL,
	}, nil
}
