package photos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/boxbinhq/boxbin/internal/pkg/objectstore"
)

// Thumbnail widths in pixels. Height follows the aspect ratio.
const (
	SmallThumbnailSize  = 200
	MediumThumbnailSize = 500
)

// MaxPhotoBytes caps an uploaded item photo.
const MaxPhotoBytes = 10 << 20

var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// ErrUnsupportedFormat is returned for uploads that are not JPEG, PNG or GIF.
var ErrUnsupportedFormat = errors.New("unsupported photo format")

// StoredPhoto describes an item photo after processing and upload.
type StoredPhoto struct {
	UUID         string
	ObjectKey    string
	ThumbnailKey string
	ContentType  string
	Width        int
	Height       int
	Size         int64
}

// Store validates, thumbnails and uploads one item photo.
type Store struct {
	objects *objectstore.Client
	config  *objectstore.Config
}

// NewStore creates a photo store on top of object storage.
func NewStore(objects *objectstore.Client, config *objectstore.Config) *Store {
	return &Store{objects: objects, config: config}
}

// Save processes an uploaded photo: decode, derive a medium thumbnail, and
// upload both under a fresh UUID key.
func (s *Store) Save(ctx context.Context, filename string, data []byte) (*StoredPhoto, error) {
	ext := strings.ToLower(extOf(filename))
	contentType, ok := allowedExtensions[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if len(data) == 0 || len(data) > MaxPhotoBytes {
		return nil, fmt.Errorf("photo size %d bytes is out of range", len(data))
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode photo: %w", err)
	}

	photoUUID := uuid.New().String()
	now := time.Now()
	objectKey := s.config.PhotoKey(photoUUID, ext, now)
	thumbKey := s.config.ThumbnailKey(photoUUID, now)

	if err := s.objects.Put(ctx, objectKey, contentType, data); err != nil {
		return nil, err
	}

	thumb, err := encodeThumbnail(img, MediumThumbnailSize)
	if err != nil {
		// The original is stored; a missing thumbnail only degrades the UI.
		log.Warnf("[Photos] thumbnail for %s failed: %v", photoUUID, err)
	} else if err := s.objects.Put(ctx, thumbKey, "image/jpeg", thumb); err != nil {
		log.Warnf("[Photos] thumbnail upload for %s failed: %v", photoUUID, err)
	}

	bounds := img.Bounds()
	return &StoredPhoto{
		UUID:         photoUUID,
		ObjectKey:    objectKey,
		ThumbnailKey: thumbKey,
		ContentType:  contentType,
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
		Size:         int64(len(data)),
	}, nil
}

// Delete removes a photo and its thumbnail.
func (s *Store) Delete(ctx context.Context, objectKey, thumbnailKey string) {
	if err := s.objects.Delete(ctx, objectKey); err != nil {
		log.Warnf("[Photos] delete %s failed: %v", objectKey, err)
	}
	if thumbnailKey != "" {
		if err := s.objects.Delete(ctx, thumbnailKey); err != nil {
			log.Warnf("[Photos] delete thumbnail %s failed: %v", thumbnailKey, err)
		}
	}
}

func encodeThumbnail(img image.Image, width int) ([]byte, error) {
	thumb := imaging.Resize(img, width, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func extOf(filename string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 {
		return filename[i:]
	}
	return ""
}
