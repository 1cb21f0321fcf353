package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"kforum/internal/config"
	"kforum/internal/models"
	"kforum/internal/repository"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	DefaultAttachmentDir      = "/tmp/kforum/uploads"
	DefaultAttachmentMaxMB    = 10
	attachmentMaxDimension    = 2048
	attachmentWebPQuality     = 75
	attachmentJPEGQualityUsed = 82
)

// UploadAttachmentInput carries one uploaded image.
type UploadAttachmentInput struct {
	UserID      uint
	Filename    string
	ContentType string
	Content     []byte
}

// AttachmentService ingests uploaded images: validates, downscales, re-encodes
// to WebP and stores them content-addressed so re-uploads deduplicate.
type AttachmentService struct {
	repo          repository.AttachmentRepository
	uploadDir     string
	maxUploadSize int64
}

func NewAttachmentService(repo repository.AttachmentRepository, cfg *config.Config) *AttachmentService {
	uploadDir := DefaultAttachmentDir
	maxUploadMB := DefaultAttachmentMaxMB

	if cfg != nil {
		if cfg.AttachmentDir != "" {
			uploadDir = cfg.AttachmentDir
		}
		if cfg.AttachmentMaxUploadMB > 0 {
			maxUploadMB = cfg.AttachmentMaxUploadMB
		}
	}

	return &AttachmentService{
		repo:          repo,
		uploadDir:     uploadDir,
		maxUploadSize: int64(maxUploadMB) * 1024 * 1024,
	}
}

// Upload validates and ingests one image, returning the stored attachment.
// The attachment is unbound until the post creation workflow claims it.
func (s *AttachmentService) Upload(ctx context.Context, in UploadAttachmentInput) (*models.Attachment, error) {
	if in.UserID == 0 {
		return nil, models.NewValidationError("Invalid user")
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSize {
		return nil, models.NewValidationError(
			fmt.Sprintf("File too large (max %dMB)", s.maxUploadSize/(1024*1024)))
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return nil, models.NewValidationError("Invalid image type")
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if !isSupportedDecodedFormat(format) {
		return nil, models.NewValidationError("Unsupported image format")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") &&
		!isMatchingContentType(provided, decodedFormatToMime(format)) {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	scaled := resizeToFit(decoded, attachmentMaxDimension, attachmentMaxDimension)
	encoded, err := encodeWebP(scaled, attachmentWebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	sum := sha256.Sum256(encoded)
	hash := hex.EncodeToString(sum[:])

	// Identical content from any user resolves to one file on disk, but each
	// upload gets its own row so ownership and post binding stay per-user.
	if existing, err := s.repo.GetBySHA256(ctx, hash); err == nil && existing != nil && existing.UserID == in.UserID && existing.PostID == nil {
		return existing, nil
	} else if err != nil {
		return nil, models.NewInternalError(err)
	}

	rel := filepath.ToSlash(filepath.Join(hash[:2], hash+".webp"))
	abs := filepath.Join(s.uploadDir, rel)
	if err := writeBytesToFile(abs, encoded); err != nil {
		return nil, models.NewInternalError(err)
	}

	bounds := scaled.Bounds()
	attachment := &models.Attachment{
		UserID:    in.UserID,
		URL:       s.BuildURL(hash),
		Filename:  filepath.Base(in.Filename),
		SHA256:    hash,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		SizeBytes: int64(len(encoded)),
	}
	if err := s.repo.Create(ctx, attachment); err != nil {
		_ = os.Remove(abs)
		return nil, models.NewInternalError(err)
	}
	return attachment, nil
}

// BuildURL returns the public path for an ingested image.
func (s *AttachmentService) BuildURL(hash string) string {
	return fmt.Sprintf("/media/a/%s.webp", hash)
}

// ResolveForServing maps a hash to the file path on disk, rejecting anything
// that is not a plain lowercase hex hash to prevent path traversal.
func (s *AttachmentService) ResolveForServing(hash string) (string, error) {
	if !isValidContentHash(hash) {
		return "", models.NewValidationError("Invalid attachment hash")
	}
	full := filepath.Join(s.uploadDir, hash[:2], hash+".webp")
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return "", models.NewNotFoundError("Attachment", hash)
		}
		return "", models.NewInternalError(err)
	}
	return full, nil
}

// isValidContentHash checks that the hash is strictly lowercase hex
// (SHA-256 style).
func isValidContentHash(hash string) bool {
	if len(hash) != 64 {
		return false
	}
	for _, c := range hash {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}

func writeBytesToFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
