package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"kforum/internal/config"
	"kforum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tinyPNG renders a small opaque PNG for upload tests.
func tinyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// memoryAttachmentRepo keeps rows in memory for the ingestion tests.
func memoryAttachmentRepo() *attachmentRepoStub {
	var rows []*models.Attachment
	var seq uint

	repo := noopAttachmentRepo()
	repo.createFn = func(_ context.Context, a *models.Attachment) error {
		seq++
		a.ID = seq
		rows = append(rows, a)
		return nil
	}
	repo.getBySHA256Fn = func(_ context.Context, sum string) (*models.Attachment, error) {
		for _, r := range rows {
			if r.SHA256 == sum {
				return r, nil
			}
		}
		return nil, nil
	}
	return repo
}

func newAttachmentService(t *testing.T) (*AttachmentService, *attachmentRepoStub) {
	t.Helper()
	repo := memoryAttachmentRepo()
	cfg := &config.Config{AttachmentDir: t.TempDir(), AttachmentMaxUploadMB: 1}
	return NewAttachmentService(repo, cfg), repo
}

func TestAttachmentUpload_IngestsAndDeduplicates(t *testing.T) {
	svc, _ := newAttachmentService(t)
	content := tinyPNG(t, 640, 480)

	first, err := svc.Upload(context.Background(), UploadAttachmentInput{
		UserID:      42,
		Filename:    "notes.png",
		ContentType: "image/png",
		Content:     content,
	})
	require.NoError(t, err)
	require.NotZero(t, first.ID)
	assert.Len(t, first.SHA256, 64)
	assert.Equal(t, 640, first.Width)
	assert.Equal(t, 480, first.Height)
	assert.Contains(t, first.URL, first.SHA256)

	path, err := svc.ResolveForServing(first.SHA256)
	require.NoError(t, err)
	_, statErr := os.Stat(path)
	require.NoError(t, statErr)

	// Same content, same user, still unclaimed: deduplicates to one row.
	second, err := svc.Upload(context.Background(), UploadAttachmentInput{
		UserID:      42,
		Filename:    "notes-copy.png",
		ContentType: "image/png",
		Content:     content,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestAttachmentUpload_DownscalesLargeImages(t *testing.T) {
	svc, _ := newAttachmentService(t)

	got, err := svc.Upload(context.Background(), UploadAttachmentInput{
		UserID:   1,
		Filename: "big.png",
		Content:  tinyPNG(t, 4096, 1024),
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, got.Width, attachmentMaxDimension)
	assert.LessOrEqual(t, got.Height, attachmentMaxDimension)
}

func TestAttachmentUpload_Rejections(t *testing.T) {
	svc, _ := newAttachmentService(t)
	ctx := context.Background()

	t.Run("empty upload", func(t *testing.T) {
		_, err := svc.Upload(ctx, UploadAttachmentInput{UserID: 1})
		assertValidationError(t, err)
	})

	t.Run("not an image", func(t *testing.T) {
		_, err := svc.Upload(ctx, UploadAttachmentInput{
			UserID:  1,
			Content: []byte("#!/bin/sh\nrm -rf /"),
		})
		assertValidationError(t, err)
	})

	t.Run("content type mismatch", func(t *testing.T) {
		_, err := svc.Upload(ctx, UploadAttachmentInput{
			UserID:      1,
			ContentType: "image/gif",
			Content:     tinyPNG(t, 10, 10),
		})
		assertValidationError(t, err)
	})

	t.Run("oversized", func(t *testing.T) {
		_, err := svc.Upload(ctx, UploadAttachmentInput{
			UserID:  1,
			Content: make([]byte, 2<<20),
		})
		assertValidationError(t, err)
	})
}

func TestResolveForServing_RejectsTraversal(t *testing.T) {
	svc, _ := newAttachmentService(t)

	_, err := svc.ResolveForServing("../../etc/passwd")
	assertValidationError(t, err)

	_, err = svc.ResolveForServing("AAAA")
	assertValidationError(t, err)
}
