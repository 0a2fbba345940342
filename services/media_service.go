package services

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	fig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/bookswapng/bookswap/config"
	apiError "github.com/bookswapng/bookswap/errors"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

// MaxAttachmentSize bounds a single image attachment.
const MaxAttachmentSize = 5 * 1024 * 1024 // 5 MB

const thumbnailWidth = 320

// MediaService validates and stores message attachments, returning blob URLs
// that messages carry by reference only.
type MediaService interface {
	UploadAttachment(fileHeader *multipart.FileHeader, userID string) (string, string, error)
}

type mediaService struct {
	Config *config.Config
}

func NewMediaService(conf *config.Config) MediaService {
	return &mediaService{Config: conf}
}

func CheckAttachmentSize(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxAttachmentSize {
		return &apiError.AttachmentTooLargeError{Size: fileHeader.Size, Limit: MaxAttachmentSize}
	}
	return nil
}

func isSupportedImage(filename string) bool {
	supported := map[string]bool{
		".png":  true,
		".jpeg": true,
		".jpg":  true,
		".gif":  true,
	}
	return supported[filepath.Ext(filename)]
}

func generateUniqueFilename(extension string) string {
	return fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), uuid.New(), extension)
}

// UploadAttachment pushes the original and a thumbnail to S3 and returns
// both URLs. Oversized or non-image files are rejected before any upload.
func (m *mediaService) UploadAttachment(fileHeader *multipart.FileHeader, userID string) (string, string, error) {
	if err := CheckAttachmentSize(fileHeader); err != nil {
		return "", "", err
	}
	if !isSupportedImage(fileHeader.Filename) {
		return "", "", apiError.NewValidationError("unsupported attachment type")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open attachment: %w", err)
	}
	defer file.Close()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return "", "", apiError.NewValidationError("attachment is not a readable image")
	}

	var original bytes.Buffer
	if err := jpeg.Encode(&original, img, &jpeg.Options{Quality: 90}); err != nil {
		return "", "", fmt.Errorf("failed to encode attachment: %w", err)
	}

	thumb := resize.Resize(thumbnailWidth, 0, img, resize.Lanczos3)
	var thumbnail bytes.Buffer
	if err := jpeg.Encode(&thumbnail, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return "", "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	bucket := m.Config.AwsBucket
	name := generateUniqueFilename(".jpg")
	fullKey := fmt.Sprintf("attachments/%s/%s", userID, name)
	thumbKey := fmt.Sprintf("attachments/%s/thumb_%s", userID, name)

	fullURL, err := m.putObject(bucket, fullKey, original.Bytes())
	if err != nil {
		return "", "", err
	}
	thumbURL, err := m.putObject(bucket, thumbKey, thumbnail.Bytes())
	if err != nil {
		return "", "", err
	}
	return fullURL, thumbURL, nil
}

func (m *mediaService) putObject(bucket, key string, body []byte) (string, error) {
	region := m.Config.AwsRegion
	cfg, err := fig.LoadDefaultConfig(context.TODO(),
		fig.WithRegion(region),
		fig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			os.Getenv("AWS_ACCESS_KEY_ID"),
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			"",
		)),
	)
	if err != nil {
		return "", fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	_, err = client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		log.Printf("s3 upload failed for %s: %v", key, err)
		return "", fmt.Errorf("failed to upload attachment: %w", err)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key), nil
}
