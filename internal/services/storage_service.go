// internal/services/storage_service.go
package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"github.com/opencampus/admissions-backend/internal/config"
	"github.com/opencampus/admissions-backend/internal/models"
)

// Supporting documents: transcripts, certificates, identity scans.
var allowedDocumentTypes = []string{".pdf", ".png", ".jpg", ".jpeg"}

const maxDocumentSize = 10 << 20 // 10 MB

// StorageService stores uploaded application documents in S3. Without AWS
// credentials it degrades to returning local development URLs.
type StorageService struct {
	s3Client *s3.S3
	config   *config.Config
}

// DocumentReference is what the draft's documents section stores per upload.
type DocumentReference struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	UploadedAt  string `json:"uploaded_at"`
}

func NewStorageService(config *config.Config) (*StorageService, error) {
	if config.AWS.AccessKeyID == "" {
		// Return service without S3 for local development
		return &StorageService{config: config}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   config,
	}, nil
}

// UploadDocument validates and stores one supporting document, keyed under
// the owner so documents never collide across applicants.
func (s *StorageService) UploadDocument(ownerID uuid.UUID, file multipart.File, header *multipart.FileHeader) (*DocumentReference, error) {
	if header.Size > maxDocumentSize {
		return nil, fmt.Errorf("document size %d bytes exceeds maximum allowed size %d bytes", header.Size, maxDocumentSize)
	}

	fileExt := strings.ToLower(filepath.Ext(header.Filename))
	allowed := false
	for _, allowedType := range allowedDocumentTypes {
		if fileExt == allowedType {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("document type %s is not allowed", fileExt)
	}

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	key := fmt.Sprintf("documents/%s/%s%s", ownerID, uuid.New().String(), fileExt)
	contentType := header.Header.Get("Content-Type")

	var url string
	if s.s3Client != nil {
		params := &s3.PutObjectInput{
			Bucket:        aws.String(s.config.AWS.S3Bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(fileBytes),
			ContentType:   aws.String(contentType),
			ContentLength: aws.Int64(int64(len(fileBytes))),
		}

		if _, err := s.s3Client.PutObject(params); err != nil {
			return nil, fmt.Errorf("failed to upload to S3: %w", err)
		}

		url = s.getS3URL(key)
	} else {
		url = fmt.Sprintf("http://localhost:%s/uploads/%s", s.config.Server.Port, key)
	}

	return &DocumentReference{
		Key:         key,
		URL:         url,
		Filename:    header.Filename,
		Size:        int64(len(fileBytes)),
		ContentType: contentType,
		UploadedAt:  time.Now().Format(time.RFC3339),
	}, nil
}

// AsSectionEntry renders the reference as the JSONB blob stored on the draft.
func (d *DocumentReference) AsSectionEntry() models.JSONB {
	return models.JSONB{
		"key":          d.Key,
		"url":          d.URL,
		"filename":     d.Filename,
		"size":         d.Size,
		"content_type": d.ContentType,
		"uploaded_at":  d.UploadedAt,
	}
}

func (s *StorageService) getS3URL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(s.config.AWS.CloudFrontURL, "/"), key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}

// DeleteDocument removes a stored document, e.g. when an applicant replaces
// an upload before submitting.
func (s *StorageService) DeleteDocument(key string) error {
	if s.s3Client == nil {
		return nil
	}

	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	return nil
}
