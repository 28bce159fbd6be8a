package services

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/techeasyserve/techeasyserve-api/utils"
)

// technicianDocumentPrefix is the bucket folder for technician KYC documents
const technicianDocumentPrefix = "documents/technicians"

// DocumentService stores technician KYC documents
type DocumentService interface {
	// UploadDocument validates and stores a document, returning its storage key
	UploadDocument(ctx context.Context, fileHeader *multipart.FileHeader) (string, error)
	// GetDocumentURL returns a short-lived link to a stored document
	GetDocumentURL(ctx context.Context, key string) (string, error)
	DeleteDocument(ctx context.Context, key string) error
}

// S3DocumentService implements DocumentService on top of S3
type S3DocumentService struct {
	s3Service S3Interface
}

var documentServiceInstance DocumentService

// InitDocumentService initializes the document service with an S3 backend
func InitDocumentService(s3Service S3Interface) DocumentService {
	documentServiceInstance = &S3DocumentService{s3Service: s3Service}
	return documentServiceInstance
}

// GetDocumentService returns the initialized document service instance
func GetDocumentService() DocumentService {
	return documentServiceInstance
}

// SetDocumentService sets the document service instance (primarily for testing)
func SetDocumentService(service DocumentService) {
	documentServiceInstance = service
}

func (s *S3DocumentService) UploadDocument(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateDocumentFile(fileHeader); err != nil {
		return "", err
	}

	key, err := s.s3Service.UploadFile(ctx, fileHeader, technicianDocumentPrefix)
	if err != nil {
		return "", fmt.Errorf("failed to upload document: %w", err)
	}
	return key, nil
}

func (s *S3DocumentService) GetDocumentURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	url, err := s.s3Service.GetPresignedURL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to generate document URL: %w", err)
	}
	return url, nil
}

func (s *S3DocumentService) DeleteDocument(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	if err := s.s3Service.DeleteFile(ctx, key); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
