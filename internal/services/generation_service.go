package services

import (
	"context"
	"fmt"
	"strings"

	"catalogai/internal/genapi"
	"catalogai/internal/repo"
	"catalogai/internal/transform"
	"catalogai/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// singleGenerationClient is the slice of the API client used for on-demand
// generation of one product.
type singleGenerationClient interface {
	GenerateProduct(ctx context.Context, req genapi.GenerateRequest) (*genapi.GeneratedProduct, error)
}

// GenerationService generates content for one product at a time and stores
// the result as a standalone record.
type GenerationService struct {
	client  singleGenerationClient
	records *repo.GeneratedRecordRepository
}

// NewGenerationService creates a new generation service
func NewGenerationService(db *gorm.DB, client singleGenerationClient) *GenerationService {
	return &GenerationService{
		client:  client,
		records: repo.NewGeneratedRecordRepository(db),
	}
}

// Generate requests content for a single product and upserts it as a
// standalone record keyed by product name. Regenerating the same product
// replaces the previous result.
func (s *GenerationService) Generate(ctx context.Context, req genapi.GenerateRequest) (*models.GeneratedProductRecord, error) {
	if strings.TrimSpace(req.ProductName) == "" {
		return nil, fmt.Errorf("product_name is required")
	}

	product, err := s.client.GenerateProduct(ctx, req)
	if err != nil {
		return nil, err
	}

	records, err := transform.ToRecords([]genapi.GeneratedProduct{*product}, nil)
	if err != nil {
		return nil, err
	}
	record := &records[0]
	if record.Name == "" {
		record.Name = req.ProductName
	}

	if err := s.records.UpsertStandaloneRecord(record); err != nil {
		return nil, fmt.Errorf("failed to store generated record: %w", err)
	}

	log.Info().Str("record_id", record.ID.String()).Str("name", record.Name).Msg("Product content generated")
	return record, nil
}

// GetRecord returns one generated record
func (s *GenerationService) GetRecord(ctx context.Context, id uuid.UUID) (*models.GeneratedProductRecord, error) {
	return s.records.GetByID(id)
}

// ListRecords returns generated records with pagination and an optional job
// filter
func (s *GenerationService) ListRecords(ctx context.Context, page, limit int, jobID *uuid.UUID) ([]models.GeneratedProductRecord, int64, error) {
	return s.records.List(page, limit, jobID)
}
