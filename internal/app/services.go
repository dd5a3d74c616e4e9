package app

import (
	"fmt"

	"catalogai/internal/auth"
	"catalogai/internal/config"
	"catalogai/internal/genapi"
	"catalogai/internal/repo"
	"catalogai/internal/services"

	"gorm.io/gorm"
)

// Services holds all application services
type Services struct {
	DB                *gorm.DB
	Config            *config.Config
	AuthService       *auth.Service
	UserRepo          *repo.UserRepository
	ProductRepo       *repo.ProductRepository
	MappingRepo       *repo.MappingProfileRepository
	GenClient         *genapi.Client
	ArtifactStore     *services.ArtifactStore
	JobService        *services.JobService
	GenerationService *services.GenerationService
	ProductService    *services.ProductService
}

// NewServices creates a new services container
func NewServices(db *gorm.DB, cfg *config.Config) (*Services, error) {
	userRepo := repo.NewUserRepository(db)
	productRepo := repo.NewProductRepository(db)
	mappingRepo := repo.NewMappingProfileRepository(db)

	authService := auth.NewService(userRepo, cfg.JWTSecret, cfg.JWTAccessDuration)
	genClient := genapi.NewClient(cfg.GenAPI)

	artifactStore, err := services.NewArtifactStore(cfg.WorkDir, cfg.S3)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact store: %w", err)
	}

	return &Services{
		DB:                db,
		Config:            cfg,
		AuthService:       authService,
		UserRepo:          userRepo,
		ProductRepo:       productRepo,
		MappingRepo:       mappingRepo,
		GenClient:         genClient,
		ArtifactStore:     artifactStore,
		JobService:        services.NewJobService(db, genClient, artifactStore),
		GenerationService: services.NewGenerationService(db, genClient),
		ProductService:    services.NewProductService(db, productRepo),
	}, nil
}
