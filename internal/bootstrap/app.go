package bootstrap

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"compliance-backend/internal/audit"
	"compliance-backend/internal/classify"
	"compliance-backend/internal/contentstore"
	"compliance-backend/internal/credentials"
	"compliance-backend/internal/documents"
	"compliance-backend/internal/fulfillment"
	"compliance-backend/internal/messaging"
	"compliance-backend/internal/platform"
	"compliance-backend/internal/projects"
	"compliance-backend/internal/sessions"
	"compliance-backend/internal/shared/config"
	"compliance-backend/internal/shared/server"
	"compliance-backend/internal/shared/storage/db"
	"compliance-backend/internal/shared/storage/object"
	localstore "compliance-backend/internal/shared/storage/object/local"
	s3store "compliance-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Blobs  *contentstore.Store

	AuditLogger *audit.Logger

	DocumentsService   *documents.Service
	QueueService       *fulfillment.Service
	CredentialsService *credentials.Service
	SessionsService    *sessions.Service
	MessagingService   *messaging.Service
	ProjectsRepo       projects.Repo

	DocumentsHandler   *documents.Handler
	QueueHandler       *fulfillment.Handler
	CredentialsHandler *credentials.Handler
	SessionsHandler    *sessions.Handler
}

// Build prepares shared dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Blobs:  contentstore.New(store),
	}

	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:             app.Config,
		DocumentsHandler:   app.DocumentsHandler,
		QueueHandler:       app.QueueHandler,
		CredentialsHandler: app.CredentialsHandler,
		SessionsHandler:    app.SessionsHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildServices(ctx context.Context, app *App) error {
	cfg := app.Config

	var (
		auditRepo    audit.Repo
		docRepo      documents.Repo
		queueRepo    fulfillment.Repo
		credRepo     credentials.Repo
		sessionRepo  sessions.Repo
		messageRepo  messaging.Repo
		projectsRepo projects.Repo
	)
	if app.DB != nil {
		auditRepo = &audit.PGRepo{DB: app.DB}
		docRepo = &documents.PGRepo{DB: app.DB}
		queueRepo = &fulfillment.PGRepo{DB: app.DB}
		credRepo = &credentials.PGRepo{DB: app.DB}
		sessionRepo = &sessions.PGRepo{DB: app.DB}
		messageRepo = &messaging.PGRepo{DB: app.DB}
		projectsRepo = &projects.PGRepo{DB: app.DB}
	} else {
		auditRepo = audit.NewMemoryRepo()
		docRepo = documents.NewMemoryRepo()
		queueRepo = fulfillment.NewMemoryRepo()
		credRepo = credentials.NewMemoryRepo()
		sessionRepo = sessions.NewMemoryRepo()
		messageRepo = messaging.NewMemoryRepo()
		projectsRepo = projects.NewMemoryRepo()
	}

	auditLogger := audit.NewLogger(auditRepo)

	var dispatcher messaging.Dispatcher
	if strings.TrimSpace(cfg.NotifyQueueURL) != "" {
		sqsDispatcher, err := messaging.NewSQSDispatcher(ctx, cfg.AWSRegion, cfg.NotifyQueueURL)
		if err != nil {
			return fmt.Errorf("build sqs dispatcher: %w", err)
		}
		dispatcher = sqsDispatcher
	}
	messagingSvc := &messaging.Service{
		Repo:       messageRepo,
		Dispatcher: dispatcher,
		Audit:      auditLogger,
	}

	var classifier classify.Client = classify.FallbackClient{}
	if strings.TrimSpace(cfg.ClassifierURL) != "" {
		httpClassifier, err := classify.NewHTTPClient(ctx, cfg.ClassifierURL, cfg.ClassifierID, cfg.ClassifierKey, cfg.ClassifierToken)
		if err != nil {
			return fmt.Errorf("build classifier client: %w", err)
		}
		classifier = httpClassifier
	}

	cipher, err := buildCipher(cfg)
	if err != nil {
		return fmt.Errorf("build vault cipher: %w", err)
	}
	credentialsSvc := &credentials.Service{
		Repo:   credRepo,
		Cipher: cipher,
		Audit:  auditLogger,
	}

	var portal platform.Client = platform.NewFakeClient()
	if len(cfg.PortalBaseURLs) > 0 {
		baseURLs := make(map[platform.Type]string, len(cfg.PortalBaseURLs))
		for raw, url := range cfg.PortalBaseURLs {
			platformType, err := platform.Parse(raw)
			if err != nil {
				return fmt.Errorf("portal base urls: %w", err)
			}
			baseURLs[platformType] = url
		}
		portal = platform.NewHTTPClient(baseURLs)
	}

	documentsSvc := &documents.Service{
		Repo:       docRepo,
		Blobs:      app.Blobs,
		Classifier: classifier,
		Audit:      auditLogger,
		Projects:   projectsRepo,
		Messages:   messagingSvc,
	}

	queueSvc := &fulfillment.Service{
		Repo:        queueRepo,
		Docs:        docRepo,
		Blobs:       app.Blobs,
		Credentials: credentialsSvc,
		Portal:      portal,
		Audit:       auditLogger,
	}
	documentsSvc.Queue = queueSvc

	sessionsSvc := &sessions.Service{
		Repo:   sessionRepo,
		Audit:  auditLogger,
		Counts: auditRepo,
	}

	app.AuditLogger = auditLogger
	app.DocumentsService = documentsSvc
	app.QueueService = queueSvc
	app.CredentialsService = credentialsSvc
	app.SessionsService = sessionsSvc
	app.MessagingService = messagingSvc
	app.ProjectsRepo = projectsRepo

	app.DocumentsHandler = documents.NewHandler(documentsSvc)
	app.QueueHandler = fulfillment.NewHandler(queueSvc)
	app.CredentialsHandler = credentials.NewHandler(credentialsSvc)
	app.SessionsHandler = sessions.NewHandler(sessionsSvc)
	return nil
}

// buildCipher loads VAULT_KEY. Dev setups without a key get an ephemeral
// one: credentials survive only as long as the process.
func buildCipher(cfg config.Config) (*credentials.Cipher, error) {
	if strings.TrimSpace(cfg.VaultKey) != "" {
		return credentials.NewCipherFromHex(cfg.VaultKey)
	}
	if !isDevLike(cfg.Env) {
		return nil, fmt.Errorf("VAULT_KEY is required")
	}
	log.Printf("bootstrap: VAULT_KEY empty; using an ephemeral vault key")
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return credentials.NewCipher(key)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
