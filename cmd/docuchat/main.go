package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/docuchat/docuchat/internal/ai"
	"github.com/docuchat/docuchat/internal/blobstore"
	"github.com/docuchat/docuchat/internal/chat"
	"github.com/docuchat/docuchat/internal/config"
	"github.com/docuchat/docuchat/internal/db"
	"github.com/docuchat/docuchat/internal/describe"
	"github.com/docuchat/docuchat/internal/embed"
	"github.com/docuchat/docuchat/internal/extract"
	"github.com/docuchat/docuchat/internal/ingest"
	"github.com/docuchat/docuchat/internal/job"
	"github.com/docuchat/docuchat/internal/model"
	appErr "github.com/docuchat/docuchat/internal/pkg/errors"
	"github.com/docuchat/docuchat/internal/repo"
	"github.com/docuchat/docuchat/internal/retrieval"
	"github.com/docuchat/docuchat/internal/schedule"
)

// app is the fully wired core. The HTTP surface lives outside this binary;
// subcommands below drive the same components directly.
type app struct {
	cfg          *config.Config
	docRepo      *repo.DocumentRepo
	staging      blobstore.Store
	pipeline     *ingest.Pipeline
	orchestrator *chat.Orchestrator
	runner       *ingest.Runner
}

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "docuchat",
		Short: "docuchat ingestion and chat core",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	rootCmd.AddCommand(newRunCmd(&configPath))
	rootCmd.AddCommand(newProcessCmd(&configPath))
	rootCmd.AddCommand(newChatCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("command failed",
			zap.Int("code", appErr.Code(err)), zap.Error(err))
	}
}

// newRunCmd starts the long-lived service: ingestion workers plus the
// recovery and cleanup cron jobs.
func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "run the docuchat service",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			defer a.runner.Close()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			scheduler := schedule.NewCronScheduler()
			stuckAge := time.Duration(a.cfg.Ingest.StuckAgeMinutes) * time.Minute
			if err := scheduler.AddJob(job.NewStuckDocumentJob(a.docRepo, stuckAge), a.cfg.Ingest.RecoveryCronSpec); err != nil {
				return err
			}
			signedTTL := time.Duration(a.cfg.Ingest.SignedURLTTL) * time.Minute
			if err := scheduler.AddJob(job.NewStagingCleanupJob(a.staging, signedTTL), a.cfg.Ingest.CleanupCronSpec); err != nil {
				return err
			}
			scheduler.Start(ctx)
			defer scheduler.Stop()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			logutil.GetLogger(ctx).Info("shutting down")
			return nil
		},
	}
}

// newProcessCmd ingests one document and waits for the background task to
// drain before exiting.
func newProcessCmd(configPath *string) *cobra.Command {
	var documentID string
	var caller callerFlags
	cmd := &cobra.Command{
		Use:   "process",
		Short: "process one document into searchable embeddings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if documentID == "" {
				return fmt.Errorf("--document-id is required")
			}
			a, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			ctx := context.Background()
			if err := a.pipeline.Process(ctx, caller.toModel(), documentID); err != nil {
				return err
			}
			a.runner.Close()
			doc, err := a.docRepo.GetByID(ctx, documentID)
			if err != nil {
				return err
			}
			logutil.GetLogger(ctx).Info("processing finished",
				zap.String("document_id", documentID),
				zap.String("status", doc.Status),
				zap.Int("page_count", doc.PageCount))
			return nil
		},
	}
	cmd.Flags().StringVar(&documentID, "document-id", "", "document to process")
	caller.register(cmd)
	return cmd
}

// newChatCmd runs one streaming conversation turn, printing deltas to stdout.
func newChatCmd(configPath *string) *cobra.Command {
	var chatID, message, imagePath string
	var caller callerFlags
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "send one chat message and stream the reply",
		RunE: func(cmd *cobra.Command, args []string) error {
			if chatID == "" || message == "" {
				return fmt.Errorf("--chat-id and --message are required")
			}
			a, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			defer a.runner.Close()
			var image *chat.ImageAttachment
			if imagePath != "" {
				data, err := os.ReadFile(imagePath)
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				image = &chat.ImageAttachment{MIMEType: "image/jpeg", Data: data}
			}
			ctx := context.Background()
			reply, err := a.orchestrator.CreateMessageStream(ctx, caller.toModel(), chatID, message, image, func(delta string) {
				fmt.Print(delta)
			})
			if err != nil {
				return err
			}
			fmt.Println()
			logutil.GetLogger(ctx).Info("reply persisted",
				zap.String("message_id", reply.ID), zap.Int("sources", len(reply.Sources)))
			return nil
		},
	}
	cmd.Flags().StringVar(&chatID, "chat-id", "", "chat to post into")
	cmd.Flags().StringVar(&message, "message", "", "user message content")
	cmd.Flags().StringVar(&imagePath, "image", "", "optional image file to attach")
	caller.register(cmd)
	return cmd
}

// callerFlags stands in for the auth collaborator when driving the core from
// the command line.
type callerFlags struct {
	userID     string
	orgID      string
	role       string
	tokenLimit int
}

func (c *callerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.userID, "user-id", "", "acting user id")
	cmd.Flags().StringVar(&c.orgID, "org-id", "", "acting user organization id")
	cmd.Flags().StringVar(&c.role, "role", model.RoleManager, "acting user role")
	cmd.Flags().IntVar(&c.tokenLimit, "daily-token-limit", 0, "per-day token limit, 0 for default")
}

func (c *callerFlags) toModel() model.Caller {
	return model.Caller{
		ID:              c.userID,
		OrganizationID:  c.orgID,
		Role:            c.role,
		DailyTokenLimit: c.tokenLimit,
	}
}

func buildApp(configPath string) (*app, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded",
		zap.String("config", configPath),
		zap.String("blob_store", cfg.BlobStore.Type),
		zap.String("ai_provider", cfg.AI.Provider))

	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	docRepo := repo.NewDocumentRepo(conn)
	folderRepo := repo.NewFolderRepo(conn)
	locationRepo := repo.NewLocationRepo(conn)
	embeddingRepo := repo.NewEmbeddingRepo(conn)
	tableRepo := repo.NewTableRepo(conn)
	imageRepo := repo.NewImageRepo(conn)
	chatRepo := repo.NewChatRepo(conn)
	messageRepo := repo.NewMessageRepo(conn)
	tokenLogRepo := repo.NewTokenLogRepo(conn)
	searchRepo := repo.NewSearchRepo(conn)

	blob, err := blobstore.New(cfg.BlobStore)
	if err != nil {
		return nil, fmt.Errorf("create blob store: %w", err)
	}
	staging, err := blobstore.New(cfg.Staging)
	if err != nil {
		return nil, fmt.Errorf("create staging store: %w", err)
	}

	chatProvider, err := ai.NewChatProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return nil, fmt.Errorf("create chat provider: %w", err)
	}
	embedProvider, err := ai.NewEmbedProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return nil, fmt.Errorf("create embed provider: %w", err)
	}
	embedder := embed.WrapLRUCache(
		embed.NewService(embedProvider, cfg.AI.EmbedModel),
		cfg.AI.EmbedCacheSize,
		time.Duration(cfg.AI.EmbedCacheTTL)*time.Minute,
	)

	extractor := extract.New(extract.NewTesseractEngine(cfg.Ingest.OCRLanguages))
	describer := describe.New(chatProvider, cfg.AI.ChatModel, cfg.AI.VisionModel, cfg.AI.MaxTokens, cfg.AI.Temperature)
	quota := ingest.NewQuotaChecker(tokenLogRepo, cfg.Ingest.DefaultDailyLimit)
	runner, err := ingest.NewRunner(cfg.Ingest.WorkerPoolSize)
	if err != nil {
		return nil, fmt.Errorf("create runner: %w", err)
	}

	pipeline := ingest.NewPipeline(
		docRepo, folderRepo, embeddingRepo, tableRepo, imageRepo, tokenLogRepo,
		blob, staging, extractor, describer, embedder, quota, runner,
		ingest.Options{
			SignedURLTTL: time.Duration(cfg.Ingest.SignedURLTTL) * time.Minute,
			EmbedModel:   cfg.AI.EmbedModel,
			VisionModel:  cfg.AI.VisionModel,
		},
	)
	engine := retrieval.NewEngine(embedder, searchRepo, locationRepo, cfg.Retrieval.MatchThreshold, cfg.Retrieval.MatchCount)
	orchestrator := chat.NewOrchestrator(chatRepo, messageRepo, tokenLogRepo, engine, chatProvider, chat.Options{
		ChatModel:     cfg.AI.ChatModel,
		VisionModel:   cfg.AI.VisionModel,
		EmbedModel:    cfg.AI.EmbedModel,
		MaxTokens:     cfg.AI.MaxTokens,
		Temperature:   cfg.AI.Temperature,
		HistoryWindow: cfg.Chat.HistoryWindow,
		MaxImageSize:  cfg.Chat.MaxImageSize,
		SystemPrompt:  cfg.Chat.SystemPrompt,
	})

	return &app{
		cfg:          cfg,
		docRepo:      docRepo,
		staging:      staging,
		pipeline:     pipeline,
		orchestrator: orchestrator,
		runner:       runner,
	}, nil
}
