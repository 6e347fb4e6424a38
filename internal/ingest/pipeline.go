package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/docuchat/docuchat/internal/blobstore"
	"github.com/docuchat/docuchat/internal/embed"
	"github.com/docuchat/docuchat/internal/extract"
	"github.com/docuchat/docuchat/internal/model"
	appErr "github.com/docuchat/docuchat/internal/pkg/errors"
	"github.com/docuchat/docuchat/internal/pkg/ids"
)

// DocumentStore is the slice of the document repository the pipeline needs.
type DocumentStore interface {
	GetByID(ctx context.Context, docID string) (*model.Document, error)
	MarkProcessing(ctx context.Context, docID string, now int64) error
	MarkProcessed(ctx context.Context, docID string, pageCount int, now int64) error
	MarkError(ctx context.Context, docID string, now int64) error
}

type FolderStore interface {
	GetByID(ctx context.Context, folderID string) (*model.Folder, error)
}

type TextStore interface {
	Insert(ctx context.Context, emb *model.TextEmbedding) error
	DeleteByDocument(ctx context.Context, docID string) error
}

type TableStore interface {
	Insert(ctx context.Context, table *model.TableEmbedding) error
	DeleteByDocument(ctx context.Context, docID string) error
}

type ImageStore interface {
	Insert(ctx context.Context, img *model.ImageEmbedding) error
	DeleteByDocument(ctx context.Context, docID string) error
	ListStoragePathsByDocument(ctx context.Context, docID string) ([]string, error)
}

type TokenLogStore interface {
	Insert(ctx context.Context, log *model.TokenLog) error
}

// Extractor parses PDF bytes into pages. Satisfied by extract.Extractor.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (*extract.Result, error)
}

// Describer produces content descriptions. Satisfied by describe.Describer.
type Describer interface {
	Table(ctx context.Context, rows [][]string) (string, int)
	Image(ctx context.Context, data []byte, mimeType, ocrText string) (string, int)
}

// Options carries the pipeline's tunables and model names used in token
// accounting rows.
type Options struct {
	SignedURLTTL time.Duration
	EmbedModel   string
	VisionModel  string
}

// Pipeline drives a document from uploaded bytes to searchable embeddings.
type Pipeline struct {
	docs      DocumentStore
	folders   FolderStore
	texts     TextStore
	tables    TableStore
	images    ImageStore
	tokens    TokenLogStore
	blob      blobstore.Store
	staging   blobstore.Store
	extractor Extractor
	describer Describer
	embedder  embed.Embedder
	quota     *QuotaChecker
	runner    *Runner
	opts      Options
	now       func() time.Time
}

func NewPipeline(
	docs DocumentStore,
	folders FolderStore,
	texts TextStore,
	tables TableStore,
	images ImageStore,
	tokens TokenLogStore,
	blob blobstore.Store,
	staging blobstore.Store,
	extractor Extractor,
	describer Describer,
	embedder embed.Embedder,
	quota *QuotaChecker,
	runner *Runner,
	opts Options,
) *Pipeline {
	if opts.SignedURLTTL <= 0 {
		opts.SignedURLTTL = 15 * time.Minute
	}
	return &Pipeline{
		docs:      docs,
		folders:   folders,
		texts:     texts,
		tables:    tables,
		images:    images,
		tokens:    tokens,
		blob:      blob,
		staging:   staging,
		extractor: extractor,
		describer: describer,
		embedder:  embedder,
		quota:     quota,
		runner:    runner,
		opts:      opts,
		now:       time.Now,
	}
}

// Process is the synchronous entry point. It validates the caller, enforces
// the daily token quota, flips the document to processing through the atomic
// status guard and hands the heavy work to the runner. The background task
// owns the terminal status from here on.
func (p *Pipeline) Process(ctx context.Context, caller model.Caller, docID string) error {
	doc, err := p.docs.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	if !caller.CanManageDocuments() {
		return fmt.Errorf("%w: role %s cannot process documents", appErr.ErrForbidden, caller.Role)
	}
	folder, err := p.folders.GetByID(ctx, doc.FolderID)
	if err != nil {
		return fmt.Errorf("load folder: %w", err)
	}
	if err := p.quota.Check(ctx, caller); err != nil {
		return err
	}
	if err := p.docs.MarkProcessing(ctx, docID, p.now().Unix()); err != nil {
		if appErr.IsConflict(err) {
			return fmt.Errorf("%w: document %s is not in added status", appErr.ErrConflict, docID)
		}
		return err
	}
	locationID := folder.LocationID
	err = p.runner.Submit(func() {
		// detached from the request context, the task outlives the caller
		p.run(context.Background(), caller, doc, locationID)
	})
	if err != nil {
		_ = p.docs.MarkError(ctx, docID, p.now().Unix())
		return fmt.Errorf("submit ingestion task: %w", err)
	}
	return nil
}

// tokenTally accumulates provider token usage per accounting category over
// one ingestion run.
type tokenTally struct {
	text   int
	table  int
	image  int
	vision int
}

func (p *Pipeline) run(ctx context.Context, caller model.Caller, doc *model.Document, locationID string) {
	logger := logutil.GetLogger(ctx).With(zap.String("document_id", doc.ID))
	defer func() {
		if r := recover(); r != nil {
			logger.Error("ingestion panic", zap.Any("reason", r))
			_ = p.docs.MarkError(ctx, doc.ID, p.now().Unix())
		}
	}()

	tally, pageCount, err := p.ingest(ctx, doc, locationID)
	p.logTokens(ctx, caller, doc.ID, tally)
	if err != nil {
		logger.Error("ingestion failed", zap.Error(err))
		_ = p.docs.MarkError(ctx, doc.ID, p.now().Unix())
		return
	}
	if err := p.docs.MarkProcessed(ctx, doc.ID, pageCount, p.now().Unix()); err != nil {
		logger.Error("mark processed failed", zap.Error(err))
		return
	}
	logger.Info("document processed", zap.Int("pages", pageCount),
		zap.Int("text_tokens", tally.text), zap.Int("table_tokens", tally.table),
		zap.Int("image_tokens", tally.image), zap.Int("vision_tokens", tally.vision))
}

func (p *Pipeline) ingest(ctx context.Context, doc *model.Document, locationID string) (tokenTally, int, error) {
	var tally tokenTally
	logger := logutil.GetLogger(ctx).With(zap.String("document_id", doc.ID))

	if err := p.clearExisting(ctx, doc.ID); err != nil {
		return tally, 0, fmt.Errorf("clear previous content: %w", err)
	}

	data, err := p.blob.Get(ctx, doc.FilePath)
	if err != nil {
		return tally, 0, fmt.Errorf("fetch document bytes: %w", err)
	}
	stagingKey := "staging/" + doc.ID + "/" + doc.Name
	if err := p.staging.Put(ctx, stagingKey, data, "application/pdf"); err != nil {
		return tally, 0, fmt.Errorf("stage document: %w", err)
	}
	defer func() {
		if err := p.staging.Delete(context.Background(), stagingKey); err != nil {
			logger.Warn("staging cleanup failed", zap.String("key", stagingKey), zap.Error(err))
		}
	}()
	signedURL, err := p.staging.SignedURL(ctx, stagingKey, p.opts.SignedURLTTL)
	if err != nil {
		return tally, 0, fmt.Errorf("sign staging url: %w", err)
	}
	logger.Debug("document staged", zap.String("url", signedURL))

	// extraction reads the staged copy, not the permanent object. Once the
	// signed window has passed the staged copy may be swept and the run
	// fails here into error state.
	staged, err := p.staging.Get(ctx, stagingKey)
	if err != nil {
		return tally, 0, fmt.Errorf("read staged document: %w", err)
	}
	result, err := p.extractor.Extract(ctx, staged)
	if err != nil {
		return tally, 0, fmt.Errorf("extract document: %w", err)
	}
	for _, page := range result.Pages {
		p.ingestPage(ctx, doc, locationID, page, &tally)
	}
	return tally, result.PageCount, nil
}

func (p *Pipeline) clearExisting(ctx context.Context, docID string) error {
	paths, err := p.images.ListStoragePathsByDocument(ctx, docID)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := p.blob.Delete(ctx, path); err != nil {
			logutil.GetLogger(ctx).Warn("delete stale image blob failed",
				zap.String("path", path), zap.Error(err))
		}
	}
	if err := p.texts.DeleteByDocument(ctx, docID); err != nil {
		return err
	}
	if err := p.tables.DeleteByDocument(ctx, docID); err != nil {
		return err
	}
	return p.images.DeleteByDocument(ctx, docID)
}

// ingestPage handles one page, text then tables then images, in that fixed
// order so token aggregation stays deterministic. Unit failures are logged
// and skipped.
func (p *Pipeline) ingestPage(ctx context.Context, doc *model.Document, locationID string, page extract.Page, tally *tokenTally) {
	logger := logutil.GetLogger(ctx).With(
		zap.String("document_id", doc.ID), zap.Int("page", page.Number))

	if strings.TrimSpace(page.Text) != "" {
		vector, tokens, err := embed.EmbedOne(ctx, p.embedder, page.Text)
		if err != nil {
			logger.Error("embed page text failed", zap.Error(err))
		} else {
			tally.text += tokens
			err := p.texts.Insert(ctx, &model.TextEmbedding{
				ID:         ids.New(),
				DocumentID: doc.ID,
				LocationID: locationID,
				PageNumber: page.Number,
				Content:    page.Text,
				Embedding:  vector,
				Ctime:      p.now().Unix(),
			})
			if err != nil {
				logger.Error("save text embedding failed", zap.Error(err))
			}
		}
	}

	for _, table := range page.Tables {
		p.ingestTable(ctx, doc, locationID, page.Number, table, tally)
	}
	for _, image := range page.Images {
		p.ingestImage(ctx, doc, locationID, page.Number, image, tally)
	}
}

func (p *Pipeline) ingestTable(ctx context.Context, doc *model.Document, locationID string, pageNumber int, table extract.Table, tally *tokenTally) {
	logger := logutil.GetLogger(ctx).With(
		zap.String("document_id", doc.ID), zap.Int("page", pageNumber), zap.Int("table", table.Number))

	description, tokens := p.describer.Table(ctx, table.Rows)
	tally.table += tokens
	if strings.TrimSpace(description) == "" {
		return
	}
	vector, tokens, err := embed.EmbedOne(ctx, p.embedder, description)
	if err != nil {
		logger.Error("embed table description failed", zap.Error(err))
		return
	}
	tally.table += tokens
	err = p.tables.Insert(ctx, &model.TableEmbedding{
		ID:          ids.New(),
		DocumentID:  doc.ID,
		LocationID:  locationID,
		PageNumber:  pageNumber,
		TableNumber: table.Number,
		Rows:        table.Rows,
		HTMLContent: table.HTML,
		Description: description,
		Embedding:   vector,
		Ctime:       p.now().Unix(),
	})
	if err != nil {
		logger.Error("save table failed", zap.Error(err))
	}
}

func (p *Pipeline) ingestImage(ctx context.Context, doc *model.Document, locationID string, pageNumber int, image extract.Image, tally *tokenTally) {
	logger := logutil.GetLogger(ctx).With(
		zap.String("document_id", doc.ID), zap.Int("page", pageNumber), zap.Int("image", image.Number))

	description, tokens := p.describer.Image(ctx, image.Data, imageMIMEType(image.Format), image.OCRText)
	tally.vision += tokens
	if strings.TrimSpace(description) == "" {
		return
	}
	storagePath := fmt.Sprintf("documents/%s/images/page_%d_image_%d.%s",
		doc.ID, pageNumber, image.Number, imageExtension(image.Format))
	if err := p.blob.Put(ctx, storagePath, image.Data, imageMIMEType(image.Format)); err != nil {
		logger.Error("store extracted image failed", zap.Error(err))
		return
	}
	vector, tokens, err := embed.EmbedOne(ctx, p.embedder, description)
	if err != nil {
		logger.Error("embed image description failed", zap.Error(err))
		return
	}
	tally.image += tokens
	err = p.images.Insert(ctx, &model.ImageEmbedding{
		ID:          ids.New(),
		DocumentID:  doc.ID,
		LocationID:  locationID,
		PageNumber:  pageNumber,
		ImageNumber: image.Number,
		StoragePath: storagePath,
		Description: description,
		Embedding:   vector,
		Ctime:       p.now().Unix(),
	})
	if err != nil {
		logger.Error("save image failed", zap.Error(err))
	}
}

// logTokens writes one usage row per non-zero category. Failures here are
// logged only, accounting must not flip a processed document to error.
func (p *Pipeline) logTokens(ctx context.Context, caller model.Caller, docID string, tally tokenTally) {
	entries := []struct {
		tokenType string
		model     string
		used      int
	}{
		{model.TokenTypeTextEmbedding, p.opts.EmbedModel, tally.text},
		{model.TokenTypeTableEmbedding, p.opts.EmbedModel, tally.table},
		{model.TokenTypeImageEmbedding, p.opts.EmbedModel, tally.image},
		{model.TokenTypeVision, p.opts.VisionModel, tally.vision},
	}
	for _, entry := range entries {
		if entry.used == 0 {
			continue
		}
		err := p.tokens.Insert(ctx, &model.TokenLog{
			ID:             ids.New(),
			UserID:         caller.ID,
			OrganizationID: caller.OrganizationID,
			TokenType:      entry.tokenType,
			OperationType:  model.OperationTypeDocumentProcessing,
			TokensUsed:     entry.used,
			DocumentID:     docID,
			Model:          entry.model,
			Ctime:          p.now().Unix(),
		})
		if err != nil {
			logutil.GetLogger(ctx).Error("log token usage failed",
				zap.String("token_type", entry.tokenType), zap.Error(err))
		}
	}
}

func imageMIMEType(format string) string {
	switch strings.ToLower(format) {
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "tiff", "tif":
		return "image/tiff"
	default:
		return "image/jpeg"
	}
}

func imageExtension(format string) string {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format == "" {
		return "jpg"
	}
	return format
}
