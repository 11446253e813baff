package mint

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"academia/internal/audit"
	"academia/internal/pinning"
	"academia/internal/platform/metrics"
	dErrors "academia/pkg/domain-errors"
	"academia/pkg/requestcontext"
)

// Minter creates an asset through the connected wallet.
type Minter interface {
	CreateAsset(ctx context.Context, req AssetRequest) (Asset, error)
}

// Wallet is the signing connection the minter uses.
type Wallet interface {
	CanSign() bool
	ValidateAddress(address string) error
}

// Service runs the pin-then-mint flow. Every step waits for the previous one
// and the first failure ends the attempt. Nothing is retried or cleaned up.
type Service struct {
	pinner     pinning.Pinner
	minter     Minter
	wallet     Wallet
	collection Collection
	metrics    *metrics.Metrics
	auditor    *audit.Publisher
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditor(p *audit.Publisher) Option {
	return func(s *Service) { s.auditor = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(pinner pinning.Pinner, minter Minter, wallet Wallet, collection Collection, opts ...Option) *Service {
	s := &Service{
		pinner:     pinner,
		minter:     minter,
		wallet:     wallet,
		collection: collection,
		logger:     slog.Default(),
		tracer:     otel.Tracer("academia/mint"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mint pins req.File, pins a metadata document pointing at it and mints an
// asset for req.Recipient. Pinning and mint failures return the partially
// filled Result together with a CodeUpstream error.
func (s *Service) Mint(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	result := Result{Progress: []string{}}

	if s.wallet == nil || !s.wallet.CanSign() {
		result.Stage = StagePrecondition
		result.mint(StatusConnectWallet)
		s.logger.WarnContext(ctx, "mint attempted without a signing wallet",
			"request_id", requestcontext.RequestID(ctx),
		)
		s.metrics.ObserveMint(StagePrecondition, time.Since(start))
		return result, dErrors.New(dErrors.CodePrecondition, StatusConnectWallet)
	}
	if len(req.File.Data) == 0 {
		return result, dErrors.New(dErrors.CodeValidation, "file is required")
	}
	recipient := strings.TrimSpace(req.Recipient)
	if recipient == "" {
		return result, dErrors.New(dErrors.CodeValidation, "recipient is required")
	}
	if err := s.wallet.ValidateAddress(recipient); err != nil {
		return result, dErrors.Wrap(err, dErrors.CodeValidation, "recipient is not a valid account address")
	}

	ctx, span := s.tracer.Start(ctx, "mint.flow", trace.WithAttributes(
		attribute.String("mint.recipient", recipient),
		attribute.Int64("file.size", req.File.Size()),
	))
	defer span.End()

	result.mint(StatusPreparing)

	// Pin the file.
	result.upload(StatusUploadingFile)
	fileAsset, err := s.pinFile(ctx, req)
	if err != nil {
		result.Stage = StagePinFile
		result.upload("Error: " + err.Error())
		result.mint(StatusMetadataMissing)
		return s.fail(ctx, span, start, recipient, result, err, "file upload failed")
	}
	result.FileURL = fileAsset.URL

	// Pin the metadata document that references the file.
	result.upload(StatusUploadingMetadata)
	metaAsset, err := s.pinMetadata(ctx, s.collection.BuildMetadata(fileAsset.URL))
	if err != nil {
		result.Stage = StagePinMetadata
		result.upload("Error: metadata upload failed: " + err.Error())
		result.mint(StatusMetadataMissing)
		return s.fail(ctx, span, start, recipient, result, err, "metadata upload failed")
	}
	result.MetadataURL = metaAsset.URL
	result.MetadataURI = pinning.URI(metaAsset.CID)
	result.upload(StatusMetadataUploaded)

	asset, err := s.createAsset(ctx, AssetRequest{
		URI:                result.MetadataURI,
		Name:               s.collection.Name,
		Symbol:             s.collection.Symbol,
		RoyaltyBasisPoints: s.collection.RoyaltyBasisPoints,
		Recipient:          recipient,
	})
	if err != nil {
		result.Stage = StageMint
		// The cause is logged, the user only sees a generic status.
		result.mint(StatusMintFailed)
		return s.fail(ctx, span, start, recipient, result, err, "mint failed")
	}

	result.Stage = StageMinted
	result.AssetAddress = asset.Address
	result.TransactionID = asset.TransactionID
	result.ExplorerURL = asset.ExplorerURL
	result.mint("NFT minted. Address: " + asset.Address)

	s.metrics.ObserveMint(StageMinted, time.Since(start))
	s.auditor.Emit(ctx, audit.Event{
		Action:   audit.ActionAssetMinted,
		Subject:  recipient,
		Decision: asset.Address,
		Reason:   result.MetadataURI,
	})
	s.logger.InfoContext(ctx, "asset minted",
		"address", asset.Address,
		"transaction_id", asset.TransactionID,
		"recipient", recipient,
		"metadata_uri", result.MetadataURI,
		"request_id", requestcontext.RequestID(ctx),
	)
	return result, nil
}

func (s *Service) pinFile(ctx context.Context, req Request) (pinning.Asset, error) {
	ctx, span := s.tracer.Start(ctx, "mint.pin_file", trace.WithAttributes(
		attribute.String("file.name", req.File.Name),
		attribute.String("file.content_type", req.File.ContentType),
	))
	defer span.End()

	asset, err := s.pinner.PinFile(ctx, req.File)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pin file failed")
		s.metrics.IncPin("file", "error")
		return pinning.Asset{}, err
	}
	span.SetAttributes(attribute.String("pin.cid", asset.CID))
	s.metrics.IncPin("file", "ok")
	return asset, nil
}

func (s *Service) pinMetadata(ctx context.Context, doc Metadata) (pinning.Asset, error) {
	ctx, span := s.tracer.Start(ctx, "mint.pin_metadata")
	defer span.End()

	asset, err := s.pinner.PinJSON(ctx, "metadata.json", doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pin metadata failed")
		s.metrics.IncPin("metadata", "error")
		return pinning.Asset{}, err
	}
	span.SetAttributes(attribute.String("pin.cid", asset.CID))
	s.metrics.IncPin("metadata", "ok")
	return asset, nil
}

func (s *Service) createAsset(ctx context.Context, req AssetRequest) (Asset, error) {
	ctx, span := s.tracer.Start(ctx, "mint.create_asset", trace.WithAttributes(
		attribute.String("mint.uri", req.URI),
	))
	defer span.End()

	asset, err := s.minter.CreateAsset(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create asset failed")
		return Asset{}, err
	}
	span.SetAttributes(attribute.String("mint.address", asset.Address))
	return asset, nil
}

func (s *Service) fail(ctx context.Context, span trace.Span, start time.Time, recipient string, result Result, err error, msg string) (Result, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	s.metrics.ObserveMint(result.Stage, time.Since(start))
	s.auditor.Emit(ctx, audit.Event{
		Action:   audit.ActionMintFailed,
		Subject:  recipient,
		Decision: result.Stage,
		Reason:   msg,
	})
	s.logger.ErrorContext(ctx, "mint attempt failed",
		"stage", result.Stage,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return result, dErrors.Wrap(err, dErrors.CodeUpstream, msg)
}
