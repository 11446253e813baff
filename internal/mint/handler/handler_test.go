package handler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"academia/internal/mint"
	"academia/internal/mint/handler"
	"academia/internal/mint/mocks"
	"academia/internal/pinning/memory"
	"academia/internal/platform/config"
	"academia/internal/ratelimit"
	"academia/internal/wallet"
	"academia/pkg/testutil"
)

type fixedWallet wallet.Status

func (f fixedWallet) Status() wallet.Status { return wallet.Status(f) }

type fixture struct {
	minter *mocks.MockMinter
	wallet *mocks.MockWallet
	router http.Handler
}

func newFixture(t *testing.T) fixture {
	ctrl := gomock.NewController(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := fixture{
		minter: mocks.NewMockMinter(ctrl),
		wallet: mocks.NewMockWallet(ctrl),
	}
	svc := mint.NewService(memory.New("http://localhost:8080"), f.minter, f.wallet, mint.Collection{
		Name:         "Student Marksheet NFT",
		Symbol:       "MARKS",
		MetadataName: "Marksheet NFT",
	}, mint.WithLogger(logger))

	r := chi.NewRouter()
	handler.New(svc, fixedWallet{Connected: true, CanSign: true, Network: "testnet", AccountID: "0.0.2"}, 1<<16, logger).Register(r)
	f.router = r
	return f
}

func mintRequest(t *testing.T, recipient string) *http.Request {
	return testutil.NewMultipartRequest(t, http.MethodPost, "/api/mint",
		[]testutil.FilePart{{Field: "file", Filename: "marks.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.7")}},
		map[string]string{"recipient": recipient})
}

func TestMintEndpoint(t *testing.T) {
	t.Run("minted", func(t *testing.T) {
		f := newFixture(t)
		f.wallet.EXPECT().CanSign().Return(true)
		f.wallet.EXPECT().ValidateAddress("0.0.5005").Return(nil)
		f.minter.EXPECT().CreateAsset(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req mint.AssetRequest) (mint.Asset, error) {
				assert.True(t, strings.HasPrefix(req.URI, "ipfs://"))
				return mint.Asset{Address: "1@0.0.777", ExplorerURL: "https://hashscan.io/testnet/token/0.0.777/1"}, nil
			})

		rr := testutil.DoRequest(f.router, mintRequest(t, " 0.0.5005 "))
		testutil.AssertStatusOK(t, rr)

		result := testutil.UnmarshalResponse[mint.Result](t, rr)
		assert.Equal(t, mint.StageMinted, result.Stage)
		assert.Equal(t, mint.StatusMetadataUploaded, result.UploadStatus)
		assert.Equal(t, "NFT minted. Address: 1@0.0.777", result.MintStatus)
		assert.True(t, strings.HasPrefix(result.FileURL, "http://localhost:8080/ipfs/"))
		assert.Equal(t, "https://hashscan.io/testnet/token/0.0.777/1", result.ExplorerURL)
	})

	t.Run("mint failure keeps the pinned file link", func(t *testing.T) {
		f := newFixture(t)
		f.wallet.EXPECT().CanSign().Return(true)
		f.wallet.EXPECT().ValidateAddress("0.0.5005").Return(nil)
		f.minter.EXPECT().CreateAsset(gomock.Any(), gomock.Any()).Return(mint.Asset{}, errors.New("INSUFFICIENT_PAYER_BALANCE"))

		rr := testutil.DoRequest(f.router, mintRequest(t, "0.0.5005"))
		testutil.AssertStatus(t, rr, http.StatusBadGateway)

		result := testutil.UnmarshalResponse[mint.Result](t, rr)
		assert.Equal(t, mint.StageMint, result.Stage)
		assert.Equal(t, mint.StatusMintFailed, result.MintStatus)
		assert.NotEmpty(t, result.FileURL)
	})

	t.Run("wallet cannot sign", func(t *testing.T) {
		f := newFixture(t)
		f.wallet.EXPECT().CanSign().Return(false)

		rr := testutil.DoRequest(f.router, mintRequest(t, "0.0.5005"))
		testutil.AssertStatusAndError(t, rr, http.StatusPreconditionFailed, "precondition_failed")
	})

	t.Run("invalid recipient", func(t *testing.T) {
		f := newFixture(t)
		f.wallet.EXPECT().CanSign().Return(true)
		f.wallet.EXPECT().ValidateAddress("not-an-account").Return(wallet.ErrInvalidAddress)

		rr := testutil.DoRequest(f.router, mintRequest(t, "not-an-account"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})

	t.Run("missing file", func(t *testing.T) {
		f := newFixture(t)
		req := testutil.NewMultipartRequest(t, http.MethodPost, "/api/mint", nil, map[string]string{"recipient": "0.0.5005"})

		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})
}

func TestWalletEndpoint(t *testing.T) {
	f := newFixture(t)

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/api/wallet"))
	testutil.AssertStatusOK(t, rr)

	status := testutil.UnmarshalResponse[wallet.Status](t, rr)
	require.True(t, status.Connected)
	assert.True(t, status.CanSign)
	assert.Equal(t, "0.0.2", status.AccountID)
}

func TestMintIsRateLimited(t *testing.T) {
	ctrl := gomock.NewController(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := mocks.NewMockWallet(ctrl)
	svc := mint.NewService(memory.New("http://localhost:8080"), mocks.NewMockMinter(ctrl), w, mint.Collection{})
	limiter := ratelimit.New(config.RateLimit{Enabled: true, Window: time.Minute, Upload: 1, Verify: 1, Mint: 1}, logger)

	r := chi.NewRouter()
	handler.New(svc, nil, 1<<16, logger, handler.WithRateLimiter(limiter)).Register(r)

	w.EXPECT().CanSign().Return(false)
	rr := testutil.DoRequest(r, mintRequest(t, "0.0.5005"))
	testutil.AssertStatus(t, rr, http.StatusPreconditionFailed)

	rr = testutil.DoRequest(r, mintRequest(t, "0.0.5005"))
	testutil.AssertStatusAndError(t, rr, http.StatusTooManyRequests, "rate_limit_exceeded")
}
