package handler_test

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"academia/internal/session"
	"academia/internal/upload"
	"academia/internal/verification"
	"academia/internal/verification/compare"
	"academia/internal/verification/handler"
	"academia/internal/verification/mocks"
	"academia/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	verifier *mocks.MockVerifier
	router   http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.verifier = mocks.NewMockVerifier(s.ctrl)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	expected := compare.MustExpected([]compare.Field{
		{Key: "name", Label: "Name", Value: "Sidhesh Shah"},
		{Key: "phone", Label: "Phone", Value: "9876543217"},
	})
	svc := verification.NewService(
		session.NewInMemoryStore(time.Hour, nil, logger),
		upload.NewManager(1<<16, 64, logger),
		s.verifier,
		expected,
		verification.WithLogger(logger),
	)

	r := chi.NewRouter()
	handler.New(svc, 1<<16, logger).Register(r)
	s.router = r
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) pngBytes() []byte {
	var buf bytes.Buffer
	s.Require().NoError(png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func (s *HandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.WithSessionID(req, "sess-1"))
}

func (s *HandlerSuite) upload(name, contentType string, data []byte) *httptest.ResponseRecorder {
	req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/api/session/file",
		[]testutil.FilePart{{Field: "file", Filename: name, ContentType: contentType, Data: data}}, nil)
	return s.do(req)
}

func (s *HandlerSuite) TestSelectAndVerifyMismatch() {
	t := s.T()

	testutil.Given(t, "an image is selected", func(t *testing.T) {
		rr := s.upload("card.png", "image/png", s.pngBytes())
		testutil.AssertStatusOK(t, rr)

		view := testutil.UnmarshalResponse[session.View](t, rr)
		s.True(view.HasFile)
		s.Equal("card.png", view.FileName)
		s.Require().NotNil(view.Preview)
		s.Contains(view.Preview.DataURI, "data:image/png;base64,")
	})

	testutil.When(t, "verification returns a different phone number", func(t *testing.T) {
		s.verifier.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(verification.Result{
			Success: true,
			Message: "Document verified",
			Data:    compare.Observed{"name": "Sidhesh Shah", "phone": "0000000000"},
		}, nil)

		rr := s.do(testutil.NewRequest(t, http.MethodPost, "/api/verify"))
		testutil.AssertStatusOK(t, rr)

		testutil.Then(t, "the phone mismatch is reported", func(t *testing.T) {
			resp := testutil.UnmarshalResponse[session.Response](t, rr)
			s.True(resp.Success)
			s.Equal("Document verified", resp.Message)
			s.Require().NotNil(resp.Report)
			s.Require().Len(resp.Report.Mismatches, 1)
			s.Equal("Phone", resp.Report.Mismatches[0].Label)
			s.Equal("0000000000", resp.Report.Mismatches[0].Found)
		})
	})

	testutil.Then(t, "the session keeps the response", func(t *testing.T) {
		rr := s.do(testutil.NewRequest(t, http.MethodGet, "/api/session"))
		view := testutil.UnmarshalResponse[session.View](t, rr)
		s.False(view.InFlight)
		s.Require().NotNil(view.Response)
		s.Len(view.Response.Report.Mismatches, 1)
	})
}

func (s *HandlerSuite) TestNonImageIsRejected() {
	rr := s.upload("notes.txt", "text/plain", []byte("plain text"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnsupportedMediaType, "unsupported_media_type")

	view := testutil.UnmarshalResponse[session.View](s.T(), s.do(testutil.NewRequest(s.T(), http.MethodGet, "/api/session")))
	s.False(view.HasFile)
}

func (s *HandlerSuite) TestMissingFilePart() {
	req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/api/session/file", nil, map[string]string{"other": "x"})
	testutil.AssertStatusAndError(s.T(), s.do(req), http.StatusBadRequest, "validation_error")
}

func (s *HandlerSuite) TestOversizedFile() {
	rr := s.upload("big.png", "image/png", make([]byte, 1<<16+1))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
}

func (s *HandlerSuite) TestVerifyWithoutFile() {
	rr := s.do(testutil.NewRequest(s.T(), http.MethodPost, "/api/verify"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
}

func (s *HandlerSuite) TestReset() {
	testutil.AssertStatusOK(s.T(), s.upload("card.png", "image/png", s.pngBytes()))

	rr := s.do(testutil.NewRequest(s.T(), http.MethodDelete, "/api/session"))
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)

	view := testutil.UnmarshalResponse[session.View](s.T(), s.do(testutil.NewRequest(s.T(), http.MethodGet, "/api/session")))
	s.False(view.HasFile)
}

func (s *HandlerSuite) TestExpected() {
	rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/api/expected"))
	testutil.AssertStatusOK(s.T(), rr)

	body := testutil.UnmarshalResponse[struct {
		Fields []compare.Field `json:"fields"`
	}](s.T(), rr)
	s.Require().Len(body.Fields, 2)
	s.Equal("name", body.Fields[0].Key)
	s.Equal("9876543217", body.Fields[1].Value)
}

func (s *HandlerSuite) TestMissingSessionContext() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/session"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, "internal_error")
}
