package upload

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"verid/internal/job/models"
	"verid/internal/signature"
	"verid/internal/transport"
	dErrors "verid/pkg/domain-errors"
	"verid/pkg/testutil"
)

// CoordinatorSuite tests the upload pathway against a local fake service:
// destination request, archive packaging, and transfer.
type CoordinatorSuite struct {
	suite.Suite

	received       []byte // archive bytes the fake destination captured
	transferStatus int
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.received = nil
	s.transferStatus = http.StatusOK
}

// newFakeService routes /upload to a destination on the same server and
// captures whatever gets PUT there.
func (s *CoordinatorSuite) newFakeService() *httptest.Server {
	r := chi.NewRouter()
	var srv *httptest.Server
	r.Post("/upload", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"upload_url": srv.URL + "/bucket/attachments.zip",
			"job_id":     testutil.TestIDs.JobID1,
		})
	})
	r.Put("/bucket/attachments.zip", func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		s.received = body
		w.WriteHeader(s.transferStatus)
	})
	srv = httptest.NewServer(r)
	return srv
}

func (s *CoordinatorSuite) newRequest(images []models.Image) Request {
	return Request{
		Envelope:      signature.Generate(testutil.PartnerID, testutil.APIKey, time.Now()),
		PartnerParams: *testutil.NewJobBuilder().WithUserID(testutil.TestIDs.UserID1).WithJobID(testutil.TestIDs.JobID1).PartnerParams(),
		IDInfo:        models.IDInfo{Country: "NG", IDType: "NIN", Entered: models.EnteredFalse},
		Images:        images,
		CallbackURL:   "https://example.com/callback",
	}
}

func (s *CoordinatorSuite) writeTempImage(name string, content []byte) string {
	path := filepath.Join(s.T().TempDir(), name)
	s.Require().NoError(os.WriteFile(path, content, 0o600))
	return path
}

func (s *CoordinatorSuite) TestSubmitTransfersArchive() {
	srv := s.newFakeService()
	defer srv.Close()

	selfiePath := s.writeTempImage("selfie.jpg", []byte("selfie-bytes"))
	idCardPath := s.writeTempImage("idcard.jpg", []byte("idcard-bytes"))

	c := New(transport.New(srv.URL, time.Second))
	result, err := c.Submit(context.Background(), s.newRequest([]models.Image{
		{TypeID: models.ImageTypeSelfieFile, Value: selfiePath},
		{TypeID: models.ImageTypeIDCardFile, Value: idCardPath},
		{TypeID: models.ImageTypeIDCardBase64, Value: "aW5saW5l"},
	}))
	s.Require().NoError(err)
	s.Equal(testutil.TestIDs.JobID1, result.JobID)
	s.NotEmpty(result.UploadURL)
	s.Require().NotNil(s.received, "archive must be transferred")

	zr, err := zip.NewReader(bytes.NewReader(s.received), int64(len(s.received)))
	s.Require().NoError(err)

	names := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		s.Require().NoError(err)
		data, err := io.ReadAll(rc)
		rc.Close()
		s.Require().NoError(err)
		names[f.Name] = data
	}

	s.Contains(names, "info.json")
	s.Equal([]byte("selfie-bytes"), names["selfie.jpg"])
	s.Equal([]byte("idcard-bytes"), names["idcard.jpg"])
	s.Len(names, 3, "base64 images travel inside info.json, not as archive entries")

	var doc map[string]any
	s.Require().NoError(json.Unmarshal(names["info.json"], &doc))
	misc := doc["misc_information"].(map[string]any)
	s.Equal(testutil.PartnerID, misc["partner_id"])
	s.Equal("https://example.com/callback", misc["callback_url"])
	s.NotEmpty(misc["signature"])
	images := doc["images"].([]any)
	s.Len(images, 3)
}

func (s *CoordinatorSuite) TestSubmitFailsWhenTransferRejected() {
	srv := s.newFakeService()
	defer srv.Close()
	s.transferStatus = http.StatusInternalServerError

	selfiePath := s.writeTempImage("selfie.jpg", []byte("selfie-bytes"))
	c := New(transport.New(srv.URL, time.Second))

	_, err := c.Submit(context.Background(), s.newRequest([]models.Image{
		{TypeID: models.ImageTypeSelfieFile, Value: selfiePath},
	}))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUploadTransfer))
}

func (s *CoordinatorSuite) TestSubmitFailsWhenDestinationRequestErrors() {
	r := chi.NewRouter()
	r.Post("/upload", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"2204","error":"unauthorized partner"}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := New(transport.New(srv.URL, time.Second))
	_, err := c.Submit(context.Background(), s.newRequest([]models.Image{
		{TypeID: models.ImageTypeSelfieBase64, Value: "aW5saW5l"},
	}))
	s.Require().Error(err)

	var dErr *dErrors.Error
	s.Require().ErrorAs(err, &dErr)
	s.Equal("2204", dErr.RemoteCode, "remote error code must propagate verbatim")
	s.Nil(s.received, "no transfer may happen after a failed destination request")
}

func (s *CoordinatorSuite) TestSubmitFailsWhenDestinationMissingURL() {
	r := chi.NewRouter()
	r.Post("/upload", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"job_id":"j"}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := New(transport.New(srv.URL, time.Second))
	_, err := c.Submit(context.Background(), s.newRequest([]models.Image{
		{TypeID: models.ImageTypeSelfieBase64, Value: "aW5saW5l"},
	}))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUploadRequest))
}

func (s *CoordinatorSuite) TestSubmitFailsOnUnreadableImage() {
	srv := s.newFakeService()
	defer srv.Close()

	c := New(transport.New(srv.URL, time.Second))
	_, err := c.Submit(context.Background(), s.newRequest([]models.Image{
		{TypeID: models.ImageTypeSelfieFile, Value: "/nonexistent/selfie.jpg"},
	}))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	s.Nil(s.received, "a local read failure must not transfer a partial archive")
}
