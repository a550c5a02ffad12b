package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"verid/internal/idapi"
	"verid/internal/job/metrics"
	"verid/internal/job/models"
	"verid/internal/job/poller"
	"verid/internal/job/upload"
	"verid/internal/platform/logger"
	"verid/internal/signature"
	dErrors "verid/pkg/domain-errors"
	"verid/pkg/testutil"
)

func (s *ServiceSuite) submitRequest(jobType models.JobType) SubmitRequest {
	return SubmitRequest{
		PartnerParams: testutil.NewJobBuilder().
			WithUserID(testutil.TestIDs.UserID1).
			WithJobID(testutil.TestIDs.JobID1).
			WithJobType(jobType).
			PartnerParams(),
		Images: []models.Image{
			{TypeID: models.ImageTypeSelfieBase64, Value: "AAAA"},
		},
	}
}

func (s *ServiceSuite) TestNewRequiresCredentials() {
	_, err := New(Config{APIKey: testutil.APIKey})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = New(Config{PartnerID: testutil.PartnerID})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestSubmitJobUploadPathway() {
	var captured upload.Request
	s.mockUploader.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req upload.Request) (*upload.Result, error) {
			captured = req
			return &upload.Result{JobID: testutil.TestIDs.JobID1, UploadURL: "https://bucket/attachments.zip"}, nil
		})

	result, err := s.service.SubmitJob(context.Background(), s.submitRequest(models.JobTypeSelfieAuth))
	s.Require().NoError(err)
	s.True(result.Success)
	s.Equal(testutil.TestIDs.JobID1, result.JobID)
	s.Nil(result.Status, "no status query was requested")
	s.Nil(result.IDResult)

	s.Equal(defaultCallback, captured.CallbackURL, "instance callback applies when none is supplied per job")
	s.Equal(testutil.PartnerID, captured.Envelope.PartnerID)
	s.True(signature.Verify(testutil.PartnerID, testutil.APIKey, captured.Envelope.Timestamp, captured.Envelope.Signature))
	s.Equal(models.EnteredFalse, captured.IDInfo.Entered, "absent id info travels with entered false")
}

func (s *ServiceSuite) TestSubmitJobPerJobCallbackWins() {
	s.mockUploader.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req upload.Request) (*upload.Result, error) {
			s.Equal("https://other.example.com/hook", req.CallbackURL)
			return &upload.Result{JobID: testutil.TestIDs.JobID1}, nil
		})

	req := s.submitRequest(models.JobTypeSelfieAuth)
	req.Options.OptionalCallback = "https://other.example.com/hook"
	_, err := s.service.SubmitJob(context.Background(), req)
	s.NoError(err)
}

func (s *ServiceSuite) TestSubmitJobChainsIntoStatusPolling() {
	s.mockUploader.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		Return(&upload.Result{JobID: testutil.TestIDs.JobID1}, nil)
	s.mockPoller.EXPECT().
		Wait(gomock.Any(), poller.StatusRequest{
			UserID:        testutil.TestIDs.UserID1,
			JobID:         testutil.TestIDs.JobID1,
			ReturnHistory: true,
		}).
		Return(&models.JobStatusResponse{JobComplete: true, JobSuccess: true}, nil)

	req := s.submitRequest(models.JobTypeSelfieAuth)
	req.Options.ReturnJobStatus = true
	req.Options.ReturnHistory = true

	result, err := s.service.SubmitJob(context.Background(), req)
	s.Require().NoError(err)
	s.Require().NotNil(result.Status)
	s.True(result.Status.JobComplete)
}

func (s *ServiceSuite) TestSubmitJobPollFailureSurfaces() {
	s.mockUploader.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		Return(&upload.Result{JobID: testutil.TestIDs.JobID1}, nil)
	s.mockPoller.EXPECT().
		Wait(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodePollTimeout, "polling timeout"))

	req := s.submitRequest(models.JobTypeSelfieAuth)
	req.Options.ReturnJobStatus = true

	_, err := s.service.SubmitJob(context.Background(), req)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePollTimeout))
}

func (s *ServiceSuite) TestSubmitJobIDLookupPathway() {
	for _, jobType := range []models.JobType{models.JobTypeEnhancedKYC, models.JobTypeBusinessVerification} {
		s.Run(fmt.Sprintf("job type %d", int(jobType)), func() {
			payload := json.RawMessage(`{"ResultCode":"1012"}`)
			s.mockVerifier.EXPECT().
				Verify(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, req idapi.Request) (json.RawMessage, error) {
					s.Equal(jobType, req.PartnerParams.JobType)
					return payload, nil
				})

			req := s.submitRequest(jobType)
			req.IDInfo = models.IDInfo{Country: "NG", IDType: "NIN", IDNumber: "123", Entered: models.EnteredTrue}

			result, err := s.service.SubmitJob(context.Background(), req)
			s.Require().NoError(err)
			s.True(result.Success)
			s.JSONEq(string(payload), string(result.IDResult))
		})
	}
}

// Validation failures must surface before any collaborator is touched; no
// EXPECT is registered, so a call to any mock fails the test.
func (s *ServiceSuite) TestSubmitJobValidatesBeforeAnyNetworkCall() {
	s.Run("missing partner params", func() {
		_, err := s.service.SubmitJob(context.Background(), SubmitRequest{})
		s.Require().Error(err)
		s.Equal("Please ensure that you send through partner params", err.Error())
	})

	s.Run("missing selfie", func() {
		req := s.submitRequest(models.JobTypeSelfieAuth)
		req.Images = []models.Image{{TypeID: models.ImageTypeIDCardBase64, Value: "BBBB"}}
		_, err := s.service.SubmitJob(context.Background(), req)
		s.Require().Error(err)
		s.Equal("You need to send through at least one selfie image", err.Error())
	})

	s.Run("enrollment with id lacking both id card and id info", func() {
		req := s.submitRequest(models.JobTypeBiometricKYC)
		_, err := s.service.SubmitJob(context.Background(), req)
		s.Require().Error(err)
		s.Equal("You are attempting to complete a job type 1 without providing an id card image or id info", err.Error())
	})

	s.Run("document verification without id card image", func() {
		req := s.submitRequest(models.JobTypeDocVerification)
		req.IDInfo = models.IDInfo{Country: "NG", IDType: "PASSPORT"}
		_, err := s.service.SubmitJob(context.Background(), req)
		s.Require().Error(err)
		s.Equal("You are attempting to complete a Document Verification job without providing an id card image", err.Error())
	})

	s.Run("no delivery channel", func() {
		svc := s.newService("")
		req := s.submitRequest(models.JobTypeSelfieAuth)
		_, err := svc.SubmitJob(context.Background(), req)
		s.Require().Error(err)
		s.Equal("Please choose to either get your response via the callback or job status query", err.Error())
	})
}

// An enrolled-image document verification carries no selfie of its own; the
// job must still reach the upload pathway.
func (s *ServiceSuite) TestSubmitJobDocVerificationWithEnrolledImage() {
	s.mockUploader.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		Return(&upload.Result{JobID: testutil.TestIDs.JobID2}, nil)

	req := SubmitRequest{
		PartnerParams: testutil.NewJobBuilder().
			WithUserID(testutil.TestIDs.UserID2).
			WithJobID(testutil.TestIDs.JobID2).
			WithJobType(models.JobTypeDocVerification).
			PartnerParams(),
		IDInfo: models.IDInfo{Country: "NG", IDType: "PASSPORT"},
		Images: []models.Image{{TypeID: models.ImageTypeIDCardBase64, Value: "BBBB"}},
		Options: models.Options{
			UseEnrolledImage: true,
		},
	}

	result, err := s.service.SubmitJob(context.Background(), req)
	s.Require().NoError(err)
	s.True(result.Success)
	s.Equal(testutil.TestIDs.JobID2, result.JobID)
}

func (s *ServiceSuite) TestSubmitJobUnknownTypeUsesUploadPathway() {
	s.mockUploader.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		Return(&upload.Result{JobID: testutil.TestIDs.JobID1}, nil)

	result, err := s.service.SubmitJob(context.Background(), s.submitRequest(models.JobType(42)))
	s.Require().NoError(err)
	s.True(result.Success)
}

func (s *ServiceSuite) TestSubmitJobFallsBackToCallerJobID() {
	s.mockUploader.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		Return(&upload.Result{}, nil)

	result, err := s.service.SubmitJob(context.Background(), s.submitRequest(models.JobTypeSelfieAuth))
	s.Require().NoError(err)
	s.Equal(testutil.TestIDs.JobID1, result.JobID)
}

func (s *ServiceSuite) TestSubmitJobUploadErrorPropagates() {
	s.mockUploader.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.Remote("2204", "unauthorized partner"))

	_, err := s.service.SubmitJob(context.Background(), s.submitRequest(models.JobTypeSelfieAuth))
	s.Require().Error(err)
	var dErr *dErrors.Error
	s.Require().ErrorAs(err, &dErr)
	s.Equal("2204", dErr.RemoteCode)
}

func (s *ServiceSuite) TestJobStatus() {
	s.Run("requires both identifiers", func() {
		_, err := s.service.JobStatus(context.Background(), "", testutil.TestIDs.JobID1, models.Options{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.service.JobStatus(context.Background(), testutil.TestIDs.UserID1, "", models.Options{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("delegates a single signed query", func() {
		s.mockPoller.EXPECT().
			Status(gomock.Any(), poller.StatusRequest{
				UserID:           testutil.TestIDs.UserID1,
				JobID:            testutil.TestIDs.JobID1,
				ReturnImageLinks: true,
			}).
			Return(&models.JobStatusResponse{JobComplete: true}, nil)

		resp, err := s.service.JobStatus(context.Background(), testutil.TestIDs.UserID1, testutil.TestIDs.JobID1, models.Options{ReturnImageLinks: true})
		s.Require().NoError(err)
		s.True(resp.JobComplete)
	})
}

func (s *ServiceSuite) TestSubmitJobRecordsMetrics() {
	m := metrics.NewWith(prometheus.NewRegistry())
	svc, err := New(
		Config{
			PartnerID:   testutil.PartnerID,
			APIKey:      testutil.APIKey,
			Server:      "0",
			CallbackURL: defaultCallback,
		},
		WithLogger(logger.Discard()),
		WithMetrics(m),
		WithUploader(s.mockUploader),
		WithStatusPoller(s.mockPoller),
		WithIDVerifier(s.mockVerifier),
	)
	s.Require().NoError(err)

	s.mockUploader.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		Return(&upload.Result{JobID: testutil.TestIDs.JobID1}, nil)

	_, err = svc.SubmitJob(context.Background(), s.submitRequest(models.JobTypeSelfieAuth))
	s.Require().NoError(err)
	s.Equal(float64(1), promtest.ToFloat64(m.SubmissionsTotal.WithLabelValues("2", "upload", "success")))

	_, err = svc.SubmitJob(context.Background(), SubmitRequest{})
	s.Require().Error(err)
	s.Equal(float64(1), promtest.ToFloat64(m.SubmissionsTotal.WithLabelValues("0", "upload", "validation_failed")))
}

func (s *ServiceSuite) TestSubmitJobSurfacesPlainErrors() {
	s.mockUploader.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("socket closed"))

	_, err := s.service.SubmitJob(context.Background(), s.submitRequest(models.JobTypeSelfieAuth))
	s.Require().Error(err)
}
