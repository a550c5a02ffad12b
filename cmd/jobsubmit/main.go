// Package main provides a CLI tool for exercising the verification SDK
// against the sandbox: submit a job, query its status, mint a hosted-web
// token, or sign a timestamp. Credentials come from the environment
// (VERID_PARTNER_ID, VERID_API_KEY, VERID_SERVER, VERID_CALLBACK_URL).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"verid/internal/job/metrics"
	"verid/internal/job/models"
	"verid/internal/job/service"
	"verid/internal/job/validate"
	"verid/internal/platform/config"
	"verid/internal/platform/logger"
	"verid/internal/platform/tracer"
	"verid/internal/signature"
	"verid/internal/webtoken"
)

func main() {
	submitCmd := flag.NewFlagSet("submit", flag.ExitOnError)
	statusCmd := flag.NewFlagSet("status", flag.ExitOnError)
	tokenCmd := flag.NewFlagSet("token", flag.ExitOnError)
	signCmd := flag.NewFlagSet("sign", flag.ExitOnError)

	// Submit flags
	submitUserID := submitCmd.String("user-id", "", "User ID. Generated if empty.")
	submitJobID := submitCmd.String("job-id", "", "Job ID. Generated if empty.")
	submitJobType := submitCmd.Int("job-type", int(models.JobTypeBiometricKYC), "Job type (1,2,4,5,6,7)")
	submitParams := submitCmd.String("params", "", "Partner params as a JSON object; overrides the individual id flags and passes extra fields through")
	submitOptions := submitCmd.String("options", "", "Submission options as a JSON object (return_job_status, return_history, ...)")
	submitSelfie := submitCmd.String("selfie", "", "Path to a selfie image file")
	submitIDCard := submitCmd.String("id-card", "", "Path to an id card image file")
	submitCountry := submitCmd.String("country", "", "ISO country code for id_info")
	submitIDType := submitCmd.String("id-type", "", "ID type for id_info")
	submitIDNumber := submitCmd.String("id-number", "", "ID number for id_info")
	submitWait := submitCmd.Bool("wait", false, "Poll for the job result instead of relying on the callback")

	// Status flags
	statusUserID := statusCmd.String("user-id", "", "User ID of the job")
	statusJobID := statusCmd.String("job-id", "", "Job ID of the job")
	statusHistory := statusCmd.Bool("history", false, "Include job history")

	// Token flags
	tokenUserID := tokenCmd.String("user-id", "", "User ID for the hosted session")
	tokenProduct := tokenCmd.String("product", "doc_verification", "Hosted product name")

	// Sign flags
	signTimestamp := signCmd.String("timestamp", "", "Timestamp to sign: RFC3339 or epoch milliseconds. Defaults to now.")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	svc, err := service.New(service.Config{
		PartnerID:   cfg.PartnerID,
		APIKey:      cfg.APIKey,
		Server:      cfg.Server,
		CallbackURL: cfg.CallbackURL,
		HTTPTimeout: cfg.HTTPTimeout,
	},
		service.WithLogger(logger.New()),
		service.WithMetrics(metrics.New()),
		service.WithTracer(tracer.NewOTel()),
	)
	if err != nil {
		fatal(err)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "submit":
		submitCmd.Parse(os.Args[2:])
		userID := *submitUserID
		if userID == "" {
			userID = "user-" + uuid.NewString()
		}
		jobID := *submitJobID
		if jobID == "" {
			jobID = "job-" + uuid.NewString()
		}

		params := &models.PartnerParams{
			UserID:  userID,
			JobID:   jobID,
			JobType: models.JobType(*submitJobType),
		}
		if *submitParams != "" {
			var raw any
			if err := json.Unmarshal([]byte(*submitParams), &raw); err != nil {
				fatal(err)
			}
			params, err = validate.PartnerParamsFromMap(raw)
			if err != nil {
				fatal(err)
			}
			if params.UserID == "" {
				params.UserID = userID
			}
			if params.JobID == "" {
				params.JobID = jobID
			}
		}

		opts := models.Options{ReturnJobStatus: *submitWait}
		if *submitOptions != "" {
			var rawOpts map[string]any
			if err := json.Unmarshal([]byte(*submitOptions), &rawOpts); err != nil {
				fatal(err)
			}
			opts, err = validate.Options(rawOpts)
			if err != nil {
				fatal(err)
			}
			opts.ReturnJobStatus = opts.ReturnJobStatus || *submitWait
		}

		var images []models.Image
		if *submitSelfie != "" {
			images = append(images, models.Image{TypeID: models.ImageTypeSelfieFile, Value: *submitSelfie})
		}
		if *submitIDCard != "" {
			images = append(images, models.Image{TypeID: models.ImageTypeIDCardFile, Value: *submitIDCard})
		}

		idInfo := models.IDInfo{
			Country:  *submitCountry,
			IDType:   *submitIDType,
			IDNumber: *submitIDNumber,
		}
		if idInfo.IDNumber != "" {
			idInfo.Entered = models.EnteredTrue
		}

		result, err := svc.SubmitJob(ctx, service.SubmitRequest{
			PartnerParams: params,
			IDInfo:        idInfo,
			Images:        images,
			Options:       opts,
		})
		if err != nil {
			fatal(err)
		}
		printJSON(result)

	case "status":
		statusCmd.Parse(os.Args[2:])
		status, err := svc.JobStatus(ctx, *statusUserID, *statusJobID, models.Options{ReturnHistory: *statusHistory})
		if err != nil {
			fatal(err)
		}
		printJSON(status)

	case "token":
		tokenCmd.Parse(os.Args[2:])
		token, err := svc.WebToken(ctx, webtoken.Request{
			UserID:  *tokenUserID,
			Product: *tokenProduct,
		})
		if err != nil {
			fatal(err)
		}
		printJSON(map[string]string{"token": token})

	case "sign":
		signCmd.Parse(os.Args[2:])
		ts := time.Now().UTC().Format(signature.WireTimeLayout)
		if *signTimestamp != "" {
			var v any = *signTimestamp
			if f, err := strconv.ParseFloat(*signTimestamp, 64); err == nil {
				v = f
			}
			ts, err = signature.NormalizeTimestamp(v)
			if err != nil {
				fatal(err)
			}
		}
		printJSON(signature.Envelope{
			PartnerID: cfg.PartnerID,
			Timestamp: ts,
			Signature: signature.Sign(cfg.PartnerID, cfg.APIKey, ts),
		})

	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: jobsubmit <submit|status|token|sign> [flags]")
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
