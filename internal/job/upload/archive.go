package upload

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"verid/internal/job/models"
	"verid/internal/signature"
	dErrors "verid/pkg/domain-errors"
)

// packageVersion is the fixed stamp placed in every archive's metadata
// document so the service can tell SDK generations apart.
var packageVersion = apiVersion{MajorVersion: 1, MinorVersion: 0, BuildNumber: 0}

// maxConcurrentReads bounds how many image files are read at once while the
// archive is assembled.
const maxConcurrentReads = 4

type apiVersion struct {
	BuildNumber  int `json:"buildNumber"`
	MajorVersion int `json:"majorVersion"`
	MinorVersion int `json:"minorVersion"`
}

// infoDocument is the generated metadata file placed at the root of the
// archive. It mirrors the submission so the service can process the upload
// without a second round trip.
type infoDocument struct {
	PackageInformation struct {
		APIVersion apiVersion `json:"apiVersion"`
	} `json:"package_information"`
	MiscInformation struct {
		Signature     string               `json:"signature"`
		Timestamp     string               `json:"timestamp"`
		PartnerID     string               `json:"partner_id"`
		PartnerParams models.PartnerParams `json:"partner_params"`
		CallbackURL   string               `json:"callback_url"`
	} `json:"misc_information"`
	IDInfo models.IDInfo `json:"id_info"`
	Images []imageEntry  `json:"images"`
}

type imageEntry struct {
	ImageTypeID models.ImageType `json:"image_type_id"`
	Image       string           `json:"image"`
	FileName    string           `json:"file_name"`
}

// buildArchive assembles the single zip blob transferred to the upload
// destination: the metadata document plus every file-backed image. All file
// contents are read eagerly before the transfer begins.
func buildArchive(envelope signature.Envelope, params models.PartnerParams, idInfo models.IDInfo, images []models.Image, callbackURL string) ([]byte, error) {
	doc := infoDocument{}
	doc.PackageInformation.APIVersion = packageVersion
	doc.MiscInformation.Signature = envelope.Signature
	doc.MiscInformation.Timestamp = envelope.Timestamp
	doc.MiscInformation.PartnerID = envelope.PartnerID
	doc.MiscInformation.PartnerParams = params
	doc.MiscInformation.CallbackURL = callbackURL
	doc.IDInfo = idInfo

	type fileRead struct {
		name string
		data []byte
	}
	reads := make([]fileRead, len(images))

	var g errgroup.Group
	g.SetLimit(maxConcurrentReads)
	for i, img := range images {
		i, img := i, img
		if !img.TypeID.FileBacked() {
			continue
		}
		g.Go(func() error {
			data, err := os.ReadFile(img.Value)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInvalidInput, "failed to read image file "+img.Value)
			}
			reads[i] = fileRead{name: filepath.Base(img.Value), data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	doc.Images = make([]imageEntry, 0, len(images))
	for i, img := range images {
		if img.TypeID.FileBacked() {
			doc.Images = append(doc.Images, imageEntry{ImageTypeID: img.TypeID, FileName: reads[i].name})
			continue
		}
		doc.Images = append(doc.Images, imageEntry{ImageTypeID: img.TypeID, Image: img.Value})
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	info, err := json.Marshal(doc)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to marshal archive metadata")
	}
	w, err := zw.Create("info.json")
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create archive entry")
	}
	if _, err := w.Write(info); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write archive metadata")
	}

	for i, img := range images {
		if !img.TypeID.FileBacked() {
			continue
		}
		w, err := zw.Create(reads[i].name)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create archive entry")
		}
		if _, err := w.Write(reads[i].data); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write image to archive")
		}
	}

	if err := zw.Close(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to finalize archive")
	}
	return buf.Bytes(), nil
}
