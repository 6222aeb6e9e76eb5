package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"booklibrary/internal/config"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type cloudinaryAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

type CloudinaryStore struct {
	api    cloudinaryAPI
	folder string
}

func NewCloudinaryStore(cfg config.CloudinaryConfig) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cfg.Cloud, cfg.Key, cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}
	cld.Config.URL.Secure = true
	return newCloudinaryStore(&cld.Upload, cfg.Folder), nil
}

func newCloudinaryStore(api cloudinaryAPI, folder string) *CloudinaryStore {
	return &CloudinaryStore{api: api, folder: folder}
}

func (s *CloudinaryStore) Upload(ctx context.Context, body io.Reader, filename, contentType string) (string, error) {
	name := objectName(filename)
	publicID := strings.TrimSuffix(name, path.Ext(name))
	if contentType != "application/pdf" {
		// raw assets keep the extension in their public id
		publicID = name
	}

	resp, err := s.api.Upload(ctx, body, uploader.UploadParams{
		PublicID:     publicID,
		Folder:       s.folder,
		ResourceType: resourceTypeFor(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("error uploading file to cloudinary: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("error uploading file to cloudinary: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}

// Delete destroys the asset behind a delivery URL. Cloudinary reports
// "not found" for assets that are already gone, which counts as success.
func (s *CloudinaryStore) Delete(ctx context.Context, rawURL string) error {
	resourceType, publicID, err := parseCloudinaryURL(rawURL)
	if err != nil {
		return err
	}

	resp, err := s.api.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return fmt.Errorf("error deleting %s from cloudinary: %w", publicID, err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("error deleting %s from cloudinary: %s", publicID, resp.Error.Message)
	}
	switch resp.Result {
	case "ok", "not found":
		return nil
	default:
		return fmt.Errorf("error deleting %s from cloudinary: result %q", publicID, resp.Result)
	}
}

func resourceTypeFor(contentType string) string {
	if contentType == "application/pdf" {
		return "image"
	}
	return "raw"
}

var versionSegment = regexp.MustCompile(`^v\d+$`)

// parseCloudinaryURL splits
// https://res.cloudinary.com/<cloud>/<type>/upload/v123/<folder>/<id>.<ext>
// into its resource type and public id.
func parseCloudinaryURL(rawURL string) (string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parse cloudinary url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	// cloud, resource type, "upload", then the id
	if len(parts) < 4 || parts[2] != "upload" {
		return "", "", fmt.Errorf("not a cloudinary delivery url: %s", rawURL)
	}
	resourceType := parts[1]
	rest := parts[3:]
	if len(rest) > 1 && versionSegment.MatchString(rest[0]) {
		rest = rest[1:]
	}

	publicID := strings.Join(rest, "/")
	if resourceType != "raw" {
		publicID = strings.TrimSuffix(publicID, path.Ext(publicID))
	}
	return resourceType, publicID, nil
}
