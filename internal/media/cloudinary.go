package media

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/pkg/errors"
)

var (
	versionSegment = regexp.MustCompile(`^v\d+$`)
	fileExtension  = regexp.MustCompile(`\.[^/.]+$`)
)

// CloudinaryStore keeps media on Cloudinary.
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, errors.Wrap(err, "cloudinary config")
	}
	return &CloudinaryStore{cld: cld}, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, folder string, up *Upload) (*Asset, error) {
	res, err := s.cld.Upload.Upload(ctx, bytes.NewReader(up.Data), uploader.UploadParams{
		Folder:       folder,
		ResourceType: "auto",
	})
	if err != nil {
		return nil, errors.Wrap(err, "cloudinary upload")
	}
	if res.Error.Message != "" {
		return nil, errors.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	return &Asset{URL: res.SecureURL, PublicID: res.PublicID, ResourceType: res.ResourceType}, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, url string) error {
	publicID := PublicIDFromURL(url)
	if publicID == "" {
		return nil
	}
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: ResourceTypeFromURL(url),
	})
	if err != nil {
		return errors.Wrapf(err, "cloudinary destroy %s", publicID)
	}
	if res.Error.Message != "" {
		return errors.Errorf("cloudinary destroy %s: %s", publicID, res.Error.Message)
	}
	return nil
}

// PublicIDFromURL extracts the public id from a Cloudinary delivery URL:
// the path after "upload" without version segments and extension. Non
// Cloudinary URLs yield "".
func PublicIDFromURL(url string) string {
	if url == "" || !strings.Contains(url, "cloudinary.com") {
		return ""
	}
	parts := strings.Split(url, "/")
	at := -1
	for i, p := range parts {
		if p == "upload" {
			at = i
			break
		}
	}
	if at < 0 {
		return ""
	}
	kept := make([]string, 0, len(parts)-at)
	for _, p := range parts[at+1:] {
		if versionSegment.MatchString(p) {
			continue
		}
		kept = append(kept, p)
	}
	return fileExtension.ReplaceAllString(strings.Join(kept, "/"), "")
}

// ResourceTypeFromURL returns video for /video/upload/ URLs, image otherwise.
func ResourceTypeFromURL(url string) string {
	if strings.Contains(url, "/video/upload/") {
		return ResourceVideo
	}
	return ResourceImage
}
