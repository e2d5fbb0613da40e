package media

import (
	"context"
	"io"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

// Resource types reported by the media host.
const (
	ResourceImage = "image"
	ResourceVideo = "video"
	ResourceRaw   = "raw"
)

// Sub folders under the configured root folder.
const (
	FolderCategories = "categories"
	FolderProducts   = "products"
	FolderHero       = "hero"
)

// Asset describes a stored media object.
type Asset struct {
	URL          string `json:"url"`
	PublicID     string `json:"publicId"`
	ResourceType string `json:"resourceType"`
}

// Upload is an in-memory file ready to be stored.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Ext returns the lower-cased file extension, falling back to the
// extension of the sniffed content type.
func (u *Upload) Ext() string {
	if ext := strings.ToLower(filepath.Ext(u.Filename)); ext != "" && len(ext) <= 8 {
		return ext
	}
	return mimetype.Detect(u.Data).Extension()
}

// IsVideo reports whether the upload carries a video content type.
func (u *Upload) IsVideo() bool {
	return strings.HasPrefix(strings.ToLower(u.ContentType), "video/")
}

// Store uploads and deletes media by public URL.
type Store interface {
	// Upload stores the file under folder and returns the public asset.
	Upload(ctx context.Context, folder string, up *Upload) (*Asset, error)
	// Delete removes the asset behind url. URLs the store does not own are
	// ignored.
	Delete(ctx context.Context, url string) error
}

// ReadUpload loads a multipart file into memory. The content type sent by
// the client wins; when it is missing or generic the bytes are sniffed.
func ReadUpload(fh *multipart.FileHeader) (*Upload, error) {
	if fh == nil {
		return nil, errors.New("no file")
	}
	src, err := fh.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "open upload %s", fh.Filename)
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, errors.Wrapf(err, "read upload %s", fh.Filename)
	}
	return NewUpload(fh.Filename, fh.Header.Get("Content-Type"), data), nil
}

// NewUpload builds an Upload, sniffing the content type when ct is blank or
// application/octet-stream.
func NewUpload(filename, ct string, data []byte) *Upload {
	ct = strings.TrimSpace(ct)
	if ct == "" || strings.EqualFold(ct, "application/octet-stream") {
		ct = mimetype.Detect(data).String()
	}
	return &Upload{Filename: filename, ContentType: ct, Data: data}
}

// Folder joins the root folder with a sub folder, dropping any attempt to
// climb out of the root.
func Folder(root, sub string) string {
	p := path.Join("/", root, sub)
	return strings.TrimPrefix(p, "/")
}

func resourceTypeOf(up *Upload) string {
	ct := strings.ToLower(up.ContentType)
	switch {
	case strings.HasPrefix(ct, "video/"):
		return ResourceVideo
	case strings.HasPrefix(ct, "image/"):
		return ResourceImage
	default:
		return ResourceRaw
	}
}

// joinURL appends a relative path to a public URL prefix.
func joinURL(prefix, rel string) string {
	return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(rel, "/")
}

// relFromURL returns the path below prefix, or "" when url is not under it.
func relFromURL(prefix, url string) string {
	prefix = strings.TrimRight(prefix, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	rel := strings.TrimPrefix(path.Clean("/"+strings.TrimPrefix(url, prefix)), "/")
	if rel == "" || rel == "." {
		return ""
	}
	return rel
}
