package adminapi

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nijsci/labcatalog/internal/app"
	"github.com/nijsci/labcatalog/internal/domain"
	"github.com/nijsci/labcatalog/internal/media"
	"github.com/nijsci/labcatalog/internal/repository"
	"github.com/nijsci/labcatalog/internal/webserver"
	"github.com/nijsci/labcatalog/pkg/common"
)

// uploadConcurrency bounds parallel gallery uploads per request.
const uploadConcurrency = 4

var json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// Init registers every catalog route on the web server.
func Init() {
	registerAuthRoutes()
	registerCategoryRoutes()
	registerProductRoutes()
	registerHeroRoutes()
	registerReviewRoutes()
	registerUserRoutes()
	registerContactRoutes()
	registerSeedRoutes()
	registerDashboardRoutes()
	registerExportRoutes()
	registerJobRoutes()
}

// GetAppContext returns the application context attached by the web server.
func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(webserver.AppContextKey).(app.AppContext)
}

func repos(c echo.Context) *repository.Repositories {
	return GetAppContext(c).Repos()
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

func created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

func message(c echo.Context, msg string, data interface{}) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": msg,
		"data":    data,
	})
}

func paged(c echo.Context, data interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
		"total":   total,
		"page":    page,
		"perPage": pageSize,
	})
}

func fail(c echo.Context, status int, code, msg string, details interface{}) error {
	body := map[string]interface{}{
		"success": false,
		"error":   msg,
		"code":    code,
	}
	if details != nil {
		body["details"] = details
	}
	return c.JSON(status, body)
}

// parsePagination reads page and perPage (or the older pageSize). A zero
// page size means no paging.
func parsePagination(c echo.Context) (page, pageSize int) {
	page = 1
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	raw := c.QueryParam("perPage")
	if raw == "" {
		raw = c.QueryParam("pageSize")
	}
	if ps, err := strconv.Atoi(raw); err == nil && ps > 0 {
		pageSize = ps
		if pageSize > 500 {
			pageSize = 500
		}
	}
	return page, pageSize
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid %s", name)
	}
	return id, nil
}

// decodeJSON reads the request body keeping numbers as json.Number so large
// ids survive.
func decodeJSON(c echo.Context, v interface{}) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return errors.New("empty request body")
	}
	return json.Unmarshal(body, v)
}

func handleValidationError(c echo.Context, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", verr.Message, map[string]string{"field": verr.Field})
	}
	var ferrs validator.ValidationErrors
	if errors.As(err, &ferrs) {
		details := make(map[string]string, len(ferrs))
		for _, fe := range ferrs {
			details[fe.Field()] = fe.Tag()
		}
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", details)
	}
	return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
}

// repoFail maps a repository error onto the failure envelope.
func repoFail(c echo.Context, err error, notFound, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", notFound, nil)
	}
	zap.L().Error(op, zap.Error(err))
	return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", op, err.Error())
}

type idsRequest struct {
	IDs []interface{} `json:"ids"`
}

// bindIDs parses a bulk {ids:[...]} body.
func bindIDs(c echo.Context) ([]int64, error) {
	var req idsRequest
	if err := decodeJSON(c, &req); err != nil {
		return nil, err
	}
	ids := common.ParseIDs(req.IDs)
	if len(ids) == 0 {
		return nil, errors.New("No IDs provided")
	}
	return ids, nil
}

// formData wraps a parsed multipart or url-encoded form and tells absent
// fields apart from empty ones.
type formData struct {
	values map[string][]string
	files  map[string][]*multipart.FileHeader
}

func readForm(c echo.Context) (*formData, error) {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, err
		}
		return &formData{values: form.Value, files: form.File}, nil
	}
	params, err := c.FormParams()
	if err != nil {
		return nil, err
	}
	return &formData{values: params}, nil
}

func (f *formData) has(key string) bool {
	_, ok := f.values[key]
	return ok
}

func (f *formData) value(key string) string {
	if vs := f.values[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// text returns the trimmed value when it carries content.
func (f *formData) text(key string) (string, bool) {
	v := f.value(key)
	if common.IsBlankOrPlaceholder(v) {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (f *formData) list(key string) []string {
	out := make([]string, 0, len(f.values[key]))
	for _, v := range f.values[key] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (f *formData) file(key string) *multipart.FileHeader {
	if fs := f.files[key]; len(fs) > 0 {
		return fs[0]
	}
	return nil
}

func (f *formData) fileList(key string) []*multipart.FileHeader {
	return f.files[key]
}

func mediaFolder(c echo.Context, sub string) string {
	return media.Folder(GetAppContext(c).Config().Media.Folder, sub)
}

// storeUpload saves one prepared upload.
func storeUpload(c echo.Context, sub string, up *media.Upload) (string, error) {
	asset, err := GetAppContext(c).Media().Upload(c.Request().Context(), mediaFolder(c, sub), up)
	if err != nil {
		return "", err
	}
	return asset.URL, nil
}

// storeFiles uploads files concurrently and returns their URLs in input
// order. On failure the files already stored are removed again.
func storeFiles(c echo.Context, sub string, files []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, len(files))
	if len(files) == 0 {
		return urls, nil
	}
	store := GetAppContext(c).Media()
	folder := mediaFolder(c, sub)
	g, ctx := errgroup.WithContext(c.Request().Context())
	g.SetLimit(uploadConcurrency)
	for i, fh := range files {
		i, fh := i, fh
		g.Go(func() error {
			up, err := media.ReadUpload(fh)
			if err != nil {
				return err
			}
			asset, err := store.Upload(ctx, folder, up)
			if err != nil {
				return err
			}
			urls[i] = asset.URL
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		deleteMedia(c, urls...)
		return nil, err
	}
	return urls, nil
}

// deleteMedia removes media best-effort; failures are logged only.
func deleteMedia(c echo.Context, urls ...string) {
	store := GetAppContext(c).Media()
	ctx := context.WithoutCancel(c.Request().Context())
	for _, u := range urls {
		if u == "" {
			continue
		}
		if err := store.Delete(ctx, u); err != nil {
			zap.L().Warn("media delete failed", zap.String("url", u), zap.Error(err))
		}
	}
}

func uploadFail(c echo.Context, err error) error {
	zap.L().Error("media upload failed", zap.Error(err))
	return fail(c, http.StatusBadGateway, "UPLOAD_FAILED", "Failed to upload media", err.Error())
}
