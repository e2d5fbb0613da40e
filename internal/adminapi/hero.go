package adminapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/nijsci/labcatalog/internal/domain"
	"github.com/nijsci/labcatalog/internal/media"
	"github.com/nijsci/labcatalog/internal/webserver"
	"github.com/nijsci/labcatalog/pkg/common"
)

func registerHeroRoutes() {
	webserver.PubGET("/hero", listHeroes)
	webserver.ApiPOST("/hero", createHero)
	webserver.ApiPUT("/hero/:id", updateHero)
	webserver.ApiDELETE("/hero/:id", deleteHero)
	webserver.ApiDELETE("/hero", deleteHeroes)
}

// @Summary list hero slides
// @Tags Hero
// @Produce json
// @Param active query boolean false "Only active slides"
// @Success 200 {object} map[string]interface{}
// @Router /hero [get]
func listHeroes(c echo.Context) error {
	rows, err := repos(c).Heroes.List(c.Request().Context(), c.QueryParam("active") == "true")
	if err != nil {
		return repoFail(c, err, "", "Failed to query hero slides")
	}
	return ok(c, rows)
}

// parseOrder reads a decimal display order; a blank field means 0.
func parseOrder(raw string) (int, error) {
	if common.IsBlankOrPlaceholder(raw) {
		return 0, nil
	}
	return strconv.Atoi(strings.TrimSpace(raw))
}

func invalidOrder(c echo.Context) error {
	return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Order must be a whole number", nil)
}

// @Summary create a hero slide
// @Tags Hero
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param headline formData string true "Headline"
// @Param tag formData string false "Tag"
// @Param subheadline formData string false "Subheadline"
// @Param order formData integer false "Display order"
// @Param isActive formData boolean false "Active flag"
// @Param media formData file true "Image or video"
// @Success 201 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /hero [post]
func createHero(c echo.Context) error {
	form, err := readForm(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse form", err.Error())
	}
	headline := strings.TrimSpace(form.value("headline"))
	if headline == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Headline is required", nil)
	}
	order, err := parseOrder(form.value("order"))
	if err != nil {
		return invalidOrder(c)
	}
	fh := form.file("media")
	if fh == nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Media file is required", nil)
	}
	up, err := media.ReadUpload(fh)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to read media", err.Error())
	}

	h := &domain.Hero{
		ID:          common.UUIDint64(),
		Tag:         form.value("tag"),
		Headline:    headline,
		Subheadline: form.value("subheadline"),
		MediaUrl:    fh.Filename,
		MediaType:   domain.MediaTypeFor(up.ContentType),
		Order:       order,
		IsActive:    true,
	}
	if form.has("isActive") {
		h.IsActive = cast.ToBool(form.value("isActive"))
	}
	h.Normalize()
	if err := h.Validate(); err != nil {
		return handleValidationError(c, err)
	}

	h.MediaUrl, err = storeUpload(c, media.FolderHero, up)
	if err != nil {
		return uploadFail(c, err)
	}
	if err := repos(c).Heroes.Create(c.Request().Context(), h); err != nil {
		deleteMedia(c, h.MediaUrl)
		return repoFail(c, err, "", "Failed to create hero slide")
	}
	return created(c, h)
}

// @Summary update a hero slide
// @Tags Hero
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path integer true "ID"
// @Param headline formData string false "Headline"
// @Param tag formData string false "Tag"
// @Param subheadline formData string false "Subheadline"
// @Param order formData integer false "Display order"
// @Param isActive formData boolean false "Active flag"
// @Param media formData file false "Replacement media"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /hero/{id} [put]
func updateHero(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid hero slide ID", nil)
	}
	ctx := c.Request().Context()
	h, err := repos(c).Heroes.GetByID(ctx, id)
	if err != nil {
		return repoFail(c, err, "Hero slide not found", "Failed to query hero slide")
	}
	form, err := readForm(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse form", err.Error())
	}

	if form.has("tag") {
		h.Tag = form.value("tag")
	}
	if v, set := form.text("headline"); set {
		h.Headline = v
	}
	if form.has("subheadline") {
		h.Subheadline = form.value("subheadline")
	}
	if form.has("order") {
		if h.Order, err = parseOrder(form.value("order")); err != nil {
			return invalidOrder(c)
		}
	}
	if form.has("isActive") {
		h.IsActive = cast.ToBool(form.value("isActive"))
	}
	h.Normalize()
	if err := h.Validate(); err != nil {
		return handleValidationError(c, err)
	}

	oldMedia := ""
	if fh := form.file("media"); fh != nil {
		up, err := media.ReadUpload(fh)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to read media", err.Error())
		}
		url, err := storeUpload(c, media.FolderHero, up)
		if err != nil {
			return uploadFail(c, err)
		}
		oldMedia, h.MediaUrl = h.MediaUrl, url
		h.MediaType = domain.MediaTypeFor(up.ContentType)
	}

	if err := repos(c).Heroes.Update(ctx, h); err != nil {
		if oldMedia != "" {
			deleteMedia(c, h.MediaUrl)
		}
		return repoFail(c, err, "Hero slide not found", "Failed to update hero slide")
	}
	deleteMedia(c, oldMedia)
	return ok(c, h)
}

// @Summary delete a hero slide
// @Tags Hero
// @Produce json
// @Security BearerAuth
// @Param id path integer true "ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /hero/{id} [delete]
func deleteHero(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid hero slide ID", nil)
	}
	ctx := c.Request().Context()
	h, err := repos(c).Heroes.GetByID(ctx, id)
	if err != nil {
		return repoFail(c, err, "Hero slide not found", "Failed to query hero slide")
	}
	deleteMedia(c, h.MediaURLs()...)
	if err := repos(c).Heroes.Delete(ctx, id); err != nil {
		return repoFail(c, err, "Hero slide not found", "Failed to delete hero slide")
	}
	return message(c, "Hero slide deleted successfully", map[string]interface{}{})
}

// @Summary delete hero slides in bulk
// @Tags Hero
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body object true "{ids: [...]}"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /hero [delete]
func deleteHeroes(c echo.Context) error {
	ids, err := bindIDs(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}
	ctx := c.Request().Context()
	rows, err := repos(c).Heroes.GetByIDs(ctx, ids)
	if err != nil {
		return repoFail(c, err, "", "Failed to query hero slides")
	}
	for _, h := range rows {
		deleteMedia(c, h.MediaURLs()...)
	}
	n, err := repos(c).Heroes.DeleteMany(ctx, ids)
	if err != nil {
		return repoFail(c, err, "", "Failed to delete hero slides")
	}
	return message(c, "Hero slides deleted successfully", map[string]int64{"deleted": n})
}
