package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/nijsci/labcatalog/internal/domain"
	"github.com/nijsci/labcatalog/internal/media"
	"github.com/nijsci/labcatalog/internal/webserver"
	"github.com/nijsci/labcatalog/pkg/common"
)

func registerCategoryRoutes() {
	webserver.PubGET("/categories", listCategories)
	webserver.ApiPOST("/categories", createCategory)
	webserver.ApiPUT("/categories/:id", updateCategory)
	webserver.ApiDELETE("/categories/:id", deleteCategory)
	webserver.ApiDELETE("/categories", deleteCategories)
}

// @Summary list categories
// @Tags Categories
// @Produce json
// @Param active query boolean false "Only active categories"
// @Success 200 {object} map[string]interface{}
// @Router /categories [get]
func listCategories(c echo.Context) error {
	rows, err := repos(c).Categories.List(c.Request().Context(), c.QueryParam("active") == "true")
	if err != nil {
		return repoFail(c, err, "", "Failed to query categories")
	}
	return ok(c, rows)
}

// @Summary create a category
// @Tags Categories
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param name formData string true "Category name"
// @Param caption formData string false "Caption"
// @Param isActive formData boolean false "Active flag"
// @Param image formData file true "Category image"
// @Success 201 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /categories [post]
func createCategory(c echo.Context) error {
	form, err := readForm(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse form", err.Error())
	}
	fh := form.file("image")
	if fh == nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "No image uploaded", nil)
	}

	cat := &domain.Category{
		ID:       common.UUIDint64(),
		Name:     form.value("name"),
		Caption:  form.value("caption"),
		Image:    fh.Filename,
		IsActive: true,
	}
	if form.has("isActive") {
		cat.IsActive = cast.ToBool(form.value("isActive"))
	}
	cat.Normalize()
	if err := cat.Validate(); err != nil {
		return handleValidationError(c, err)
	}

	up, err := media.ReadUpload(fh)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to read image", err.Error())
	}
	cat.Image, err = storeUpload(c, media.FolderCategories, up)
	if err != nil {
		return uploadFail(c, err)
	}
	if err := repos(c).Categories.Create(c.Request().Context(), cat); err != nil {
		deleteMedia(c, cat.Image)
		return repoFail(c, err, "", "Failed to create category")
	}
	return created(c, cat)
}

// @Summary update a category
// @Tags Categories
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path integer true "ID"
// @Param name formData string false "Category name"
// @Param caption formData string false "Caption"
// @Param isActive formData boolean false "Active flag"
// @Param image formData file false "Replacement image"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /categories/{id} [put]
func updateCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}
	ctx := c.Request().Context()
	cat, err := repos(c).Categories.GetByID(ctx, id)
	if err != nil {
		return repoFail(c, err, "Category not found", "Failed to query category")
	}
	form, err := readForm(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse form", err.Error())
	}

	if v, set := form.text("name"); set {
		cat.Name = v
	}
	if v, set := form.text("caption"); set {
		cat.Caption = v
	}
	if form.has("isActive") {
		cat.IsActive = cast.ToBool(form.value("isActive"))
	}
	cat.Normalize()
	if err := cat.Validate(); err != nil {
		return handleValidationError(c, err)
	}

	oldImage := ""
	if fh := form.file("image"); fh != nil {
		up, err := media.ReadUpload(fh)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to read image", err.Error())
		}
		url, err := storeUpload(c, media.FolderCategories, up)
		if err != nil {
			return uploadFail(c, err)
		}
		oldImage, cat.Image = cat.Image, url
	}

	if err := repos(c).Categories.Update(ctx, cat); err != nil {
		if oldImage != "" {
			deleteMedia(c, cat.Image)
		}
		return repoFail(c, err, "Category not found", "Failed to update category")
	}
	deleteMedia(c, oldImage)
	return ok(c, cat)
}

// @Summary delete a category
// @Tags Categories
// @Produce json
// @Security BearerAuth
// @Param id path integer true "ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /categories/{id} [delete]
func deleteCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}
	ctx := c.Request().Context()
	cat, err := repos(c).Categories.GetByID(ctx, id)
	if err != nil {
		return repoFail(c, err, "Category not found", "Failed to query category")
	}
	deleteMedia(c, cat.MediaURLs()...)
	if err := repos(c).Categories.Delete(ctx, id); err != nil {
		return repoFail(c, err, "Category not found", "Failed to delete category")
	}
	return message(c, "Category deleted successfully", map[string]interface{}{})
}

// @Summary delete categories in bulk
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body object true "{ids: [...]}"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /categories [delete]
func deleteCategories(c echo.Context) error {
	ids, err := bindIDs(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}
	ctx := c.Request().Context()
	rows, err := repos(c).Categories.GetByIDs(ctx, ids)
	if err != nil {
		return repoFail(c, err, "", "Failed to query categories")
	}
	for _, cat := range rows {
		deleteMedia(c, cat.MediaURLs()...)
	}
	n, err := repos(c).Categories.DeleteMany(ctx, ids)
	if err != nil {
		return repoFail(c, err, "", "Failed to delete categories")
	}
	return message(c, "Categories deleted successfully", map[string]int64{"deleted": n})
}
