package adminapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/nijsci/labcatalog/internal/domain"
	"github.com/nijsci/labcatalog/internal/media"
	"github.com/nijsci/labcatalog/internal/repository"
	"github.com/nijsci/labcatalog/internal/webserver"
	"github.com/nijsci/labcatalog/pkg/common"
)

// registerProductRoutes registers the product catalog endpoints
func registerProductRoutes() {
	webserver.PubGET("/products", listProducts)
	webserver.PubGET("/products/:id", getProduct)
	webserver.ApiPOST("/products", createProduct)
	webserver.ApiPUT("/products/:id", updateProduct)
	webserver.ApiDELETE("/products/:id", deleteProduct)
	webserver.ApiDELETE("/products", deleteProducts)
}

// @Summary list products
// @Tags Products
// @Produce json
// @Param q query string false "Search text"
// @Param category query integer false "Category ID"
// @Param active query boolean false "Only active products"
// @Param page query integer false "Page number"
// @Param perPage query integer false "Items per page"
// @Success 200 {object} map[string]interface{}
// @Router /products [get]
func listProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)
	filter := repository.ProductFilter{
		Query:      strings.TrimSpace(c.QueryParam("q")),
		ActiveOnly: c.QueryParam("active") == "true",
		Page:       page,
		PageSize:   pageSize,
	}
	if raw := strings.TrimSpace(c.QueryParam("category")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
		}
		filter.CategoryID = id
	}

	rows, total, err := repos(c).Products.List(c.Request().Context(), filter)
	if err != nil {
		return repoFail(c, err, "", "Failed to query products")
	}
	if pageSize > 0 {
		return paged(c, rows, total, page, pageSize)
	}
	return ok(c, rows)
}

// @Summary get a product
// @Tags Products
// @Produce json
// @Param id path integer true "ID"
// @Success 200 {object} map[string]interface{}
// @Router /products/{id} [get]
func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	p, err := repos(c).Products.GetByID(c.Request().Context(), id)
	if err != nil {
		return repoFail(c, err, "Product not found", "Failed to query product")
	}
	return ok(c, p)
}

// parseTable reads the JSON encoded table columns and rows.
func parseTable(form *formData, p *domain.Product) error {
	if form.has("tableColumns") {
		cols := []string{}
		if raw := strings.TrimSpace(form.value("tableColumns")); raw != "" {
			if err := json.UnmarshalFromString(raw, &cols); err != nil {
				return errors.Wrap(err, "tableColumns")
			}
		}
		p.TableColumns = cols
	}
	if form.has("tableRows") {
		rows := [][]string{}
		if raw := strings.TrimSpace(form.value("tableRows")); raw != "" {
			if err := json.UnmarshalFromString(raw, &rows); err != nil {
				return errors.Wrap(err, "tableRows")
			}
		}
		p.TableRows = rows
	}
	return nil
}

// resolveCategory loads the referenced category, reporting a missing one
// as a validation failure.
func resolveCategory(c echo.Context, id int64) (*domain.Category, error) {
	cat, err := repos(c).Categories.GetByID(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &domain.ValidationError{Field: "category", Message: "Category not found"}
	}
	return cat, err
}

// categoryParam parses a category form value; invalid values yield 0 so
// validation reports the missing category.
func categoryParam(raw string) int64 {
	id, _ := common.ParseID(raw)
	return id
}

// @Summary create a product
// @Tags Products
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param name formData string true "Product name"
// @Param description formData string true "Description"
// @Param category formData integer true "Category ID"
// @Param hasTable formData boolean false "Has a specification table"
// @Param tableColumns formData string false "JSON array of column names"
// @Param tableRows formData string false "JSON array of rows"
// @Param isActive formData boolean false "Active flag"
// @Param mainImage formData file true "Main image"
// @Param images formData file false "Gallery images"
// @Success 201 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /products [post]
func createProduct(c echo.Context) error {
	form, err := readForm(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse form", err.Error())
	}
	mainFile := form.file("mainImage")
	if mainFile == nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Main image is required", nil)
	}

	p := &domain.Product{
		ID:          common.UUIDint64(),
		Name:        form.value("name"),
		Description: form.value("description"),
		MainImage:   mainFile.Filename,
		HasTable:    form.value("hasTable") == "true",
		IsActive:    true,
	}
	if form.has("isActive") {
		p.IsActive = cast.ToBool(form.value("isActive"))
	}
	if err := parseTable(form, p); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid table data", err.Error())
	}
	p.CategoryID = categoryParam(form.value("category"))
	p.Normalize()
	if err := p.Validate(); err != nil {
		return handleValidationError(c, err)
	}
	cat, err := resolveCategory(c, p.CategoryID)
	if err != nil {
		return handleCategoryError(c, err)
	}

	up, err := media.ReadUpload(mainFile)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to read main image", err.Error())
	}
	p.MainImage, err = storeUpload(c, media.FolderProducts, up)
	if err != nil {
		return uploadFail(c, err)
	}
	gallery, err := storeFiles(c, media.FolderProducts, form.fileList("images"))
	if err != nil {
		deleteMedia(c, p.MainImage)
		return uploadFail(c, err)
	}
	p.Images = gallery

	if err := repos(c).Products.Create(c.Request().Context(), p); err != nil {
		deleteMedia(c, p.MediaURLs()...)
		return repoFail(c, err, "", "Failed to create product")
	}
	p.Category = cat
	return created(c, p)
}

func handleCategoryError(c echo.Context, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return handleValidationError(c, err)
	}
	return repoFail(c, err, "Category not found", "Failed to query category")
}

// @Summary update a product
// @Tags Products
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path integer true "ID"
// @Param name formData string false "Product name"
// @Param description formData string false "Description"
// @Param category formData integer false "Category ID"
// @Param hasTable formData boolean false "Has a specification table"
// @Param tableColumns formData string false "JSON array of column names"
// @Param tableRows formData string false "JSON array of rows"
// @Param isActive formData boolean false "Active flag"
// @Param deletedImages formData string false "Gallery URLs to remove"
// @Param mainImage formData file false "Replacement main image"
// @Param images formData file false "Extra gallery images"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /products/{id} [put]
func updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	ctx := c.Request().Context()
	p, err := repos(c).Products.GetByID(ctx, id)
	if err != nil {
		return repoFail(c, err, "Product not found", "Failed to query product")
	}
	form, err := readForm(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse form", err.Error())
	}

	if v, set := form.text("name"); set {
		p.Name = v
	}
	if v, set := form.text("description"); set {
		p.Description = v
	}
	categoryChanged := false
	if v, set := form.text("category"); set {
		catID := categoryParam(v)
		categoryChanged = catID != p.CategoryID
		p.CategoryID = catID
	}
	if form.has("hasTable") {
		p.HasTable = form.value("hasTable") == "true"
	}
	if err := parseTable(form, p); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid table data", err.Error())
	}
	if form.has("isActive") {
		p.IsActive = cast.ToBool(form.value("isActive"))
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		return handleValidationError(c, err)
	}
	if categoryChanged {
		cat, err := resolveCategory(c, p.CategoryID)
		if err != nil {
			return handleCategoryError(c, err)
		}
		p.Category = cat
	}

	// uploads first; stale media is removed only once the record is saved
	var stale, fresh []string
	if fh := form.file("mainImage"); fh != nil {
		up, err := media.ReadUpload(fh)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to read main image", err.Error())
		}
		url, err := storeUpload(c, media.FolderProducts, up)
		if err != nil {
			return uploadFail(c, err)
		}
		stale = append(stale, p.MainImage)
		fresh = append(fresh, url)
		p.MainImage = url
	}
	gallery, err := storeFiles(c, media.FolderProducts, form.fileList("images"))
	if err != nil {
		deleteMedia(c, fresh...)
		return uploadFail(c, err)
	}
	fresh = append(fresh, gallery...)
	p.Images = append(p.Images, gallery...)
	stale = append(stale, p.RemoveImages(form.list("deletedImages"))...)

	if err := repos(c).Products.Update(ctx, p); err != nil {
		deleteMedia(c, fresh...)
		return repoFail(c, err, "Product not found", "Failed to update product")
	}
	deleteMedia(c, stale...)
	return ok(c, p)
}

// @Summary delete a product
// @Tags Products
// @Produce json
// @Security BearerAuth
// @Param id path integer true "ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /products/{id} [delete]
func deleteProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	ctx := c.Request().Context()
	p, err := repos(c).Products.GetByID(ctx, id)
	if err != nil {
		return repoFail(c, err, "Product not found", "Failed to query product")
	}
	deleteMedia(c, p.MediaURLs()...)
	if err := repos(c).Products.Delete(ctx, id); err != nil {
		return repoFail(c, err, "Product not found", "Failed to delete product")
	}
	return message(c, "Product deleted successfully", map[string]interface{}{})
}

// @Summary delete products in bulk
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body object true "{ids: [...]}"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /products [delete]
func deleteProducts(c echo.Context) error {
	ids, err := bindIDs(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}
	ctx := c.Request().Context()
	rows, err := repos(c).Products.GetByIDs(ctx, ids)
	if err != nil {
		return repoFail(c, err, "", "Failed to query products")
	}
	for _, p := range rows {
		deleteMedia(c, p.MediaURLs()...)
	}
	n, err := repos(c).Products.DeleteMany(ctx, ids)
	if err != nil {
		return repoFail(c, err, "", "Failed to delete products")
	}
	return message(c, "Products deleted successfully", map[string]int64{"deleted": n})
}
