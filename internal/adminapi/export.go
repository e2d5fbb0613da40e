package adminapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"

	"github.com/nijsci/labcatalog/internal/domain"
	"github.com/nijsci/labcatalog/internal/repository"
	"github.com/nijsci/labcatalog/internal/webserver"
)

const (
	mimeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportSheet  = "Sheet1"
	exportLayout = "2006-01-02 15:04:05"
)

var productExportHeader = []string{
	"ID", "Name", "Category", "Description", "Active", "Main Image", "Gallery Images", "Table Columns", "Table Rows", "Created At",
}

func registerExportRoutes() {
	webserver.ApiGET("/admin/products/export", exportProducts)
	webserver.ApiGET("/admin/reviews/export", exportReviews)
}

func attachment(c echo.Context, prefix, ext string) {
	name := fmt.Sprintf("%s-%s.%s", prefix, time.Now().Format("20060102150405"), ext)
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment;filename="+name)
}

func productExportRow(p *domain.Product) []interface{} {
	category := ""
	if p.Category != nil {
		category = p.Category.Name
	}
	return []interface{}{
		strconv.FormatInt(p.ID, 10),
		p.Name,
		category,
		p.Description,
		p.IsActive,
		p.MainImage,
		strings.Join(p.Images, "\n"),
		strings.Join(p.TableColumns, ", "),
		len(p.TableRows),
		p.CreatedAt.Format(exportLayout),
	}
}

// buildProductWorkbook writes one row per product under a header row.
func buildProductWorkbook(products []*domain.Product) *excelize.File {
	xlsx := excelize.NewFile()
	for i, h := range productExportHeader {
		xlsx.SetCellValue(exportSheet, excelize.ToAlphaString(i)+"1", h)
	}
	for r, p := range products {
		row := strconv.Itoa(r + 2)
		for i, v := range productExportRow(p) {
			xlsx.SetCellValue(exportSheet, excelize.ToAlphaString(i)+row, v)
		}
	}
	return xlsx
}

// @Summary export products as xlsx
// @Tags Admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file
// @Failure 401 {object} map[string]interface{}
// @Router /admin/products/export [get]
func exportProducts(c echo.Context) error {
	products, _, err := repos(c).Products.List(c.Request().Context(), repository.ProductFilter{})
	if err != nil {
		return repoFail(c, err, "", "Failed to query products")
	}
	buf, err := buildProductWorkbook(products).WriteToBuffer()
	if err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_FAILED", "Failed to build workbook", err.Error())
	}
	attachment(c, "products", "xlsx")
	return c.Blob(http.StatusOK, mimeXLSX, buf.Bytes())
}

// reviewExportRow is the CSV layout of a review.
type reviewExportRow struct {
	ID        string `csv:"id"`
	ProductID string `csv:"product_id"`
	Product   string `csv:"product"`
	Name      string `csv:"name"`
	Rating    int    `csv:"rating"`
	Content   string `csv:"content"`
	CreatedAt string `csv:"created_at"`
}

func reviewExportRows(reviews []*domain.Review) []*reviewExportRow {
	rows := make([]*reviewExportRow, 0, len(reviews))
	for _, r := range reviews {
		rows = append(rows, &reviewExportRow{
			ID:        strconv.FormatInt(r.ID, 10),
			ProductID: strconv.FormatInt(r.ProductID, 10),
			Product:   r.ProductName,
			Name:      r.Name,
			Rating:    r.Rating,
			Content:   r.Content,
			CreatedAt: r.CreatedAt.Format(exportLayout),
		})
	}
	return rows
}

// @Summary export reviews as csv
// @Tags Admin
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} file
// @Failure 401 {object} map[string]interface{}
// @Router /admin/reviews/export [get]
func exportReviews(c echo.Context) error {
	reviews, err := repos(c).Reviews.List(c.Request().Context(), repository.ReviewFilter{Limit: -1})
	if err != nil {
		return repoFail(c, err, "", "Failed to query reviews")
	}
	data, err := gocsv.MarshalBytes(reviewExportRows(reviews))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_FAILED", "Failed to build CSV", err.Error())
	}
	attachment(c, "reviews", "csv")
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", data)
}
