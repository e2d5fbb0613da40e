package adminapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/nijsci/labcatalog/internal/domain"
	"github.com/nijsci/labcatalog/internal/mailer"
	"github.com/nijsci/labcatalog/internal/webserver"
	"github.com/nijsci/labcatalog/pkg/common"
)

func registerContactRoutes() {
	webserver.PubPOST("/contact", sendContact)
}

type contactRequest struct {
	Name    string        `json:"name" validate:"required,max=100"`
	Email   string        `json:"email" validate:"required,email"`
	Subject string        `json:"subject" validate:"max=200"`
	Message string        `json:"message" validate:"required,max=5000"`
	Inquiry []interface{} `json:"inquiry"`
}

// inquiryIDs accepts bare ids or {id: ...} objects as the browser stores them.
func inquiryIDs(values []interface{}) []int64 {
	flat := make([]interface{}, 0, len(values))
	for _, v := range values {
		if m, ok := v.(map[string]interface{}); ok {
			v = m["id"]
		}
		flat = append(flat, v)
	}
	return common.ParseIDs(flat)
}

// resolveInquiry loads the submitted products keeping submission order;
// unknown ids are dropped.
func resolveInquiry(c echo.Context, ids []int64) (*domain.Inquiry, error) {
	inquiry := &domain.Inquiry{}
	if len(ids) == 0 {
		return inquiry, nil
	}
	rows, err := repos(c).Products.GetByIDs(c.Request().Context(), ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*domain.Product, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			inquiry.Add(domain.InquiryItem{ID: p.ID, Name: p.Name, MainImage: p.MainImage})
		}
	}
	return inquiry, nil
}

// @Summary send a contact message
// @Tags Contact
// @Accept json
// @Produce json
// @Param body body object true "{name, email, subject, message, inquiry}"
// @Success 200 {object} map[string]interface{}
// @Router /contact [post]
func sendContact(c echo.Context) error {
	mail := GetAppContext(c).Mailer()
	if mail == nil {
		return fail(c, http.StatusServiceUnavailable, "MAIL_DISABLED", "Email sending is disabled. Please use WhatsApp instead.", nil)
	}
	var req contactRequest
	if err := decodeJSON(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err.Error())
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if err := c.Validate(&req); err != nil {
		return handleValidationError(c, err)
	}

	inquiry, err := resolveInquiry(c, inquiryIDs(req.Inquiry))
	if err != nil {
		return repoFail(c, err, "", "Failed to query products")
	}
	msg := &mailer.Message{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Body:    req.Message,
		Items:   inquiry.Items,
	}
	if err := mail.Send(msg); err != nil {
		zap.L().Error("contact mail failed", zap.String("from", req.Email), zap.Error(err))
		return fail(c, http.StatusBadGateway, "MAIL_FAILED", "Failed to send message", err.Error())
	}
	return message(c, "Message sent successfully", map[string]int{"items": inquiry.Len()})
}
