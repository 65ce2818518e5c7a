package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/review-feed/internal/auth"
	"github.com/spec-kit/review-feed/internal/service"
	apperrors "github.com/spec-kit/review-feed/pkg/util"
)

// TicketsHandler manages ticket endpoints. Create and update accept
// multipart forms so an image can ride along.
type TicketsHandler struct {
	posts *service.PostService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(postService *service.PostService) *TicketsHandler {
	return &TicketsHandler{posts: postService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	input, err := parseTicketForm(c)
	if err != nil {
		return err
	}

	ticket, err := h.posts.CreateTicket(c.Context(), principal.User, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// UpdateTicket PUT /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	input, err := parseTicketForm(c)
	if err != nil {
		return err
	}

	ticket, err := h.posts.UpdateTicket(c.Context(), principal.User, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.posts.DeleteTicket(c.Context(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseTicketForm(c *fiber.Ctx) (service.TicketInput, error) {
	input := service.TicketInput{
		Title:       strings.TrimSpace(c.FormValue("title")),
		Description: strings.TrimSpace(c.FormValue("description")),
	}

	header, err := c.FormFile("image")
	if err != nil {
		// No file part means no image; that is fine.
		return input, nil
	}
	upload, err := readUpload(header)
	if err != nil {
		return input, err
	}
	input.Image = upload
	return input, nil
}

func readUpload(header *multipart.FileHeader) (*service.ImageUpload, error) {
	file, err := header.Open()
	if err != nil {
		return nil, apperrors.NewValidationError("unable to read uploaded image", nil)
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperrors.NewValidationError("unable to read uploaded image", nil)
	}
	return &service.ImageUpload{Filename: header.Filename, Data: data}, nil
}
