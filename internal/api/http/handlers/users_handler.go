package handlers

import (
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

const (
	pictureField     = "picture"
	msgProfileSaved  = "User updated"
	msgPictureUnread = "Unable to read uploaded picture"
)

// UsersHandler exposes profile endpoints for authenticated accounts.
type UsersHandler struct {
	profiles *service.ProfileService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(profiles *service.ProfileService) *UsersHandler {
	return &UsersHandler{profiles: profiles}
}

// UpdateUser handles PUT /users/update-user. Text fields come from the form
// or JSON body; the optional picture from a multipart file part.
func (h *UsersHandler) UpdateUser(c *fiber.Ctx) error {
	account, ok := auth.AccountFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(service.MsgUnauthorizedUser)
	}

	var req dto.UpdateProfileRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewBadRequest(msgInvalidBody)
		}
	}

	picture, err := readPicture(c)
	if err != nil {
		return err
	}

	updated, err := h.profiles.UpdateProfile(c.UserContext(), account.ID, req.Input(picture))
	if err != nil {
		return err
	}
	return c.JSON(dto.UpdateProfileResponse{Message: msgProfileSaved, User: updated})
}

// readPicture returns nil when the request carries no picture part.
func readPicture(c *fiber.Ctx) ([]byte, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.NewBadRequest(msgInvalidBody)
	}
	files := form.File[pictureField]
	if len(files) == 0 {
		return nil, nil
	}
	header := files[0]
	if header.Size > service.MaxPictureBytes {
		return nil, apperrors.NewValidationError([]string{
			fmt.Sprintf("%q must be smaller than %d bytes", pictureField, service.MaxPictureBytes),
		})
	}

	f, err := header.Open()
	if err != nil {
		return nil, apperrors.NewBadRequest(msgPictureUnread)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, service.MaxPictureBytes+1))
	if err != nil {
		return nil, apperrors.NewBadRequest(msgPictureUnread)
	}
	return data, nil
}

func isMultipart(c *fiber.Ctx) bool {
	return len(c.Request().Header.MultipartFormBoundary()) > 0
}
