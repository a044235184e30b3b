package echoapi

import (
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/ryitech/institute/core"
	"github.com/ryitech/institute/core/principal"
)

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	VerifyOTPRequest struct {
		Email string `json:"email" validate:"required,email"`
		OTP   string `json:"otp" validate:"required"`
	}

	EmailRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	ResetPasswordRequest struct {
		Password string `json:"password" validate:"required"`
	}

	GoogleLoginRequest struct {
		Credential string `json:"credential" validate:"required"`
	}

	GetUserByIDRequest struct {
		UserID string `json:"userId" validate:"required"`
	}

	SuccessResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	LoginResponse struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		User    principal.Summary `json:"user"`
		Token   string            `json:"token"`
	}
)

func (r *LoginRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return validate.Struct(r)
}

func (r *VerifyOTPRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	r.OTP = core.CleanString(r.OTP)
	return validate.Struct(r)
}

func (r *EmailRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return validate.Struct(r)
}

func (r *GetUserByIDRequest) Validate(validate *validator.Validate) error {
	r.UserID = core.CleanString(r.UserID)
	return validate.Struct(r)
}

func success(msg string) SuccessResponse {
	return SuccessResponse{Success: true, Message: msg}
}

// readUploads pulls the uploaded files out of the multipart form field.
// A missing field is not an error; services decide whether files are required.
func readUploads(ctx echo.Context, field string) ([]core.FileUpload, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, nil
	}
	headers := form.File[field]
	uploads := make([]core.FileUpload, 0, len(headers))
	for _, hdr := range headers {
		src, err := hdr.Open()
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, core.FileUpload{Name: hdr.Filename, Content: content})
	}
	return uploads, nil
}
