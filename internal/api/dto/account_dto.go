package dto

import (
	"github.com/gofiber/fiber/v2/utils"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/service"
)

// SignupRequest payload for new accounts.
type SignupRequest struct {
	FirstName       string `json:"firstName" form:"firstName"`
	LastName        string `json:"lastName" form:"lastName"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
	Terms           *bool  `json:"terms" form:"terms"`
}

// Input converts the payload for the auth service. Strings are copied out
// of the request buffer because form decoding may alias it.
func (r SignupRequest) Input() service.SignupInput {
	return service.SignupInput{
		FirstName:       utils.CopyString(r.FirstName),
		LastName:        utils.CopyString(r.LastName),
		Email:           utils.CopyString(r.Email),
		Password:        utils.CopyString(r.Password),
		ConfirmPassword: utils.CopyString(r.ConfirmPassword),
		Terms:           r.Terms,
	}
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Input converts the payload for the auth service.
func (r LoginRequest) Input() service.LoginInput {
	return service.LoginInput{Email: utils.CopyString(r.Email), Password: utils.CopyString(r.Password)}
}

// ForgotPasswordRequest payload for requesting a reset link.
type ForgotPasswordRequest struct {
	Email string `json:"email" form:"email"`
}

// Input converts the payload for the auth service.
func (r ForgotPasswordRequest) Input() service.ForgotPasswordInput {
	return service.ForgotPasswordInput{Email: utils.CopyString(r.Email)}
}

// ChangePasswordRequest payload for authenticated password changes.
type ChangePasswordRequest struct {
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
}

// Input converts the payload for the auth service.
func (r ChangePasswordRequest) Input() service.ChangePasswordInput {
	return service.ChangePasswordInput{
		Password:        utils.CopyString(r.Password),
		ConfirmPassword: utils.CopyString(r.ConfirmPassword),
	}
}

// UpdateProfileRequest carries the text fields of the multipart profile form.
type UpdateProfileRequest struct {
	FirstName     string `json:"firstName" form:"firstName"`
	LastName      string `json:"lastName" form:"lastName"`
	NickName      string `json:"nickName" form:"nickName"`
	Phone         string `json:"phone" form:"phone"`
	Location      string `json:"location" form:"location"`
	Bio           string `json:"bio" form:"bio"`
	FacebookLink  string `json:"facebookLink" form:"facebookLink"`
	TwitterLink   string `json:"twitterLink" form:"twitterLink"`
	InstagramLink string `json:"instagramLink" form:"instagramLink"`
	LinkedinLink  string `json:"linkedinLink" form:"linkedinLink"`
	YoutubeLink   string `json:"youtubeLink" form:"youtubeLink"`
}

// Input converts the payload, attaching the uploaded picture bytes.
func (r UpdateProfileRequest) Input(picture []byte) service.ProfileInput {
	return service.ProfileInput{
		FirstName:     utils.CopyString(r.FirstName),
		LastName:      utils.CopyString(r.LastName),
		NickName:      utils.CopyString(r.NickName),
		Phone:         utils.CopyString(r.Phone),
		Location:      utils.CopyString(r.Location),
		Bio:           utils.CopyString(r.Bio),
		FacebookLink:  utils.CopyString(r.FacebookLink),
		TwitterLink:   utils.CopyString(r.TwitterLink),
		InstagramLink: utils.CopyString(r.InstagramLink),
		LinkedinLink:  utils.CopyString(r.LinkedinLink),
		YoutubeLink:   utils.CopyString(r.YoutubeLink),
		Picture:       picture,
	}
}

// MessageResponse is the plain acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// TokenResponse is returned by signup and login.
type TokenResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// ForgotPasswordResponse confirms the reset mail was handed to the transport.
type ForgotPasswordResponse struct {
	Message   string `json:"message"`
	SentEmail bool   `json:"sentEmail"`
}

// UpdateProfileResponse returns the stored account.
type UpdateProfileResponse struct {
	Message string          `json:"message"`
	User    *domain.Account `json:"user"`
}
