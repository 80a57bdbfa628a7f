package service

import (
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxPictureBytes bounds the decoded size of an uploaded profile picture.
const MaxPictureBytes = 2 << 20

const (
	passwordSymbols     = "!@#$%^&*"
	passwordRuleMessage = "Password must contain at least one letter, one number and one special character (!@#$%^&*)."
)

var (
	passwordCharset = regexp.MustCompile(`^[a-zA-Z0-9!@#$%^&*]{8,}$`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{5,19}$`)
)

// violations collects every failed rule instead of stopping at the first one.
type violations []string

func (v *violations) add(format string, args ...any) {
	*v = append(*v, fmt.Sprintf(format, args...))
}

func (v *violations) required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.add("%q is required", field)
		return false
	}
	return true
}

func (v *violations) email(field, value string) {
	if !v.required(field, value) {
		return
	}
	if !isEmail(value) {
		v.add("%q must be a valid email", field)
	}
}

func (v *violations) minLength(field, value string, n int) {
	if utf8.RuneCountInString(value) < n {
		v.add("%q length must be at least %d characters long", field, n)
	}
}

func (v *violations) maxLength(field, value string, n int) {
	if utf8.RuneCountInString(value) > n {
		v.add("%q length must be less than or equal to %d characters long", field, n)
	}
}

func (v *violations) password(field, value string) {
	if !v.required(field, value) {
		return
	}
	v.minLength(field, value, 8)
	if !isStrongPassword(value) {
		v.add("%s", passwordRuleMessage)
	}
}

func (v *violations) confirmation(field, value string) {
	if !v.required(field, value) {
		return
	}
	v.minLength(field, value, 8)
}

func (v *violations) link(field, value string) {
	if value == "" {
		return
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		v.add("%q must be a valid uri", field)
	}
}

func isEmail(value string) bool {
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return false
	}
	_, domain, _ := strings.Cut(value, "@")
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if label == "" {
			return false
		}
	}
	return true
}

// isStrongPassword: at least 8 characters from [a-zA-Z0-9!@#$%^&*] with at
// least one letter, one digit and one listed symbol.
func isStrongPassword(value string) bool {
	if !passwordCharset.MatchString(value) {
		return false
	}
	var letter, digit, symbol bool
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return letter && digit && symbol
}

// SignupInput is the signup request shape.
type SignupInput struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	Terms           *bool
}

// Validate returns every violated rule.
func (in SignupInput) Validate() []string {
	var v violations
	v.required("firstName", in.FirstName)
	v.required("lastName", in.LastName)
	v.email("email", in.Email)
	v.password("password", in.Password)
	v.confirmation("confirmPassword", in.ConfirmPassword)
	switch {
	case in.Terms == nil:
		v.add("%q is required", "terms")
	case !*in.Terms:
		v.add("Terms and Conditions must be accepted")
	}
	return v
}

// LoginInput is the login request shape.
type LoginInput struct {
	Email    string
	Password string
}

// Validate returns every violated rule.
func (in LoginInput) Validate() []string {
	var v violations
	v.email("email", in.Email)
	v.password("password", in.Password)
	return v
}

// ForgotPasswordInput is the forgot-password request shape.
type ForgotPasswordInput struct {
	Email string
}

// Validate returns every violated rule.
func (in ForgotPasswordInput) Validate() []string {
	var v violations
	v.email("email", in.Email)
	return v
}

// ChangePasswordInput is the change-password request shape.
type ChangePasswordInput struct {
	Password        string
	ConfirmPassword string
}

// Validate returns every violated rule.
func (in ChangePasswordInput) Validate() []string {
	var v violations
	v.password("password", in.Password)
	v.confirmation("confirmPassword", in.ConfirmPassword)
	return v
}

// ProfileInput carries optional profile fields; empty values are ignored.
type ProfileInput struct {
	FirstName     string
	LastName      string
	NickName      string
	Phone         string
	Location      string
	Bio           string
	FacebookLink  string
	TwitterLink   string
	InstagramLink string
	LinkedinLink  string
	YoutubeLink   string
	Picture       []byte
}

// Validate returns every violated rule.
func (in ProfileInput) Validate() []string {
	var v violations
	v.maxLength("firstName", in.FirstName, 50)
	v.maxLength("lastName", in.LastName, 50)
	v.maxLength("nickName", in.NickName, 50)
	if in.Phone != "" && !phonePattern.MatchString(in.Phone) {
		v.add("%q must be a valid phone number", "phone")
	}
	v.maxLength("location", in.Location, 100)
	v.maxLength("bio", in.Bio, 500)
	v.link("facebookLink", in.FacebookLink)
	v.link("twitterLink", in.TwitterLink)
	v.link("instagramLink", in.InstagramLink)
	v.link("linkedinLink", in.LinkedinLink)
	v.link("youtubeLink", in.YoutubeLink)
	if len(in.Picture) > 0 {
		if len(in.Picture) > MaxPictureBytes {
			v.add("%q must be smaller than %d bytes", "picture", MaxPictureBytes)
		}
		if !strings.HasPrefix(http.DetectContentType(in.Picture), "image/") {
			v.add("%q must be an image", "picture")
		}
	}
	return v
}
