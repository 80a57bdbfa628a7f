package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// MsgUserNotUpdated is returned when the profile target does not exist.
const MsgUserNotUpdated = "User not updated"

// ProfileService updates user-editable account fields.
type ProfileService struct {
	accounts   repository.AccountRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewProfileService builds the service.
func NewProfileService(accounts repository.AccountRepository, dispatcher events.Dispatcher, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{accounts: accounts, dispatcher: dispatcher, logger: logger}
}

// UpdateProfile writes the non-empty fields of in and returns the stored account.
func (s *ProfileService) UpdateProfile(ctx context.Context, accountID string, in ProfileInput) (*domain.Account, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, apperrors.NewUnauthorized(MsgUnauthorizedUser)
	}

	in = trimProfile(in)
	if msgs := in.Validate(); len(msgs) > 0 {
		return nil, apperrors.NewValidationError(msgs)
	}

	patch, fields := profilePatch(in)
	account, err := s.accounts.Update(ctx, accountID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, apperrors.NewBadRequest(MsgUserNotUpdated)
		}
		return nil, apperrors.NewInternalError("Error on the server", err)
	}

	if len(fields) > 0 {
		publishEvent(ctx, s.dispatcher, s.logger, events.EventProfileUpdated, accountID, events.ProfileUpdatedPayload{Fields: fields})
	}
	return account, nil
}

func trimProfile(in ProfileInput) ProfileInput {
	for _, f := range []*string{
		&in.FirstName, &in.LastName, &in.NickName, &in.Phone, &in.Location, &in.Bio,
		&in.FacebookLink, &in.TwitterLink, &in.InstagramLink, &in.LinkedinLink, &in.YoutubeLink,
	} {
		*f = strings.TrimSpace(*f)
	}
	return in
}

// profilePatch keeps only the provided fields and names them for auditing.
func profilePatch(in ProfileInput) (domain.AccountPatch, []string) {
	var patch domain.AccountPatch
	var fields []string
	set := func(name, value string, dst **string) {
		if value == "" {
			return
		}
		v := value
		*dst = &v
		fields = append(fields, name)
	}

	set("firstName", in.FirstName, &patch.FirstName)
	set("lastName", in.LastName, &patch.LastName)
	set("nickName", in.NickName, &patch.NickName)
	set("phone", in.Phone, &patch.Phone)
	set("location", in.Location, &patch.Location)
	set("bio", in.Bio, &patch.Bio)
	set("facebookLink", in.FacebookLink, &patch.FacebookLink)
	set("twitterLink", in.TwitterLink, &patch.TwitterLink)
	set("instagramLink", in.InstagramLink, &patch.InstagramLink)
	set("linkedinLink", in.LinkedinLink, &patch.LinkedinLink)
	set("youtubeLink", in.YoutubeLink, &patch.YoutubeLink)
	if len(in.Picture) > 0 {
		set("picture", base64.StdEncoding.EncodeToString(in.Picture), &patch.Picture)
	}
	return patch, fields
}
