package domain

import "time"

// Profile holds the user-editable part of an account.
type Profile struct {
	FirstName     string `json:"firstName" bson:"firstName"`
	LastName      string `json:"lastName" bson:"lastName"`
	NickName      string `json:"nickName,omitempty" bson:"nickName,omitempty"`
	Phone         string `json:"phone,omitempty" bson:"phone,omitempty"`
	Location      string `json:"location,omitempty" bson:"location,omitempty"`
	Bio           string `json:"bio,omitempty" bson:"bio,omitempty"`
	Picture       string `json:"picture,omitempty" bson:"picture,omitempty"`
	FacebookLink  string `json:"facebookLink,omitempty" bson:"facebookLink,omitempty"`
	TwitterLink   string `json:"twitterLink,omitempty" bson:"twitterLink,omitempty"`
	InstagramLink string `json:"instagramLink,omitempty" bson:"instagramLink,omitempty"`
	LinkedinLink  string `json:"linkedinLink,omitempty" bson:"linkedinLink,omitempty"`
	YoutubeLink   string `json:"youtubeLink,omitempty" bson:"youtubeLink,omitempty"`
}

// Account is the persisted user record. ID is immutable once created.
type Account struct {
	ID              string `json:"id" bson:"_id"`
	Email           string `json:"email" bson:"email"`
	PasswordHash    string `json:"-" bson:"password"`
	Profile         `bson:",inline"`
	IsOnline        bool      `json:"isOnline" bson:"isOnline"`
	LastAccessToken string    `json:"-" bson:"accessToken,omitempty"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}

// AccountPatch lists the fields to overwrite; nil pointers are left untouched.
type AccountPatch struct {
	PasswordHash    *string
	IsOnline        *bool
	LastAccessToken *string

	FirstName     *string
	LastName      *string
	NickName      *string
	Phone         *string
	Location      *string
	Bio           *string
	Picture       *string
	FacebookLink  *string
	TwitterLink   *string
	InstagramLink *string
	LinkedinLink  *string
	YoutubeLink   *string
}

// IsEmpty reports whether the patch changes nothing.
func (p AccountPatch) IsEmpty() bool {
	return p == AccountPatch{}
}

// Apply writes the patch onto a copy of the account.
func (p AccountPatch) Apply(a Account) Account {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&a.PasswordHash, p.PasswordHash)
	set(&a.LastAccessToken, p.LastAccessToken)
	if p.IsOnline != nil {
		a.IsOnline = *p.IsOnline
	}
	set(&a.FirstName, p.FirstName)
	set(&a.LastName, p.LastName)
	set(&a.NickName, p.NickName)
	set(&a.Phone, p.Phone)
	set(&a.Location, p.Location)
	set(&a.Bio, p.Bio)
	set(&a.Picture, p.Picture)
	set(&a.FacebookLink, p.FacebookLink)
	set(&a.TwitterLink, p.TwitterLink)
	set(&a.InstagramLink, p.InstagramLink)
	set(&a.LinkedinLink, p.LinkedinLink)
	set(&a.YoutubeLink, p.YoutubeLink)
	return a
}
