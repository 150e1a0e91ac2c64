package model

import (
	"strings"

	"github.com/muroom-studio/muroom-admin/pkg/apperr"
)

// OwnerCreateRequest registers a studio owner.
type OwnerCreateRequest struct {
	Nickname    string `json:"nickname"`
	PhoneNumber string `json:"phoneNumber"`
}

// Normalize trims the fields and strips hyphens from the phone number.
func (r *OwnerCreateRequest) Normalize() {
	r.Nickname = strings.TrimSpace(r.Nickname)
	r.PhoneNumber = strings.ReplaceAll(strings.TrimSpace(r.PhoneNumber), "-", "")
}

func (r *OwnerCreateRequest) Validate() error {
	v := &apperr.ValidationError{}
	if r.Nickname == "" {
		v.Add("nickname", "generate a nickname first")
	}
	if r.PhoneNumber == "" {
		v.Add("phoneNumber", "phone number is required")
	}
	return v.OrNil()
}
