package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/muroom-studio/muroom-admin/pkg/apperr"
)

type TermsType string

const (
	TermsOfUse        TermsType = "TERMS_OF_USE"
	PrivacyCollection TermsType = "PRIVACY_COLLECTION"
	PrivacyProcessing TermsType = "PRIVACY_PROCESSING"
	MarketingReceive  TermsType = "MARKETING_RECEIVE"
)

// AllTermsTypes is the full type list used by the terms listing.
var AllTermsTypes = []TermsType{TermsOfUse, PrivacyCollection, PrivacyProcessing, MarketingReceive}

type TargetRole string

const (
	RoleOwner    TargetRole = "OWNER"
	RoleMusician TargetRole = "MUSICIAN"
)

// TermsForm is what the terms editor submits. The effective date and time
// are wall-clock values in the dashboard's time zone.
type TermsForm struct {
	Code          TermsType  `json:"code"`
	TargetRole    TargetRole `json:"targetRole"`
	IsMandatory   *bool      `json:"isMandatory"`
	Title         string     `json:"title"`
	EffectiveDate string     `json:"effectiveDate"`
	EffectiveTime string     `json:"effectiveTime"`
	Content       string     `json:"content"`
}

// TermsCreateRequest is the payload of POST /api/v1/terms.
type TermsCreateRequest struct {
	Code        TermsType  `json:"code"`
	TargetRole  TargetRole `json:"targetRole"`
	IsMandatory bool       `json:"isMandatory"`
	Title       string     `json:"title"`
	EffectiveAt string     `json:"effectiveAt"`
	Content     string     `json:"content"`
}

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// ToRequest validates the form and converts it into the create payload.
func (f TermsForm) ToRequest(loc *time.Location) (*TermsCreateRequest, error) {
	v := &apperr.ValidationError{}

	switch f.Code {
	case TermsOfUse, PrivacyCollection, PrivacyProcessing, MarketingReceive:
	case "":
		v.Add("code", "select a terms type")
	default:
		v.Add("code", "unknown terms type %q", f.Code)
	}
	switch f.TargetRole {
	case RoleOwner, RoleMusician:
	case "":
		v.Add("targetRole", "select a target role")
	default:
		v.Add("targetRole", "unknown target role %q", f.TargetRole)
	}
	if strings.TrimSpace(f.Title) == "" {
		v.Add("title", "title is required")
	}

	var effective time.Time
	if f.EffectiveDate == "" || f.EffectiveTime == "" {
		v.Add("effectiveAt", "effective date and time are required")
	} else {
		t, err := time.ParseInLocation("2006-01-02T15:04", f.EffectiveDate+"T"+f.EffectiveTime, loc)
		if err != nil {
			v.Add("effectiveAt", "invalid date or time")
		}
		effective = t
	}
	if strings.TrimSpace(htmlTag.ReplaceAllString(f.Content, "")) == "" {
		v.Add("content", "content is required")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	mandatory := true
	if f.IsMandatory != nil {
		mandatory = *f.IsMandatory
	}
	return &TermsCreateRequest{
		Code:        f.Code,
		TargetRole:  f.TargetRole,
		IsMandatory: mandatory,
		Title:       f.Title,
		EffectiveAt: effective.UTC().Format("2006-01-02T15:04:05.000Z"),
		Content:     f.Content,
	}, nil
}

type TermsCode struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// RoleField decodes a target role that the backend sends either as a bare
// string or as a {code, description} object.
type RoleField struct {
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

func (r *RoleField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &r.Code)
	}
	if data[0] != '{' {
		return fmt.Errorf("target role: unexpected JSON %s", data)
	}
	type plain RoleField
	return json.Unmarshal(data, (*plain)(r))
}

type TermItem struct {
	TermID      int64     `json:"termId"`
	Code        TermsCode `json:"code"`
	TargetRole  RoleField `json:"targetRole"`
	Version     string    `json:"version"`
	IsMandatory bool      `json:"isMandatory"`
	EffectiveAt string    `json:"effectiveAt"`
}

// TermContent is the body of one terms document; Content is HTML.
type TermContent struct {
	TermID  int64  `json:"termId"`
	Content string `json:"content"`
}
