package dto

import (
	"strings"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
)

type CreateAccountRequest struct {
	Email     string   `json:"email" validate:"required,email,max=255"`
	FirstName string   `json:"firstName" validate:"max=255"`
	LastName  string   `json:"lastName" validate:"max=255"`
	Password  string   `json:"password" validate:"required,max=72"`
	Enabled   bool     `json:"enabled"`
	Locked    bool     `json:"locked"`
	Roles     []string `json:"roles" validate:"omitempty,dive,harness_role"`
}

func (r *CreateAccountRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	return validateStruct(r)
}

func (r CreateAccountRequest) ToDomain() domain.NewAccount {
	roles := make([]domain.Role, 0, len(r.Roles))
	for _, s := range r.Roles {
		roles = append(roles, domain.Role(s))
	}
	return domain.NewAccount{
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Password:  r.Password,
		Enabled:   r.Enabled,
		Locked:    r.Locked,
		Roles:     roles,
	}
}

// EmailParam validates an email taken from the URL path. The value is
// matched exactly, so it is never trimmed.
type EmailParam struct {
	Email string `json:"email" validate:"required,email"`
}

func (p EmailParam) Validate() error {
	return validateStruct(&p)
}
