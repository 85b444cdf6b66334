package user

import (
	errors "github.com/Akechi360/clinic-ops/internal"
	"github.com/Akechi360/clinic-ops/internal/auth"
	"github.com/Akechi360/clinic-ops/internal/core/common/validation"
)

// CreateUserDTO registers a new account.
type CreateUserDTO struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
}

func (dto CreateUserDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("email", dto.Email).Required().MaxLength(255)
	v.Field("name", dto.Name).Required().MaxLength(200)
	v.Field("password", dto.Password).Required().MinLength(8).MaxLength(72)
	v.Field("role", dto.Role).OneOf(auth.RoleAdmin, auth.RoleApprover, auth.RoleStaff)
	v.Field("department", dto.Department).MaxLength(100)
	return v.Validate()
}

// UpdateUserDTO carries a partial update; nil fields are left unchanged.
type UpdateUserDTO struct {
	Name       *string `json:"name,omitempty"`
	Role       *string `json:"role,omitempty"`
	Department *string `json:"department,omitempty"`
	IsActive   *bool   `json:"is_active,omitempty"`
}

func (dto UpdateUserDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	if dto.Name != nil {
		v.Field("name", *dto.Name).Required().MaxLength(200)
	}
	if dto.Role != nil {
		v.Field("role", *dto.Role).Required().OneOf(auth.RoleAdmin, auth.RoleApprover, auth.RoleStaff)
	}
	if dto.Department != nil {
		v.Field("department", *dto.Department).MaxLength(100)
	}
	return v.Validate()
}

// ChangePasswordDTO sets a new password for an account.
type ChangePasswordDTO struct {
	Password string `json:"password"`
}

func (dto ChangePasswordDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("password", dto.Password).Required().MinLength(8).MaxLength(72)
	return v.Validate()
}

// ListFilter narrows List reads.
type ListFilter struct {
	Role     string
	IsActive *bool
	Limit    int
	Offset   int
}
