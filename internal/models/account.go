package models

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies which navigation stack and endpoint family a session uses.
type Role string

const (
	RoleBuyer    Role = "buyer"
	RoleProducer Role = "producer"
	RoleCourier  Role = "courier"
)

// Roles lists every supported role.
var Roles = []Role{RoleBuyer, RoleProducer, RoleCourier}

// ParseRole accepts a role name in any case.
func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch r {
	case RoleBuyer, RoleProducer, RoleCourier:
		return r, nil
	case "delivery", "deliveryman":
		return RoleCourier, nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// Account is a role-tagged user profile. Producers carry bank data, couriers
// carry vehicle data; the other fields are left empty.
type Account struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Role         Role      `json:"role" gorm:"uniqueIndex:idx_account_email_role;type:varchar(16)" validate:"required,oneof=buyer producer courier"`
	Name         string    `json:"name" validate:"required,min=3,max=100"`
	Email        string    `json:"email" gorm:"uniqueIndex:idx_account_email_role;type:varchar(255)" validate:"required,email"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255)"`
	CNPJ         string    `json:"cnpj,omitempty"`
	BankName     string    `json:"bankName,omitempty"`
	BankAccount  string    `json:"bankAccount,omitempty"`
	VehicleType  string    `json:"vehicleType,omitempty"`
	VehiclePlate string    `json:"vehiclePlate,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
