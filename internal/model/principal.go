package model

import "github.com/google/uuid"

type Role string

const (
	RoleEngineer   Role = "ENGINEER"
	RoleContractor Role = "CONTRACTOR"
	RoleDriver     Role = "DRIVER"
)

type Principal struct {
	UserID         uuid.UUID
	OrgID          uuid.UUID
	Role           Role
	ContractorName string
}

func (p Principal) IsEngineer() bool   { return p.Role == RoleEngineer }
func (p Principal) IsContractor() bool { return p.Role == RoleContractor }
func (p Principal) IsDriver() bool     { return p.Role == RoleDriver }
