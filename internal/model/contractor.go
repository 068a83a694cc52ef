package model

import "github.com/google/uuid"

type Contractor struct {
	ID      uuid.UUID
	Name    string
	Phone   string
	Address string
}

type Vehicle struct {
	ID           uuid.UUID
	Plate        string
	ContractorID *uuid.UUID
}
