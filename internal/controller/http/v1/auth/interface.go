package auth

import (
	"context"

	"attendance/workforce/internal/auth"
	"attendance/workforce/internal/entity"
)

type User interface {
	GetByEmployeeID(ctx context.Context, tenantID int, employeeID string) (entity.User, error)
}

type Tokens interface {
	GenerateToken(claims auth.Claims) (string, error)
	ValidateToken(tokenStr string) (auth.Claims, error)
}
