package user

import (
	"context"
	"mime/multipart"

	"attendance/workforce/internal/entity"
	"attendance/workforce/internal/repository/postgres/user"
)

type User interface {
	GetList(ctx context.Context, filter user.Filter) ([]user.GetListResponse, int, error)
	GetDetailById(ctx context.Context, id int) (entity.User, error)
	EmployeeIDs(ctx context.Context) (map[string]struct{}, error)
	Create(ctx context.Context, request user.CreateRequest) (entity.User, error)
	UpdateColumns(ctx context.Context, request user.UpdateRequest) error
	Delete(ctx context.Context, id int) error
}

type Storage interface {
	Save(file *multipart.FileHeader, folder string, allowed []string) (string, error)
}
