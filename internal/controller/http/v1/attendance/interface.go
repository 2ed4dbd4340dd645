package attendance

import (
	"context"
	"mime/multipart"

	"attendance/workforce/internal/entity"
	"attendance/workforce/internal/repository/postgres/attendance"
	pipeline "attendance/workforce/internal/service/attendance"

	"github.com/google/uuid"
)

type Pipeline interface {
	CheckIn(ctx context.Context, req pipeline.CheckInRequest) (pipeline.CheckInResult, error)
	CheckOut(ctx context.Context, req pipeline.CheckOutRequest) (pipeline.CheckOutResult, error)
}

type Attendance interface {
	GetList(ctx context.Context, filter attendance.Filter) ([]attendance.GetListResponse, int, error)
	GetDetailById(ctx context.Context, id uuid.UUID) (attendance.GetDetailByIdResponse, error)
	UpdateValidity(ctx context.Context, request attendance.UpdateValidityRequest) error
}

type Tenant interface {
	GetInfo(ctx context.Context) (entity.Tenant, error)
}

type Storage interface {
	Save(file *multipart.FileHeader, folder string, allowed []string) (string, error)
}
