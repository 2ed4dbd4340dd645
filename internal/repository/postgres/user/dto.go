package user

type Filter struct {
	Limit  *int
	Offset *int
	Page   *int
	Search *string
	Role   *string
}

type SignInRequest struct {
	TenantID   int    `json:"tenant_id"   form:"tenant_id"`
	EmployeeID string `json:"employee_id" form:"employee_id"`
	Password   string `json:"password"    form:"password"`
}

type RefreshTokenRequest struct {
	AccessToken string `json:"access_token" form:"access_token"`
}

type GetListResponse struct {
	ID            int     `json:"id"             bun:"id"`
	EmployeeID    *string `json:"employee_id"    bun:"employee_id"`
	FullName      *string `json:"full_name"      bun:"full_name"`
	Role          *string `json:"role"           bun:"role"`
	Phone         *string `json:"phone"          bun:"phone"`
	HasFacePhoto  bool    `json:"has_face_photo" bun:"has_face_photo"`
	PointsBalance int     `json:"points_balance" bun:"points_balance"`
}

type CreateRequest struct {
	EmployeeID   *string `json:"employee_id"    form:"employee_id"`
	Password     *string `json:"password"       form:"password"`
	Role         *string `json:"role"           form:"role"`
	FullName     *string `json:"full_name"      form:"full_name"`
	Phone        *string `json:"phone"          form:"phone"`
	Locale       *string `json:"locale"         form:"locale"`
	FacePhotoURL *string `json:"face_photo_url" form:"face_photo_url"`
}

type UpdateRequest struct {
	ID           int     `json:"id"             form:"id"`
	Password     *string `json:"password"       form:"password"`
	Role         *string `json:"role"           form:"role"`
	FullName     *string `json:"full_name"      form:"full_name"`
	Phone        *string `json:"phone"          form:"phone"`
	Locale       *string `json:"locale"         form:"locale"`
	FacePhotoURL *string `json:"face_photo_url" form:"face_photo_url"`
}
