package tenant

type UpdateRequest struct {
	Name     *string `json:"name"     form:"name"`
	Timezone *string `json:"timezone" form:"timezone"`
}
