package user

type RoleReq struct {
	Role string `json:"role" validate:"required"`
}

type ActiveReq struct {
	IsActive *bool `json:"is_active" validate:"required"`
}
