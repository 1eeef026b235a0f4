package dto

type UpdateSettingRequest struct {
	Value string `json:"value" validate:"required,max=500"`
}

type SettingResponse struct {
	Key         string  `json:"key"`
	Value       string  `json:"value"`
	Description *string `json:"description"`
	UpdatedAt   string  `json:"updated_at"`
}
