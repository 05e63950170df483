package domain

type Member struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	IsHost   bool   `json:"is_host"`
}
