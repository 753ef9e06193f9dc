package common

// Роли пользователей. Роль хранится в users.role и приходит в claim role токена.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRole — известная роль.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
