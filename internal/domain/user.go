package domain

import "time"

// Role роль пользователя
type Role string

const (
	RoleUser  Role = "USER"
	RoleStaff Role = "STAFF"
	RoleAdmin Role = "ADMIN"
)

// User пользователь платформы
type User struct {
	ID            int64
	Email         string
	Name          string
	Role          Role
	DateOfBirth   *time.Time
	WalletBalance float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsStaff STAFF или ADMIN
func (u *User) IsStaff() bool {
	return u.Role == RoleStaff || u.Role == RoleAdmin
}

// AgeAt полных лет на дату now, день рождения в текущем году ещё не наступил - год не засчитывается
func AgeAt(birth, now time.Time) int {
	now = now.In(birth.Location())
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}
