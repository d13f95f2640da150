package model

import (
	"time"

	"github.com/dmarchuk/assetmarket/internal/domain/enums"
)

type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Image     string     `json:"image,omitempty"`
	Role      enums.Role `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
}
