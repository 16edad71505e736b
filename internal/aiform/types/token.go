package types

import "time"

// Сроки жизни токенов доступа.
const (
	TokenExpiresPeriod        = time.Hour * 24
	RefreshTokenExpiresPeriod = time.Hour * 24 * 7
)
