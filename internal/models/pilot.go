package models

import "time"

// Pilot представляет персонажа EVE, хотя бы раз вошедшего через SSO.
// Хранится в журнале входов, токены сюда не попадают.
type Pilot struct {
	FirstSeen    time.Time `json:"first_seen"`     // время первого входа
	LastSeen     time.Time `json:"last_seen"`      // время последнего обращения
	Name         string    `json:"name"`           // имя персонажа
	ID           int64     `json:"id"`             // CharacterID из EVE SSO
	LastSystemID int32     `json:"last_system_id"` // последняя известная солнечная система (0 - неизвестна)
}

// Location представляет текущее положение пилота по данным ESI
type Location struct {
	SolarSystemID int32 `json:"solar_system_id"`
	StationID     int64 `json:"station_id,omitempty"` // 0 если пилот в космосе
}

// Session представляет аутентифицированный контекст одного запроса.
// Восстанавливается заново из refresh token на каждом запросе и нигде не хранится.
type Session struct {
	PilotName    string
	AccessToken  string
	RefreshToken string // может отличаться от исходного, если SSO ротировал токен
	PilotID      int64
	Location     Location
}
