// Package api содержит типы JSON ответов публичного HTTP API
package api

// HubDistance представляет расстояние до одного торгового хаба.
// Сервер кодирует через него значения ответов search и update/distances.
type HubDistance struct {
	Distance  int   `json:"distance"`   // количество прыжков
	SystemID  int32 `json:"system_id"`  // солнечная система хаба
	StationID int64 `json:"station_id"` // торговая станция хаба
}

// CurrentSystem представляет текущую систему пилота (ответ update/location
// и ключ "current" ответа update/distances)
type CurrentSystem struct {
	Name     string `json:"name"`
	SystemID int32  `json:"system_id"`
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Pilots  int    `json:"pilots"` // количество пилотов в журнале входов
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // http.StatusText кода ответа
	Message string `json:"message,omitempty"` // описание для пользователя
	Kind    string `json:"kind,omitempty"`    // категория ошибки внешнего сервиса
}
