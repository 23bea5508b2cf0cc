// Package hubs содержит реестр торговых хабов и агрегатор расстояний до них.
package hubs

import (
	"errors"
	"fmt"
)

// ErrInvalidHub indicates that a hub definition is unusable
var ErrInvalidHub = errors.New("invalid hub")

// Hub представляет торговый хаб: солнечная система и станция в ней
type Hub struct {
	Name      string `yaml:"name"`
	SystemID  int32  `yaml:"system_id"`
	StationID int64  `yaml:"station_id"`
}

// Registry неизменяемый упорядоченный список хабов.
// Порядок вставки сохраняется во всех ответах.
type Registry struct {
	hubs []Hub
}

// NewRegistry создает реестр из списка хабов
func NewRegistry(hubs ...Hub) (*Registry, error) {
	if len(hubs) == 0 {
		return nil, fmt.Errorf("%w: registry is empty", ErrInvalidHub)
	}

	seen := make(map[string]struct{}, len(hubs))
	for _, h := range hubs {
		if h.Name == "" {
			return nil, fmt.Errorf("%w: empty name", ErrInvalidHub)
		}
		if h.SystemID <= 0 || h.StationID <= 0 {
			return nil, fmt.Errorf("%w: %s has non-positive id", ErrInvalidHub, h.Name)
		}
		if _, dup := seen[h.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %s", ErrInvalidHub, h.Name)
		}
		seen[h.Name] = struct{}{}
	}

	return &Registry{hubs: append([]Hub(nil), hubs...)}, nil
}

// DefaultHubs возвращает пять основных торговых хабов New Eden
func DefaultHubs() []Hub {
	return []Hub{
		{Name: "Amarr", SystemID: 30002187, StationID: 60008494},
		{Name: "Jita", SystemID: 30000142, StationID: 60003760},
		{Name: "Dodixie", SystemID: 30002659, StationID: 60011866},
		{Name: "Rens", SystemID: 30002510, StationID: 60004588},
		{Name: "Hek", SystemID: 30002053, StationID: 60005686},
	}
}

// DefaultRegistry возвращает реестр из DefaultHubs
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultHubs()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Hubs возвращает копию списка хабов в порядке реестра
func (r *Registry) Hubs() []Hub {
	return append([]Hub(nil), r.hubs...)
}

// Len возвращает количество хабов
func (r *Registry) Len() int {
	return len(r.hubs)
}
