package hubs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/iancoleman/orderedmap"

	"github.com/iudanet/traderouter/internal/upstream"
	"github.com/iudanet/traderouter/pkg/api"
)

// RouteFinder возвращает маршрут между двумя системами как упорядоченный
// список ID систем, включая начальную и конечную
type RouteFinder interface {
	Route(ctx context.Context, origin, destination int32) ([]int32, error)
}

// DistanceEntry расстояние от системы пилота до одного хаба.
// В JSON попадает только api.HubDistance, имя хаба становится ключом объекта.
type DistanceEntry struct {
	Hub string
	api.HubDistance
}

// Distances расстояния до всех хабов в порядке реестра
type Distances []DistanceEntry

// Ordered возвращает расстояния как упорядоченный JSON объект {hub: entry}.
// Вызывающий код может добавить свои ключи (например "current").
func (d Distances) Ordered() *orderedmap.OrderedMap {
	om := orderedmap.New()
	for _, e := range d {
		om.Set(e.Hub, e.HubDistance)
	}
	return om
}

// MarshalJSON кодирует расстояния объектом, ключи идут в порядке реестра
func (d Distances) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Ordered())
}

// Aggregator считает прыжки до каждого хаба через внешний сервис маршрутов
type Aggregator struct {
	routes   RouteFinder
	registry *Registry
	logger   *slog.Logger
}

// NewAggregator создает новый агрегатор
func NewAggregator(routes RouteFinder, registry *Registry, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		routes:   routes,
		registry: registry,
		logger:   logger,
	}
}

// Distances запрашивает маршрут от origin до каждого хаба по очереди.
// Первая ошибка прерывает агрегацию целиком: частичный результат не возвращается.
func (a *Aggregator) Distances(ctx context.Context, origin int32) (Distances, error) {
	result := make(Distances, 0, a.registry.Len())

	for _, hub := range a.registry.hubs {
		path, err := a.routes.Route(ctx, origin, hub.SystemID)
		if err != nil {
			a.logger.WarnContext(ctx, "route query failed",
				slog.String("hub", hub.Name),
				slog.Int("origin", int(origin)),
				slog.Any("error", err))
			return nil, fmt.Errorf("%w: hub %s: %w", upstream.ErrRoute, hub.Name, err)
		}
		if len(path) == 0 {
			return nil, fmt.Errorf("%w: hub %s: %w: empty route", upstream.ErrRoute, hub.Name, upstream.ErrMalformed)
		}

		result = append(result, DistanceEntry{
			Hub: hub.Name,
			HubDistance: api.HubDistance{
				Distance:  len(path) - 1,
				SystemID:  hub.SystemID,
				StationID: hub.StationID,
			},
		})
	}

	a.logger.DebugContext(ctx, "hub distances computed",
		slog.Int("origin", int(origin)),
		slog.Int("hubs", len(result)))

	return result, nil
}
