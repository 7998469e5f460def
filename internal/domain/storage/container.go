package storage

import (
	"divemap/internal/domain/reviews"
	"divemap/internal/domain/venues"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Container wires the domain repositories to one shared pool. The reviews
// repository owns its transactions internally (review write + aggregate
// recompute are one unit of work), so no tx-scoped variant is exposed here.
type Container struct {
	pool    *pgxpool.Pool
	Venues  venues.Store
	Reviews reviews.Store
}

func NewContainer(db *pgxpool.Pool) *Container {
	return &Container{
		pool:    db,
		Venues:  venues.NewRepository(db),
		Reviews: reviews.NewRepository(db),
	}
}
