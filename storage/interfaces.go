package storage

import "basket-tracker/models"

// ObservationStore is the contract the pipeline depends on for price
// persistence.
type ObservationStore interface {
	Insert(obs models.PriceObservation) error
	FetchAll() ([]models.PriceObservation, error)
	Reset() error
	Close() error
}
