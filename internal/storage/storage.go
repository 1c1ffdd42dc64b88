package storage

import "fixedpool/internal/model"

// Storage defines a sink for executed transfer records.
type Storage interface {
	PutTransferBatch(transfers []model.TransferRecord) error
}
