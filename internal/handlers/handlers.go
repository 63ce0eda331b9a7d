package handlers

import (
	"dicom-viewer/internal/database"
	"dicom-viewer/internal/filesystem"
	"dicom-viewer/internal/indexer"
)

type Handlers struct {
	db       *database.Database
	indexer  *indexer.Indexer
	retryCfg filesystem.RetryConfig
}

func New(db *database.Database, idx *indexer.Indexer) *Handlers {
	return &Handlers{
		db:       db,
		indexer:  idx,
		retryCfg: filesystem.DefaultRetryConfig(),
	}
}
