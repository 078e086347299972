package broker

import (
	"goflare.io/broker/internal/config"
	"goflare.io/broker/internal/models"
)

var (
	ErrUnknownKind  = models.ErrUnknownKind
	ErrNotFound     = models.ErrNotFound
	ErrClosed       = models.ErrClosed
	ErrInvalidLimit = config.ErrInvalidLimit
)
