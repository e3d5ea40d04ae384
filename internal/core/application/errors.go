package application

import (
	"github.com/tesseract-network/tesseractd/internal/core/domain"
)

func errTransactionNotFound(id string) error {
	return domain.NewNotFoundError("transaction %s not found", id)
}

func errOrderNotFound(id string) error {
	return domain.NewNotFoundError("order %s not found", id)
}

func errTransactionIDUsed(id string) error {
	return domain.NewConflictError("transaction id %s already used", id)
}

func errOrderIDUsed(id string) error {
	return domain.NewConflictError("order id %s already used", id)
}

func errUnknownDependency(id string) error {
	return domain.NewValidationError("dependency transaction %s does not exist", id)
}
