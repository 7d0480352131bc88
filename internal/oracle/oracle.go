// Package oracle turns a cycle's market and account context into a single
// trading decision.
package oracle

import (
	"context"

	"github.com/kjannette/bullionaire-backend/internal/models"
)

type Oracle interface {
	Decide(ctx context.Context, in models.OracleInput) (models.DecisionResult, error)
}
