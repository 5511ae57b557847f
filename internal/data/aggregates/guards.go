package aggregates

import (
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/lawflow-backend/internal/platform/apierr"
	"github.com/yungbote/lawflow-backend/internal/platform/dbctx"
)

// UpdateByStatus applies updates to table.id only while the row's status is
// one of allowedStatuses. The bool reports whether a row was changed.
// Callers inside InTx must pass the tx-bound dbctx.
func UpdateByStatus(dbc dbctx.Context, table string, id uuid.UUID, allowedStatuses []string, updates map[string]interface{}) (bool, error) {
	const op = "aggregates.update_by_status"
	if dbc.Tx == nil {
		return false, apierr.Internal(op, nil)
	}
	if strings.TrimSpace(table) == "" || id == uuid.Nil {
		return false, apierr.Validation(op, "table and id are required")
	}
	if len(allowedStatuses) == 0 {
		return false, apierr.Validation(op, "allowed statuses must not be empty")
	}
	res := dbc.DB(nil).
		Table(table).
		Where("id = ? AND status IN ?", id, allowedStatuses).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RequireCASSuccess turns a lost compare-and-set into a Conflict about id.
func RequireCASSuccess(ok bool, op, id, message string) error {
	if ok {
		return nil
	}
	return apierr.Conflict(op, id, strings.TrimSpace(message))
}
