package synapse

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/pseudomuto/synapse-transformation/pkg/utils"
)

// SessionContextKey is the session context key read by workload management
// classifiers.
const SessionContextKey = "wlm_context"

// SetSessionContext tags the session for workload management. A nil value
// clears the tag.
//
// Example:
//
//	if err := client.SetSessionContext(ctx, utils.Ptr("heavy-etl")); err != nil {
//		return err
//	}
//	defer client.SetSessionContext(ctx, nil)
func (c *Client) SetSessionContext(ctx context.Context, value *string) error {
	stmt := SessionContextStatement(value)
	if _, err := c.Exec(ctx, stmt); err != nil {
		return errors.Wrap(err, "failed to set the session context")
	}
	return nil
}

// SessionContextStatement renders the procedure call used by SetSessionContext.
func SessionContextStatement(value *string) string {
	return fmt.Sprintf(
		"EXEC sys.sp_set_session_context @key = '%s', @value = %s;",
		SessionContextKey,
		utils.QuoteNullableString(value),
	)
}
