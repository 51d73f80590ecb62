package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// newOrderNo builds the externally visible order number:
// a second-precision UTC timestamp plus six random uppercase hex
// characters. Uniqueness is enforced by the orders.order_no constraint;
// a collision here is retried by the service, not prevented.
func newOrderNo(now time.Time) string {
	suffix := strings.ToUpper(uuid.New().String()[:6])
	return now.UTC().Format("20060102150405") + "-" + suffix
}
