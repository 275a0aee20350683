package payments

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var orderIDPattern = regexp.MustCompile(`^order_(\d+)_(\d+)_(\d+)(?:_[0-9a-f]{12})?$`)

// NewOrderID returns order_{creator}_{tier}_{unixMillis}_{12 hex}. The random
// suffix keeps ids issued in the same millisecond apart.
func NewOrderID(creatorID, tierID int64, at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("order_%d_%d_%d_%s", creatorID, tierID, at.UnixMilli(), suffix)
}

// OrderRef is what an order id tells about itself.
type OrderRef struct {
	CreatorID int64
	TierID    int64
	IssuedAt  time.Time
}

// ParseOrderID decodes an id produced by NewOrderID. Ids without the random
// suffix are accepted too.
func ParseOrderID(id string) (OrderRef, bool) {
	m := orderIDPattern.FindStringSubmatch(strings.TrimSpace(id))
	if m == nil {
		return OrderRef{}, false
	}
	creatorID, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return OrderRef{}, false
	}
	tierID, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return OrderRef{}, false
	}
	millis, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return OrderRef{}, false
	}
	return OrderRef{CreatorID: creatorID, TierID: tierID, IssuedAt: time.UnixMilli(millis).UTC()}, true
}

// SubscriptionRef is the stable subscription id sent to the gateway for a
// monthly order, so retries address the same gateway record.
func SubscriptionRef(orderID string) string {
	return "sub_" + orderID
}
