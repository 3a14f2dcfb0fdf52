package redisx

import "time"

const (
	// Order status cache: order_status:{reference} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
)
