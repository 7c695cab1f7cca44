package observability

// Metric keys registered by prometrics.Standard. Label sets are fixed there.
const (
	// use_case, outcome
	MUsecaseRequests MetricKey = "usecase_requests_total"
	MUsecaseDuration MetricKey = "usecase_duration_seconds"

	// method, route, status; route is the gin pattern, never the raw path
	MHTTPRequests        MetricKey = "http_requests_total"
	MHTTPRequestDuration MetricKey = "http_request_duration_seconds"

	// peer, endpoint, outcome: the payment gateway and the event bus
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"

	// payment_method; counted after commit only
	MOrdersPlaced MetricKey = "orders_placed_total"
	// stage is "precheck" or "reserve"
	MStockConflicts MetricKey = "stock_conflicts_total"
)
