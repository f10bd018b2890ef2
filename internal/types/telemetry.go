package types

// Telemetry metric names for CloudWatch.
const (
	MetricDeliveryAttempt = "DeliveryAttempt"
	MetricDeliveryLatency = "DeliveryLatency"
	MetricSendPass        = "SendPass"

	DimBackend = "Backend"
	DimResult  = "Result"

	MetricResultSuccess = "success"
	MetricResultFailure = "failure"

	MetricNamespace = "RecruiterMailer"
)
