package requestdata

import "time"

// Request is one recorded request from a load-test run.
type Request struct {
	// Name is the request name as recorded by the test scenario. The
	// report pipeline rewrites it when a merge rule matches.
	Name string

	// Timestamp is when the request was started.
	Timestamp time.Time

	// RunTime is the total time the request took.
	RunTime time.Duration

	// Failed indicates the request did not complete successfully.
	Failed bool

	// BytesSent is the size of the request body in bytes.
	BytesSent int64

	// BytesReceived is the size of the response body in bytes.
	BytesReceived int64

	// ResponseCode is the HTTP status code of the response, 0 if the
	// request never produced one.
	ResponseCode int

	// URL is the full request URL.
	URL string

	// ContentType is the content type of the response.
	ContentType string

	// Method is the HTTP request method.
	Method string

	// AgentName is the name of the load agent that issued the request.
	AgentName string

	// TransactionName is the name of the transaction the request ran in.
	TransactionName string
}
