// Package requestdata provides the request record read from load-test
// result files and a reader for the CSV timer format those files use.
//
// A timer file contains one line per recorded event. Request lines
// start with the record type "R" followed by the request name, the
// start timestamp in epoch milliseconds, the runtime in milliseconds,
// a failed flag, bytes sent and received, the HTTP response code, the
// URL, the content type, the HTTP method, the agent name, and the
// transaction name. Lines with other record types belong to other
// event kinds and are skipped by the reader.
//
// This is a leaf package with no internal dependencies, so any layer
// of the report pipeline can import it without creating cycles.
package requestdata
