package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
)

// jsonOptions renders timestamps readably instead of as epoch
// nanoseconds, ojg's default.
var jsonOptions = ojg.Options{Indent: 2, TimeFormat: time.RFC3339, UseTags: true}

// WriteXML renders the report as an XML document.
func WriteXML(w io.Writer, rep *Report) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("testreport")
	root.CreateAttr("runId", rep.RunID)
	root.CreateAttr("generatedAt", rep.GeneratedAt.Format(time.RFC3339))
	root.CreateAttr("elapsedMillis", strconv.FormatInt(rep.ElapsedMillis, 10))

	summary := root.CreateElement("summary")
	summary.CreateElement("totalRequests").SetText(strconv.Itoa(rep.TotalRequests))
	summary.CreateElement("droppedRequests").SetText(strconv.Itoa(rep.DroppedRequests))
	summary.CreateElement("skippedLines").SetText(strconv.Itoa(rep.SkippedLines))

	requests := root.CreateElement("requests")
	for _, r := range rep.Requests {
		e := requests.CreateElement("request")
		e.CreateElement("name").SetText(r.Name)
		e.CreateElement("count").SetText(strconv.Itoa(r.Count))
		e.CreateElement("errors").SetText(strconv.Itoa(r.Errors))
		e.CreateElement("minMillis").SetText(strconv.FormatInt(r.MinMillis, 10))
		e.CreateElement("maxMillis").SetText(strconv.FormatInt(r.MaxMillis, 10))
		e.CreateElement("meanMillis").SetText(strconv.FormatInt(r.MeanMillis, 10))
		e.CreateElement("p50Millis").SetText(strconv.FormatInt(r.P50Millis, 10))
		e.CreateElement("p95Millis").SetText(strconv.FormatInt(r.P95Millis, 10))
		e.CreateElement("p99Millis").SetText(strconv.FormatInt(r.P99Millis, 10))
		e.CreateElement("bytesSent").SetText(strconv.FormatInt(r.BytesSent, 10))
		e.CreateElement("bytesReceived").SetText(strconv.FormatInt(r.BytesReceived, 10))
	}

	methods := root.CreateElement("requestMethods")
	for _, m := range rep.RequestMethods {
		e := methods.CreateElement("requestMethod")
		e.CreateElement("method").SetText(m.Method)
		e.CreateElement("count").SetText(strconv.Itoa(m.Count))
	}

	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("writing XML report: %w", err)
	}
	return nil
}

// WriteJSON renders the report as indented JSON.
func WriteJSON(w io.Writer, rep *Report) error {
	data, err := oj.Marshal(rep, &jsonOptions)
	if err != nil {
		return fmt.Errorf("encoding JSON report: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing JSON report: %w", err)
	}
	return nil
}
