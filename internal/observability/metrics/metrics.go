// Package metrics emits the dashboard's standard StatsD metrics.
package metrics

import (
	"strconv"
	"strings"
	"time"

	obserrors "github.com/target/recon-console/internal/observability/errors"
	"github.com/target/recon-console/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// GatewayCall captures one outbound backend call.
type GatewayCall struct {
	API      string
	Method   string
	Status   int
	Duration time.Duration
	Err      error
}

// EmitGatewayCall emits gateway.request timing and, on failure, a gateway.error count.
func EmitGatewayCall(sink statsd.Sink, in GatewayCall) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"api":    in.API,
		"method": strings.ToLower(in.Method),
		"status": statusTag(in.Status),
		"result": ResultSuccess,
	}
	if in.Err != nil {
		tags["result"] = ResultError
	}

	sink.Timing("gateway.request", in.Duration, tags)

	if in.Err != nil {
		errTags := CloneTags(tags)
		if class := obserrors.Classify(in.Err); class != "" {
			errTags["error_class"] = class
		}
		sink.Count("gateway.error", 1, errTags)
	}
}

// UploadOutcome captures the end of a bulk upload submission.
type UploadOutcome struct {
	Extension string
	Bytes     int64
	Duration  time.Duration
	Err       error
}

// EmitUpload records upload.submitted with size and duration.
func EmitUpload(sink statsd.Sink, in UploadOutcome) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"ext":    strings.TrimPrefix(in.Extension, "."),
		"result": ResultSuccess,
	}
	if in.Err != nil {
		tags["result"] = ResultError
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}
	sink.Count("upload.submitted", 1, tags)
	sink.Gauge("upload.bytes", float64(in.Bytes), CloneTags(tags))
	if in.Duration > 0 {
		sink.Timing("upload.duration", in.Duration, CloneTags(tags))
	}
}

// EmitAuthFailure counts backend-signalled 401/403 responses.
func EmitAuthFailure(sink statsd.Sink, status int) {
	if sink == nil {
		return
	}
	sink.Count("auth.backend_rejection", 1, map[string]string{"status": statusTag(status)})
}

func statusTag(status int) string {
	if status <= 0 {
		return "none"
	}
	return strconv.Itoa(status)
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
