package report

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"durasim/internal/simulation"
)

// Summary describes a result in two lines.
func Summary(r simulation.Result) string {
	s := r.Scenario
	return fmt.Sprintf(
		"Simulating %d nodes with %d records, redundancy of %d and %s record storing\n"+
			"Killing %d arbitrary nodes results in data loss in %d%% cases",
		s.Nodes, s.Records, s.Replication, s.Mode,
		s.FailureSetSize, r.Estimate.Percent,
	)
}

// Table describes several results of one scenario, one line per failure
// set size.
func Table(results []simulation.Result) string {
	if len(results) == 0 {
		return ""
	}
	s := results[0].Scenario
	var b strings.Builder
	fmt.Fprintf(&b, "Simulating %d nodes with %d records, redundancy of %d and %s record storing\n",
		s.Nodes, s.Records, s.Replication, s.Mode)
	for _, r := range results {
		fmt.Fprintf(&b, "Killing %d arbitrary nodes results in data loss in %d%% cases\n",
			r.Scenario.FailureSetSize, r.Estimate.Percent)
	}
	return b.String()
}

// JSON encodes results as a JSON document.
func JSON(results []simulation.Result) ([]byte, error) {
	items := make([]any, 0, len(results))
	for _, r := range results {
		items = append(items, resultFields(r))
	}
	return marshal(map[string]any{"results": items})
}

// ErrorJSON encodes err with its status code and hints as a JSON document.
func ErrorJSON(err error) ([]byte, error) {
	st := Status(err)
	hints := make([]any, 0)
	for _, h := range errors.GetAllHints(err) {
		hints = append(hints, h)
	}
	return marshal(map[string]any{
		"error": map[string]any{
			"code":    st.Code().String(),
			"message": st.Message(),
			"hints":   hints,
		},
	})
}

func resultFields(r simulation.Result) map[string]any {
	s := r.Scenario
	return map[string]any{
		"run_id":       r.RunID,
		"name":         s.Name,
		"nodes":        s.Nodes,
		"capacity":     s.NodeCapacity(),
		"replication":  s.Replication,
		"records":      s.Records,
		"mode":         s.Mode.String(),
		"seed":         s.Seed,
		"kill":         s.FailureSetSize,
		"enumeration":  r.Estimate.Enumeration.String(),
		"trials":       r.Estimate.Trials,
		"failed":       r.Estimate.FailedTrials,
		"loss_percent": r.Estimate.Percent,
		"elapsed_ms":   float64(r.Elapsed.Microseconds()) / 1000,
	}
}

func marshal(fields map[string]any) ([]byte, error) {
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, errors.Wrap(err, "building report")
	}
	return protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(st)
}
