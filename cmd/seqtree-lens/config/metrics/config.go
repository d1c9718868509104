package metricsconfig

import (
	"github.com/nspcc-dev/seqtree/cmd/seqtree-lens/config"
)

const subsection = "metrics"

// Textfile returns the value of "textfile" config parameter from "metrics"
// section: the file metrics are written to in Prometheus text format when the
// command finishes.
//
// Returns "" if the value is not set, metrics are not written then.
func Textfile(c *config.Config) string {
	return config.StringSafe(c.Sub(subsection), "textfile")
}
