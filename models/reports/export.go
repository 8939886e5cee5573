package reports

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dpcompass/compass_backend/config"
	"github.com/dpcompass/compass_backend/models"
	"github.com/dpcompass/compass_backend/utils"
	"github.com/sirupsen/logrus"
)

type Format string

const (
	FormatHTML  Format = "html"
	FormatExcel Format = "xlsx"
)

func (f Format) ContentType() string {
	if f == FormatExcel {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/html; charset=utf-8"
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "html":
		return FormatHTML, nil
	case "xlsx", "excel":
		return FormatExcel, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

func reportSlowMs() int64 {
	// Env: REPORT_SLOW_MS (default 500ms)
	ms := int64(500)
	if v := strings.TrimSpace(os.Getenv("REPORT_SLOW_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			ms = n
		}
	}
	return ms
}

func logSlowReport(ctx context.Context, reportId int, format Format, started time.Time) {
	d := time.Since(started)
	if d.Milliseconds() < reportSlowMs() {
		return
	}
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	config.GetLogger().WithFields(logrus.Fields{
		"field":          "slow_report",
		"report_id":      reportId,
		"format":         format,
		"ms":             d.Milliseconds(),
		"correlation_id": cid,
	}).Warn("slow report export")
}

// Export renders the report in the requested format.
func Export(ctx context.Context, w io.Writer, export *models.ReportExport, format Format) error {
	started := time.Now()
	defer logSlowReport(ctx, export.Report.ID, format, started)

	if format == FormatExcel {
		return RenderExcel(w, export)
	}
	return RenderHTML(w, export)
}
