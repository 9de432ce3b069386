package backend

import (
	"context"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// File is a downloaded export
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReportExportRequest is the body of /reports/export/{format}
type ReportExportRequest struct {
	ReportType string `json:"report_type"`
	DateRange  string `json:"date_range"`
	Data       any    `json:"data"`
}

// SalesExportQuery selects the range of a sales export
type SalesExportQuery struct {
	ExportType string
	StartDate  string
	EndDate    string
}

// ExportReport asks the backend to render a report document. Name is empty
// when the response carries no filename hint.
func (c *Client) ExportReport(ctx context.Context, format string, in ReportExportRequest) (*File, error) {
	return c.download(ctx, request{
		method:   http.MethodPost,
		endpoint: "reports.export",
		path:     "/reports/export/" + url.PathEscape(format),
		body:     in,
	})
}

// ExportSales downloads the sales export for a range.
func (c *Client) ExportSales(ctx context.Context, format string, q SalesExportQuery) (*File, error) {
	query := url.Values{"exportType": []string{q.ExportType}}
	if q.StartDate != "" {
		query.Set("startDate", q.StartDate)
	}
	if q.EndDate != "" {
		query.Set("endDate", q.EndDate)
	}

	return c.download(ctx, request{
		method:   http.MethodGet,
		endpoint: "sales.export",
		path:     "/reports/sales/export/" + url.PathEscape(format),
		query:    query,
	})
}

func (c *Client) download(ctx context.Context, r request) (*File, error) {
	resp, data, err := c.send(ctx, r)
	if err != nil {
		return nil, err
	}
	return &File{
		Name:        FilenameFromDisposition(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

var filenamePattern = regexp.MustCompile(`filename="?([^";]+)"?`)

// FilenameFromDisposition extracts the filename hint of a Content-Disposition
// header, or returns "".
func FilenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := strings.TrimSpace(params["filename"]); name != "" {
			return name
		}
	}
	if m := filenamePattern.FindStringSubmatch(header); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
