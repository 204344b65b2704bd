package report

import "errors"

// ErrReport wraps every failure while building a workbook.
var ErrReport = errors.New("report generation failed")
