package telemetry_core

type BreadcrumbCategory string

const (
	BreadcrumbCategoryNavigation BreadcrumbCategory = "navigation"
	BreadcrumbCategoryConsole    BreadcrumbCategory = "console"
	BreadcrumbCategoryHTTP       BreadcrumbCategory = "http"
	BreadcrumbCategoryUser       BreadcrumbCategory = "user"
	BreadcrumbCategoryError      BreadcrumbCategory = "error"
)

func (c BreadcrumbCategory) IsValid() bool {
	switch c {
	case BreadcrumbCategoryNavigation, BreadcrumbCategoryConsole, BreadcrumbCategoryHTTP,
		BreadcrumbCategoryUser, BreadcrumbCategoryError:
		return true
	default:
		return false
	}
}

type BreadcrumbLevel string

const (
	BreadcrumbLevelInfo    BreadcrumbLevel = "info"
	BreadcrumbLevelWarning BreadcrumbLevel = "warning"
	BreadcrumbLevelError   BreadcrumbLevel = "error"
)

func (l BreadcrumbLevel) IsValid() bool {
	switch l {
	case BreadcrumbLevelInfo, BreadcrumbLevelWarning, BreadcrumbLevelError:
		return true
	default:
		return false
	}
}

// RecordType is how an error reached the reporter. The wire values are shared
// with the browser bundle, which is why render errors are "react".
type RecordType string

const (
	RecordTypeError              RecordType = "error"
	RecordTypeUnhandledRejection RecordType = "unhandledrejection"
	RecordTypeRender             RecordType = "react"
)

func (t RecordType) IsValid() bool {
	switch t {
	case RecordTypeError, RecordTypeUnhandledRejection, RecordTypeRender:
		return true
	default:
		return false
	}
}

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

func (s Severity) IsValid() bool {
	switch s {
	case SeverityError, SeverityWarning, SeverityInfo:
		return true
	default:
		return false
	}
}
