package telemetry_core

// Sender delivers a finished record. Implementations must not block the
// caller on network I/O and must not report delivery failures back.
type Sender interface {
	Send(record *ErrorRecord)
}

// BreadcrumbSource exposes the most recent breadcrumbs, oldest first.
type BreadcrumbSource interface {
	Recent(n int) []Breadcrumb
}
