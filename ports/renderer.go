package ports

import (
	"modelcheck/domain/report"
)

// RendererPort turns an assembled report into a presentation artifact.
// Rendering is purely a formatting concern; renderers must show every
// warning the report carries.
type RendererPort interface {
	// Render returns the artifact bytes and a suggested file extension
	Render(r report.Report) ([]byte, string, error)
}
