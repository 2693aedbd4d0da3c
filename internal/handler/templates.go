package handler

import (
	"embed"
	"html/template"

	"student-dashboard/internal/records"
)

//go:embed templates/*.html
var templatesFS embed.FS

const chartHeight = 160

var templateFuncs = template.FuncMap{
	// barHeight scales a chart value to pixels against the series maximum.
	"barHeight": func(value int, series []records.DistributionPoint) int {
		peak := 0
		for _, p := range series {
			peak = max(peak, p.Class10, p.Class11)
		}
		if peak == 0 {
			return 0
		}
		return value * chartHeight / peak
	},
}

// Templates parses the page templates for gin's HTML renderer.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html"))
}
