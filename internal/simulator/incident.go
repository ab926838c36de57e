package simulator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"

	"github.com/rotem-industrial/pump-pdm/domain/core"
	"github.com/rotem-industrial/pump-pdm/domain/telemetry"
	"github.com/rotem-industrial/pump-pdm/domain/verdict"
)

// Incident summarizes one shutdown event for the Markdown report,
// standing in for plot_monitoring.py's plotting (explicitly out of
// scope) without implementing plotting itself.
type Incident struct {
	ID         core.IncidentID
	PumpID     core.PumpID
	At         time.Time
	TripCause  verdict.TripCause
	Reason     string
	SensorMean telemetry.Sample // real sensor means at shutdown, never zeros
	Health     float64
	CooldownTicks int
}

// WriteReport renders incident as Markdown and HTML under dir, named by
// its incident ID, and returns the Markdown file path.
func WriteReport(dir string, inc Incident) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create incident report directory: %w", err)
	}

	md := renderMarkdown(inc)
	base := filepath.Join(dir, fmt.Sprintf("incident_%s", inc.ID.String()))
	mdPath := base + ".md"
	if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
		return "", fmt.Errorf("write incident markdown: %w", err)
	}

	html := markdown.ToHTML([]byte(md), nil, nil)
	if err := os.WriteFile(base+".html", html, 0o644); err != nil {
		return "", fmt.Errorf("write incident html: %w", err)
	}
	return mdPath, nil
}

func renderMarkdown(inc Incident) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Shutdown incident %s\n\n", inc.ID.String())
	fmt.Fprintf(&b, "- **Pump**: %s\n", inc.PumpID.String())
	fmt.Fprintf(&b, "- **Time**: %s\n", inc.At.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- **Trip cause**: %s\n", inc.TripCause)
	fmt.Fprintf(&b, "- **Reason**: %s\n", inc.Reason)
	fmt.Fprintf(&b, "- **Health at shutdown**: %.3f\n\n", inc.Health)
	b.WriteString("## Sensor means at shutdown\n\n")
	b.WriteString("| Channel | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Vibration RMS (mm/s) | %.3f |\n", inc.SensorMean.VibRMS)
	fmt.Fprintf(&b, "| Crest factor | %.3f |\n", inc.SensorMean.VibCrest)
	fmt.Fprintf(&b, "| Kurtosis | %.3f |\n", inc.SensorMean.VibKurtosis)
	fmt.Fprintf(&b, "| Current (A) | %.3f |\n", inc.SensorMean.Current)
	fmt.Fprintf(&b, "| Pressure (bar) | %.3f |\n", inc.SensorMean.Pressure)
	fmt.Fprintf(&b, "| Temperature (C) | %.3f |\n", inc.SensorMean.Temp)
	if inc.CooldownTicks > 0 {
		fmt.Fprintf(&b, "\nCooldown: %d ticks before restart.\n", inc.CooldownTicks)
	}
	return b.String()
}

// MeanSample reduces a window to its per-channel arithmetic means, for
// the "real sensor means, never zeros" incident-report requirement.
func MeanSample(window []telemetry.Sample) telemetry.Sample {
	if len(window) == 0 {
		return telemetry.Sample{}
	}
	var out telemetry.Sample
	for _, s := range window {
		out.VibRMS += s.VibRMS
		out.VibCrest += s.VibCrest
		out.VibKurtosis += s.VibKurtosis
		out.Current += s.Current
		out.Pressure += s.Pressure
		out.Temp += s.Temp
		out.CavitationIndex += s.CavitationIndex
	}
	n := float64(len(window))
	out.VibRMS /= n
	out.VibCrest /= n
	out.VibKurtosis /= n
	out.Current /= n
	out.Pressure /= n
	out.Temp /= n
	out.CavitationIndex /= n
	return out
}
