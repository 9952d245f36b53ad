package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus collected problems.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Availability.SoldMarkers = trimList(out.Availability.SoldMarkers)
	out.Email.To = trimList(out.Email.To)

	// ---- Validation rules ----

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	if out.Discovery.IntervalSeconds <= 0 {
		res.addErr("discovery.interval_seconds must be > 0")
	} else if out.Discovery.IntervalSeconds < 300 {
		res.addWarn("discovery.interval_seconds is very low (%d); sources may rate-limit or block you.", out.Discovery.IntervalSeconds)
	}
	if out.Discovery.MaxMarkupBytes < 0 {
		res.addErr("discovery.max_markup_bytes must be >= 0")
	}

	if out.Availability.IntervalSeconds <= 0 {
		res.addErr("availability.interval_seconds must be > 0")
	}
	if out.Availability.OffsetSeconds < 0 {
		res.addErr("availability.offset_seconds must be >= 0")
	}
	if len(out.Availability.SoldMarkers) == 0 {
		res.addWarn("availability.sold_markers is empty; only 404/410 responses will mark listings sold.")
	}

	if out.Oracle.ConfidenceThreshold < 0 || out.Oracle.ConfidenceThreshold > 1 {
		res.addErr("oracle.confidence_threshold must be in [0,1]")
	}
	if strings.TrimSpace(out.Oracle.Model) == "" {
		res.addWarn("oracle.model is empty; the extraction library default will be used.")
	}

	if out.Email.Enabled {
		if strings.TrimSpace(out.Email.SMTPHost) == "" {
			res.addErr("email.smtp_host is required when email.enabled=true")
		}
		if out.Email.SMTPPort == 0 {
			res.addErr("email.smtp_port is required when email.enabled=true")
		}
		if strings.TrimSpace(out.Email.From) == "" {
			res.addErr("email.from is required when email.enabled=true")
		}
		if len(out.Email.To) == 0 {
			res.addErr("email.to must have at least one recipient when email.enabled=true")
		}
	}

	return out, res
}
