package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"jobwatch-engine/internal/scheduler"
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

// NormalizeAndValidate returns a normalized copy of cfg together with the
// problems found in it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	out.Storage.Driver = strings.ToLower(strings.TrimSpace(out.Storage.Driver))
	out.Polling.Cron = strings.TrimSpace(out.Polling.Cron)

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	switch out.Storage.Driver {
	case DriverYAML, DriverSQLite:
	case "":
		out.Storage.Driver = DriverYAML
	default:
		res.addErr("storage.driver must be %q or %q, got %q", DriverYAML, DriverSQLite, out.Storage.Driver)
	}
	if strings.TrimSpace(out.Storage.Path) == "" {
		res.addErr("storage.path is required")
	}
	if strings.TrimSpace(out.Storage.BackupPath) == "" {
		res.addErr("storage.backup_path is required")
	} else if out.Storage.BackupPath == out.Storage.Path {
		res.addErr("storage.backup_path must differ from storage.path")
	}

	if out.Reconcile.GraceDays < 1 {
		res.addErr("reconcile.grace_days must be >= 1")
	}

	// polling sanity
	if out.Polling.Cron != "" {
		if _, err := scheduler.ParseCron(out.Polling.Cron); err != nil {
			res.addErr("polling.cron %q: %v", out.Polling.Cron, err)
		}
	} else if out.Polling.IntervalSeconds <= 0 {
		res.addErr("polling.interval_seconds must be > 0")
	} else if out.Polling.IntervalSeconds < 60 {
		res.addWarn("polling.interval_seconds is very low (%d) and may get you rate limited.", out.Polling.IntervalSeconds)
	}
	if out.Polling.SourceTimeoutSeconds < 0 {
		res.addErr("polling.source_timeout_seconds must be >= 0")
	}

	if out.Scrape.RequestsPerSecond <= 0 {
		res.addErr("scrape.requests_per_second must be > 0")
	}
	if out.Scrape.Burst <= 0 {
		res.addErr("scrape.burst must be > 0")
	}
	if out.Scrape.MaxPages <= 0 {
		res.addErr("scrape.max_pages must be > 0")
	}

	if t := out.Notify.Telegram; t.Enabled {
		if strings.TrimSpace(t.Token) == "" {
			res.addErr("notify.telegram.token (or TELEGRAM_BOT_TOKEN) is required when telegram is enabled")
		}
		if t.ChatID == 0 {
			res.addErr("notify.telegram.chat_id (or TELEGRAM_CHAT_ID) is required when telegram is enabled")
		}
	}

	if len(out.Sources) == 0 {
		res.addWarn("no sources configured; scraping will find nothing.")
	}
	seen := map[string]bool{}
	out.Sources = append([]Source(nil), out.Sources...)
	for i := range out.Sources {
		s := &out.Sources[i]
		s.Name = strings.TrimSpace(s.Name)
		s.Kind = strings.ToLower(strings.TrimSpace(s.Kind))
		s.Slug = strings.TrimSpace(s.Slug)
		if s.Kind == "" {
			s.Kind = KindHTML
		}
		field := fmt.Sprintf("sources[%d]", i)
		if s.Name == "" {
			res.addErr("%s.name is required", field)
		} else if seen[strings.ToLower(s.Name)] {
			res.addErr("%s.name %q is not unique", field, s.Name)
		}
		seen[strings.ToLower(s.Name)] = true
		validateSource(&res, field, *s)
	}

	return out, res
}

func validateSource(res *Validation, field string, s Source) {
	switch s.Kind {
	case KindHTML:
		if u, err := url.Parse(s.URL); err != nil || u.Scheme == "" || u.Host == "" {
			res.addErr("%s.url must be an absolute URL", field)
		}
		required := map[string]string{
			"next_job_re":  s.NextJobRe,
			"job_url_re":   s.JobURLRe,
			"job_title_re": s.JobTitleRe,
		}
		for _, name := range []string{"next_job_re", "job_url_re", "job_title_re"} {
			if strings.TrimSpace(required[name]) == "" {
				res.addErr("%s.%s is required for html sources", field, name)
			}
		}
		for name, expr := range map[string]string{
			"start_re":       s.StartRe,
			"end_re":         s.EndRe,
			"next_job_re":    s.NextJobRe,
			"job_company_re": s.JobCompanyRe,
			"job_id_re":      s.JobIDRe,
			"job_url_re":     s.JobURLRe,
			"job_title_re":   s.JobTitleRe,
		} {
			if expr == "" {
				continue
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				res.addErr("%s.%s: %v", field, name, err)
				continue
			}
			if name != "start_re" && name != "end_re" && name != "next_job_re" && re.NumSubexp() < 1 {
				res.addErr("%s.%s needs a capture group", field, name)
			}
		}
	case KindGreenhouse, KindLever:
		if s.Slug == "" {
			res.addErr("%s.slug is required for %s sources", field, s.Kind)
		}
		if s.NextPage != "" || s.NextJobRe != "" {
			res.addWarn("%s: html extraction fields are ignored for %s sources", field, s.Kind)
		}
	default:
		res.addErr("%s.kind must be one of html, greenhouse, lever; got %q", field, s.Kind)
	}
}
