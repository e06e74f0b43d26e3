package config

import (
	"fmt"
	"net/url"
	"strings"

	"offersearch-engine/internal/domain"
	"offersearch-engine/internal/scrape"
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

// NormalizeAndValidate returns a normalized copy plus what is wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs scrape.Candidates) scrape.Candidates {
		seen := map[string]bool{}
		var ys scrape.Candidates
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" || seen[x] {
				continue
			}
			seen[x] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Remote.BaseURL = strings.TrimRight(strings.TrimSpace(out.Remote.BaseURL), "/")
	out.State.Backend = strings.ToLower(strings.TrimSpace(out.State.Backend))
	out.Log.Level = strings.ToLower(strings.TrimSpace(out.Log.Level))

	// Normalize selector lists; order is kept, only blanks and repeats go.
	if len(out.Sources) > 0 {
		norm := make(map[string]SourceConfig, len(out.Sources))
		for name, sc := range out.Sources {
			s := sc.Selectors
			s.Container = trimList(s.Container)
			s.Link = trimList(s.Link)
			s.Title = trimList(s.Title)
			s.Company = trimList(s.Company)
			s.Location = trimList(s.Location)
			s.Date = trimList(s.Date)
			s.Description = trimList(s.Description)
			sc.Selectors = s
			norm[strings.ToLower(strings.TrimSpace(name))] = sc
		}
		out.Sources = norm
	}

	// ---- Validation rules ----

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}
	if strings.TrimSpace(out.App.DataDir) == "" {
		res.addErr("app.data_dir is required")
	}

	if out.Remote.BaseURL == "" {
		res.addWarn("remote.base_url is empty; search and stats will always be served from the local cache.")
	} else if u, err := url.Parse(out.Remote.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		res.addErr("remote.base_url must be an absolute http(s) URL, got %q", out.Remote.BaseURL)
	}
	if out.Remote.TimeoutSeconds <= 0 {
		res.addErr("remote.timeout_seconds must be > 0")
	} else if out.Remote.TimeoutSeconds > 120 {
		res.addWarn("remote.timeout_seconds is very high (%d); degraded answers will be slow to arrive.", out.Remote.TimeoutSeconds)
	}

	switch out.State.Backend {
	case "sqlite":
	case "redis":
		if strings.TrimSpace(out.State.RedisAddr) == "" {
			res.addErr("state.redis_addr is required when state.backend=redis")
		}
	default:
		res.addErr("state.backend must be sqlite or redis, got %q", out.State.Backend)
	}

	switch out.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		res.addWarn("log.level %q is unknown; info is used.", out.Log.Level)
	}

	if out.Fetch.RequestsPerSecond <= 0 {
		res.addErr("fetch.requests_per_second must be > 0")
	} else if out.Fetch.RequestsPerSecond > 2 {
		res.addWarn("fetch.requests_per_second is high (%.2f) and may get you blocked.", out.Fetch.RequestsPerSecond)
	}
	if out.Fetch.Burst < 1 {
		res.addWarn("fetch.burst below 1 is treated as 1.")
	}

	anyEnabled := false
	for name, sc := range out.Sources {
		if _, err := domain.ParseSource(name); err != nil {
			res.addErr("sources.%s is not a known source", name)
			continue
		}
		if sc.IsEnabled() {
			anyEnabled = true
		}
	}
	if len(out.Sources) > 0 && !anyEnabled {
		res.addWarn("every configured source is disabled; nothing can be scraped.")
	}

	return out, res
}
