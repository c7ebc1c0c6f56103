package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/flowloom/engine/internal/engineerr"
	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

// dateTimeHandler implements the dateTime kind (spec §4.3). Parsing tries a
// fixed chain of formats; month/year arithmetic is intentionally
// approximated as 30/365 days (spec §9 Design Notes) for compatibility.
type dateTimeHandler struct{}

func (dateTimeHandler) Kind() string { return "dateTime" }

const (
	dayDuration   = 24 * time.Hour
	monthDuration = 30 * dayDuration
	yearDuration  = 365 * dayDuration
)

func (h dateTimeHandler) Execute(ectx EngineContext, node types.Node, input value.Value) (value.Value, error) {
	valueTemplate, ok := configString(node.Config, "value")
	if !ok {
		return value.Null(), engineerr.MissingField("value")
	}
	raw := value.Interpolate(valueTemplate, input)

	t, err := parseDateTime(raw)
	if err != nil {
		return value.Null(), engineerr.Config("unparseable date value " + raw)
	}

	action := configStringDefault(node.Config, "action", "format")
	switch action {
	case "format", "formatDate":
		return h.format(node, t), nil
	case "calculate", "addToDate":
		return h.calculate(node, t, 1), nil
	case "subtractFromDate":
		return h.calculate(node, t, -1), nil
	case "extractDate":
		return h.extract(t), nil
	default:
		return value.Null(), engineerr.Config("unsupported dateTime action " + action)
	}
}

func parseDateTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05", raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if len(raw) >= 13 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Time{}, engineerr.Config("no matching date format")
}

func (dateTimeHandler) format(node types.Node, t time.Time) value.Value {
	layout := configStringDefault(node.Config, "format", time.RFC3339)
	layout = goLayoutFromTokens(layout)

	out := value.NewObject()
	out.Set("formatted", value.String(t.Format(layout)))
	return out
}

// goLayoutFromTokens maps the n8n-style strftime tokens used in most
// workflow-builder dateTime configs onto Go's reference-time layout. Any
// token already a valid Go layout (callers passing time.RFC3339 etc.)
// passes through untouched since it contains no recognised tokens.
func goLayoutFromTokens(layout string) string {
	replacer := []struct{ from, to string }{
		{"YYYY", "2006"},
		{"MM", "01"},
		{"DD", "02"},
		{"HH", "15"},
		{"mm", "04"},
		{"ss", "05"},
	}
	out := layout
	for _, r := range replacer {
		out = strings.ReplaceAll(out, r.from, r.to)
	}
	return out
}

func (dateTimeHandler) calculate(node types.Node, t time.Time, sign int) value.Value {
	amount := sign * int(configNumber(node.Config, "amount", 0))
	unit := configStringDefault(node.Config, "unit", "days")

	var result time.Time
	switch unit {
	case "seconds":
		result = t.Add(time.Duration(amount) * time.Second)
	case "minutes":
		result = t.Add(time.Duration(amount) * time.Minute)
	case "hours":
		result = t.Add(time.Duration(amount) * time.Hour)
	case "days":
		result = t.Add(time.Duration(amount) * dayDuration)
	case "weeks":
		result = t.Add(time.Duration(amount) * 7 * dayDuration)
	case "months":
		result = t.Add(time.Duration(amount) * monthDuration)
	case "years":
		result = t.Add(time.Duration(amount) * yearDuration)
	default:
		result = t
	}

	out := value.NewObject()
	out.Set("result", value.String(result.Format(time.RFC3339)))
	return out
}

func (dateTimeHandler) extract(t time.Time) value.Value {
	out := value.NewObject()
	out.Set("year", value.Number(float64(t.Year())))
	out.Set("month", value.Number(float64(t.Month())))
	out.Set("day", value.Number(float64(t.Day())))
	out.Set("hour", value.Number(float64(t.Hour())))
	out.Set("minute", value.Number(float64(t.Minute())))
	out.Set("second", value.Number(float64(t.Second())))
	return out
}
