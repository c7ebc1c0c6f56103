package handler

import (
	"testing"
	"time"

	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

func dtConfig(value_, action, unit string, amount float64) value.Value {
	cfg := value.NewObject()
	cfg.Set("value", value.String(value_))
	if action != "" {
		cfg.Set("action", value.String(action))
	}
	if unit != "" {
		cfg.Set("unit", value.String(unit))
	}
	if amount != 0 {
		cfg.Set("amount", value.Number(amount))
	}
	return cfg
}

func TestDateTimeHandler_ParsesRFC3339AndFormats(t *testing.T) {
	h := dateTimeHandler{}
	cfg := dtConfig("2024-03-15T10:30:00Z", "format", "", 0)
	out, err := h.Execute(ectx(), types.Node{Kind: "dateTime", Config: cfg}, value.NewObject())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	formatted, _ := out.Get("formatted")
	if formatted.Str() != "2024-03-15T10:30:00Z" {
		t.Fatalf("expected passthrough RFC3339 formatting, got %v", out.JSON())
	}
}

func TestDateTimeHandler_ParsesDateOnlyAndUnixSeconds(t *testing.T) {
	h := dateTimeHandler{}

	cfg := dtConfig("2024-01-01", "extractDate", "", 0)
	out, err := h.Execute(ectx(), types.Node{Kind: "dateTime", Config: cfg}, value.NewObject())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	year, _ := out.Get("year")
	if year.Number() != 2024 {
		t.Fatalf("expected year 2024, got %v", out.JSON())
	}

	unixCfg := dtConfig("1704067200", "extractDate", "", 0)
	out2, err := h.Execute(ectx(), types.Node{Kind: "dateTime", Config: unixCfg}, value.NewObject())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	year2, _ := out2.Get("year")
	if year2.Number() != 2024 {
		t.Fatalf("expected unix-seconds epoch to parse to 2024, got %v", out2.JSON())
	}
}

func TestDateTimeHandler_CalculateAddsDuration(t *testing.T) {
	h := dateTimeHandler{}
	cfg := dtConfig("2024-01-01T00:00:00Z", "calculate", "days", 5)
	out, err := h.Execute(ectx(), types.Node{Kind: "dateTime", Config: cfg}, value.NewObject())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, _ := out.Get("result")
	want := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
	if result.Str() != want {
		t.Fatalf("expected %s, got %v", want, out.JSON())
	}
}

func TestDateTimeHandler_SubtractFromDate(t *testing.T) {
	h := dateTimeHandler{}
	cfg := dtConfig("2024-01-10T00:00:00Z", "subtractFromDate", "days", 3)
	out, err := h.Execute(ectx(), types.Node{Kind: "dateTime", Config: cfg}, value.NewObject())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, _ := out.Get("result")
	want := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
	if result.Str() != want {
		t.Fatalf("expected %s, got %v", want, out.JSON())
	}
}

func TestDateTimeHandler_MonthAndYearAreApproximated(t *testing.T) {
	h := dateTimeHandler{}
	cfg := dtConfig("2024-01-01T00:00:00Z", "calculate", "months", 1)
	out, err := h.Execute(ectx(), types.Node{Kind: "dateTime", Config: cfg}, value.NewObject())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, _ := out.Get("result")
	want := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
	if result.Str() != want {
		t.Fatalf("expected 30-day month approximation %s, got %v", want, out.JSON())
	}
}

func TestDateTimeHandler_MissingValue(t *testing.T) {
	h := dateTimeHandler{}
	_, err := h.Execute(ectx(), types.Node{Kind: "dateTime", Config: value.NewObject()}, value.NewObject())
	if err == nil {
		t.Fatal("expected MissingField error for value")
	}
}

func TestDateTimeHandler_UnparseableValue(t *testing.T) {
	h := dateTimeHandler{}
	cfg := dtConfig("not-a-date", "format", "", 0)
	_, err := h.Execute(ectx(), types.Node{Kind: "dateTime", Config: cfg}, value.NewObject())
	if err == nil {
		t.Fatal("expected error for unparseable date")
	}
}

func TestDateTimeHandler_FormatTokenTranslation(t *testing.T) {
	h := dateTimeHandler{}
	cfg := dtConfig("2024-03-15T10:30:00Z", "format", "", 0)
	cfg.Set("format", value.String("YYYY/MM/DD HH:mm:ss"))
	out, err := h.Execute(ectx(), types.Node{Kind: "dateTime", Config: cfg}, value.NewObject())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	formatted, _ := out.Get("formatted")
	if formatted.Str() != "2024/03/15 10:30:00" {
		t.Fatalf("expected token-translated format, got %v", out.JSON())
	}
}
