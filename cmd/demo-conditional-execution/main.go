// Command demo-conditional-execution is a worked, in-process example of
// the engine's if/switch port-routing (spec §4.3/§4.5, scenario S2): no
// HTTP server, no external capabilities, just a Driver running a handful
// of small graphs and printing which branch fired.
package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/flowloom/engine/internal/config"
	"github.com/flowloom/engine/internal/driver"
	"github.com/flowloom/engine/internal/handler"
	"github.com/flowloom/engine/internal/logging"
	"github.com/flowloom/engine/internal/observer"
	"github.com/flowloom/engine/internal/storage"
	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

func main() {
	fmt.Println("=================================================")
	fmt.Println("Conditional Execution Demo")
	fmt.Println("=================================================")
	fmt.Println()

	demoAgeBasedRouting()
	demoSwitchRouting()
	demoNestedConditions()
}

func newDriver() *driver.Driver {
	reg := handler.NewDefaultRegistry()
	store := storage.NewMemoryStore()
	return driver.New(reg, handler.Capabilities{Store: store}, config.Default(), store, observer.NewManager(), nil, logging.New(logging.DefaultConfig()))
}

func run(wf types.Workflow) (*types.ExecutionRecord, error) {
	d := newDriver()
	return d.Run(context.Background(), uuid.NewString(), wf, nil)
}

func ageCheckWorkflow() types.Workflow {
	trigger := types.Node{ID: "user_age", Kind: "trigger-start"}
	ageCheck := types.Node{ID: "age_check", Kind: "if", Config: ifConfig("{{ $input.age }}", "18", "number", "gte")}
	profileAPI := types.Node{ID: "profile_api", Kind: "tool", Config: textConfig("adult profile fetched")}
	sportsAPI := types.Node{ID: "sports_api", Kind: "tool", Config: textConfig("adult sports registration")}
	educationAPI := types.Node{ID: "education_api", Kind: "tool", Config: textConfig("minor education registration")}

	return types.Workflow{
		ID:   "age-based-routing",
		Name: "Age-Based API Routing",
		Nodes: []types.Node{trigger, ageCheck, profileAPI, sportsAPI, educationAPI},
		Edges: []types.Edge{
			{From: "user_age", To: "age_check"},
			{From: "age_check", To: "profile_api", FromPort: "true"},
			{From: "profile_api", To: "sports_api"},
			{From: "age_check", To: "education_api", FromPort: "false"},
		},
	}
}

func demoAgeBasedRouting() {
	fmt.Println("DEMO 1: Age-Based API Routing")
	fmt.Println("----------------------------------")
	fmt.Println("Scenario: If age >= 18, call profile API -> sports API")
	fmt.Println("          If age < 18, call education API")
	fmt.Println()

	for _, age := range []float64{25, 15} {
		fmt.Printf("Testing with age = %.0f:\n", age)

		wf := ageCheckWorkflow()
		record, err := runWithTriggerInput(wf, "user_age", map[string]value.Value{"age": value.Number(age)})
		if err != nil {
			fmt.Printf("  execution error: %v\n", err)
			continue
		}
		printResults(record)
		fmt.Println()
	}
}

func demoSwitchRouting() {
	fmt.Println("DEMO 2: Switch-Based HTTP Status Routing")
	fmt.Println("-----------------------------------------")
	fmt.Println("Scenario: route on an HTTP status code via switch rules")
	fmt.Println()

	trigger := types.Node{ID: "status_in", Kind: "trigger-start"}
	sw := types.Node{
		ID:   "status_switch",
		Kind: "switch",
		Config: rulesSwitchConfig([]ruleSpec{
			{left: "{{ $input.status }}", right: "200", kind: "number", op: "equals"},
			{left: "{{ $input.status }}", right: "404", kind: "number", op: "equals"},
			{left: "{{ $input.status }}", right: "500", kind: "number", op: "equals"},
		}),
	}
	ok := types.Node{ID: "ok_path", Kind: "tool", Config: textConfig("handled 200 OK")}
	notFound := types.Node{ID: "not_found_path", Kind: "tool", Config: textConfig("handled 404 Not Found")}
	serverErr := types.Node{ID: "server_error_path", Kind: "tool", Config: textConfig("handled 500 Server Error")}
	fallback := types.Node{ID: "fallback_path", Kind: "tool", Config: textConfig("handled unknown status")}

	wf := types.Workflow{
		ID:    "switch-routing",
		Name:  "Switch-Based HTTP Status Routing",
		Nodes: []types.Node{trigger, sw, ok, notFound, serverErr, fallback},
		Edges: []types.Edge{
			{From: "status_in", To: "status_switch"},
			{From: "status_switch", To: "ok_path", FromPort: "0"},
			{From: "status_switch", To: "not_found_path", FromPort: "1"},
			{From: "status_switch", To: "server_error_path", FromPort: "2"},
			{From: "status_switch", To: "fallback_path", FromPort: "fallback"},
		},
	}

	for _, status := range []float64{200, 404, 500, 301} {
		fmt.Printf("Testing with status = %.0f:\n", status)
		record, err := runWithTriggerInput(wf, "status_in", map[string]value.Value{"status": value.Number(status)})
		if err != nil {
			fmt.Printf("  execution error: %v\n", err)
			continue
		}
		printResults(record)
		fmt.Println()
	}
}

func demoNestedConditions() {
	fmt.Println("DEMO 3: Nested Conditions")
	fmt.Println("------------------------------------")
	fmt.Println("Scenario: Age >= 18 AND country == 'US' -> special_offer")
	fmt.Println("          Age >= 18 AND country != 'US' -> standard_offer")
	fmt.Println("          Age < 18 -> parental_consent")
	fmt.Println()

	trigger := types.Node{ID: "user_in", Kind: "trigger-start"}
	ageCheck := types.Node{ID: "age_check", Kind: "if", Config: ifConfig("{{ $input.age }}", "18", "number", "gte")}
	countryCheck := types.Node{ID: "country_check", Kind: "if", Config: ifConfig("{{ $input.country }}", "US", "string", "equals")}
	special := types.Node{ID: "special_offer", Kind: "tool", Config: textConfig("US special offer applied")}
	standard := types.Node{ID: "standard_offer", Kind: "tool", Config: textConfig("Standard offer applied")}
	consent := types.Node{ID: "parental_consent", Kind: "tool", Config: textConfig("Parental consent required")}

	wf := types.Workflow{
		ID:    "nested-conditions",
		Name:  "Nested Conditions",
		Nodes: []types.Node{trigger, ageCheck, countryCheck, special, standard, consent},
		Edges: []types.Edge{
			{From: "user_in", To: "age_check"},
			{From: "age_check", To: "country_check", FromPort: "true"},
			{From: "country_check", To: "special_offer", FromPort: "true"},
			{From: "country_check", To: "standard_offer", FromPort: "false"},
			{From: "age_check", To: "parental_consent", FromPort: "false"},
		},
	}

	type testCase struct {
		age     float64
		country string
	}
	for _, tc := range []testCase{{25, "US"}, {25, "UK"}, {15, "US"}} {
		fmt.Printf("Testing with age = %.0f, country = %s:\n", tc.age, tc.country)
		record, err := runWithTriggerInput(wf, "user_in", map[string]value.Value{
			"age":     value.Number(tc.age),
			"country": value.String(tc.country),
		})
		if err != nil {
			fmt.Printf("  execution error: %v\n", err)
			continue
		}
		printResults(record)
		fmt.Println()
	}
}

// runWithTriggerInput runs wf after repointing triggerID at chat-trigger so
// it seeds fields as its output (spec §4.3: trigger-start ignores its own
// input, chat-trigger returns config.initialInput verbatim).
func runWithTriggerInput(wf types.Workflow, triggerID string, fields map[string]value.Value) (*types.ExecutionRecord, error) {
	for i := range wf.Nodes {
		if wf.Nodes[i].ID == triggerID {
			wf.Nodes[i].Kind = "chat-trigger"
			initial := value.NewObject()
			for k, v := range fields {
				initial.Set(k, v)
			}
			cfg := value.NewObject()
			cfg.Set("initialInput", initial)
			wf.Nodes[i].Config = cfg
		}
	}
	return run(wf)
}

func printResults(record *types.ExecutionRecord) {
	fmt.Println("  Result:")
	for _, r := range record.Results {
		if r.Output == nil {
			continue
		}
		out := *r.Output
		if out.IsObject() {
			if text, ok := out.Get("text"); ok && text.IsString() {
				fmt.Printf("    %s: %s\n", r.NodeID, text.Str())
			}
		}
	}
}

type ruleSpec struct {
	left, right, kind, op string
}

func ifConfig(left, right, kind, op string) value.Value {
	cfg := value.NewObject()
	cfg.Set("combinator", value.String("and"))
	cfg.Set("conditions", value.Array(conditionValue(left, right, kind, op)))
	return cfg
}

func conditionValue(left, right, kind, op string) value.Value {
	operator := value.NewObject()
	operator.Set("type", value.String(kind))
	operator.Set("operation", value.String(op))

	cond := value.NewObject()
	cond.Set("leftValue", value.String(left))
	cond.Set("rightValue", value.String(right))
	cond.Set("operator", operator)
	return cond
}

func rulesSwitchConfig(rules []ruleSpec) value.Value {
	cfg := value.NewObject()
	cfg.Set("mode", value.String("rules"))
	items := make([]value.Value, 0, len(rules))
	for _, r := range rules {
		rule := value.NewObject()
		rule.Set("combinator", value.String("and"))
		rule.Set("conditions", value.Array(conditionValue(r.left, r.right, r.kind, r.op)))
		items = append(items, rule)
	}
	cfg.Set("rules", value.Array(items...))
	return cfg
}

func textConfig(text string) value.Value {
	cfg := value.NewObject()
	cfg.Set("text", value.String(text))
	return cfg
}
