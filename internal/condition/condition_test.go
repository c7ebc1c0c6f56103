package condition

import "testing"

func TestEvaluate_Combinators(t *testing.T) {
	tests := []struct {
		name string
		g    Group
		want bool
	}{
		{"and empty is true", Group{Combinator: "and"}, true},
		{"or empty is false", Group{Combinator: "or"}, false},
		{
			name: "and all true",
			g: Group{
				Combinator: "and",
				Conditions: []Condition{
					{LeftValue: "5", RightValue: "3", Operator: Operator{"number", "gt"}},
					{LeftValue: "abc", RightValue: "a", Operator: Operator{"string", "startsWith"}},
				},
			},
			want: true,
		},
		{
			name: "and one false",
			g: Group{
				Combinator: "and",
				Conditions: []Condition{
					{LeftValue: "5", RightValue: "3", Operator: Operator{"number", "gt"}},
					{LeftValue: "abc", RightValue: "z", Operator: Operator{"string", "startsWith"}},
				},
			},
			want: false,
		},
		{
			name: "or one true",
			g: Group{
				Combinator: "or",
				Conditions: []Condition{
					{LeftValue: "5", RightValue: "30", Operator: Operator{"number", "gt"}},
					{LeftValue: "abc", RightValue: "a", Operator: Operator{"string", "startsWith"}},
				},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.g); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_StringCaseInsensitiveByDefault(t *testing.T) {
	g := Group{
		Combinator: "and",
		IgnoreCase: true,
		Conditions: []Condition{
			{LeftValue: "HELLO", RightValue: "hello", Operator: Operator{"string", "equals"}},
		},
	}
	if !Evaluate(g) {
		t.Errorf("Evaluate() = false, want true for case-insensitive match")
	}
}

func TestEvaluate_UnknownTypeIsFalse(t *testing.T) {
	g := Group{
		Conditions: []Condition{
			{LeftValue: "a", RightValue: "a", Operator: Operator{"mystery", "equals"}},
		},
	}
	if Evaluate(g) {
		t.Errorf("Evaluate() = true, want false for unknown type")
	}
}

func TestEvaluate_NumberOperators(t *testing.T) {
	tests := []struct {
		op   string
		l, r string
		want bool
	}{
		{"gt", "10", "5", true},
		{"gte", "5", "5", true},
		{"lt", "3", "5", true},
		{"lte", "5", "5", true},
		{"eq", "5", "5", true},
		{"ne", "5", "6", true},
		{"larger", "10", "5", true},
		{"smallerEqual", "4", "5", true},
	}
	for _, tt := range tests {
		g := Group{Conditions: []Condition{{LeftValue: tt.l, RightValue: tt.r, Operator: Operator{"number", tt.op}}}}
		if got := Evaluate(g); got != tt.want {
			t.Errorf("Evaluate(%s, %s, %s) = %v, want %v", tt.op, tt.l, tt.r, got, tt.want)
		}
	}
}

func TestEvaluate_BooleanOperators(t *testing.T) {
	g := Group{Conditions: []Condition{{LeftValue: "true", Operator: Operator{"boolean", "true"}}}}
	if !Evaluate(g) {
		t.Errorf("Evaluate() = false, want true")
	}
	g = Group{Conditions: []Condition{{LeftValue: "false", Operator: Operator{"boolean", "false"}}}}
	if !Evaluate(g) {
		t.Errorf("Evaluate() = false, want true")
	}
}
