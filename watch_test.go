package statesync

import (
	"errors"
	"testing"
)

func TestStoreWatchFiresOnExpressionChange(t *testing.T) {
	store := NewStore()
	var values []any
	unsubscribe, err := store.Watch(NewExprEvaluator(), "len(selectedIngredients) > 2", func(value any) {
		values = append(values, value)
	})
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer unsubscribe()

	store.SetField(FieldSelectedIngredients, []string{"Gin"})
	store.SetField(FieldSelectedIngredients, []string{"Gin", "Lime"})
	store.SetField(FieldSelectedIngredients, []string{"Gin", "Lime", "Mint"})

	if len(values) != 1 {
		t.Fatalf("expected one transition, got %v", values)
	}
	if values[0] != true {
		t.Fatalf("expected true, got %v", values[0])
	}
}

func TestStoreWatchUnsubscribe(t *testing.T) {
	store := NewStore()
	calls := 0
	unsubscribe, err := store.Watch(NewExprEvaluator(), "selectedVibe", func(any) {
		calls++
	})
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	store.SetField(FieldSelectedVibe, "Party")
	unsubscribe()
	store.SetField(FieldSelectedVibe, "Cozy")

	if calls != 1 {
		t.Fatalf("expected no calls after unsubscribe, got %d", calls)
	}
}

func TestStoreWatchRequiresEvaluator(t *testing.T) {
	store := NewStore()
	if _, err := store.Watch(nil, "selectedVibe", func(any) {}); !errors.Is(err, ErrNoEvaluator) {
		t.Fatalf("expected ErrNoEvaluator, got %v", err)
	}
}

func TestStoreWatchRejectsEmptyExpression(t *testing.T) {
	store := NewStore()
	if _, err := store.Watch(NewExprEvaluator(), "", func(any) {}); err == nil {
		t.Fatalf("expected error for empty expression")
	}
}

func TestStoreWatchCompileErrorSurfaces(t *testing.T) {
	store := NewStore()
	_, err := store.Watch(NewExprEvaluator(), "selectedVibe ==", func(any) {})
	if err == nil {
		t.Fatalf("expected compile error")
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T %v", err, err)
	}
	if evalErr.Engine != "expr" {
		t.Fatalf("expected expr engine, got %q", evalErr.Engine)
	}
}

func TestStoreEvaluateExpression(t *testing.T) {
	store := NewStore()
	store.SetField(FieldSelectedVibe, "Party")

	value, err := store.EvaluateExpression(NewExprEvaluator(), `selectedVibe + "!"`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if value != "Party!" {
		t.Fatalf("expected Party!, got %v", value)
	}
}

func TestStoreEvaluateExpressionLogsOutcome(t *testing.T) {
	var events []SyncLogEvent
	store := NewStore(WithStoreLogger(SyncLoggerFunc(func(event SyncLogEvent) {
		events = append(events, event)
	})))

	if _, err := store.EvaluateExpression(NewExprEvaluator(), "currentView"); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(events) != 1 || events[0].Op != OpWatch || events[0].Err != nil {
		t.Fatalf("expected one successful watch event, got %+v", events)
	}
}
