package dsl

import (
	"testing"

	"github.com/aretw0/pangea/pkg/domain"
)

func TestBuilder_SentMoney(t *testing.T) {
	open := func() {}

	el := View().
		Child(Text("Amount: 3 ETH")).
		Child(New("Button").Prop("url", "https://etherscan.io").On("onEvent", open).Text("Go to etherscan").Build()).
		Build()

	if el.Type != "View" {
		t.Fatalf("Expected type 'View', got '%s'", el.Type)
	}
	if len(el.Children) != 2 {
		t.Fatalf("Expected 2 children, got %d", len(el.Children))
	}

	text, ok := el.Children[0].(*domain.Element)
	if !ok || text.Type != "Text" {
		t.Fatalf("Expected Text element, got %#v", el.Children[0])
	}
	if text.Children[0] != domain.Text("Amount: 3 ETH") {
		t.Errorf("Unexpected text content: %#v", text.Children)
	}

	button := el.Children[1].(*domain.Element)
	if button.Props["url"] != "https://etherscan.io" {
		t.Errorf("Expected url prop, got %v", button.Props["url"])
	}
	if _, ok := button.Props["onEvent"].(func()); !ok {
		t.Errorf("Expected onEvent to hold the handler, got %T", button.Props["onEvent"])
	}
}

func TestBuilder_When(t *testing.T) {
	el := View().
		When(true, Text("shown")).
		When(false, Text("hidden")).
		Number(3).
		Build()

	if len(el.Children) != 3 {
		t.Fatalf("Expected 3 children, got %d", len(el.Children))
	}
	if el.Children[1] != domain.Bool(false) {
		t.Errorf("Expected false condition to add an empty child, got %#v", el.Children[1])
	}
	if el.Children[2] != domain.Number(3) {
		t.Errorf("Expected number child, got %#v", el.Children[2])
	}
}

func TestBuilder_Props(t *testing.T) {
	el := New("Input").Props(domain.Props{"placeholder": "0x", "disabled": true}).Prop("placeholder", "address").Build()

	if el.Props["placeholder"] != "address" {
		t.Errorf("Expected later prop to win, got %v", el.Props["placeholder"])
	}
	if el.Props["disabled"] != true {
		t.Errorf("Expected disabled prop, got %v", el.Props["disabled"])
	}
}
