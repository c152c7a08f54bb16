/*
Package dsl builds component trees without writing domain literals by hand.

The fluent ElementBuilder covers Go code:

	tree := dsl.View().
		Child(dsl.Text("Amount: 3 ETH")).
		Child(dsl.Button("Go to etherscan", openTx)).
		Build()

Documents cover declarative trees kept in YAML files. A Document is parsed
and validated once, then bound to the Go functions its "on" entries name:

	doc, err := dsl.LoadFile("sent-money.yaml")
	...
	component, err := doc.Bind(map[string]any{"open": openTx})

The bound component renders like any other domain.Component, as a message
or as a modal.
*/
package dsl
