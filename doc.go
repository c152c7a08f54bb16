/*
Package pangea renders DApp user interfaces for a host runtime.

A DApp describes its UI as components returning element trees. Pangea turns
those trees into the JSON shape the host understands, registers every
function prop with the host in exchange for an integer handle, and keeps
long-lived modals in sync with the host as their state changes.

# Messages and modals

Messages are rendered once and delivered to a callback:

	sdk, err := pangea.New(host)
	...
	err = sdk.RenderMessage(ctx, sentMoney, domain.Props{"amount": "3 ETH"}, func(tree *domain.Tree) {
		// attach tree to the chat message
	})

Modals are sessions. Every state change re-renders the component; the new
tree is pushed only if it differs from the one the host last acknowledged,
and never before that acknowledgement arrived:

	props := pangea.ModalProps(sdk.NewModalUIID(), domain.Props{"title": "Send"})
	s, err := sdk.RenderModal(ctx, sendModal, props, func() {
		// the host shows the modal
	})
	...
	s.SetState(domain.State{"amount": 3}, nil)

# Hosts

The host is anything implementing ports.Host. pkg/adapters/memory serves
tests and embedding, pkg/adapters/http bridges a remote host over
Server-Sent Events. Snapshot stores and handle allocators backed by Redis
live in pkg/adapters/redis.
*/
package pangea
