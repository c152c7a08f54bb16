/*
Package domain contains the core types of the renderer: the component model
on one side and the host-facing serialized tree on the other.

It is kept free of I/O and of any host or storage concern.

# Key Entities

  - Component: Anything with a Render(props, state) step.
  - Node: A render tree entry (Element, Text, Number, Bool, Fragment or nil).
  - Tree: The JSON-only projection sent to the host.
  - Container: Supplies the UI identifier a modal is addressed by.
  - Handle: The integer a host assigns to a registered function prop.
*/
package domain
