/*
Package render converts component render trees into the plain trees a host consumes.

A Serializer walks the nodes produced by a component's Render step and emits
domain.Tree values: the root carries only props and children, every element
below it also carries its type. Function-valued props are replaced by handles
obtained from the injected ports.FunctionRegistry, fresh on every pass.

Messages are rendered once with RenderMessage. Modal sessions (package modal)
reuse RenderTree and Encode on every state change.
*/
package render
