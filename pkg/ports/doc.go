/*
Package ports defines the driven ports (interfaces) of the renderer.

These interfaces decouple the rendering core from the host runtime and from
storage, so the same sessions can run against an in-memory host in tests, an
HTTP bridge, or an embedding application.

# Key Interfaces

  - FunctionRegistry: Assigns integer handles to function-valued props.
  - ModalRenderer: Receives serialized modal trees and acknowledges them.
  - Host: Both of the above; the narrow surface a host runtime implements.
  - SnapshotStore: Persists the last tree delivered per UI identifier.
  - HandleAllocator: Source of unique handle numbers for registries.
*/
package ports
