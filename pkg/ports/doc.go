/*
Package ports defines the driven ports (interfaces) for the homeview screen.

These interfaces decouple the store and the query binding from external
implementations, allowing the screen to work with various content services,
persistence backends, and catalog sources.

# Key Interfaces

  - QueryExecutor: Runs a QueryDescriptor against the remote content service.
  - ProfileFetcher: Retrieves the demo profile (photo and name) shown in the title bar.
  - SnapshotStore: Persists ActionState snapshots between runs.
  - CatalogLoader: Loads the static logos and courses (e.g., from YAML or Loam).
  - DistributedLocker: Coordinates snapshot writes across replicas sharing a store.
*/
package ports
