/*
Package domain contains the core domain models of the homeview screen.

It defines the UI-state snapshot driven by action messages, the content records
fetched by the cards query, and the static catalog. This package is kept pure and
free of external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Message: A tagged instruction (OPEN_MENU, CLOSE_MENU, UPDATE_NAME) for the store.
  - ActionState: The immutable snapshot produced by each dispatch.
  - QueryDescriptor: A named collection plus a field projection for the remote query.
  - Card, Course, Logo, Catalog: The records rendered on the home screen.
*/
package domain
