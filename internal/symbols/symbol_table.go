// symbols/symbol_table.go - Trait table entry point
//
// The trait table is split into focused modules:
// - symbol_table_core.go: Core types, TraitTable struct, constructors
// - symbol_table_init.go: Prelude initialization from config
// - symbol_table_traits.go: Trait and associated type declarations
// - symbol_table_resolution.go: Scopes, lang items and path resolution
// - callable_cache.go: Memoized callable trait sets shared across passes

package symbols
