package config

// ScenarioFileExtensions are all recognized scenario file extensions
var ScenarioFileExtensions = []string{".yaml", ".yml"}

// IsTestMode indicates if the program is running in test mode.
// When set, generated variable names print as "t?" for stable output.
var IsTestMode = false

// Lang items naming the callable traits, ordered from the least to the most
// restrictive receiver capture (by shared reference, by mutable reference,
// by value).
const (
	FnLangItem     = "fn"
	FnMutLangItem  = "fn_mut"
	FnOnceLangItem = "fn_once"
)

// CallableLangItems lists the callable trait lang items in capture order.
var CallableLangItems = []string{FnLangItem, FnMutLangItem, FnOnceLangItem}

// Built-in associated type names
const (
	FnOutputAssocName = "Output"
)

// Built-in scope names
const (
	CoreScopeName = "core"
	StdScopeName  = "std"
)
