package logger

// Chain formatting internals for tests.
var (
	CollectChain = collectChain
	FormatChain  = formatChain
)
