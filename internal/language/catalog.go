package language

// catalog is the set of language ids offered when no scope list is configured.
var catalog = []string{
	"bat", "bibtex", "c", "clojure", "coffeescript", "cpp", "csharp", "css",
	"cuda-cpp", "dart", "diff", "dockercompose", "dockerfile", "elixir", "erlang",
	"fsharp", "git-commit", "git-rebase", "go", "graphql", "groovy", "haml",
	"handlebars", "haskell", "hlsl", "html", "ini", "jade", "java", "javascript",
	"javascriptreact", "json", "jsonc", "julia", "kotlin", "latex", "less", "lua",
	"makefile", "markdown", "objective-c", "objective-cpp", "ocaml", "perl",
	"php", "plaintext", "powershell", "properties", "python", "r", "razor",
	"ruby", "rust", "sass", "scss", "shaderlab", "shellscript", "sql", "svelte",
	"svg", "swift", "terraform", "tex", "toml", "typescript", "typescriptreact",
	"vb", "vue", "vue-html", "xml", "xsl", "yaml", "zig",
}

// Catalog returns the built-in language ids.
func Catalog() []string {
	return append([]string(nil), catalog...)
}

// Known reports whether id is in the built-in catalog.
func Known(id string) bool {
	for _, lang := range catalog {
		if lang == id {
			return true
		}
	}
	return false
}
