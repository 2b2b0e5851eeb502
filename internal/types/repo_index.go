package types

// IndexFile is the on-disk YAML form of a package repository. Apt and Pip
// hold bare version lists and are expanded into packages on load.
type IndexFile struct {
	Name     string              `yaml:"name,omitempty"`
	Packages []Package           `yaml:"packages,omitempty"`
	Apt      map[string][]string `yaml:"apt,omitempty"`
	Pip      map[string][]string `yaml:"pip,omitempty"`
}
