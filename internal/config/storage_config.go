package config

// StorageConfig defines configuration for the website store file
type StorageConfig struct {
	WebsitesFile    string `json:"websites_file,omitempty" yaml:"websites_file,omitempty" validate:"required"`
	CreateIfMissing bool   `json:"create_if_missing" yaml:"create_if_missing"`
}

// NewDefaultStorageConfig creates default storage configuration
func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		WebsitesFile:    DefaultStorageWebsitesFile,
		CreateIfMissing: false,
	}
}
