// Package config loads the recall configuration from a TOML file.
//
// Every section maps onto the configuration of one component. Keys missing
// from the file keep the component defaults, so an empty file is a valid
// configuration:
//
//	[storage]
//	path = "/var/lib/recall"
//
//	[ai]
//	provider = "openai"
//	embedding_host = "http://localhost:11434/v1"
//	embedding_model = "embeddinggemma"
//
//	[search]
//	embed_timeout = "30s"
//	collapse_by_document = true
package config
