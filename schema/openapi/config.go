package openapi

import "strings"

// EntityPlaceholder in an operation path is replaced by the stack name.
const EntityPlaceholder = "{entity}"

type generatorConfig struct {
	openAPIVersion string
	title          string
	version        string
	description    string

	path        string
	method      string
	operationID string
	summary     string
	contentType string
	responses   map[string]string

	rootComponent string
	frontendOnly  bool
	readOperation bool
}

func defaultGeneratorConfig() generatorConfig {
	return generatorConfig{
		openAPIVersion: "3.0.3",
		title:          "Controls Settings",
		version:        "1.0.0",
		path:           "/settings",
		method:         "put",
		contentType:    "application/json",
		responses:      map[string]string{"204": "Settings saved"},
	}
}

// GeneratorOption configures the OpenAPI generator.
type GeneratorOption func(*generatorConfig)

// WithOpenAPIVersion overrides the document version string (default 3.0.3).
func WithOpenAPIVersion(version string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if version != "" {
			cfg.openAPIVersion = version
		}
	}
}

// WithInfo sets the info block. Empty title or version keep the defaults.
func WithInfo(title, version, description string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if title != "" {
			cfg.title = title
		}
		if version != "" {
			cfg.version = version
		}
		cfg.description = description
	}
}

// WithOperation sets the path, method and operationId of the write
// operation. EntityPlaceholder in path is replaced by the stack name. Empty
// inputs keep the defaults.
func WithOperation(path, method, operationID string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if path != "" {
			cfg.path = path
		}
		if method != "" {
			cfg.method = strings.ToLower(method)
		}
		if operationID != "" {
			cfg.operationID = operationID
		}
	}
}

// WithSummary attaches a summary to the write operation.
func WithSummary(summary string) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.summary = strings.TrimSpace(summary)
	}
}

// WithContentType sets the request body media type.
func WithContentType(contentType string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if contentType != "" {
			cfg.contentType = contentType
		}
	}
}

// WithResponse adds or replaces the response documented for status.
func WithResponse(status, description string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if status == "" {
			return
		}
		if cfg.responses == nil {
			cfg.responses = map[string]string{}
		}
		cfg.responses[status] = description
	}
}

// WithRootComponent names the settings component. The default is the stack
// name in PascalCase followed by "Settings".
func WithRootComponent(name string) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.rootComponent = name
	}
}

// WithFrontendOnly limits the schema to controls flagged
// frontend_available, the settings a page script can read.
func WithFrontendOnly() GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.frontendOnly = true
	}
}

// WithReadOperation documents a GET on the same path returning the
// settings.
func WithReadOperation() GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.readOperation = true
	}
}
